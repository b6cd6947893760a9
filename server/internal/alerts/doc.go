// Package alerts implements the rule evaluation engine and webhook delivery
// for barocast alerting. Rules are evaluated against every accepted station
// report; webhooks are delivered to Teams, Slack or generic HTTP targets.
package alerts
