package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// deliver notifies every configured webhook about a state change of a.
// Failures are logged and never reach the report path.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var payload interface{}
		switch wh.Type {
		case "slack":
			payload = slackPayload(a)
		case "teams":
			payload = teamsPayload(a)
		case "http":
			payload = httpPayload(a)
		default:
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err := e.post(url, payload); err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"station", a.StationID,
				"err", err,
			)
			continue
		}
		slog.Debug("alerts: webhook delivered",
			"type", wh.Type,
			"rule", a.RuleName,
			"station", a.StationID,
			"state", a.State,
		)
	}
}

// fact is one labelled station value shown in a notification.
type fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// stationFacts lists the station readings carried by a, in display order.
func stationFacts(a *Alert) []fact {
	r := a.Reading
	station := a.StationID
	if r.StationName != "" {
		station = fmt.Sprintf("%s (%s)", r.StationName, a.StationID)
	}
	facts := []fact{
		{"Station", station},
		{"Forecast", forecastText(r)},
		{"Trend", fmt.Sprintf("%+.3f kPa/h", r.TrendRate)},
		{"Pressure", fmt.Sprintf("%.1f hPa", r.PressureHPa)},
	}
	if r.Temperature != nil {
		facts = append(facts, fact{"Temperature", fmt.Sprintf("%.1f °%s", *r.Temperature, r.Unit)})
	}
	return facts
}

func forecastText(r StationReading) string {
	if r.Description == "" {
		return r.Forecast
	}
	return fmt.Sprintf("%s: %s", r.Forecast, r.Description)
}

// headline is the one-line summary used as Slack text and Teams title.
func headline(a *Alert) string {
	return fmt.Sprintf("%s %s %s on %s: %s",
		severityLabel(a.Severity), stateLabel(a.State), a.RuleName, a.StationID, a.Reading.Forecast)
}

// slackPayload renders a as an incoming-webhook message with one attachment
// whose fields carry the station readings.
func slackPayload(a *Alert) map[string]interface{} {
	facts := stationFacts(a)
	fields := make([]map[string]interface{}, 0, len(facts))
	for _, f := range facts {
		fields = append(fields, map[string]interface{}{
			"title": f.Name,
			"value": f.Value,
			"short": f.Name != "Forecast",
		})
	}
	return map[string]interface{}{
		"text": "*" + headline(a) + "*",
		"attachments": []map[string]interface{}{{
			"color":  "#" + severityColor(a.Severity, a.State),
			"text":   a.Message,
			"fields": fields,
			"ts":     a.FiredAt.Unix(),
		}},
	}
}

// teamsPayload renders a as a MessageCard with the readings as facts.
func teamsPayload(a *Alert) map[string]interface{} {
	return map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity, a.State),
		"summary":    fmt.Sprintf("%s on %s", a.RuleName, a.StationID),
		"title":      "barocast: " + headline(a),
		"sections": []map[string]interface{}{{
			"activityTitle": a.Message,
			"facts":         stationFacts(a),
		}},
	}
}

// httpPayload is the generic JSON body: an event name plus the full alert.
func httpPayload(a *Alert) map[string]interface{} {
	return map[string]interface{}{
		"event": "alert." + a.State,
		"alert": a,
	}
}

func (e *Engine) post(url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func stateLabel(s string) string {
	if s == "resolved" {
		return "RESOLVED"
	}
	return "FIRING"
}

// severityColor is the hex accent for a notification. Resolved alerts are
// always green.
func severityColor(sev, state string) string {
	if state == "resolved" {
		return "2EB67D"
	}
	switch sev {
	case "critical":
		return "E01E5A"
	case "warning":
		return "ECB22E"
	default:
		return "36C5F0"
	}
}
