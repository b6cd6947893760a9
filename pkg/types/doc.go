// Package types defines the wire types shared by the agent and the server.
// A Report is what the agent ships for one station tick; the server stores
// it, evaluates alert rules against it and serves it back to the UI.
package types
