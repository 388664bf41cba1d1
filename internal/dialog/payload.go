// Package dialog adapts dialog-platform webhook payloads to the conversation
// services and routes each intent to its handler.
package dialog

import (
	"regexp"
	"strings"

	"orderbot/internal/model"
)

// WebhookRequest is the fulfillment request sent by the dialog platform.
type WebhookRequest struct {
	ResponseID  string      `json:"responseId,omitempty"`
	Session     string      `json:"session"`
	QueryResult QueryResult `json:"queryResult"`
}

type QueryResult struct {
	QueryText      string          `json:"queryText"`
	Intent         Intent          `json:"intent"`
	Parameters     Params          `json:"parameters,omitempty"`
	OutputContexts []OutputContext `json:"outputContexts,omitempty"`
}

type Intent struct {
	DisplayName string `json:"displayName"`
}

// OutputContext is a dialog context. Name is the full resource path
// ("projects/.../sessions/<id>/contexts/<name>").
type OutputContext struct {
	Name          string         `json:"name"`
	LifespanCount int            `json:"lifespanCount"`
	Parameters    map[string]any `json:"parameters,omitempty"`
}

// WebhookResponse is the fulfillment reply.
type WebhookResponse struct {
	FulfillmentText string          `json:"fulfillmentText"`
	OutputContexts  []OutputContext `json:"outputContexts,omitempty"`
}

var sessionPattern = regexp.MustCompile(`sessions/([^/]+)`)

// SessionID extracts the conversation id from the session path, falling back
// to the first output context. It returns "" when neither carries one.
func (r *WebhookRequest) SessionID() string {
	if m := sessionPattern.FindStringSubmatch(r.Session); m != nil {
		return m[1]
	}
	for _, c := range r.QueryResult.OutputContexts {
		if m := sessionPattern.FindStringSubmatch(c.Name); m != nil {
			return m[1]
		}
	}
	return ""
}

// sessionPath returns the path under which contexts of this conversation
// live.
func (r *WebhookRequest) sessionPath() string {
	if sessionPattern.MatchString(r.Session) {
		return strings.TrimSuffix(r.Session, "/")
	}
	for _, c := range r.QueryResult.OutputContexts {
		if i := strings.Index(c.Name, "/contexts/"); i > 0 {
			return c.Name[:i]
		}
	}
	return ""
}

// NewResponse converts a reply to the webhook response for req, expanding
// short context names to full resource paths.
func NewResponse(req *WebhookRequest, reply model.Reply) *WebhookResponse {
	resp := &WebhookResponse{FulfillmentText: reply.Text}
	if len(reply.Contexts) == 0 {
		return resp
	}

	base := req.sessionPath()
	resp.OutputContexts = make([]OutputContext, len(reply.Contexts))
	for i, c := range reply.Contexts {
		name := c.Name
		if base != "" {
			name = base + "/contexts/" + c.Name
		}
		resp.OutputContexts[i] = OutputContext{Name: name, LifespanCount: c.Lifespan}
	}
	return resp
}
