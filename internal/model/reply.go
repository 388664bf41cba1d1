package model

// ContextUpdate activates a named dialog context for Lifespan turns.
// A zero lifespan deactivates it.
type ContextUpdate struct {
	Name     string `json:"name"`
	Lifespan int    `json:"lifespan"`
}

// Reply is the result of one conversation turn. Handlers always produce a
// Reply, never a Go error; Code carries the error class when the turn failed.
type Reply struct {
	Text     string          `json:"text"`
	Code     string          `json:"code,omitempty"`
	Contexts []ContextUpdate `json:"contexts,omitempty"`
}

// Say builds a successful reply.
func Say(text string) Reply {
	return Reply{Text: text}
}

// Fail builds a reply for the given error code.
func Fail(code, text string) Reply {
	return Reply{Text: text, Code: code}
}

// OK reports whether the turn succeeded.
func (r Reply) OK() bool {
	return r.Code == ""
}

// WithContext appends a context update and returns the reply.
func (r Reply) WithContext(name string, lifespan int) Reply {
	r.Contexts = append(r.Contexts, ContextUpdate{Name: name, Lifespan: lifespan})
	return r
}

// FromError converts a data access error to a reply. Timeouts ask the user to
// retry; everything else becomes a generic failure message.
func FromError(err error, fallback string) Reply {
	if apiErr, ok := AsAPIError(err); ok && apiErr.Code == CodeTimeout {
		return Fail(CodeTimeout, "Our store is taking too long to respond. Please try again in a moment.")
	}
	if apiErr, ok := AsAPIError(err); ok && apiErr.Code == CodeRateLimited {
		return Fail(CodeRateLimited, "We're receiving too many requests right now. Please try again shortly.")
	}
	return Fail(CodePersistence, fallback)
}
