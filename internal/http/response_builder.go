package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HX-Trigger event names the dashboard page listens for.
const (
	EventSelectionChanged  = "selection:changed"
	EventSelectionRejected = "selection:rejected"
	EventDashboardRefresh  = "dashboard:refresh"
)

// HTMXResponseBuilder assembles a response with HX-Trigger events. Header
// and trigger values are applied in Write, so calls may come in any order.
type HTMXResponseBuilder struct {
	status   int
	header   http.Header
	triggers map[string]any
	body     []byte
}

// NewHTMXResponse returns a builder for a 200 response.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:   http.StatusOK,
		header:   make(http.Header),
		triggers: make(map[string]any),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger adds an event to HX-Trigger. Repeating a name replaces its data.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerSelectionChanged describes the view the response carries.
func (b *HTMXResponseBuilder) TriggerSelectionChanged(version uint64, size int, all bool) *HTMXResponseBuilder {
	return b.Trigger(EventSelectionChanged, map[string]any{
		"version": version,
		"size":    size,
		"all":     all,
	})
}

// TriggerSelectionRejected reports a selection change that was not applied.
func (b *HTMXResponseBuilder) TriggerSelectionRejected(reason string) *HTMXResponseBuilder {
	return b.Trigger(EventSelectionRejected, map[string]any{"reason": reason})
}

// TriggerDashboardRefresh asks listening elements to reload the dashboard.
func (b *HTMXResponseBuilder) TriggerDashboardRefresh() *HTMXResponseBuilder {
	return b.Trigger(EventDashboardRefresh, struct{}{})
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

func (b *HTMXResponseBuilder) ContentType(value string) *HTMXResponseBuilder {
	return b.Header("Content-Type", value)
}

func (b *HTMXResponseBuilder) CacheControl(value string) *HTMXResponseBuilder {
	return b.Header("Cache-Control", value)
}

// Body sets a raw body. Pair it with ContentType.
func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.body = []byte(html)
	return b.ContentType("text/html; charset=utf-8")
}

// BodyJSON sets the body to the JSON encoding of v. An encoding failure
// turns the response into a 500.
func (b *HTMXResponseBuilder) BodyJSON(v any) *HTMXResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.status = http.StatusInternalServerError
		b.body = []byte(`{"error":"encoding failed"}`)
		return b.ContentType("application/json")
	}
	b.body = data
	return b.ContentType("application/json")
}

// Write sends the response.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	h := w.Header()
	for name, values := range b.header {
		h[name] = values
	}
	if len(b.triggers) > 0 {
		if data, err := json.Marshal(b.triggers); err == nil {
			h.Set("HX-Trigger", string(data))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

type errorJSON struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// ErrorResponse builds an error as JSON for API clients and as an escaped
// HTML fragment otherwise.
func ErrorResponse(r *http.Request, status int, message string) *HTMXResponseBuilder {
	b := NewHTMXResponse().Status(status)
	if r != nil && wantsJSON(r) {
		return b.BodyJSON(errorJSON{Error: message, Status: status})
	}
	return b.BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(r *http.Request, message string) *HTMXResponseBuilder {
	return ErrorResponse(r, http.StatusBadRequest, message)
}

func UnprocessableEntityError(r *http.Request, message string) *HTMXResponseBuilder {
	return ErrorResponse(r, http.StatusUnprocessableEntity, message)
}

func InternalServerError(r *http.Request, message string) *HTMXResponseBuilder {
	return ErrorResponse(r, http.StatusInternalServerError, message)
}

func NotFoundError(r *http.Request, message string) *HTMXResponseBuilder {
	return ErrorResponse(r, http.StatusNotFound, message)
}

// MethodNotAllowedError is a bodiless 405 listing the allowed methods.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
