// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/campusevents/internal/app/system/httpjson"
	"github.com/dalemusser/campusevents/internal/app/system/inputval"
	"github.com/dalemusser/campusevents/internal/app/system/requestlog"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrorLogger writes JSON error responses and logs the ones that need a trace.
// Handlers hold one and call it instead of writing error bodies themselves.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	f := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestlog.ID(r.Context())),
	}
	if err != nil {
		f = append(f, zap.Error(err))
	}
	return f
}

// LogServerError logs msg with err and responds 500 with userMsg.
// The internal error text never reaches the client.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Error(msg, e.fields(r, err)...)
	if userMsg == "" {
		userMsg = "Something went wrong. Please try again."
	}
	httpjson.Error(w, http.StatusInternalServerError, userMsg)
}

// LogBadRequest logs at warn and responds 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Warn(msg, e.fields(r, err)...)
	httpjson.Error(w, http.StatusBadRequest, userMsg)
}

// BadRequest responds 400 without logging.
func (e *ErrorLogger) BadRequest(w http.ResponseWriter, msg string) {
	httpjson.Error(w, http.StatusBadRequest, msg)
}

// Invalid responds 400 with the first message and every field error.
func (e *ErrorLogger) Invalid(w http.ResponseWriter, res inputval.Result) {
	httpjson.Write(w, http.StatusBadRequest, httpjson.ErrorBody{Error: res.First(), Fields: res.Errors})
}

// Unauthorized responds 401.
func (e *ErrorLogger) Unauthorized(w http.ResponseWriter, msg string) {
	httpjson.Error(w, http.StatusUnauthorized, msg)
}

// Forbidden responds 403.
func (e *ErrorLogger) Forbidden(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "You do not have permission to do that."
	}
	httpjson.Error(w, http.StatusForbidden, msg)
}

// NotFound responds 404.
func (e *ErrorLogger) NotFound(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "Not found."
	}
	httpjson.Error(w, http.StatusNotFound, msg)
}

// Conflict responds 409.
func (e *ErrorLogger) Conflict(w http.ResponseWriter, msg string) {
	httpjson.Error(w, http.StatusConflict, msg)
}

// TooManyRequests responds 429.
func (e *ErrorLogger) TooManyRequests(w http.ResponseWriter, msg string) {
	httpjson.Error(w, http.StatusTooManyRequests, msg)
}

// Decode reads the JSON body into dst and, on a client error, responds 400
// and returns false. Server-side read failures respond 500.
func (e *ErrorLogger) Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpjson.Decode(w, r, dst); err != nil {
		if de, ok := err.(*httpjson.DecodeError); ok {
			e.BadRequest(w, de.Msg)
			return false
		}
		e.LogServerError(w, r, "read request body failed", err, "")
		return false
	}
	return true
}

// DecodeValid decodes and validates in one step.
func (e *ErrorLogger) DecodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !e.Decode(w, r, dst) {
		return false
	}
	if res := inputval.Validate(dst); res.HasErrors() {
		e.Invalid(w, res)
		return false
	}
	return true
}

// PathID parses the chi URL param name as an ObjectID. A malformed id cannot
// name an existing record, so it responds 404 and returns false.
func (e *ErrorLogger) PathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		e.NotFound(w, "")
		return primitive.NilObjectID, false
	}
	return id, true
}

// Handler serves the router's fallback responses.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is the router's 404 for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	httpjson.Error(w, http.StatusNotFound, "Route not found.")
}

// MethodNotAllowed is the router's 405.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpjson.Error(w, http.StatusMethodNotAllowed, "Method not allowed.")
}
