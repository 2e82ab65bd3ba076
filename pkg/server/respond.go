package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/lang"
)

type errorBody struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Diagnostics []lang.Diagnostic `json:"diagnostics,omitempty"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorWithDiagnostics(w, r, err, nil)
}

func (s *Server) writeErrorWithDiagnostics(w http.ResponseWriter, r *http.Request, err error, diags []lang.Diagnostic) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", requestIDFrom(r.Context()), "error", err)
		// Internal details stay in the log
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{
		Error:     errorBody{Code: string(code), Message: msg, Diagnostics: diags},
		RequestID: requestIDFrom(r.Context()),
	})
}

func writeArtifact(w http.ResponseWriter, format string, cached bool, data []byte) {
	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "image/svg+xml")
	}
	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// decodeJSON reads a single JSON value from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		case stderrors.Is(err, io.EOF):
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		default:
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
		}
	}
	if dec.More() {
		return errors.New(errors.ErrCodeInvalidInput, "request body must hold a single JSON value")
	}
	return nil
}

func notFound(format string, args ...any) error {
	return errors.New(errors.ErrCodeNotFound, format, args...)
}
