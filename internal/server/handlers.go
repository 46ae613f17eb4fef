package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/pravshot/nhutils/internal/catalog"
	"github.com/pravshot/nhutils/internal/engine"
	"github.com/pravshot/nhutils/internal/logging"
	"github.com/pravshot/nhutils/internal/scrub"
	"github.com/pravshot/nhutils/internal/table"
)

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s, map[string]string{"status": "ok"})
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s, map[string][]string{"years": s.engine.Catalog().SupportedYears()})
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := engine.Request{
		Variables: splitList(q["vars"]),
		Years:     splitList(q["years"]),
		JoinKey:   q.Get("by"),
		JoinMode:  table.JoinMode(q.Get("join")),
	}

	var steps []scrub.Step
	for _, op := range scrub.Ops {
		if cols := splitList(q[string(op)]); len(cols) > 0 {
			steps = append(steps, scrub.Step{Op: op, Columns: canonical(cols)})
		}
	}

	s.mu.Lock()
	out, err := s.engine.Assemble(r.Context(), req)
	s.mu.Unlock()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := scrub.Apply(out, steps...); err != nil {
		s.respondError(w, r, &engine.Error{Code: engine.ErrCodeInvalidRequest, Message: "cannot recode dataset", Err: err})
		return
	}

	// Buffer so an encoding failure can still become an error response.
	var buf bytes.Buffer
	if err := out.WriteCSV(&buf); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="nhanes.csv"`)
	w.Write(buf.Bytes())
}

// respondError logs err and writes it as JSON with a status derived from
// its code.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := engine.CodeOf(err)
	status := statusFor(code)
	if code == "" {
		code = "INTERNAL"
	}

	logging.FromContext(r.Context(), s.logger).Error("request error",
		"path", r.URL.Path,
		"status", status,
		"code", code,
		"error", err,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:     err.Error(),
		Code:      string(code),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func statusFor(code engine.ErrorCode) int {
	switch code {
	case engine.ErrCodeInvalidVariable, engine.ErrCodeInvalidYear, engine.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case engine.ErrCodeRetrievalFailure, engine.ErrCodeDecodeFailure, engine.ErrCodeMissingColumn:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, s *Server, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("json encode error", "error", err)
	}
}

// splitList flattens repeated and comma-separated parameter values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func canonical(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = catalog.CanonicalName(n)
	}
	return out
}
