package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/params"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	BaseURL string `json:"base_url"`
	Version string `json:"version,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", BaseURL: s.gen.BaseURL(), Version: s.version})
}

func (s *Server) handleParameters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, params.Help())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	raw, ok := readRaw(w, r)
	if !ok {
		return
	}
	start := time.Now()
	res := s.gen.GenerateRaw(raw)
	s.sink.ToolCall(r.Context(), obslogCall("generate_url", raw, res, res.Success, time.Since(start)))
	if s.history != nil {
		if _, err := s.history.AppendHistory(model.NewHistoryEntry("api", raw, res)); err != nil {
			s.log.Warn("recording history", "error", err)
		}
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	raw, ok := readRaw(w, r)
	if !ok {
		return
	}
	start := time.Now()
	in := params.Inspect(raw)
	s.sink.ToolCall(r.Context(), obslogCall("validate_parameters", raw, in, len(in.Problems) == 0, time.Since(start)))
	writeJSON(w, http.StatusOK, in)
}

// readRaw decodes a size-limited JSON body into params.Raw. Unknown keys
// are ignored so callers may send extra context.
func readRaw(w http.ResponseWriter, r *http.Request) (params.Raw, bool) {
	var raw params.Raw
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		}
		return raw, false
	}
	return raw, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
