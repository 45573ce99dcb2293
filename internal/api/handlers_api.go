package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/lox/inspectform/internal/export"
	"github.com/lox/inspectform/internal/form"
	"github.com/lox/inspectform/internal/models"
	"github.com/lox/inspectform/internal/sheet"
)

const maxBodyBytes = 1 << 20

type valueRequest struct {
	Value string `json:"value"`
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

func (s *Server) handleAPIState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Get())
}

func (s *Server) handleAPIHeader(w http.ResponseWriter, r *http.Request) {
	field, ok := models.ParseHeaderField(r.PathValue("field"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown header field")
		return
	}
	var req valueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.session.SetHeader(field, req.Value)
	writeJSON(w, http.StatusOK, s.session.Get())
}

func (s *Server) handleAPISection(w http.ResponseWriter, r *http.Request) {
	stage, field, ok := parseStageField(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown stage or field")
		return
	}
	var req valueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.session.SetSection(stage, field, req.Value)
	writeJSON(w, http.StatusOK, s.session.Get())
}

func (s *Server) handleAPIPoint(w http.ResponseWriter, r *http.Request) {
	stage, field, ok := parseStageField(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown stage or field")
		return
	}
	var req valueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := s.session.SetPoint(stage, r.PathValue("point"), field, req.Value)
	switch {
	case errors.Is(err, form.ErrNotPointStage):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, form.ErrUnknownPoint):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.session.Get())
}

func (s *Server) handleAPIVisibility(w http.ResponseWriter, r *http.Request) {
	stage, field, ok := parseStageField(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown stage or field")
		return
	}
	var req visibilityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.session.SetVisibility(stage, field, req.Visible)
	writeJSON(w, http.StatusOK, s.session.Get())
}

func (s *Server) handleAPINote(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.session.SetNote(req.Value)
	writeJSON(w, http.StatusOK, s.session.Get())
}

func (s *Server) handleAPIRows(w http.ResponseWriter, r *http.Request) {
	state, ok := s.stateFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sheet.Strings(sheet.Rows(state)))
}

func (s *Server) handleAPIReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reset(confirmed(r)); err != nil {
		writeError(w, http.StatusBadRequest, "reset requires confirm=true")
		return
	}
	writeJSON(w, http.StatusOK, s.session.Get())
}

func (s *Server) handleAPIArchiveList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"dates": s.session.Dates()})
}

func (s *Server) handleAPIArchiveGet(w http.ResponseWriter, r *http.Request) {
	state, ok := s.session.Archived(r.PathValue("date"))
	if !ok {
		writeError(w, http.StatusNotFound, "no archive entry for date")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAPIArchiveLoad(w http.ResponseWriter, r *http.Request) {
	if !s.session.LoadArchived(r.PathValue("date")) {
		writeError(w, http.StatusNotFound, "no archive entry for date")
		return
	}
	writeJSON(w, http.StatusOK, s.session.Get())
}

func (s *Server) handleAPIArchiveDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeleteArchived(r.PathValue("date"), confirmed(r)); err != nil {
		writeError(w, http.StatusBadRequest, "delete requires confirm=true")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"dates": s.session.Dates()})
}

func (s *Server) handleAPIExport(w http.ResponseWriter, r *http.Request) {
	if s.sink == nil {
		writeError(w, http.StatusServiceUnavailable, "no export sink configured")
		return
	}
	state, ok := s.stateFor(w, r)
	if !ok {
		return
	}
	res, err := export.Deliver(r.Context(), s.sink, s.store, state)
	if err != nil {
		s.log.Error().Err(err).Msg("export")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.log.Info().Str("file", res.Filename).Str("location", res.Location).Msg("exported")
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAPIExports(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	records, err := s.store.ListExports(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleAPIExportPayload serves a previously exported workbook from the
// export history.
func (s *Server) handleAPIExportPayload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid export id")
		return
	}
	rec, data, err := s.store.GetExportPayload(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no export with that id")
		return
	}
	writeWorkbook(w, rec.Filename, data)
}

// stateFor returns the current state, or the archived snapshot named by the
// date query parameter.
func (s *Server) stateFor(w http.ResponseWriter, r *http.Request) (models.FormState, bool) {
	if !r.URL.Query().Has("date") {
		return s.session.Get(), true
	}
	state, ok := s.session.Archived(r.URL.Query().Get("date"))
	if !ok {
		writeError(w, http.StatusNotFound, "no archive entry for date")
		return models.FormState{}, false
	}
	return state, true
}

func parseStageField(r *http.Request) (models.Stage, models.Field, bool) {
	stage, ok := models.ParseStage(r.PathValue("stage"))
	if !ok {
		return 0, 0, false
	}
	field, ok := models.ParseField(r.PathValue("field"))
	if !ok {
		return 0, 0, false
	}
	return stage, field, true
}
