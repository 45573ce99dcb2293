package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/lox/inspectform/internal/export"
	"github.com/lox/inspectform/internal/metrics"
	"github.com/lox/inspectform/internal/sheet"
)

type HealthStatus struct {
	Status       string `json:"status"`
	ArchiveDates int    `json:"archiveDates"`
	ActiveDate   string `json:"activeDate"`
	Error        string `json:"error,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := newIndexData(s.session.Get(), s.session.Dates())
	data.ExportEnabled = s.sink != nil
	s.render(w, "index.html", data)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	state, ok := s.stateFor(w, r)
	if !ok {
		return
	}
	s.render(w, "preview.html", PreviewData{
		Facility: state.Header.Facility,
		Date:     state.Header.Date,
		Table:    export.RenderTable(sheet.Rows(state)),
	})
}

// handlePreviewPartial serves only the preview table, for the modal on the
// form page.
func (s *Server) handlePreviewPartial(w http.ResponseWriter, r *http.Request) {
	state, ok := s.stateFor(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(export.RenderTable(sheet.Rows(state))))
}

func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state, ok := s.stateFor(w, r)
	if !ok {
		return
	}

	data, err := export.Workbook(sheet.Rows(state))
	if err != nil {
		metrics.ExportsTotal.WithLabelValues("xlsx:download", "error").Inc()
		s.log.Error().Err(err).Msg("build workbook")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ExportsTotal.WithLabelValues("xlsx:download", "ok").Inc()
	metrics.ExportLatency.WithLabelValues("xlsx:download").Observe(time.Since(start).Seconds())

	writeWorkbook(w, export.Filename(state.Header.Date), data)
}

func writeWorkbook(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusInternalServerError, HealthStatus{Status: "error", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:       "ok",
		ArchiveDates: len(s.session.Dates()),
		ActiveDate:   s.session.Get().Header.Date,
	})
}

// render executes into a buffer so a template error never leaves a half
// written page.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error().Err(err).Str("template", name).Msg("render")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
