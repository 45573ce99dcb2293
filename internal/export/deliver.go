package export

import (
	"context"
	"fmt"
	"time"

	"github.com/lox/inspectform/internal/logger"
	"github.com/lox/inspectform/internal/metrics"
	"github.com/lox/inspectform/internal/models"
	"github.com/lox/inspectform/internal/sheet"
	"github.com/lox/inspectform/internal/sink"
)

// Recorder keeps a history of delivered workbooks.
type Recorder interface {
	RecordExport(date, filename, destination string, payload []byte) (int64, error)
}

type Result struct {
	Filename string `json:"filename"`
	Location string `json:"location"`
	RecordID int64  `json:"recordId,omitempty"`
	Size     int    `json:"size"`
}

// Deliver renders state as a workbook and puts it to sk. A failure to record
// the export history is logged and does not fail the delivery. rec may be nil.
func Deliver(ctx context.Context, sk sink.Sink, rec Recorder, state models.FormState) (Result, error) {
	start := time.Now()
	format := "xlsx:" + string(sk.Driver())

	data, err := Workbook(sheet.Rows(state))
	if err != nil {
		metrics.ExportsTotal.WithLabelValues(format, "error").Inc()
		return Result{}, err
	}

	name := Filename(state.Header.Date)
	loc, err := sk.Put(ctx, name, data)
	if err != nil {
		metrics.ExportsTotal.WithLabelValues(format, "error").Inc()
		return Result{}, fmt.Errorf("deliver %s: %w", name, err)
	}
	metrics.ExportsTotal.WithLabelValues(format, "ok").Inc()
	metrics.ExportLatency.WithLabelValues(format).Observe(time.Since(start).Seconds())

	res := Result{Filename: name, Location: loc, Size: len(data)}
	if rec != nil {
		id, err := rec.RecordExport(state.Header.Date, name, loc, data)
		if err != nil {
			log := logger.Get("export")
			log.Warn().Err(err).Str("file", name).Msg("record export")
		}
		res.RecordID = id
	}
	return res, nil
}
