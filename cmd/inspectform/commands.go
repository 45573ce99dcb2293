package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/lox/inspectform/internal/api"
	"github.com/lox/inspectform/internal/export"
	"github.com/lox/inspectform/internal/form"
	"github.com/lox/inspectform/internal/models"
	"github.com/lox/inspectform/internal/sheet"
	"github.com/lox/inspectform/internal/sink"
)

type ServeCmd struct {
	Port     string `help:"HTTP server port." default:"8080" env:"PORT"`
	NoExport bool   `help:"Disable delivery to the export sink."`

	SinkFlags `embed:""`
}

func (c *ServeCmd) Run(app *App) error {
	var sk sink.Sink
	if !c.NoExport {
		var err error
		if sk, err = c.SinkFlags.Open(app.Ctx); err != nil {
			return fmt.Errorf("open sink: %w", err)
		}
		log.Info().Str("sink", string(sk.Driver())).Msg("export sink ready")
	}
	return api.NewServer(app.Session, app.Store, sk, c.Port).Run(app.Ctx)
}

type ExportCmd struct {
	Date string `help:"Export the archived snapshot for this date instead of the current form."`
	Out  string `short:"o" help:"Write the workbook to this path instead of the sink. Use - for stdout."`

	SinkFlags `embed:""`
}

func (c *ExportCmd) Run(app *App) error {
	state, err := stateFor(app, c.Date)
	if err != nil {
		return err
	}

	if c.Out != "" {
		data, err := export.Workbook(sheet.Rows(state))
		if err != nil {
			return err
		}
		if c.Out == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(c.Out, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", c.Out, err)
		}
		if _, err := app.Store.RecordExport(state.Header.Date, export.Filename(state.Header.Date), c.Out, data); err != nil {
			log.Warn().Err(err).Msg("record export")
		}
		fmt.Println(c.Out)
		return nil
	}

	sk, err := c.SinkFlags.Open(app.Ctx)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	res, err := export.Deliver(app.Ctx, sk, app.Store, state)
	if err != nil {
		return err
	}
	fmt.Println(res.Location)
	return nil
}

type PreviewCmd struct {
	Date   string `help:"Preview the archived snapshot for this date instead of the current form."`
	Format string `help:"Output format." default:"text" enum:"text,html"`
}

func (c *PreviewCmd) Run(app *App) error {
	state, err := stateFor(app, c.Date)
	if err != nil {
		return err
	}
	rows := sheet.Rows(state)
	if c.Format == "html" {
		fmt.Println(export.RenderTable(rows))
		return nil
	}
	fmt.Println(export.PlainText(rows))
	return nil
}

type DatesCmd struct{}

func (c *DatesCmd) Run(app *App) error {
	for _, d := range app.Session.Dates() {
		if d == "" {
			d = "(no date)"
		}
		fmt.Println(d)
	}
	return nil
}

type ResetCmd struct {
	Yes bool `short:"y" help:"Confirm clearing the current form."`
}

func (c *ResetCmd) Run(app *App) error {
	if err := app.Session.Reset(c.Yes); err != nil {
		return confirmErr(err)
	}
	return nil
}

type DeleteCmd struct {
	Date string `arg:"" help:"Inspection date to delete."`
	Yes  bool   `short:"y" help:"Confirm the deletion."`
}

func (c *DeleteCmd) Run(app *App) error {
	if err := app.Session.DeleteArchived(c.Date, c.Yes); err != nil {
		return confirmErr(err)
	}
	return nil
}

type SetCmd struct {
	Header  SetHeaderCmd  `cmd:"" help:"Set a header field."`
	Section SetSectionCmd `cmd:"" help:"Set a stage reading."`
	Point   SetPointCmd   `cmd:"" help:"Set a measurement point reading."`
	Note    SetNoteCmd    `cmd:"" help:"Set the free-text note."`
	Visible SetVisibleCmd `cmd:"" help:"Show or hide a stage field."`
}

type SetHeaderCmd struct {
	Field string `arg:"" help:"Header field key, e.g. date or airTemp."`
	Value string `arg:"" optional:"" help:"Value to store. Put -- before negative numbers, e.g. -- -3.5."`
}

func (c *SetHeaderCmd) Run(app *App) error {
	f, ok := models.ParseHeaderField(c.Field)
	if !ok {
		return fmt.Errorf("unknown header field %q", c.Field)
	}
	app.Session.SetHeader(f, c.Value)
	return nil
}

type SetSectionCmd struct {
	Stage string `arg:"" help:"Stage key: influent, aerobicUpper, aerobicLower or effluent."`
	Field string `arg:"" help:"Field key, e.g. ph."`
	Value string `arg:"" optional:"" help:"Value to store. Put -- before negative numbers, e.g. -- -3.5."`
}

func (c *SetSectionCmd) Run(app *App) error {
	st, f, err := parseStageField(c.Stage, c.Field)
	if err != nil {
		return err
	}
	app.Session.SetSection(st, f, c.Value)
	return nil
}

type SetPointCmd struct {
	Stage string `arg:""`
	Point string `arg:"" help:"Point label, e.g. NO.1-1."`
	Field string `arg:""`
	Value string `arg:"" optional:"" help:"Value to store. Put -- before negative numbers, e.g. -- -3.5."`
}

func (c *SetPointCmd) Run(app *App) error {
	st, f, err := parseStageField(c.Stage, c.Field)
	if err != nil {
		return err
	}
	return app.Session.SetPoint(st, c.Point, f, c.Value)
}

type SetNoteCmd struct {
	Value string `arg:"" optional:""`
}

func (c *SetNoteCmd) Run(app *App) error {
	app.Session.SetNote(c.Value)
	return nil
}

type SetVisibleCmd struct {
	Stage  string `arg:""`
	Field  string `arg:""`
	Hidden bool   `help:"Hide the field instead of showing it."`
}

func (c *SetVisibleCmd) Run(app *App) error {
	st, f, err := parseStageField(c.Stage, c.Field)
	if err != nil {
		return err
	}
	app.Session.SetVisibility(st, f, !c.Hidden)
	return nil
}

func stateFor(app *App, date string) (models.FormState, error) {
	if date == "" {
		return app.Session.Get(), nil
	}
	state, ok := app.Session.Archived(date)
	if !ok {
		return models.FormState{}, fmt.Errorf("no archived inspection for %s", date)
	}
	return state, nil
}

func parseStageField(stage, field string) (models.Stage, models.Field, error) {
	st, ok := models.ParseStage(stage)
	if !ok {
		return 0, 0, fmt.Errorf("unknown stage %q", stage)
	}
	f, ok := models.ParseField(field)
	if !ok {
		return 0, 0, fmt.Errorf("unknown field %q", field)
	}
	return st, f, nil
}

func confirmErr(err error) error {
	if errors.Is(err, form.ErrNotConfirmed) {
		return fmt.Errorf("%w: pass --yes to confirm", err)
	}
	return err
}
