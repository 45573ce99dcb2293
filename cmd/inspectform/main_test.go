package main

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	_ "modernc.org/sqlite"

	"github.com/lox/inspectform/internal/form"
	"github.com/lox/inspectform/internal/models"
)

func setupApp(t *testing.T) *App {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	app, err := newApp(db)
	if err != nil {
		t.Fatal(err)
	}
	return app
}

func run(t *testing.T, app *App, args ...string) error {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("inspectform"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	if err != nil {
		t.Fatal(err)
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return kctx.Run(app)
}

func TestSetCommands(t *testing.T) {
	app := setupApp(t)

	steps := [][]string{
		{"set", "header", "date", "2024-05-01"},
		{"set", "section", "influent", "ph", "7.0"},
		{"set", "point", "aerobicLower", "NO.2-1", "do", "3.2"},
		{"set", "visible", "effluent", "turbidity", "--hidden"},
		{"set", "note", "ブロワ点検"},
	}
	for _, args := range steps {
		if err := run(t, app, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	st := app.Session.Get()
	if st.Header.Date != "2024-05-01" {
		t.Errorf("header = %+v", st.Header)
	}
	if st.Sections.Influent.PH != "7.0" {
		t.Errorf("influent pH = %q", st.Sections.Influent.PH)
	}
	if st.PointData(models.StageAerobicLower)["NO.2-1"].DO != "3.2" {
		t.Error("point reading not set")
	}
	if st.Visibility.Visible(models.StageEffluent, models.FieldTurbidity) {
		t.Error("effluent turbidity should be hidden")
	}
	if st.Note != "ブロワ点検" {
		t.Errorf("note = %q", st.Note)
	}

	if err := run(t, app, "set", "point", "influent", "NO.1-1", "odor", "x"); !errors.Is(err, form.ErrNotPointStage) {
		t.Errorf("err = %v, want ErrNotPointStage", err)
	}
	if err := run(t, app, "set", "section", "primary", "ph", "1"); err == nil {
		t.Error("expected unknown stage error")
	}
}

func TestSetNegativeValues(t *testing.T) {
	app := setupApp(t)

	steps := [][]string{
		{"set", "header", "airTemp", "--", "-3.5"},
		{"set", "section", "influent", "temperature", "--", "-0.5"},
		{"set", "point", "aerobicUpper", "NO.1-2", "temperature", "--", "-1.2x"},
	}
	for _, args := range steps {
		if err := run(t, app, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	st := app.Session.Get()
	if st.Header.AirTemp != "-3.5" {
		t.Errorf("airTemp = %q, want -3.5", st.Header.AirTemp)
	}
	if st.Sections.Influent.Temperature != "-0.5" {
		t.Errorf("influent temperature = %q, want -0.5", st.Sections.Influent.Temperature)
	}
	if got := st.PointData(models.StageAerobicUpper)["NO.1-2"].Temperature; got != "-1.2" {
		t.Errorf("point temperature = %q, want -1.2", got)
	}
}

func TestResetAndDeleteNeedConfirmation(t *testing.T) {
	app := setupApp(t)
	if err := run(t, app, "set", "header", "date", "2024-05-01"); err != nil {
		t.Fatal(err)
	}

	if err := run(t, app, "reset"); !errors.Is(err, form.ErrNotConfirmed) {
		t.Errorf("reset err = %v, want ErrNotConfirmed", err)
	}
	if err := run(t, app, "delete", "2024-05-01"); !errors.Is(err, form.ErrNotConfirmed) {
		t.Errorf("delete err = %v, want ErrNotConfirmed", err)
	}
	if err := run(t, app, "delete", "2024-05-01", "--yes"); err != nil {
		t.Fatal(err)
	}
	if err := run(t, app, "reset", "-y"); err != nil {
		t.Fatal(err)
	}

	if app.Session.Get().Header.Date != "" {
		t.Error("reset did not clear the form")
	}
	// Reset commits a blank-date snapshot; the deleted date stays gone.
	for _, d := range app.Session.Dates() {
		if d == "2024-05-01" {
			t.Error("deleted date still archived")
		}
	}
}

func TestExportToFile(t *testing.T) {
	app := setupApp(t)
	if err := run(t, app, "set", "header", "date", "2024-05-01"); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "out.xlsx")
	if err := run(t, app, "export", "-o", out); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		t.Fatalf("workbook not written: %v", err)
	}

	dir := t.TempDir()
	if err := run(t, app, "export", "--date", "2024-05-01", "--sink", "fs", "--export-dir", dir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "inspection_2024-05-01.xlsx")); err != nil {
		t.Errorf("sink file missing: %v", err)
	}

	records, err := app.Store.ListExports(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) == 0 {
		t.Error("no export history recorded")
	}

	if err := run(t, app, "export", "--date", "1999-01-01", "-o", out); err == nil {
		t.Error("expected error for missing archive date")
	}
}
