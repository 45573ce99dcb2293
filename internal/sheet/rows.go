// Package sheet projects a form into the label/value rows shared by the
// spreadsheet export and the on-screen preview.
package sheet

import (
	"strings"

	"github.com/lox/inspectform/internal/models"
)

const (
	PointHeader = "ポイント"
	NoteTitle   = "【自由記入 備考】"
	NoteLabel   = "備考"
)

// Row is one spreadsheet row. The first cell is the label.
type Row []string

// Rows returns the canonical row sequence for state. It is pure: equal
// inputs give equal outputs.
func Rows(state models.FormState) []Row {
	vis := state.Visibility.Normalize()
	var rows []Row

	for _, f := range models.HeaderFields {
		if f.Exported() {
			rows = append(rows, Row{f.Label(), state.Header.Get(f)})
		}
	}
	rows = append(rows, blank())

	for _, st := range models.Stages {
		rows = append(rows, Row{SectionTitle(st)})
		if st.PointBearing() {
			rows = append(rows, pointRows(state, vis, st)...)
		} else {
			section := state.Section(st)
			for _, f := range models.Fields {
				if vis.Visible(st, f) {
					rows = append(rows, Row{f.Label(), section.Get(f)})
				}
			}
		}
		rows = append(rows, blank())
	}

	rows = append(rows, Row{NoteTitle}, Row{NoteLabel, state.Note}, blank())
	return rows
}

// pointRows renders the point sub-table of a point-bearing stage. Direct
// section values of these stages are never exported.
func pointRows(state models.FormState, vis models.VisibilityMap, st models.Stage) []Row {
	var cols []models.Field
	for _, f := range models.Fields {
		if f.PointColumn() && vis.Visible(st, f) {
			cols = append(cols, f)
		}
	}
	if len(cols) == 0 {
		return nil
	}

	header := Row{PointHeader}
	for _, f := range cols {
		header = append(header, f.Label())
	}
	rows := []Row{header}

	labels := state.PointLabels
	if len(labels) == 0 {
		labels = models.PointLabels
	}
	data := state.PointData(st)
	for _, label := range labels {
		row := Row{DisplayPointLabel(label)}
		point := data[label]
		for _, f := range cols {
			row = append(row, point.Get(f))
		}
		rows = append(rows, row)
	}
	return rows
}

func SectionTitle(st models.Stage) string {
	return "【" + st.Label() + "】"
}

// DisplayPointLabel rewrites a leading "NO." to "No.". Other labels pass
// through unchanged.
func DisplayPointLabel(label string) string {
	if rest, ok := strings.CutPrefix(label, "NO."); ok {
		return "No." + rest
	}
	return label
}

func blank() Row { return Row{""} }

// Strings converts rows to plain string slices.
func Strings(rows []Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string(r)
	}
	return out
}
