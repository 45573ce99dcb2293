package api

import (
	"html/template"

	"github.com/lox/inspectform/internal/form"
	"github.com/lox/inspectform/internal/models"
	"github.com/lox/inspectform/internal/sheet"
)

// IndexData is the view model for the form page.
type IndexData struct {
	Facility      string
	Header        []HeaderInput
	Sections      []SectionView
	Note          string
	Dates         []string
	ActiveDate    string
	ExportEnabled bool
}

type HeaderInput struct {
	Key     string
	Label   string
	Value   string
	Numeric bool
	Signed  bool
	Options []string // non-empty for select inputs
}

type SectionView struct {
	Key          string
	Title        string
	PointBearing bool
	Fields       []FieldView
	Columns      []FieldView // point table columns, visible fields only
	Points       []PointView
}

type FieldView struct {
	Key     string
	Label   string
	Value   string
	Visible bool
	Forced  bool
	Numeric bool
	Signed  bool
}

type PointView struct {
	Label   string
	Display string
	Cells   []FieldView
}

// PreviewData is the view model for the preview page.
type PreviewData struct {
	Facility string
	Date     string
	Table    template.HTML
}

func newIndexData(state models.FormState, dates []string) IndexData {
	data := IndexData{
		Facility:   state.Header.Facility,
		Note:       state.Note,
		Dates:      dates,
		ActiveDate: state.Header.Date,
	}

	for _, h := range models.HeaderFields {
		in := HeaderInput{Key: h.Key(), Label: h.Label(), Value: state.Header.Get(h)}
		switch form.HeaderKind(h) {
		case form.KindSigned:
			in.Numeric, in.Signed = true, true
		case form.KindNonNegative:
			in.Numeric = true
		}
		if h == models.HeaderWeather {
			for _, w := range models.Weathers {
				in.Options = append(in.Options, string(w))
			}
		}
		data.Header = append(data.Header, in)
	}

	for _, st := range models.Stages {
		data.Sections = append(data.Sections, newSectionView(state, st))
	}
	return data
}

func newSectionView(state models.FormState, st models.Stage) SectionView {
	sv := SectionView{Key: st.Key(), Title: sheet.SectionTitle(st), PointBearing: st.PointBearing()}
	section := state.Section(st)

	for _, f := range models.Fields {
		fv := fieldView(f, section.Get(f))
		fv.Visible = state.Visibility.Visible(st, f)
		fv.Forced = st.PointBearing() && (f == models.FieldOdor || f == models.FieldColor)
		sv.Fields = append(sv.Fields, fv)
		if st.PointBearing() && f.PointColumn() && fv.Visible {
			sv.Columns = append(sv.Columns, fv)
		}
	}
	if !st.PointBearing() {
		return sv
	}

	data := state.PointData(st)
	for _, label := range models.PointLabels {
		pv := PointView{Label: label, Display: sheet.DisplayPointLabel(label)}
		for _, col := range sv.Columns {
			f, _ := models.ParseField(col.Key)
			pv.Cells = append(pv.Cells, fieldView(f, data[label].Get(f)))
		}
		sv.Points = append(sv.Points, pv)
	}
	return sv
}

func fieldView(f models.Field, value string) FieldView {
	fv := FieldView{Key: f.Key(), Label: f.Label(), Value: value}
	switch form.FieldKind(f) {
	case form.KindSigned:
		fv.Numeric, fv.Signed = true, true
	case form.KindNonNegative:
		fv.Numeric = true
	}
	return fv
}
