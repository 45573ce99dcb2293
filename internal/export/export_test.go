package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/lox/inspectform/internal/form"
	"github.com/lox/inspectform/internal/models"
	"github.com/lox/inspectform/internal/sheet"
)

func sampleRows() []sheet.Row {
	state := form.Default()
	state.Header.Date = "2024-05-01"
	state.Header.Weather = models.WeatherRain
	state.SetPoint(models.StageAerobicUpper, "NO.1-1", models.FieldOdor, "微 臭")
	state.SetSection(models.StageInfluent, models.FieldComment, "泡 <多い> & 濁り")
	state.Note = "A&B"
	return sheet.Rows(state)
}

func trimTrailing(row []string) []string {
	for len(row) > 0 && row[len(row)-1] == "" {
		row = row[:len(row)-1]
	}
	return row
}

func TestFilename(t *testing.T) {
	if got := Filename("2024-05-01"); got != "inspection_2024-05-01.xlsx" {
		t.Errorf("Filename = %q", got)
	}
}

func TestWorkbook_Contents(t *testing.T) {
	rows := sampleRows()

	data, err := Workbook(rows)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("sheets = %v, want [%s]", sheets, SheetName)
	}

	got, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(got) < len(rows)-1 {
		t.Fatalf("len(rows) = %d, want at least %d", len(got), len(rows)-1)
	}
	for i := range got {
		want := trimTrailing(append([]string(nil), rows[i]...))
		have := trimTrailing(got[i])
		if strings.Join(want, "\x1f") != strings.Join(have, "\x1f") {
			t.Errorf("row %d = %q, want %q", i+1, have, want)
		}
	}
}

func TestWorkbook_ColumnWidths(t *testing.T) {
	rows := sampleRows()
	data, err := Workbook(rows)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	a, err := f.GetColWidth(SheetName, "A")
	if err != nil {
		t.Fatal(err)
	}
	if a != LabelWidth(rows) {
		t.Errorf("column A width = %v, want %v", a, LabelWidth(rows))
	}
	for _, col := range []string{"B", "C", "D", "E", "F"} {
		w, err := f.GetColWidth(SheetName, col)
		if err != nil {
			t.Fatal(err)
		}
		if w != ValueWidth {
			t.Errorf("column %s width = %v, want %v", col, w, ValueWidth)
		}
	}
}

func TestLabelWidth(t *testing.T) {
	tests := []struct {
		name string
		rows []sheet.Row
		want float64
	}{
		{"empty uses floor", nil, LabelWidthFloor},
		{"short labels use floor", []sheet.Row{{"pH", "7"}, {""}}, LabelWidthFloor},
		{"wide characters count double", []sheet.Row{{"【好気性ろ床 上部】"}}, 2*9 + 1 + 2},
		{"ascii label", []sheet.Row{{strings.Repeat("x", 20)}}, 22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LabelWidth(tt.rows); got != tt.want {
				t.Errorf("LabelWidth = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEscapeCell(t *testing.T) {
	got := EscapeCell(`<a href="x">&'`)
	want := `&lt;a href="x"&gt;&amp;'`
	if got != want {
		t.Errorf("EscapeCell = %q, want %q", got, want)
	}
}

func TestRenderTable(t *testing.T) {
	rows := []sheet.Row{{"日付", "2024-05-01"}, {""}, {"<b>", "a&b"}}
	got := string(RenderTable(rows))
	want := `<table class="preview-table">` +
		`<tr><td><b>日付</b></td><td>2024-05-01</td></tr>` +
		`<tr><td><b></b></td></tr>` +
		`<tr><td><b>&lt;b&gt;</b></td><td>a&amp;b</td></tr>` +
		`</table>`
	if got != want {
		t.Errorf("RenderTable =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderTable_ParityWithRows(t *testing.T) {
	rows := sampleRows()
	html := string(RenderTable(rows))

	if n := strings.Count(html, "<tr>"); n != len(rows) {
		t.Errorf("table rows = %d, want %d", n, len(rows))
	}
	cells := 0
	for _, r := range rows {
		cells += len(r)
	}
	if n := strings.Count(html, "<td>"); n != cells {
		t.Errorf("table cells = %d, want %d", n, cells)
	}
	if !strings.Contains(html, "泡 &lt;多い&gt; &amp; 濁り") {
		t.Error("comment cell not escaped")
	}
}

func TestPlainText(t *testing.T) {
	text := PlainText(sampleRows())
	for _, want := range []string{"日付 | 2024-05-01", "No.1-1 | 微 臭", "備考 | A&B", "【好気性ろ床 上部】"} {
		if !strings.Contains(text, want) {
			t.Errorf("plain text missing %q", want)
		}
	}
}
