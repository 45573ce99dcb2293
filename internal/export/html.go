package export

import (
	"html/template"
	"strings"

	"github.com/lox/inspectform/internal/htmlutil"
	"github.com/lox/inspectform/internal/sheet"
)

var cellEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeCell escapes &, < and > and nothing else.
func EscapeCell(s string) string {
	return cellEscaper.Replace(s)
}

// RenderTable renders rows as an HTML table, one <tr> per row, with the
// first cell in bold.
func RenderTable(rows []sheet.Row) template.HTML {
	var b strings.Builder
	b.WriteString(`<table class="preview-table">`)
	for _, row := range rows {
		b.WriteString("<tr>")
		for i, cell := range row {
			b.WriteString("<td>")
			if i == 0 {
				b.WriteString("<b>")
				b.WriteString(EscapeCell(cell))
				b.WriteString("</b>")
			} else {
				b.WriteString(EscapeCell(cell))
			}
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return template.HTML(b.String())
}

// PlainText renders rows as text, one line per row with cells separated by
// " | ".
func PlainText(rows []sheet.Row) string {
	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(EscapeCell(cell))
		}
		b.WriteString("<br>")
	}
	return htmlutil.ToText(b.String())
}
