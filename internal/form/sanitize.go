package form

import (
	"strings"

	"github.com/lox/inspectform/internal/models"
)

// Kind describes how keystrokes into a field are filtered.
type Kind int

const (
	KindText Kind = iota
	KindNonNegative
	KindSigned
)

// Sanitize filters a numeric input down to digits and at most one decimal
// point, keeping the first point. KindSigned also keeps a single leading
// minus. Text input is returned unchanged.
func Sanitize(v string, kind Kind) string {
	if kind == KindText {
		return v
	}
	var b strings.Builder
	seenDot := false
	for i, r := range v {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		case r == '-' && i == 0 && kind == KindSigned:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func HeaderKind(f models.HeaderField) Kind {
	switch f {
	case models.HeaderAirTemp:
		return KindSigned
	case models.HeaderInflowVolume, models.HeaderDischargeVolume, models.HeaderPowerUsage, models.HeaderRainfall:
		return KindNonNegative
	}
	return KindText
}

func FieldKind(f models.Field) Kind {
	switch f {
	case models.FieldOdor, models.FieldColor, models.FieldComment:
		return KindText
	case models.FieldTemperature:
		return KindSigned
	}
	return KindNonNegative
}
