package models

import "encoding/json"

type Stage int

const (
	StageInfluent Stage = iota
	StageAerobicUpper
	StageAerobicLower
	StageEffluent
	stageCount
)

// Stages lists every stage in declaration order. Export order follows it.
var Stages = []Stage{StageInfluent, StageAerobicUpper, StageAerobicLower, StageEffluent}

var stageKeys = [stageCount]string{"influent", "aerobicUpper", "aerobicLower", "effluent"}

var stageLabels = [stageCount]string{"流入水", "好気性ろ床 上部", "好気性ろ床 下部", "放流水"}

func (s Stage) Key() string   { return stageKeys[s] }
func (s Stage) Label() string { return stageLabels[s] }

// PointBearing reports whether the stage carries per-point sub-readings.
func (s Stage) PointBearing() bool {
	return s == StageAerobicUpper || s == StageAerobicLower
}

func (s Stage) Valid() bool { return s >= 0 && s < stageCount }

func ParseStage(key string) (Stage, bool) {
	for i, k := range stageKeys {
		if k == key {
			return Stage(i), true
		}
	}
	return 0, false
}

type Field int

const (
	FieldOdor Field = iota
	FieldColor
	FieldTemperature
	FieldTurbidity
	FieldPH
	FieldDO
	FieldResidualChlorine
	FieldHeadLoss
	FieldAerationRate
	FieldComment
	fieldCount
)

// Fields lists every section field in form order.
var Fields = []Field{
	FieldOdor, FieldColor, FieldTemperature, FieldTurbidity, FieldPH,
	FieldDO, FieldResidualChlorine, FieldHeadLoss, FieldAerationRate, FieldComment,
}

var fieldKeys = [fieldCount]string{
	"odor", "color", "temperature", "turbidity", "ph",
	"do", "residualChlorine", "headLoss", "aerationRate", "comment",
}

var fieldLabels = [fieldCount]string{
	"臭気", "色相", "水温", "濁度", "pH",
	"DO", "残留塩素", "損失水頭", "曝気風量", "コメント",
}

func (f Field) Key() string   { return fieldKeys[f] }
func (f Field) Label() string { return fieldLabels[f] }

// PointColumn reports whether the field may appear as a point sub-table column.
func (f Field) PointColumn() bool { return f != FieldComment }

func ParseField(key string) (Field, bool) {
	for i, k := range fieldKeys {
		if k == key {
			return Field(i), true
		}
	}
	return 0, false
}

// PointLabels is the fixed sampling point list of the aerobic stages.
var PointLabels = []string{"NO.1-1", "NO.1-2", "NO.2-1", "NO.2-2"}

type Weather string

const (
	WeatherUnset  Weather = ""
	WeatherSunny  Weather = "晴れ"
	WeatherCloudy Weather = "曇り"
	WeatherRain   Weather = "雨"
	WeatherSnow   Weather = "雪"
)

var Weathers = []Weather{WeatherUnset, WeatherSunny, WeatherCloudy, WeatherRain, WeatherSnow}

func (w Weather) Valid() bool {
	for _, v := range Weathers {
		if v == w {
			return true
		}
	}
	return false
}

type HeaderForm struct {
	Date            string  `json:"date"`
	Weekday         string  `json:"weekday"`
	Weather         Weather `json:"weather"`
	Facility        string  `json:"facility"`
	Time            string  `json:"time"`
	Inspector       string  `json:"inspector"`
	AirTemp         string  `json:"airTemp"`
	InflowVolume    string  `json:"inflowVolume"`
	DischargeVolume string  `json:"dischargeVolume"`
	PowerUsage      string  `json:"powerUsage"`
	Rainfall        string  `json:"rainfall"`
}

type SectionForm struct {
	Odor             string `json:"odor,omitempty"`
	Color            string `json:"color,omitempty"`
	Temperature      string `json:"temperature,omitempty"`
	Turbidity        string `json:"turbidity,omitempty"`
	PH               string `json:"ph,omitempty"`
	DO               string `json:"do,omitempty"`
	ResidualChlorine string `json:"residualChlorine,omitempty"`
	HeadLoss         string `json:"headLoss,omitempty"`
	AerationRate     string `json:"aerationRate,omitempty"`
	Comment          string `json:"comment,omitempty"`
}

func (s *SectionForm) ptr(f Field) *string {
	switch f {
	case FieldOdor:
		return &s.Odor
	case FieldColor:
		return &s.Color
	case FieldTemperature:
		return &s.Temperature
	case FieldTurbidity:
		return &s.Turbidity
	case FieldPH:
		return &s.PH
	case FieldDO:
		return &s.DO
	case FieldResidualChlorine:
		return &s.ResidualChlorine
	case FieldHeadLoss:
		return &s.HeadLoss
	case FieldAerationRate:
		return &s.AerationRate
	case FieldComment:
		return &s.Comment
	}
	return nil
}

// Get returns the value of f, or "" when unset.
func (s SectionForm) Get(f Field) string {
	if p := s.ptr(f); p != nil {
		return *p
	}
	return ""
}

func (s *SectionForm) Set(f Field, v string) {
	if p := s.ptr(f); p != nil {
		*p = v
	}
}

// PointDataMap holds partial readings keyed by point label.
type PointDataMap map[string]SectionForm

func (m PointDataMap) Clone() PointDataMap {
	if m == nil {
		return nil
	}
	out := make(PointDataMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Sections struct {
	Influent     SectionForm `json:"influent"`
	AerobicUpper SectionForm `json:"aerobicUpper"`
	AerobicLower SectionForm `json:"aerobicLower"`
	Effluent     SectionForm `json:"effluent"`
}

func (s *Sections) ptr(st Stage) *SectionForm {
	switch st {
	case StageInfluent:
		return &s.Influent
	case StageAerobicUpper:
		return &s.AerobicUpper
	case StageAerobicLower:
		return &s.AerobicLower
	case StageEffluent:
		return &s.Effluent
	}
	return nil
}

type Points struct {
	AerobicUpper PointDataMap `json:"aerobicUpper"`
	AerobicLower PointDataMap `json:"aerobicLower"`
}

// FormState is the unit of persistence and archival.
type FormState struct {
	Header      HeaderForm    `json:"header"`
	Sections    Sections      `json:"sections"`
	PointLabels []string      `json:"pointLabels"`
	Points      Points        `json:"points"`
	Visibility  VisibilityMap `json:"visibility"`
	Note        string        `json:"note"`
}

func (fs *FormState) Section(st Stage) SectionForm {
	if p := fs.Sections.ptr(st); p != nil {
		return *p
	}
	return SectionForm{}
}

func (fs *FormState) SetSection(st Stage, f Field, v string) {
	if p := fs.Sections.ptr(st); p != nil {
		p.Set(f, v)
	}
}

// PointData returns the point map of a point-bearing stage, nil otherwise.
func (fs *FormState) PointData(st Stage) PointDataMap {
	switch st {
	case StageAerobicUpper:
		return fs.Points.AerobicUpper
	case StageAerobicLower:
		return fs.Points.AerobicLower
	}
	return nil
}

func (fs *FormState) SetPoint(st Stage, label string, f Field, v string) {
	var m *PointDataMap
	switch st {
	case StageAerobicUpper:
		m = &fs.Points.AerobicUpper
	case StageAerobicLower:
		m = &fs.Points.AerobicLower
	default:
		return
	}
	if *m == nil {
		*m = PointDataMap{}
	}
	sf := (*m)[label]
	sf.Set(f, v)
	(*m)[label] = sf
}

// Clone returns a deep copy that shares no mutable state with fs.
func (fs FormState) Clone() FormState {
	out := fs
	if fs.PointLabels != nil {
		out.PointLabels = append([]string(nil), fs.PointLabels...)
	}
	out.Points.AerobicUpper = fs.Points.AerobicUpper.Clone()
	out.Points.AerobicLower = fs.Points.AerobicLower.Clone()
	return out
}

// UnmarshalJSON decodes older or partial payloads: the visibility map is
// normalized and a missing point list falls back to PointLabels.
func (fs *FormState) UnmarshalJSON(b []byte) error {
	type plain FormState
	aux := struct {
		*plain
		Visibility json.RawMessage `json:"visibility"`
	}{plain: (*plain)(fs)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var p PartialVisibility
	if len(aux.Visibility) > 0 {
		if err := json.Unmarshal(aux.Visibility, &p); err != nil {
			p = nil
		}
	}
	fs.Visibility = NormalizeVisibility(p)
	if len(fs.PointLabels) == 0 {
		fs.PointLabels = append([]string(nil), PointLabels...)
	}
	return nil
}

// ArchiveMap maps an inspection date to its full snapshot.
type ArchiveMap map[string]FormState
