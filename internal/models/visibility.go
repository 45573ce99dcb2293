package models

import "encoding/json"

// VisibilityMap records, for every stage and field, whether the field is
// collected and exported.
type VisibilityMap [stageCount][fieldCount]bool

func (v VisibilityMap) Visible(st Stage, f Field) bool {
	return v[st][f]
}

func (v *VisibilityMap) Set(st Stage, f Field, visible bool) {
	v[st][f] = visible
}

// PartialVisibility is the loosely-shaped form found in stored payloads.
// Missing stages or fields mean "visible".
type PartialVisibility map[string]map[string]bool

// NormalizeVisibility builds a total map from partial input. Anything not
// explicitly false is visible, and odor/color are always visible for
// point-bearing stages.
func NormalizeVisibility(p PartialVisibility) VisibilityMap {
	var v VisibilityMap
	for _, st := range Stages {
		fields := p[st.Key()]
		for _, f := range Fields {
			visible, ok := fields[f.Key()]
			v[st][f] = !ok || visible
		}
	}
	return v.Normalize()
}

// Normalize applies the forced odor/color rule. It is idempotent.
func (v VisibilityMap) Normalize() VisibilityMap {
	for _, st := range Stages {
		if st.PointBearing() {
			v[st][FieldOdor] = true
			v[st][FieldColor] = true
		}
	}
	return v
}

func (v VisibilityMap) Partial() PartialVisibility {
	p := make(PartialVisibility, len(Stages))
	for _, st := range Stages {
		fields := make(map[string]bool, len(Fields))
		for _, f := range Fields {
			fields[f.Key()] = v[st][f]
		}
		p[st.Key()] = fields
	}
	return p
}

func (v VisibilityMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Partial())
}

// UnmarshalJSON never fails: a payload of the wrong shape decodes as an
// empty partial map, i.e. everything visible.
func (v *VisibilityMap) UnmarshalJSON(b []byte) error {
	var p PartialVisibility
	if err := json.Unmarshal(b, &p); err != nil {
		p = nil
	}
	*v = NormalizeVisibility(p)
	return nil
}
