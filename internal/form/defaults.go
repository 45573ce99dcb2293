package form

import "github.com/lox/inspectform/internal/models"

// hiddenByDefault lists the fields a fresh form does not collect.
var hiddenByDefault = map[models.Stage][]models.Field{
	models.StageInfluent:     {models.FieldResidualChlorine, models.FieldHeadLoss, models.FieldAerationRate},
	models.StageAerobicUpper: {models.FieldTurbidity, models.FieldResidualChlorine},
	models.StageAerobicLower: {models.FieldTurbidity, models.FieldResidualChlorine},
	models.StageEffluent:     {models.FieldHeadLoss, models.FieldAerationRate},
}

func DefaultVisibility() models.VisibilityMap {
	p := models.PartialVisibility{}
	for st, fields := range hiddenByDefault {
		m := make(map[string]bool, len(fields))
		for _, f := range fields {
			m[f.Key()] = false
		}
		p[st.Key()] = m
	}
	return models.NormalizeVisibility(p)
}

// Default returns a fresh, empty form.
func Default() models.FormState {
	return models.FormState{
		PointLabels: append([]string(nil), models.PointLabels...),
		Points: models.Points{
			AerobicUpper: models.PointDataMap{},
			AerobicLower: models.PointDataMap{},
		},
		Visibility: DefaultVisibility(),
	}
}
