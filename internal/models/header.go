package models

type HeaderField int

const (
	HeaderDate HeaderField = iota
	HeaderWeekday
	HeaderWeather
	HeaderTime
	HeaderInspector
	HeaderAirTemp
	HeaderInflowVolume
	HeaderDischargeVolume
	HeaderPowerUsage
	HeaderRainfall
	HeaderFacility
	headerFieldCount
)

// HeaderFields lists header fields in sheet order. Facility is last and is
// not exported as a row.
var HeaderFields = []HeaderField{
	HeaderDate, HeaderWeekday, HeaderWeather, HeaderTime, HeaderInspector,
	HeaderAirTemp, HeaderInflowVolume, HeaderDischargeVolume, HeaderPowerUsage,
	HeaderRainfall, HeaderFacility,
}

var headerKeys = [headerFieldCount]string{
	"date", "weekday", "weather", "time", "inspector",
	"airTemp", "inflowVolume", "dischargeVolume", "powerUsage", "rainfall", "facility",
}

var headerLabels = [headerFieldCount]string{
	"日付", "曜日", "天候", "点検時刻", "点検者",
	"気温", "流入水量", "放流水量", "電力使用量", "降水量", "施設名",
}

func (h HeaderField) Key() string   { return headerKeys[h] }
func (h HeaderField) Label() string { return headerLabels[h] }

// Exported reports whether the field becomes a label/value row.
func (h HeaderField) Exported() bool { return h != HeaderFacility }

func ParseHeaderField(key string) (HeaderField, bool) {
	for i, k := range headerKeys {
		if k == key {
			return HeaderField(i), true
		}
	}
	return 0, false
}

func (h *HeaderForm) ptr(f HeaderField) *string {
	switch f {
	case HeaderDate:
		return &h.Date
	case HeaderWeekday:
		return &h.Weekday
	case HeaderTime:
		return &h.Time
	case HeaderInspector:
		return &h.Inspector
	case HeaderAirTemp:
		return &h.AirTemp
	case HeaderInflowVolume:
		return &h.InflowVolume
	case HeaderDischargeVolume:
		return &h.DischargeVolume
	case HeaderPowerUsage:
		return &h.PowerUsage
	case HeaderRainfall:
		return &h.Rainfall
	case HeaderFacility:
		return &h.Facility
	}
	return nil
}

func (h HeaderForm) Get(f HeaderField) string {
	if f == HeaderWeather {
		return string(h.Weather)
	}
	if p := h.ptr(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns v to f. Weather values outside the enum are stored as unset.
func (h *HeaderForm) Set(f HeaderField, v string) {
	if f == HeaderWeather {
		w := Weather(v)
		if !w.Valid() {
			w = WeatherUnset
		}
		h.Weather = w
		return
	}
	if p := h.ptr(f); p != nil {
		*p = v
	}
}
