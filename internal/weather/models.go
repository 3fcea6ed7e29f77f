package weather

// Condition is one entry of the API's "weather" array.
type Condition struct {
	ID          int    `json:"id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	IconCode    string `json:"iconCode"`
}

// Metrics holds the API's "main" block. Temperatures are in °C.
type Metrics struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	TempMax     float64 `json:"tempMax"`
	TempMin     float64 `json:"tempMin"`
	Pressure    int     `json:"pressure"`
	Humidity    int     `json:"humidity"` // 0-100
	SeaLevel    *int    `json:"seaLevel,omitempty"`
	GroundLevel *int    `json:"groundLevel,omitempty"`
}

// Wind holds the API's "wind" block. Gust is nil when the API sent no gust data.
type Wind struct {
	Speed   float64  `json:"speed"` // m/s
	Degrees float64  `json:"degrees"`
	Gust    *float64 `json:"gust,omitempty"`
}

// Report is the decoded current-weather response. It is treated as a
// read-only value once DecodeReport returns it; holders that keep a Report
// around store a Clone so no two owners share the Conditions backing array.
type Report struct {
	ID           int         `json:"id"`
	LocationName string      `json:"locationName"`
	Conditions   []Condition `json:"conditions"`
	Metrics      Metrics     `json:"metrics"`
	Wind         Wind        `json:"wind"`
}

// PrimaryCondition returns the first condition, if any.
func (r Report) PrimaryCondition() (Condition, bool) {
	if len(r.Conditions) == 0 {
		return Condition{}, false
	}
	return r.Conditions[0], true
}

// Clone returns a deep copy of r.
func (r Report) Clone() Report {
	out := r
	if r.Conditions != nil {
		out.Conditions = make([]Condition, len(r.Conditions))
		copy(out.Conditions, r.Conditions)
	}
	out.Metrics.SeaLevel = cloneInt(r.Metrics.SeaLevel)
	out.Metrics.GroundLevel = cloneInt(r.Metrics.GroundLevel)
	if r.Wind.Gust != nil {
		g := *r.Wind.Gust
		out.Wind.Gust = &g
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
