package weather

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire shapes of the OpenWeather current-weather response. Required fields
// are pointers so that absence can be told apart from a zero value.
type reportPayload struct {
	ID      *int                `json:"id"`
	Name    *string             `json:"name"`
	Weather *[]conditionPayload `json:"weather"`
	Main    *mainPayload        `json:"main"`
	Wind    *windPayload        `json:"wind"`
}

type conditionPayload struct {
	ID          *int    `json:"id"`
	Main        *string `json:"main"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
}

type mainPayload struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	TempMax   *float64 `json:"temp_max"`
	TempMin   *float64 `json:"temp_min"`
	Pressure  *int     `json:"pressure"`
	Humidity  *int     `json:"humidity"`
	SeaLevel  *int     `json:"sea_level"`
	GrndLevel *int     `json:"grnd_level"`
}

type windPayload struct {
	Speed *float64 `json:"speed"`
	Deg   *float64 `json:"deg"`
	Gust  *float64 `json:"gust"`
}

// DecodeReport parses a current-weather response body. Integer fields reject
// fractional values and numeric fields reject strings; nothing is coerced.
// Humidity must lie in [0, 100] and wind direction in [0, 360].
func DecodeReport(data []byte) (Report, error) {
	var p reportPayload
	if err := json.Unmarshal(data, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Report{}, &DecodeError{
				Field: typeErr.Field,
				Err:   fmt.Errorf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}
		}
		return Report{}, &DecodeError{Err: err}
	}

	d := &decoder{}
	report := Report{
		ID:           d.requireInt("id", p.ID),
		LocationName: d.requireString("name", p.Name),
	}

	if p.Weather == nil {
		d.missing("weather")
	} else {
		report.Conditions = make([]Condition, 0, len(*p.Weather))
		for i, c := range *p.Weather {
			prefix := fmt.Sprintf("weather[%d].", i)
			report.Conditions = append(report.Conditions, Condition{
				ID:          d.requireInt(prefix+"id", c.ID),
				Category:    d.requireString(prefix+"main", c.Main),
				Description: d.requireString(prefix+"description", c.Description),
				IconCode:    d.requireString(prefix+"icon", c.Icon),
			})
		}
	}

	if p.Main == nil {
		d.missing("main")
	} else {
		report.Metrics = Metrics{
			Temperature: d.requireFloat("main.temp", p.Main.Temp),
			FeelsLike:   d.requireFloat("main.feels_like", p.Main.FeelsLike),
			TempMax:     d.requireFloat("main.temp_max", p.Main.TempMax),
			TempMin:     d.requireFloat("main.temp_min", p.Main.TempMin),
			Pressure:    d.requireInt("main.pressure", p.Main.Pressure),
			Humidity:    d.requireIntIn("main.humidity", p.Main.Humidity, 0, 100),
			SeaLevel:    p.Main.SeaLevel,
			GroundLevel: p.Main.GrndLevel,
		}
	}

	if p.Wind == nil {
		d.missing("wind")
	} else {
		report.Wind = Wind{
			Speed:   d.requireFloat("wind.speed", p.Wind.Speed),
			Degrees: d.requireFloatIn("wind.deg", p.Wind.Deg, 0, 360),
			Gust:    p.Wind.Gust,
		}
	}

	if d.err != nil {
		return Report{}, d.err
	}
	return report, nil
}

// decoder records the first missing or invalid field.
type decoder struct {
	err error
}

func (d *decoder) missing(field string) {
	d.fail(field, errMissingField)
}

func (d *decoder) fail(field string, err error) {
	if d.err == nil {
		d.err = &DecodeError{Field: field, Err: err}
	}
}

func (d *decoder) requireInt(field string, v *int) int {
	if v == nil {
		d.missing(field)
		return 0
	}
	return *v
}

func (d *decoder) requireFloat(field string, v *float64) float64 {
	if v == nil {
		d.missing(field)
		return 0
	}
	return *v
}

func (d *decoder) requireIntIn(field string, v *int, lo, hi int) int {
	n := d.requireInt(field, v)
	if v != nil && (n < lo || n > hi) {
		d.fail(field, fmt.Errorf("%d out of range [%d, %d]", n, lo, hi))
	}
	return n
}

func (d *decoder) requireFloatIn(field string, v *float64, lo, hi float64) float64 {
	f := d.requireFloat(field, v)
	if v != nil && (f < lo || f > hi) {
		d.fail(field, fmt.Errorf("%g out of range [%g, %g]", f, lo, hi))
	}
	return f
}

func (d *decoder) requireString(field string, v *string) string {
	if v == nil {
		d.missing(field)
		return ""
	}
	return *v
}
