package weather

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultIconURLTemplate is the OpenWeather icon host; %s is the icon code.
const DefaultIconURLTemplate = "https://openweathermap.org/img/wn/%s@2x.png"

// FormatConfig controls how a Report is rendered into display strings.
type FormatConfig struct {
	// TemperatureDigits is the maximum number of fraction digits for temperatures.
	TemperatureDigits int
	// WindDigits is the maximum number of fraction digits for wind speed and direction.
	WindDigits int
	// WindSpeedUnit labels the wind speed. The value is shown as reported.
	WindSpeedUnit   string
	IconURLTemplate string
	Language        language.Tag
}

// DefaultFormatConfig matches the app's display: whole degrees, one decimal of wind.
func DefaultFormatConfig() FormatConfig {
	return FormatConfig{
		TemperatureDigits: 0,
		WindDigits:        1,
		WindSpeedUnit:     "mph",
		IconURLTemplate:   DefaultIconURLTemplate,
		Language:          language.English,
	}
}

// PresentationModel is the display-ready form of a Report.
type PresentationModel struct {
	Name                 string
	IconURL              *url.URL
	TemperatureText      string
	DescriptionText      *string
	TemperatureRangeText string
	WindText             string
}

// Derive renders r without any I/O. A report without conditions yields no
// icon and no description.
func Derive(r Report, cfg FormatConfig) PresentationModel {
	m := PresentationModel{
		Name:            r.LocationName,
		TemperatureText: formatDegrees(r.Metrics.Temperature, cfg.TemperatureDigits),
		TemperatureRangeText: fmt.Sprintf("Low: %s   High: %s",
			formatDegrees(r.Metrics.TempMin, cfg.TemperatureDigits),
			formatDegrees(r.Metrics.TempMax, cfg.TemperatureDigits)),
		WindText: fmt.Sprintf("Wind: %s(%s)",
			strings.TrimSpace(formatNumber(r.Wind.Speed, cfg.WindDigits)+" "+cfg.WindSpeedUnit),
			formatDegrees(r.Wind.Degrees, cfg.WindDigits)),
	}

	if c, ok := r.PrimaryCondition(); ok {
		m.IconURL = iconURL(cfg.IconURLTemplate, c.IconCode)
		if c.Description != "" {
			desc := cases.Title(cfg.Language).String(c.Description)
			m.DescriptionText = &desc
		}
	}

	return m
}

func iconURL(template, code string) *url.URL {
	if code == "" {
		return nil
	}
	if template == "" {
		template = DefaultIconURLTemplate
	}
	u, err := url.Parse(fmt.Sprintf(template, url.PathEscape(code)))
	if err != nil {
		return nil
	}
	return u
}

func formatDegrees(v float64, maxDigits int) string {
	return formatNumber(v, maxDigits) + "°"
}

// formatNumber rounds v to at most maxDigits fraction digits and drops
// trailing zeros, so 3.0 renders as "3" and 3.65 as "3.6" or "3.7" depending
// on its binary value.
func formatNumber(v float64, maxDigits int) string {
	if maxDigits < 0 {
		maxDigits = 0
	}
	s := strconv.FormatFloat(v, 'f', maxDigits, 64)
	if maxDigits > 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
