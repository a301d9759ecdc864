package weather

import (
	"fmt"
	"strings"
)

// Unit is a temperature display unit. Storage is always Kelvin.
type Unit string

const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
)

const absoluteZeroC = 273.15

// ParseUnit reads a display preference. Only "celsius" selects Celsius;
// anything else falls back to Fahrenheit.
func ParseUnit(s string) Unit {
	if strings.EqualFold(strings.TrimSpace(s), string(Celsius)) {
		return Celsius
	}
	return Fahrenheit
}

// Convert turns a stored Kelvin value into this unit.
func (u Unit) Convert(kelvin float64) float64 {
	c := kelvin - absoluteZeroC
	if u == Celsius {
		return c
	}
	return c*9/5 + 32
}

// Symbol returns the unit suffix used for display.
func (u Unit) Symbol() string {
	if u == Celsius {
		return "°C"
	}
	return "°F"
}

// Format renders a stored Kelvin value rounded to whole degrees.
func (u Unit) Format(kelvin float64) string {
	return fmt.Sprintf("%.0f%s", u.Convert(kelvin), u.Symbol())
}
