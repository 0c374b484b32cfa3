package types

import "fmt"

// Energy is an amount of electrical energy in watt-hours.
type Energy float64

// Wh returns the value in watt-hours.
func (e Energy) Wh() float64 { return float64(e) }

// KWh returns the value in kilowatt-hours.
func (e Energy) KWh() float64 { return float64(e) / 1000 }

// Humanized returns a human-readable string with automatic unit (uWh..MWh).
func (e Energy) Humanized() string {
	v := float64(e)
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.2f MWh", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2f kWh", v/1e3)
	case v >= 1:
		return fmt.Sprintf("%.2f Wh", v)
	case v >= 1e-3:
		return fmt.Sprintf("%.2f mWh", v*1e3)
	default:
		return fmt.Sprintf("%.2f uWh", v*1e6)
	}
}

// Mass is a mass of CO2-equivalent in grams.
type Mass float64

// Grams returns the value in grams.
func (m Mass) Grams() float64 { return float64(m) }

// Humanized returns a human-readable string with automatic unit (ug..t).
func (m Mass) Humanized() string {
	v := float64(m)
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.2f t", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2f kg", v/1e3)
	case v >= 1:
		return fmt.Sprintf("%.2f g", v)
	case v >= 1e-3:
		return fmt.Sprintf("%.2f mg", v*1e3)
	default:
		return fmt.Sprintf("%.2f ug", v*1e6)
	}
}
