package footprint

// Fixed reference values behind the readability equivalences. Driving emits
// 175 gCO2e/km, a tree sequesters ~917 g/month, one reference flight
// (Paris–London) emits 50 kg.
const (
	gramsPerKm        = 175.0
	gramsPerTreeMonth = 917.0
	gramsPerFlight    = 50000.0
)

// Equivalences expresses a CO2e total in everyday terms. Exactly one of
// PlanePercent and PlaneFlights is set: percent up to one full flight, a
// flight count beyond it.
type Equivalences struct {
	CarKm        float64
	TreeMonths   float64
	PlanePercent *float64
	PlaneFlights *float64
}

// EquivalencesOf converts total grams of CO2e.
func EquivalencesOf(co2eGrams float64) Equivalences {
	eq := Equivalences{
		CarKm:      co2eGrams / gramsPerKm,
		TreeMonths: co2eGrams / gramsPerTreeMonth,
	}
	percent := co2eGrams * 100 / gramsPerFlight
	if percent <= 100 {
		eq.PlanePercent = &percent
	} else {
		flights := co2eGrams / gramsPerFlight
		eq.PlaneFlights = &flights
	}
	return eq
}
