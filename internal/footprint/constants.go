// Package footprint combines a task's usage record, a resolved power draw
// and a resolved carbon intensity into energy and CO2e figures, and converts
// aggregated totals into everyday equivalences.
package footprint

const (
	// gramsPerCarKm is the footprint of one kilometer driven by an
	// average European passenger car.
	gramsPerCarKm = 175.0

	// gramsPerTreeMonth is one month of CO2 sequestration by a mature
	// tree, from an 11 kg/year uptake.
	gramsPerTreeMonth = 917.0

	// gramsPerFlight is the per-passenger footprint of the reference
	// Paris to London flight.
	gramsPerFlight = 50_000.0
)
