package footprint

// CO2Record is the per-task output of the footprint computation, immutable
// once produced and consumed by the reporting layer.
type CO2Record struct {
	// TaskName identifies the task within the run.
	TaskName string `json:"name"`

	// EnergyWh is the task's energy consumption in watt-hours.
	EnergyWh float64 `json:"energyWh"`

	// CO2eGrams is the location-based CO2 equivalent in grams.
	CO2eGrams float64 `json:"co2eGrams"`

	// CO2eMarketGrams is the market-based CO2 equivalent in grams, set
	// only when a market intensity is configured.
	CO2eMarketGrams *float64 `json:"co2eMarketGrams,omitempty"`

	// CarbonIntensity is the gCO2eq/kWh value the computation used.
	CarbonIntensity float64 `json:"carbonIntensity"`

	// CPUs is the task's allocated core count.
	CPUs int `json:"cpus"`

	// PowerDrawCPU is the resolved per-core power draw in watts.
	PowerDrawCPU float64 `json:"powerdrawCpu"`

	// CPUUtilization is the utilization fraction the computation used.
	CPUUtilization float64 `json:"cpuUtilization"`

	// MemoryGB is the resolved task memory in gigabytes.
	MemoryGB float64 `json:"memoryGB"`

	// DurationHours is the task runtime in hours.
	DurationHours float64 `json:"durationHours"`

	// CPUModel is the raw model name from the usage record.
	CPUModel string `json:"cpuModel"`
}

// Equivalences expresses a total CO2e figure in everyday terms.
type Equivalences struct {
	// CarKilometers is the distance an average passenger car drives to
	// emit the same amount.
	CarKilometers float64 `json:"carKilometers"`

	// TreeMonths is how long a mature tree sequesters the same amount.
	TreeMonths float64 `json:"treeMonths"`

	// FlightPercent is the total emissions as a percentage of one
	// reference Paris-London flight.
	FlightPercent float64 `json:"flightPercent"`

	// Flights is the number of whole reference flights covered.
	Flights int `json:"flights"`

	// FlightRemainderPercent is the fraction beyond whole flights, as a
	// percentage of one flight.
	FlightRemainderPercent float64 `json:"flightRemainderPercent"`
}

// Summary aggregates a batch run: per-task records, totals, and the
// equivalences of the total location-based emissions.
type Summary struct {
	// RunID identifies the batch run the summary belongs to.
	RunID string `json:"runId"`

	// TotalEnergyWh is the summed energy of all computed tasks.
	TotalEnergyWh float64 `json:"totalEnergyWh"`

	// TotalCO2eGrams is the summed location-based emissions.
	TotalCO2eGrams float64 `json:"totalCo2eGrams"`

	// TotalCO2eMarketGrams is the summed market-based emissions, present
	// only when a market intensity is configured.
	TotalCO2eMarketGrams *float64 `json:"totalCo2eMarketGrams,omitempty"`

	// Tasks lists the per-task records in computation order.
	Tasks []CO2Record `json:"tasks"`

	// Equivalences converts TotalCO2eGrams into everyday terms.
	Equivalences Equivalences `json:"equivalences"`
}
