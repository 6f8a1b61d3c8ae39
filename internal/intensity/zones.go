package intensity

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/greenlab/co2footprint/internal/matrix"
)

//go:embed data/ci_zones.csv
var zoneDataset string

const zoneIntensityCol = "carbon intensity (gCO2eq/kWh)"

var (
	zoneTable     *matrix.Matrix
	zoneTableOnce sync.Once
)

// ZoneIntensity returns the bundled yearly average carbon intensity for an
// electricity zone code (e.g. "DE", "US"). Returns false for an unknown
// zone. Zone codes are matched case-insensitively.
func ZoneIntensity(zone string) (float64, bool) {
	zoneTableOnce.Do(func() {
		m, err := matrix.Parse(strings.NewReader(zoneDataset), matrix.ReadOptions{KeyColumnName: "zone"})
		if err != nil {
			// The dataset is embedded and validated by tests.
			panic("intensity: bundled zone dataset malformed: " + err.Error())
		}
		zoneTable = m
	})

	v, err := zoneTable.Get(strings.ToUpper(zone), zoneIntensityCol)
	if err != nil {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
