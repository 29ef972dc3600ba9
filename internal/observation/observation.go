// Package observation defines the five-column stellar record shared by the
// extraction, cleaning and split steps, and its CSV encoding.
package observation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// NumFields is the fixed width of every record.
const NumFields = 5

// Columns lists the field names in file order. The last column is the
// regression target.
var Columns = []string{"ug", "gr", "ri", "iz", "feh"}

// ColorColumns are the photometric inputs (every column but feh).
var ColorColumns = Columns[:4]

// ErrNoData is returned when a source contains no observations.
var ErrNoData = errors.New("no data")

// Observation is one star: four PSF color indices and its spectroscopic
// metallicity.
type Observation struct {
	UG  float64 `json:"ug"`
	GR  float64 `json:"gr"`
	RI  float64 `json:"ri"`
	IZ  float64 `json:"iz"`
	FeH float64 `json:"feh"`
}

// Values returns the fields in column order.
func (o Observation) Values() [NumFields]float64 {
	return [NumFields]float64{o.UG, o.GR, o.RI, o.IZ, o.FeH}
}

// Colors returns the four color indices in column order.
func (o Observation) Colors() [4]float64 {
	return [4]float64{o.UG, o.GR, o.RI, o.IZ}
}

// FromValues builds an Observation from exactly five finite values.
func FromValues(v []float64) (Observation, error) {
	if len(v) != NumFields {
		return Observation{}, fmt.Errorf("expected %d fields, got %d", NumFields, len(v))
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Observation{}, fmt.Errorf("%s: value must be finite, got %v", Columns[i], x)
		}
	}
	return Observation{UG: v[0], GR: v[1], RI: v[2], IZ: v[3], FeH: v[4]}, nil
}

// Column extracts one named column from a slice of observations.
func Column(obs []Observation, name string) ([]float64, error) {
	idx := -1
	for i, c := range Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Values()[idx]
	}
	return out, nil
}

func (o Observation) String() string {
	return fmt.Sprintf("ug=%s gr=%s ri=%s iz=%s feh=%s",
		formatFloat(o.UG), formatFloat(o.GR), formatFloat(o.RI), formatFloat(o.IZ), formatFloat(o.FeH))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
