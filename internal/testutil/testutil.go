// Package testutil provides shared test fixtures for the dataset packages.
//
// Fixtures are synthetic stars with realistic color and metallicity ranges;
// every generated row is distinct so that tests can track individual
// records through shuffles.
package testutil

import (
	"bytes"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/stellar-metallicity/pasm/internal/observation"
)

// Observations returns n distinct synthetic observations. The same seed
// always yields the same rows.
func Observations(n int, seed uint64) []observation.Observation {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]observation.Observation, n)
	for i := range out {
		out[i] = observation.Observation{
			UG: 0.7 + 2.0*rng.Float64(),
			GR: 0.1 + 1.2*rng.Float64(),
			RI: 0.0 + 0.6*rng.Float64(),
			IZ: -0.1 + 0.5*rng.Float64(),
			// The index term keeps rows unique.
			FeH: -3.0 + 3.5*rng.Float64() + float64(i)*1e-9,
		}
	}
	return out
}

// CSV renders rows as CSV text, optionally preceded by the header.
func CSV(obs []observation.Observation, header bool) string {
	var b strings.Builder
	if header {
		b.WriteString(strings.Join(observation.Columns, ","))
		b.WriteByte('\n')
	}
	for _, o := range obs {
		vals := o.Values()
		for i, v := range vals {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// MustReadCSV parses CSV bytes, failing the test on error.
func MustReadCSV(t testing.TB, data []byte) []observation.Observation {
	t.Helper()
	obs, err := observation.ReadCSV(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	return obs
}

// Multiset counts occurrences of each observation.
func Multiset(obs []observation.Observation) map[observation.Observation]int {
	m := make(map[observation.Observation]int, len(obs))
	for _, o := range obs {
		m[o]++
	}
	return m
}
