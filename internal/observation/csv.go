package observation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stellar-metallicity/pasm/internal/fsutil"
)

// ParseError reports a malformed row in a CSV source.
type ParseError struct {
	Line   int    // 1-based line in the source
	Column string // offending column, empty for field-count errors
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, column %s: %s", e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsHeader reports whether a record is the column header. Matching is
// case-insensitive and ignores surrounding whitespace.
func IsHeader(record []string) bool {
	if len(record) != NumFields {
		return false
	}
	for i, f := range record {
		if !strings.EqualFold(strings.TrimSpace(f), Columns[i]) {
			return false
		}
	}
	return true
}

// ReadCSV parses every row of r. An optional header row is stripped. The
// first malformed row fails the whole read; nothing is returned partially.
func ReadCSV(r io.Reader) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var obs []Observation
	first := true
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			if IsHeader(rec) {
				continue
			}
		}

		o, err := parseRecord(rec, line)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}

	if len(obs) == 0 {
		return nil, ErrNoData
	}
	return obs, nil
}

func parseRecord(rec []string, line int) (Observation, error) {
	if len(rec) != NumFields {
		return Observation{}, &ParseError{
			Line: line,
			Msg:  fmt.Sprintf("expected %d fields, got %d", NumFields, len(rec)),
		}
	}

	var vals [NumFields]float64
	for i, s := range rec {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Observation{}, &ParseError{
				Line:   line,
				Column: Columns[i],
				Msg:    fmt.Sprintf("invalid number %q", s),
				Err:    err,
			}
		}
		vals[i] = v
	}

	o, err := FromValues(vals[:])
	if err != nil {
		return Observation{}, &ParseError{Line: line, Msg: err.Error(), Err: err}
	}
	return o, nil
}

// WriteCSV writes the header followed by one row per observation.
func WriteCSV(w io.Writer, obs []Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, NumFields)
	for _, o := range obs {
		for i, v := range o.Values() {
			row[i] = formatFloat(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// LoadFile reads a CSV dataset from fsys.
func LoadFile(fsys fsutil.FileSystem, path string) ([]Observation, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	obs, err := ReadCSV(f)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return obs, nil
}

// SaveFile writes obs to path, creating parent directories and overwriting
// any existing file.
func SaveFile(fsys fsutil.FileSystem, path string, obs []Observation) (err error) {
	w, err := fsutil.CreateAll(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := WriteCSV(w, obs); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
