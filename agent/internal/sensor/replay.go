package sensor

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/barocast/barocast/agent/internal/config"
)

// replayRow is one recorded sample.
type replayRow struct {
	pressure    float64
	temperature float64
	hasTemp     bool
}

// replaySource returns rows from a CSV recording, one per Read. Each row is
//
//	pressure[,temperature]
//
// Blank lines and lines starting with '#' are skipped. A first row whose
// pressure column does not parse is treated as a header.
type replaySource struct {
	st   config.Station
	rows []replayRow
	next int
}

func newReplaySource(st config.Station) (*replaySource, error) {
	f, err := os.Open(st.Source.Path)
	if err != nil {
		return nil, fmt.Errorf("sensor: open replay %q: %w", st.Source.Path, err)
	}
	defer f.Close()

	rows, err := parseReplay(f)
	if err != nil {
		return nil, fmt.Errorf("sensor: replay %q: %w", st.Source.Path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sensor: replay %q: no rows", st.Source.Path)
	}
	return &replaySource{st: st, rows: rows}, nil
}

// Read returns the next row. At EOF it rewinds when loop is set, otherwise
// every further Read carries ErrExhausted.
func (s *replaySource) Read(_ context.Context) (*Reading, error) {
	r := newReading(s.st.ID)

	if s.next >= len(s.rows) {
		if !s.st.Source.Loop {
			r.Err = ErrExhausted
			return r, nil
		}
		s.next = 0
	}

	row := s.rows[s.next]
	s.next++

	r.PressureHPa = toHPa(row.pressure, s.st.Source.PressureUnit)
	r.TemperatureC = row.temperature
	r.HasTemperature = row.hasTemp
	return checkFinite(r), nil
}

// Len returns the number of rows in the recording.
func (s *replaySource) Len() int { return len(s.rows) }

func parseReplay(r io.Reader) ([]replayRow, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []replayRow
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		p, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("row %d: pressure %q: %w", line, rec[0], err)
		}
		row := replayRow{pressure: p}

		if len(rec) > 1 && strings.TrimSpace(rec[1]) != "" {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: temperature %q: %w", line, rec[1], err)
			}
			row.temperature = v
			row.hasTemp = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}
