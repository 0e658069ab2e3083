// Package inputlog reads recorded pointer input from CSV files.
//
// Each row holds dtime,x,y,pressure,xtilt,ytilt. A header row naming those
// columns is optional and lines starting with '#' are comments. Tilt
// columns may be omitted and default to zero.
package inputlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gogpu/stroke"
)

// ErrSyntax is returned for malformed rows.
var ErrSyntax = errors.New("inputlog: syntax error")

// Header is the column header Write emits.
var Header = []string{"dtime", "x", "y", "pressure", "xtilt", "ytilt"}

// Read parses every sample in r.
func Read(r io.Reader) ([]stroke.Sample, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []stroke.Sample
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		s, err := parseRow(rec)
		if err != nil {
			row, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, row, err)
		}
		out = append(out, s)
	}
}

// Write emits samples with a header row.
func Write(w io.Writer, samples []stroke.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			formatFloat(s.DTime),
			formatFloat(s.X),
			formatFloat(s.Y),
			formatFloat(s.Pressure),
			formatFloat(s.XTilt),
			formatFloat(s.YTilt),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), Header[0])
}

func parseRow(rec []string) (stroke.Sample, error) {
	if len(rec) != 4 && len(rec) != 6 {
		return stroke.Sample{}, fmt.Errorf("want 4 or 6 fields, got %d", len(rec))
	}
	var v [6]float64
	for i, f := range rec {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return stroke.Sample{}, fmt.Errorf("field %s: %v", Header[i], err)
		}
		v[i] = x
	}
	return stroke.Sample{DTime: v[0], X: v[1], Y: v[2], Pressure: v[3], XTilt: v[4], YTilt: v[5]}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
