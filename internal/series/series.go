// Package series holds the immutable OHLCV bar series an optimization run
// operates on, plus the CSV loader that produces it.
package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/gridott/internal/validation"
)

// Bar represents OHLCV data for one time period.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Series is an ordered bar sequence plus the pre-extracted price vectors
// every backtest reads. It is built once by the coordinator and shared
// read-only with all workers; nothing mutates it after construction.
type Series struct {
	Bars   []Bar
	Opens  []float64
	Highs  []float64
	Lows   []float64
	Closes []float64
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Bars) }

// New builds a Series from bars, extracting the aligned price vectors.
func New(bars []Bar) *Series {
	s := &Series{
		Bars:   bars,
		Opens:  make([]float64, len(bars)),
		Highs:  make([]float64, len(bars)),
		Lows:   make([]float64, len(bars)),
		Closes: make([]float64, len(bars)),
	}
	for i, b := range bars {
		s.Opens[i] = b.Open
		s.Highs[i] = b.High
		s.Lows[i] = b.Low
		s.Closes[i] = b.Close
	}
	return s
}

// MinBars is the smallest series worth optimizing over: the VIDYA
// efficiency window plus the OTT shift leave everything shorter with no
// defined indicator values at all.
const MinBars = 12

// LoadCSV reads a bar series from a CSV file with columns
// date,open,high,low,close,volume, one bar per row, oldest first.
// A leading header row is skipped when its first field is "date".
// Rows are validated as they stream in; the first malformed row or
// out-of-order date aborts the load naming the offending line.
func LoadCSV(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, err
	}
	if s.Len() < MinBars {
		return nil, fmt.Errorf("only %d bars in %s, need at least %d", s.Len(), path, MinBars)
	}

	log.Info().
		Str("file", path).
		Int("bars", s.Len()).
		Str("first", s.Bars[0].Date).
		Str("last", s.Bars[s.Len()-1].Date).
		Msg("Loaded bar series")

	return s, nil
}

// Read parses a bar series from r. Split from LoadCSV so tests can feed
// in-memory data.
func Read(r io.Reader) (*Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6
	cr.TrimLeadingSpace = true

	var bars []Bar
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &validation.CSVRowError{Line: line, Message: err.Error()}
		}
		if line == 1 && strings.EqualFold(record[0], "date") {
			continue
		}

		bar, rowErr := parseRow(record, line)
		if rowErr != nil {
			return nil, rowErr
		}
		if len(bars) > 0 && bar.Date < bars[len(bars)-1].Date {
			return nil, &validation.CSVRowError{
				Line:    line,
				Message: fmt.Sprintf("bars out of order: %q follows %q", bar.Date, bars[len(bars)-1].Date),
			}
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars loaded")
	}
	return New(bars), nil
}

func parseRow(record []string, line int) (Bar, error) {
	date := strings.TrimSpace(record[0])
	if date == "" {
		return Bar{}, &validation.CSVRowError{Line: line, Message: "empty date"}
	}

	fields := [5]float64{}
	names := [5]string{"open", "high", "low", "close", "volume"}
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
		if err != nil {
			return Bar{}, &validation.CSVRowError{
				Line:    line,
				Message: fmt.Sprintf("invalid %s value %q", names[i], record[i+1]),
			}
		}
		fields[i] = v
	}

	return Bar{
		Date:   date,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}
