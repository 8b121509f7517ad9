package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/aegis-analytics/internal/contracts"
)

// dateLayouts are tried in order for the date column
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return contracts.NormalizeDate(t), nil
		}
	}
	return time.Time{}, errors.New("unparseable date")
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.New("non-numeric value")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("non-finite value")
	}
	return v, nil
}

// ReadCSV loads a two-column (date, value) file.
// An optional header row is accepted when neither of its cells parses.
// Dates must be strictly increasing and, for prices, values must be positive.
func ReadCSV(path string, format contracts.ValueFormat) ([]contracts.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &contracts.MalformedInputError{Path: path, Reason: err.Error()}
	}
	defer f.Close()

	return parseCSV(f, path, format)
}

func parseCSV(r io.Reader, path string, format contracts.ValueFormat) ([]contracts.Point, error) {
	malformed := func(line int, format string, args ...interface{}) error {
		return &contracts.MalformedInputError{Path: path, Line: line, Reason: fmt.Sprintf(format, args...)}
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var points []contracts.Point
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, malformed(perr.Line, "%v", perr.Err)
			}
			return nil, malformed(0, "%v", err)
		}

		line, _ := reader.FieldPos(0)
		date, dateErr := parseDate(record[0])
		value, valueErr := parseValue(record[1])

		if first {
			first = false
			if dateErr != nil && valueErr != nil {
				continue // header
			}
		}
		if dateErr != nil {
			return nil, malformed(line, "%v", dateErr)
		}
		if valueErr != nil {
			return nil, malformed(line, "%v", valueErr)
		}
		if format == contracts.FormatPrices && value <= 0 {
			return nil, malformed(line, "price must be positive")
		}

		if n := len(points); n > 0 {
			prev := points[n-1].Date
			if date.Equal(prev) {
				return nil, malformed(line, "duplicate date %s", date.Format(contracts.DateLayout))
			}
			if date.Before(prev) {
				return nil, malformed(line, "dates not increasing: %s after %s",
					date.Format(contracts.DateLayout), prev.Format(contracts.DateLayout))
			}
		}

		points = append(points, contracts.Point{Date: date, Value: value})
	}

	if len(points) == 0 {
		return nil, malformed(0, "no data rows")
	}
	return points, nil
}
