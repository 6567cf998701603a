package loader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var errNotFinite = errors.New("value is not finite")

// csvLoaderBackend is the loaderBackend for delimited text with a header row.
type csvLoaderBackend struct {
	delimiter   rune
	sampleLimit int
}

var _ loaderBackend = &csvLoaderBackend{}

func newCSVLoaderBackend(delimiter rune, sampleLimit int) *csvLoaderBackend {
	if delimiter == 0 {
		delimiter = ','
	}
	return &csvLoaderBackend{delimiter: delimiter, sampleLimit: sampleLimit}
}

func (b *csvLoaderBackend) Parse(r io.Reader) ([]PointRecord, parseStats, error) {
	var stats parseStats

	lr := &lineReader{r: bufio.NewReader(r)}

	header, _, err := b.nextRow(lr)
	if errors.Is(err, io.EOF) {
		return nil, stats, ErrEmptySource
	}
	if err != nil {
		return nil, stats, fmt.Errorf("%w: header: %v", ErrMalformedSource, err)
	}

	idx, err := columnIndexes(header)
	if err != nil {
		return nil, stats, err
	}

	var records []PointRecord
	for {
		row, line, err := b.nextRow(lr)
		if errors.Is(err, io.EOF) {
			break
		}

		var pe *csv.ParseError
		if errors.As(err, &pe) {
			// a broken quote spoils the line, not the stream
			stats.drop(&RowParseError{Line: line, Err: pe.Err}, b.sampleLimit)
			continue
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %v", ErrMalformedSource, err)
		}

		rec, rowErr := decodeRow(row, idx, line)
		if rowErr != nil {
			stats.drop(rowErr, b.sampleLimit)
			continue
		}
		records = append(records, rec)
	}

	return records, stats, nil
}

// nextRow decodes the next non-blank physical line. Quoted fields never span lines in
// the earthquake format, so each line is split on its own.
func (b *csvLoaderBackend) nextRow(lr *lineReader) ([]string, int, error) {
	for {
		text, line, err := lr.next()
		if err != nil {
			return nil, line, err
		}

		cr := csv.NewReader(strings.NewReader(text))
		cr.Comma = b.delimiter
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			continue
		}
		return row, line, err
	}
}

// lineReader yields physical lines without their terminators, numbered from 1.
type lineReader struct {
	r    *bufio.Reader
	line int
	done bool
}

func (lr *lineReader) next() (string, int, error) {
	if lr.done {
		return "", lr.line, io.EOF
	}
	text, err := lr.r.ReadString('\n')
	if errors.Is(err, io.EOF) {
		lr.done = true
		if text == "" {
			return "", lr.line, io.EOF
		}
	} else if err != nil {
		return "", lr.line, err
	}
	lr.line++
	return strings.TrimRight(text, "\r\n"), lr.line, nil
}

// columnIndexes maps each required column to its position in header.
func columnIndexes(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(RequiredColumns))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func decodeRow(row []string, idx map[string]int, line int) (PointRecord, *RowParseError) {
	var vals [4]float64
	for i, col := range RequiredColumns {
		pos := idx[col]
		if pos >= len(row) {
			return PointRecord{}, &RowParseError{Line: line, Column: col, Err: errors.New("field missing")}
		}
		raw := strings.TrimSpace(row[pos])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return PointRecord{}, &RowParseError{Line: line, Column: col, Value: raw, Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return PointRecord{}, &RowParseError{Line: line, Column: col, Value: raw, Err: errNotFinite}
		}
		vals[i] = v
	}

	return PointRecord{
		Longitude:   vals[0],
		Latitude:    vals[1],
		DepthMeters: vals[2] * 1000,
		Magnitude:   vals[3],
	}, nil
}
