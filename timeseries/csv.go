package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadOptions holds options for sales CSV loading.
type LoadOptions struct {
	DateColumn    string // Column name for dates (default: "date")
	SalesColumn   string // Column name for sales counts (default: "sales")
	WeekdayColumn string // Column name for the advisory day name (default: "weekday")
	DateFormat    string // Primary date format (default: "1/2/2006")
	HasHeader     bool   // Whether the file has a header row (default: true)
	Delimiter     rune   // Field delimiter (default: ',')
}

// DefaultLoadOptions returns the defaults for the bakery sales file layout:
// one row per day with date (month/day/4-digit-year), sales, weekday.
func DefaultLoadOptions() *LoadOptions {
	return &LoadOptions{
		DateColumn:    "date",
		SalesColumn:   "sales",
		WeekdayColumn: "weekday",
		DateFormat:    "1/2/2006",
		HasHeader:     true,
		Delimiter:     ',',
	}
}

// LoadSalesCSV loads daily sales records from a CSV file and returns them as
// a date-sorted series. Duplicate dates surface as a ScheduleIntegrityError.
func LoadSalesCSV(filename string, opts *LoadOptions) (*Series, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	return LoadSalesCSVFromReader(f, opts)
}

// LoadSalesCSVFromReader loads daily sales records from an io.Reader.
func LoadSalesCSVFromReader(r io.Reader, opts *LoadOptions) (*Series, error) {
	records, err := ReadSalesRecords(r, opts)
	if err != nil {
		return nil, err
	}
	return FromRecords(records)
}

// ReadSalesRecords parses sales rows without ordering guarantees. The
// weekday column is advisory only; the returned records carry the weekday
// recomputed from the parsed date.
func ReadSalesRecords(r io.Reader, opts *LoadOptions) ([]SalesRecord, error) {
	if opts == nil {
		opts = DefaultLoadOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true

	dateIdx, salesIdx := 0, 1
	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		dateIdx, salesIdx = -1, -1
		for i, h := range header {
			switch strings.ToLower(strings.TrimSpace(h)) {
			case strings.ToLower(opts.DateColumn):
				dateIdx = i
			case strings.ToLower(opts.SalesColumn):
				salesIdx = i
			}
		}
		if dateIdx == -1 || salesIdx == -1 {
			return nil, fmt.Errorf("columns %q and %q not found in header %v", opts.DateColumn, opts.SalesColumn, header)
		}
	}

	var records []SalesRecord
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++

		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if dateIdx >= len(record) || salesIdx >= len(record) {
			return nil, fmt.Errorf("row %d: expected at least %d columns, got %d", row, max(dateIdx, salesIdx)+1, len(record))
		}

		date, err := parseDate(strings.TrimSpace(record[dateIdx]), opts.DateFormat)
		if err != nil {
			return nil, &ScheduleIntegrityError{Reason: fmt.Sprintf("unparseable date %q on row %d", record[dateIdx], row)}
		}

		count, err := parseCount(strings.TrimSpace(record[salesIdx]))
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", row, date.Format("2006-01-02"), err)
		}

		records = append(records, SalesRecord{
			Date:    date,
			Count:   count,
			Weekday: date.Weekday(),
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no data rows found")
	}

	return records, nil
}

func parseDate(s, primary string) (time.Time, error) {
	formats := []string{primary, "1/2/2006", "01/02/2006", "2006-01-02"}
	var lastErr error
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseCount(s string) (int, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sales %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative sales count %v", v)
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("sales count %v is not integer-valued", v)
	}
	return int(v), nil
}

// SaveCSV writes the series to a CSV file as date,value rows with a header.
func SaveCSV(series *Series, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "value"}); err != nil {
		return err
	}
	for i, v := range series.Values {
		row := []string{
			series.Dates[i].Format("2006-01-02"),
			strconv.FormatFloat(v, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
