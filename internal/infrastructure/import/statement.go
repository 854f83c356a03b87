// Package statementimport reads bank statement exports (CSV or XLSX) into
// statement lines ready for completion.
package statementimport

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Format is a supported statement file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat derives the format from the file extension
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
}

// ContentType returns the MIME type used when archiving the file
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Column aliases, matched against normalized headers
var (
	dateColumns   = []string{"date", "booking date", "booking_date", "value date", "valuta", "datum"}
	nameColumns   = []string{"name", "label", "description", "text", "booking text", "buchungstext", "libellé"}
	refColumns    = []string{"ref", "reference", "referenz", "esr reference", "bvr"}
	amountColumns = []string{"amount", "betrag", "montant"}
	creditColumns = []string{"credit", "gutschrift"}
	debitColumns  = []string{"debit", "belastung"}
)

// placeholderName is what banks print when a movement has no description
const placeholderName = "/"

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"02.01.06",
	"02/01/2006",
	"20060102",
	time.RFC3339,
}

// Line is one parsed statement movement
type Line struct {
	Row    int
	Date   time.Time `validate:"required"`
	Name   string    `validate:"required,max=512"`
	Ref    string    `validate:"omitempty,max=64"`
	Amount decimal.Decimal
}

// Result is the outcome of parsing a statement file. Rows with errors are
// reported in Errors and left out of Lines.
type Result struct {
	Format    Format
	Lines     []Line
	TotalRows int
	Errors    *ErrorCollection
}

// Parser turns statement files into lines
type Parser struct {
	validate  *validator.Validate
	maxErrors int
	sheet     string
}

// Option configures a Parser
type Option func(*Parser)

// WithMaxErrors caps the number of row errors kept
func WithMaxErrors(n int) Option {
	return func(p *Parser) {
		p.maxErrors = n
	}
}

// WithSheet selects the workbook sheet to read
func WithSheet(name string) Option {
	return func(p *Parser) {
		p.sheet = name
	}
}

// NewParser creates a new Parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		maxErrors: 100,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads a statement file. The format follows the file name.
func (p *Parser) Parse(filename string, r io.Reader) (*Result, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	var (
		headers []string
		rows    []*Row
	)
	switch format {
	case FormatXLSX:
		xp, err := NewXLSXParser(r, p.sheet)
		if err != nil {
			return nil, err
		}
		if err := xp.ParseHeader(); err != nil {
			return nil, err
		}
		headers = xp.Headers()
		if rows, err = xp.ReadAllRows(); err != nil {
			return nil, err
		}
	default:
		cp, err := NewCSVParser(r)
		if err != nil {
			return nil, err
		}
		if err := cp.ParseHeader(); err != nil {
			return nil, err
		}
		headers = cp.Headers()
		if rows, err = cp.ReadAllRows(); err != nil {
			return nil, err
		}
	}

	if err := checkColumns(headers); err != nil {
		return nil, err
	}

	result := &Result{
		Format:    format,
		TotalRows: len(rows),
		Errors:    NewErrorCollection(p.maxErrors),
	}
	for _, row := range rows {
		if line, ok := p.parseRow(row, result.Errors); ok {
			result.Lines = append(result.Lines, line)
		}
	}
	if len(result.Lines) == 0 && !result.Errors.HasErrors() {
		return nil, ErrNoDataRows
	}
	return result, nil
}

func checkColumns(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	has := func(aliases []string) bool {
		for _, a := range aliases {
			if present[a] {
				return true
			}
		}
		return false
	}

	var missing []string
	if !has(dateColumns) {
		missing = append(missing, "date")
	}
	if !has(nameColumns) && !has(refColumns) {
		missing = append(missing, "name or ref")
	}
	if !has(amountColumns) && !has(creditColumns) && !has(debitColumns) {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

func (p *Parser) parseRow(row *Row, errs *ErrorCollection) (Line, bool) {
	line := Line{Row: row.LineNumber}
	valid := true

	dateCol, rawDate := row.First(dateColumns...)
	if rawDate == "" {
		errs.AddRequiredError(row.LineNumber, "date")
		valid = false
	} else if d, err := ParseDate(rawDate); err != nil {
		errs.AddFormatError(row.LineNumber, dateCol, ErrCodeImportInvalidDate, "a date such as 2024-03-01 or 01.03.2024", rawDate)
		valid = false
	} else {
		line.Date = d
	}

	amount, err := rowAmount(row)
	if err != nil {
		var rowErr RowError
		if errors.As(err, &rowErr) {
			rowErr.Row = row.LineNumber
			errs.Add(rowErr)
		}
		valid = false
	} else {
		line.Amount = amount
	}

	_, line.Name = row.First(nameColumns...)
	_, line.Ref = row.First(refColumns...)
	line.Ref = strings.ReplaceAll(line.Ref, " ", "")
	if line.Name == "" {
		line.Name = placeholderName
	}

	if !valid {
		return Line{}, false
	}
	if err := p.validate.Struct(line); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs.Add(NewRowError(row.LineNumber, strings.ToLower(fe.Field()), ErrCodeImportValidation,
					fmt.Sprintf("failed '%s' validation", fe.Tag())))
			}
		}
		return Line{}, false
	}
	return line, true
}

// rowAmount reads a signed amount column, or credit minus debit
func rowAmount(row *Row) (decimal.Decimal, error) {
	if col, raw := row.First(amountColumns...); raw != "" {
		d, err := ParseAmount(raw)
		if err != nil {
			return decimal.Zero, NewRowErrorWithValue(0, col, ErrCodeImportInvalidAmount, "invalid amount", raw)
		}
		return d, nil
	}

	creditCol, credit := row.First(creditColumns...)
	debitCol, debit := row.First(debitColumns...)
	if credit == "" && debit == "" {
		return decimal.Zero, NewRowError(0, "amount", ErrCodeImportRequiredField, "field 'amount' is required")
	}
	total := decimal.Zero
	if credit != "" {
		d, err := ParseAmount(credit)
		if err != nil {
			return decimal.Zero, NewRowErrorWithValue(0, creditCol, ErrCodeImportInvalidAmount, "invalid amount", credit)
		}
		total = total.Add(d.Abs())
	}
	if debit != "" {
		d, err := ParseAmount(debit)
		if err != nil {
			return decimal.Zero, NewRowErrorWithValue(0, debitCol, ErrCodeImportInvalidAmount, "invalid amount", debit)
		}
		total = total.Sub(d.Abs())
	}
	return total, nil
}

// ParseAmount parses amounts as printed by bank exports: 1'234.50,
// 1.234,50, -12.00, 12,5
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.NewReplacer("'", "", "’", "", " ", "", " ", "", "CHF", "").Replace(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return decimal.NewFromString(s)
}

// ParseDate parses the usual statement date layouts, and Excel serial
// numbers as read from raw workbook cells. Dates are returned at midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 100000 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
