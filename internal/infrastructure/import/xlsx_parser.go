package statementimport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXParser reads one sheet of a workbook. The first row is the header.
// Cells are read raw, so dates arrive as Excel serial numbers.
type XLSXParser struct {
	sheet   string
	headers []string
	rows    [][]string
}

// NewXLSXParser opens a workbook from a reader. An empty sheet name picks
// the first sheet.
func NewXLSXParser(r io.Reader, sheet string) (*XLSXParser, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return &XLSXParser{sheet: sheet, rows: rows}, nil
}

// Sheet returns the sheet being read
func (p *XLSXParser) Sheet() string {
	return p.sheet
}

// ParseHeader normalizes the first row
func (p *XLSXParser) ParseHeader() error {
	if len(p.rows[0]) == 0 {
		return ErrMissingHeader
	}
	p.headers = make([]string, len(p.rows[0]))
	for i, h := range p.rows[0] {
		p.headers[i] = normalizeHeader(h)
	}
	return nil
}

// Headers returns the normalized header names
func (p *XLSXParser) Headers() []string {
	return p.headers
}

// ReadAllRows returns the data rows, skipping empty ones. Line numbers match
// the spreadsheet row numbers.
func (p *XLSXParser) ReadAllRows() ([]*Row, error) {
	if p.headers == nil {
		if err := p.ParseHeader(); err != nil {
			return nil, err
		}
	}
	rows := make([]*Row, 0, len(p.rows)-1)
	for i, record := range p.rows[1:] {
		row := newRow(i+2, p.headers, record)
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
