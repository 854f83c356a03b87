package statementimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// CSVParser reads bank export CSV files row by row. Headers are matched
// case-insensitively.
type CSVParser struct {
	delimiter  rune
	lazyQuotes bool
	headerMap  map[string]int
	headers    []string
	currentRow int
	totalRows  int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter forces the field delimiter. Without it the delimiter is
// detected from the header line.
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// NewCSVParser creates a new CSV parser from a reader
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		lazyQuotes: true,
		headerMap:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(parser)
	}

	parser.bufReader = bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	content, err := parser.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		_, _ = parser.bufReader.Discard(3)
	}

	sample, err := peekSample(parser.bufReader)
	if err != nil {
		return nil, err
	}
	if parser.delimiter == 0 {
		parser.delimiter = detectDelimiter(sample)
	}

	parser.reader = csv.NewReader(parser.bufReader)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = parser.lazyQuotes
	parser.reader.TrimLeadingSpace = true
	parser.reader.FieldsPerRecord = -1

	return parser, nil
}

// ParseFromBytes creates a parser from a byte slice
func ParseFromBytes(data []byte, opts ...ParserOption) (*CSVParser, error) {
	return NewCSVParser(bytes.NewReader(data), opts...)
}

// peekSample returns the leading bytes of the file after checking they are
// UTF-8
func peekSample(r *bufio.Reader) ([]byte, error) {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyFile
	}
	// a multi-byte rune may be cut at the end of the sample
	for i := 0; i < utf8.UTFMax && !utf8.Valid(content); i++ {
		if len(content) < checkSize {
			return nil, ErrInvalidEncoding
		}
		content = content[:len(content)-1]
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}
	return content, nil
}

// detectDelimiter picks the most frequent of ';', ',' and tab on the first
// line. Swiss bank exports default to ';'.
func detectDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{';', ',', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// Delimiter returns the delimiter in use
func (p *CSVParser) Delimiter() rune {
	return p.delimiter
}

// ParseHeader reads and parses the header row
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, 0, len(record))
	for i, h := range record {
		header := normalizeHeader(h)
		p.headers = append(p.headers, header)
		if _, dup := p.headerMap[header]; !dup {
			p.headerMap[header] = i
		}
	}
	if len(p.headers) == 0 {
		return ErrMissingHeader
	}

	p.currentRow = 1
	return nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Headers returns the normalized header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader checks if a header exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[normalizeHeader(name)]
	return ok
}

// Row is a parsed data row keyed by normalized header
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// First returns the first non-empty value among the given headers
func (r *Row) First(headers ...string) (string, string) {
	for _, h := range headers {
		if v := r.Data[h]; v != "" {
			return h, v
		}
	}
	return "", ""
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

func newRow(lineNumber int, headers, record []string) *Row {
	row := &Row{
		LineNumber: lineNumber,
		Data:       make(map[string]string, len(headers)),
	}
	for i, header := range headers {
		if header == "" {
			continue
		}
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		if _, set := row.Data[header]; !set || row.Data[header] == "" {
			row.Data[header] = value
		}
	}
	return row
}

// ReadRow reads the next row
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}
	p.totalRows++
	return newRow(p.currentRow, p.headers, record), nil
}

// ReadAllRows reads all remaining rows, skipping empty ones
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TotalRows returns the total number of data rows read
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}
