package statementimport

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("camt-2024-03.CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = DetectFormat("march.xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Contains(t, f.ContentType(), "spreadsheetml")

	_, err = DetectFormat("march.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1'234.50", "1234.5"},
		{"1.234,50", "1234.5"},
		{"1,234.50", "1234.5"},
		{"-12.00", "-12"},
		{"12,5", "12.5"},
		{"CHF 50", "50"},
		{"1,234,567", "1234567"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := ParseAmount("twelve")
	assert.Error(t, err)
	_, err = ParseAmount(" ")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-03-01", "01.03.2024", "1.3.2024", "01.03.24", "01/03/2024", "20240301", "45352"} {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseDate(raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseDate("tomorrow")
	assert.Error(t, err)
}

func TestParser_CSV(t *testing.T) {
	csv := strings.Join([]string{
		"Date;Booking Text;Reference;Amount",
		"01.03.2024;Gutschrift EXPÉDITEUR: MEIER ANNA 8000 ZURICH;00000000000123450000610007;50,00",
		"02.03.2024;;000000000001234500001100012;42.00",
		"03.03.2024;Fee;;-5.00",
		"xx;Broken;;abc",
	}, "\n")

	result, err := NewParser().Parse("statement.csv", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, FormatCSV, result.Format)
	assert.Equal(t, 4, result.TotalRows)
	require.Len(t, result.Lines, 3)

	first := result.Lines[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "00000000000123450000610007", first.Ref)
	assert.True(t, decimal.NewFromInt(50).Equal(first.Amount))

	assert.Equal(t, "/", result.Lines[1].Name)
	assert.True(t, decimal.NewFromInt(-5).Equal(result.Lines[2].Amount))

	require.True(t, result.Errors.HasErrors())
	codes := []string{}
	for _, e := range result.Errors.Errors() {
		assert.Equal(t, 5, e.Row)
		codes = append(codes, e.Code)
	}
	assert.ElementsMatch(t, []string{ErrCodeImportInvalidDate, ErrCodeImportInvalidAmount}, codes)
}

func TestParser_CreditDebitColumns(t *testing.T) {
	csv := "date,text,credit,debit\n2024-03-01,In,100.00,\n2024-03-02,Out,,30.00\n"

	result, err := NewParser().Parse("statement.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, result.Lines, 2)
	assert.True(t, decimal.NewFromInt(100).Equal(result.Lines[0].Amount))
	assert.True(t, decimal.NewFromInt(-30).Equal(result.Lines[1].Amount))
}

func TestParser_MissingColumns(t *testing.T) {
	_, err := NewParser().Parse("statement.csv", strings.NewReader("foo,bar\n1,2\n"))

	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"date", "name or ref", "amount"}, missing.Columns)
}

func TestParser_NoDataRows(t *testing.T) {
	_, err := NewParser().Parse("statement.csv", strings.NewReader("date,name,amount\n,,\n"))
	assert.ErrorIs(t, err, ErrNoDataRows)
}

func TestParser_RejectsOverlongRef(t *testing.T) {
	csv := "date,ref,amount\n2024-03-01," + strings.Repeat("1", 65) + ",10\n"

	result, err := NewParser().Parse("statement.csv", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Empty(t, result.Lines)
	require.Equal(t, 1, result.Errors.Count())
	assert.Equal(t, "ref", result.Errors.Errors()[0].Column)
	assert.Equal(t, ErrCodeImportValidation, result.Errors.Errors()[0].Code)
}

func TestParser_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Date", "Name", "Ref", "Amount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2024-03-01", "ORDRE DEBIT DIRECT", "", 120.5}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{45353, "EXPÉDITEUR: MEIER ANNA", "123", -10}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	result, err := NewParser().Parse("march.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, FormatXLSX, result.Format)
	require.Len(t, result.Lines, 2, result.Errors.String())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), result.Lines[0].Date)
	assert.True(t, decimal.NewFromFloat(120.5).Equal(result.Lines[0].Amount))
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), result.Lines[1].Date)
	assert.Equal(t, 3, result.Lines[1].Row)
	assert.Equal(t, "123", result.Lines[1].Ref)
}

func TestNewXLSXParser_NotAWorkbook(t *testing.T) {
	_, err := NewXLSXParser(strings.NewReader("plain text"), "")
	assert.Error(t, err)
}
