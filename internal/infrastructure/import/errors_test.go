package statementimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowError(t *testing.T) {
	t.Run("Error with column", func(t *testing.T) {
		err := NewRowError(5, "amount", ErrCodeImportInvalidAmount, "not a number")
		assert.Equal(t, "row 5, column 'amount': not a number", err.Error())
	})

	t.Run("Error without column", func(t *testing.T) {
		err := NewRowError(10, "", ErrCodeImportCSVParsing, "malformed row")
		assert.Equal(t, "row 10: malformed row", err.Error())
	})

	t.Run("Error with value", func(t *testing.T) {
		err := NewRowErrorWithValue(3, "date", ErrCodeImportInvalidDate, "bad date", "32.13.2024")
		assert.Equal(t, "32.13.2024", err.Value)
		assert.Equal(t, 3, err.Row)
	})
}

func TestErrorCollection(t *testing.T) {
	t.Run("Add errors within limit", func(t *testing.T) {
		ec := NewErrorCollection(10)
		ec.AddRequiredError(2, "date")
		ec.AddFormatError(3, "amount", ErrCodeImportInvalidAmount, "a decimal number", "abc")

		assert.Equal(t, 2, ec.Count())
		assert.Equal(t, 2, ec.TotalCount())
		assert.True(t, ec.HasErrors())
		assert.False(t, ec.IsTruncated())
		assert.Equal(t, ErrCodeImportRequiredField, ec.Errors()[0].Code)
		assert.Equal(t, ErrCodeImportInvalidAmount, ec.Errors()[1].Code)
	})

	t.Run("Add errors exceeding limit", func(t *testing.T) {
		ec := NewErrorCollection(3)
		for i := 1; i <= 5; i++ {
			ec.AddRequiredError(i, "ref")
		}

		assert.Equal(t, 3, ec.Count())
		assert.Equal(t, 5, ec.TotalCount())
		assert.True(t, ec.IsTruncated())
		assert.Contains(t, ec.String(), "5 error(s) found (showing first 3)")
	})

	t.Run("Empty collection", func(t *testing.T) {
		ec := NewErrorCollection(0)
		assert.False(t, ec.HasErrors())
		assert.Equal(t, "no errors", ec.String())
	})
}

func TestMissingColumnsError(t *testing.T) {
	err := &MissingColumnsError{Columns: []string{"date", "amount"}}
	assert.Equal(t, "statement file is missing columns: date, amount", err.Error())
}
