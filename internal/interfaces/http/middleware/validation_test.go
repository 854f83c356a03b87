package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generateInput struct {
	GroupIDs []string `json:"group_ids" binding:"required,min=1,dive,uuid"`
	Method   string   `json:"change_method" binding:"omitempty,oneof=do_nothing clean_invoices"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "req-42")
		c.Next()
	})
	router.POST("/test", func(c *gin.Context) {
		var in generateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	t.Run("reports fields by JSON name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"group_ids":[],"change_method":"burn"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-42", resp.Error.RequestID)
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "group_ids", resp.Error.Details[0].Field)
		assert.Equal(t, "Must contain at least 1 items", resp.Error.Details[0].Message)
		assert.Equal(t, "change_method", resp.Error.Details[1].Field)
		assert.Equal(t, "oneof", resp.Error.Details[1].Code)
	})

	t.Run("accepts valid input", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"group_ids":["7f0c5f7e-4a5e-4f62-9d55-0d6a4c6ad001"]}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed JSON has no details", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Error.Details)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		Max      string `validate:"max=3"`
		UUID     string `validate:"uuid"`
		OneOf    string `validate:"oneof=a b"`
		GTE      int    `validate:"gte=10"`
		Date     string `validate:"datetime=2006-01-02"`
	}

	err := validator.New().Struct(sample{Min: "ab", Max: "abcd", UUID: "x", OneOf: "c", Date: "15/01/2024"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	got := map[string]string{}
	for _, e := range verrs {
		got[e.Field()] = getValidationMessage(e)
	}
	assert.Equal(t, map[string]string{
		"Required": "This field is required",
		"Min":      "Must be at least 5 characters",
		"Max":      "Must be at most 3 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: a b",
		"GTE":      "Must be greater than or equal to 10",
		"Date":     "Must be a date formatted as 2006-01-02",
	}, got)
}
