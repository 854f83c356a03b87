package handler

import (
	"errors"
	"io"
	"net/http"

	completionapp "github.com/erp/billing/internal/application/completion"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatementHandler handles bank statement imports
type StatementHandler struct {
	BaseHandler
	importer StatementImporter
}

// NewStatementHandler creates a new StatementHandler
func NewStatementHandler(importer StatementImporter) *StatementHandler {
	return &StatementHandler{importer: importer}
}

// Import reads a multipart statement file and imports it into a journal.
// The lines of the new statement are completed before the response is sent.
//
// POST /statements/import  (multipart: file, journal_id, name)
func (h *StatementHandler) Import(c *gin.Context) {
	journalID, err := uuid.Parse(c.PostForm("journal_id"))
	if err != nil {
		h.BadRequest(c, "Invalid journal_id: must be a UUID")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A statement file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Statement file could not be opened")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.BadRequest(c, "Statement file could not be read")
		return
	}

	ctx := c.Request.Context()
	result, err := h.importer.Import(ctx, completionapp.ImportStatementRequest{
		JournalID: journalID,
		Filename:  fileHeader.Filename,
		Name:      c.PostForm("name"),
		Data:      data,
	})
	if err != nil {
		// Rejected files still carry row errors worth returning.
		var domainErr *shared.DomainError
		if result != nil && len(result.Errors) > 0 && errors.As(err, &domainErr) {
			resp := dto.NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, getRequestID(c))
			resp.Data = result
			c.JSON(http.StatusUnprocessableEntity, resp)
			return
		}
		h.HandleError(c, err)
		return
	}

	logger.L(logger.WithStatementID(ctx, result.StatementID.String())).Info("Statement imported",
		zap.String("filename", fileHeader.Filename),
		zap.Int("imported", result.Imported))
	h.Created(c, result)
}

// Complete reruns completion on the open lines of a statement
//
// POST /statements/:id/complete
func (h *StatementHandler) Complete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.importer.Complete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
