package completion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/erp/billing/internal/domain/completion"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const statementCSV = "date;name;ref;amount\n" +
	"05.03.2024;Muster Anna;000000000000123400042100000;50.00\n" +
	"06.03.2024;ORDRE DEBIT DIRECT;;1'200.50\n"

func newImportService(t *testing.T) (*ImportService, *MockStatementStore, *MockLineCompleter, *MockObjectStorage) {
	stmts := new(MockStatementStore)
	engine := new(MockLineCompleter)
	archive := new(MockObjectStorage)
	hook := NewStatementImportHook(stmts, engine, nil, nil, zaptest.NewLogger(t))
	return NewImportService(stmts, hook, archive, "billing", zaptest.NewLogger(t)), stmts, engine, archive
}

func TestImportService_Import(t *testing.T) {
	ctx := context.Background()
	svc, stmts, engine, archive := newImportService(t)
	journalID := uuid.New()

	var stored *completion.Statement
	stmts.On("Create", ctx, mock.AnythingOfType("*completion.Statement")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*completion.Statement) }).
		Return(nil)
	stmts.On("FindByID", mock.Anything, mock.AnythingOfType("uuid.UUID")).
		Return(func(context.Context, uuid.UUID) *completion.Statement { return stored }, nil)
	archive.On("Upload", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "billing/statements/") && strings.HasSuffix(key, "/march.csv")
	}), []byte(statementCSV), "text/csv").Return(nil)
	engine.On("Complete", mock.Anything, mock.Anything).Return(completion.Match{}, nil)

	result, err := svc.Import(ctx, ImportStatementRequest{
		JournalID: journalID,
		Filename:  "march.csv",
		Data:      []byte(statementCSV),
	})
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, stored.ID, result.StatementID)
	assert.Equal(t, journalID, stored.JournalID)
	assert.Equal(t, "march.csv", stored.Name)
	assert.Equal(t, 2, result.Imported)
	assert.NotEmpty(t, result.ArchiveKey)
	require.NotNil(t, result.Completion)
	assert.Equal(t, 2, result.Completion.Unmatched)

	require.Len(t, stored.Lines, 2)
	assert.Equal(t, "000000000000123400042100000", stored.Lines[0].Ref)
	assert.True(t, stored.Lines[1].Amount.Equal(decimal.RequireFromString("1200.50")))
	assert.Equal(t, 2, stored.Lines[1].Sequence)
}

func TestImportService_ArchiveFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	svc, stmts, engine, archive := newImportService(t)

	var stored *completion.Statement
	stmts.On("Create", ctx, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*completion.Statement) }).
		Return(nil)
	stmts.On("FindByID", mock.Anything, mock.Anything).
		Return(func(context.Context, uuid.UUID) *completion.Statement { return stored }, nil)
	archive.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket missing"))
	engine.On("Complete", mock.Anything, mock.Anything).Return(completion.Match{}, nil)

	result, err := svc.Import(ctx, ImportStatementRequest{JournalID: uuid.New(), Filename: "march.csv", Data: []byte(statementCSV)})
	require.NoError(t, err)
	assert.Empty(t, result.ArchiveKey)
	assert.Equal(t, 2, result.Imported)
}

func TestImportService_RejectsInvalidRows(t *testing.T) {
	svc, stmts, _, _ := newImportService(t)
	data := "date;name;amount\n05.03.2024;ok;10\nnot-a-date;bad;abc\n"

	result, err := svc.Import(context.Background(), ImportStatementRequest{JournalID: uuid.New(), Filename: "bad.csv", Data: []byte(data)})
	assert.ErrorIs(t, err, ErrStatementRejected)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Errors)
	stmts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestImportService_InvalidRequest(t *testing.T) {
	svc, _, _, _ := newImportService(t)

	tests := []struct {
		name string
		req  ImportStatementRequest
	}{
		{"missing journal", ImportStatementRequest{Filename: "a.csv", Data: []byte("x")}},
		{"missing file name", ImportStatementRequest{JournalID: uuid.New(), Data: []byte("x")}},
		{"unsupported format", ImportStatementRequest{JournalID: uuid.New(), Filename: "a.pdf", Data: []byte("x")}},
		{"missing columns", ImportStatementRequest{JournalID: uuid.New(), Filename: "a.csv", Data: []byte("foo;bar\n1;2\n")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Import(context.Background(), tt.req)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}
