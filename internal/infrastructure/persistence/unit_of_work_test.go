package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUnitOfWork(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	uow := NewGormUnitOfWork(db)
	invoices := NewGormInvoiceRepository(db)

	exists := func(t *testing.T, id uuid.UUID) bool {
		t.Helper()
		found, err := invoices.FindByID(ctx, id)
		require.NoError(t, err)
		return found != nil
	}

	t.Run("rolls back the writes of a failed unit", func(t *testing.T) {
		inv := newTestInvoice(t, uuid.New(), day(2024, 3, 1), time.Now(), uuid.New())

		err := uow.Do(ctx, func(ctx context.Context) error {
			require.NoError(t, invoices.Create(ctx, inv))
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)
		assert.False(t, exists(t, inv.ID))
	})

	t.Run("a failed inner unit keeps the outer writes", func(t *testing.T) {
		kept := newTestInvoice(t, uuid.New(), day(2024, 3, 1), time.Now(), uuid.New())
		dropped := newTestInvoice(t, uuid.New(), day(2024, 3, 1), time.Now(), uuid.New())

		err := uow.Do(ctx, func(ctx context.Context) error {
			if err := invoices.Create(ctx, kept); err != nil {
				return err
			}
			inner := uow.Do(ctx, func(ctx context.Context) error {
				require.NoError(t, invoices.Create(ctx, dropped))
				return assert.AnError
			})
			assert.ErrorIs(t, inner, assert.AnError)
			return nil
		})
		require.NoError(t, err)

		assert.True(t, exists(t, kept.ID))
		assert.False(t, exists(t, dropped.ID))
	})
}
