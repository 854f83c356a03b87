package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockPartnerRepository creates a GormPartnerRepository with a mocked SQL connection
func newMockPartnerRepository(t *testing.T) (*GormPartnerRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPartnerRepository(gormDB), mock, mockDB
}

func mustPartner(t *testing.T, ref, first, last string, isCompany bool) *partner.Partner {
	t.Helper()
	p, err := partner.NewPartner(ref, first, last, isCompany)
	require.NoError(t, err)
	return p
}

func TestGormPartnerRepository_FindByID_SQL(t *testing.T) {
	t.Run("returns nil for unknown partner", func(t *testing.T) {
		repo, mock, mockDB := newMockPartnerRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "partners" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		p, err := repo.FindByID(context.Background(), id)

		assert.NoError(t, err)
		assert.Nil(t, p)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates driver errors", func(t *testing.T) {
		repo, mock, mockDB := newMockPartnerRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "partners" WHERE id = \$1`).
			WithArgs(id, 1).
			WillReturnError(sql.ErrConnDone)

		p, err := repo.FindByID(context.Background(), id)

		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.Nil(t, p)
	})
}

func TestGormPartnerRepository_FindByRef_SQL(t *testing.T) {
	repo, mock, mockDB := newMockPartnerRepository(t)
	defer mockDB.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "partners" WHERE ref = \$1 AND is_company = \$2 ORDER BY created_at, id`).
		WithArgs("1234", false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ref", "first_name", "last_name", "is_company"}).
			AddRow(id.String(), "1234", "Anna", "Meier", false))

	partners, err := repo.FindByRef(context.Background(), "1234", false)

	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, id, partners[0].ID)
	assert.Equal(t, "Meier Anna", partners[0].DisplayName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPartnerRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormPartnerRepository(db)

	anna := mustPartner(t, "001234", "Anna-Lena", "Müller", false)
	company := mustPartner(t, "1234", "", "Müller AG", true)
	other := mustPartner(t, "555", "Hans", "MÜLLER", false)
	for _, p := range []*partner.Partner{anna, company, other} {
		require.NoError(t, repo.Save(ctx, p))
	}

	t.Run("FindByID round trips", func(t *testing.T) {
		found, err := repo.FindByID(ctx, anna.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "1234", found.Ref)
		assert.Equal(t, "Anna-Lena", found.FirstName)
	})

	t.Run("FindByID returns nil when absent", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New())
		assert.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("FindByRef filters companies", func(t *testing.T) {
		individuals, err := repo.FindByRef(ctx, "1234", false)
		require.NoError(t, err)
		require.Len(t, individuals, 1)
		assert.Equal(t, anna.ID, individuals[0].ID)

		companies, err := repo.FindByRef(ctx, "1234", true)
		require.NoError(t, err)
		require.Len(t, companies, 1)
		assert.Equal(t, company.ID, companies[0].ID)
	})

	t.Run("FindByName folds case and accents", func(t *testing.T) {
		matches, err := repo.FindByName(ctx, "MÜLLER", "lena")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, anna.ID, matches[0].ID)

		matches, err = repo.FindByName(ctx, "müller", "")
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("Save updates existing partner", func(t *testing.T) {
		require.NoError(t, anna.AttachTo(company.ID))
		require.NoError(t, repo.Save(ctx, anna))

		found, err := repo.FindByID(ctx, anna.ID)
		require.NoError(t, err)
		require.NotNil(t, found.ParentID)
		assert.Equal(t, company.ID, *found.ParentID)
		assert.Equal(t, company.ID, found.AccountingPartnerID())
	})
}
