package tenant

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/storehub/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type scopedModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid"`
	Name           string
}

func (scopedModel) TableName() string { return "scoped_models" }

type globalModel struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Slug string
}

func (globalModel) TableName() string { return "global_models" }

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func tenantContext(id string) context.Context {
	return logger.WithTenantID(context.Background(), id)
}

func TestScope(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	orgID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "scoped_models" WHERE organization_id = \$1`).
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name"}))

	var rows []scopedModel
	require.NoError(t, db.Scopes(Scope(orgID)).Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallback_AddsFilterFromContext(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()
	require.NoError(t, Register(db, false))

	orgID := uuid.New().String()
	mock.ExpectQuery(`SELECT \* FROM "scoped_models" WHERE "scoped_models"."organization_id" = \$1`).
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name"}))

	var rows []scopedModel
	require.NoError(t, db.WithContext(tenantContext(orgID)).Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallback_KeepsExplicitScope(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()
	require.NoError(t, Register(db, false))

	orgID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "scoped_models" WHERE organization_id = \$1$`).
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name"}))

	var rows []scopedModel
	err := db.WithContext(tenantContext(orgID.String())).Scopes(Scope(orgID)).Find(&rows).Error
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallback_IgnoresTablesWithoutTenantColumn(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()
	require.NoError(t, Register(db, true))

	mock.ExpectQuery(`SELECT \* FROM "global_models"$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}))

	var rows []globalModel
	require.NoError(t, db.WithContext(tenantContext(uuid.New().String())).Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallback_CrossTenantSkipsFilter(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()
	require.NoError(t, Register(db, true))

	mock.ExpectQuery(`SELECT \* FROM "scoped_models"$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name"}))

	var rows []scopedModel
	require.NoError(t, CrossTenant(db.WithContext(context.Background())).Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallback_RequiredWithoutTenant(t *testing.T) {
	db, _, mockDB := setupMockDB(t)
	defer mockDB.Close()
	require.NoError(t, Register(db, true))

	var rows []scopedModel
	err := db.WithContext(context.Background()).Find(&rows).Error
	assert.ErrorIs(t, err, ErrTenantIDRequired)
}

func TestCallback_InvalidTenant(t *testing.T) {
	db, _, mockDB := setupMockDB(t)
	defer mockDB.Close()
	require.NoError(t, Register(db, false))

	var rows []scopedModel
	err := db.WithContext(tenantContext("not-a-uuid")).Find(&rows).Error
	assert.ErrorIs(t, err, ErrInvalidTenantID)
}

func TestUnregister(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()
	require.NoError(t, Register(db, true))
	Unregister(db)

	mock.ExpectQuery(`SELECT \* FROM "scoped_models"$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name"}))

	var rows []scopedModel
	require.NoError(t, db.WithContext(context.Background()).Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}
