package tenancy

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Article stands in for any tenant-owned entity.
type Article struct {
	ID       uint
	TenantID uint
	Slug     string
	Title    string
	Status   string
}

func (Article) TenantScoped() {}

// Region stands in for a platform-global catalog table.
type Region struct {
	ID   uint
	Code string
}

func setupDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	require.NoError(t, db.Use(New(&Article{})))
	return db, mock
}

// dry returns a dry-run session bound to the given context, so tests can
// assert the SQL the plugin produces without a database.
func dry(db *gorm.DB, ctx context.Context) *gorm.DB {
	return db.Session(&gorm.Session{DryRun: true, Context: ctx})
}

func TestQueryInjectsTenantCondition(t *testing.T) {
	db, _ := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	var articles []Article
	tx := dry(db, ctx).Where("status = ?", "published").Find(&articles)
	require.NoError(t, tx.Error)

	sql := tx.Statement.SQL.String()
	assert.Contains(t, sql, "status = $1")
	assert.Contains(t, sql, `"articles"."tenant_id" = $2`)
	assert.Equal(t, []interface{}{"published", uint(7)}, tx.Statement.Vars)
}

func TestAttackerSuppliedTenantFilterIsANDed(t *testing.T) {
	db, _ := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	// The caller explicitly asks for another tenant's rows. The injected
	// constraint is ANDed on top, so the result set can only be empty.
	var articles []Article
	tx := dry(db, ctx).Where("tenant_id = ?", 999).Find(&articles)
	require.NoError(t, tx.Error)

	sql := tx.Statement.SQL.String()
	assert.Contains(t, sql, "tenant_id = $1")
	assert.Contains(t, sql, `AND "articles"."tenant_id" = $2`)
	assert.Equal(t, []interface{}{999, uint(7)}, tx.Statement.Vars)
}

func TestCreateForcesBoundTenant(t *testing.T) {
	db, _ := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	article := Article{Title: "hello", TenantID: 999}
	tx := dry(db, ctx).Create(&article)
	require.NoError(t, tx.Error)

	assert.Equal(t, uint(7), article.TenantID)
	assert.Contains(t, tx.Statement.Vars, uint(7))
	assert.NotContains(t, tx.Statement.Vars, uint(999))
}

func TestCreateManyForcesBoundTenantOnEveryRow(t *testing.T) {
	db, _ := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	articles := []Article{
		{Title: "a"},
		{Title: "b", TenantID: 999},
	}
	tx := dry(db, ctx).Create(&articles)
	require.NoError(t, tx.Error)

	for _, article := range articles {
		assert.Equal(t, uint(7), article.TenantID)
	}
}

func TestCreateFromMapForcesBoundTenant(t *testing.T) {
	db, _ := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	payload := map[string]interface{}{"title": "hello", "tenant_id": 999}
	tx := dry(db, ctx).Model(&Article{}).Create(payload)
	require.NoError(t, tx.Error)

	assert.Equal(t, uint(7), payload["tenant_id"])
}

func TestUpdateScopesAndPinsTenantColumn(t *testing.T) {
	db, _ := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	tx := dry(db, ctx).Model(&Article{}).
		Where("id = ?", 1).
		Updates(map[string]interface{}{"title": "new", "tenant_id": 999})
	require.NoError(t, tx.Error)

	sql := tx.Statement.SQL.String()
	assert.Contains(t, sql, `"articles"."tenant_id" = $`)
	assert.Contains(t, tx.Statement.Vars, uint(7))
	assert.NotContains(t, tx.Statement.Vars, 999)
}

func TestUpdateStructDestCannotMoveTenant(t *testing.T) {
	db, _ := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	tx := dry(db, ctx).Model(&Article{}).
		Where("id = ?", 1).
		Updates(Article{Title: "new", TenantID: 999})
	require.NoError(t, tx.Error)

	assert.Contains(t, tx.Statement.Vars, uint(7))
	assert.NotContains(t, tx.Statement.Vars, uint(999))
}

func TestDeleteInjectsTenantCondition(t *testing.T) {
	db, _ := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	tx := dry(db, ctx).Delete(&Article{}, 1)
	require.NoError(t, tx.Error)

	sql := tx.Statement.SQL.String()
	assert.Contains(t, sql, `"articles"."tenant_id" = $`)
	assert.Contains(t, tx.Statement.Vars, uint(7))
}

func TestCountInjectsTenantCondition(t *testing.T) {
	db, _ := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	var n int64
	tx := dry(db, ctx).Model(&Article{}).Count(&n)
	require.NoError(t, tx.Error)

	sql := tx.Statement.SQL.String()
	assert.Contains(t, sql, "count(*)")
	assert.Contains(t, sql, `"articles"."tenant_id" = $1`)
}

func TestCrossTenantUpdateAffectsZeroRows(t *testing.T) {
	db, mock := setupDB(t)

	// Tenant 1 owns article 1. A session bound to tenant 2 tries to
	// update it: the injected condition excludes the row, so the database
	// reports zero affected rows and the title is untouched.
	mock.ExpectExec(`UPDATE "articles"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := WithTenant(context.Background(), 2)
	tx := db.WithContext(ctx).Model(&Article{}).
		Where("id = ?", 1).
		Update("title", "hacked")
	require.NoError(t, tx.Error)

	assert.Equal(t, int64(0), tx.RowsAffected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertConflictHalfIsScoped(t *testing.T) {
	db, _ := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	article := Article{Slug: "intro", Title: "new title", TenantID: 999}
	tx := dry(db, ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "slug"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"title":     "new title",
			"tenant_id": 999,
		}),
	}).Create(&article)
	require.NoError(t, tx.Error)

	sql := tx.Statement.SQL.String()
	assert.Contains(t, sql, "ON CONFLICT")
	// The DO UPDATE half only applies to the bound tenant's row and never
	// reassigns the tenant column.
	assert.Contains(t, sql, `WHERE "articles"."tenant_id" = $`)
	assert.NotContains(t, sql, `SET "tenant_id"`)
	assert.Equal(t, uint(7), article.TenantID)
	assert.NotContains(t, tx.Statement.Vars, 999)
}

func TestUpsertUpdateAllExcludesTenantColumn(t *testing.T) {
	db, _ := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	article := Article{Slug: "intro", Title: "new title"}
	tx := dry(db, ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "slug"}},
		UpdateAll: true,
	}).Create(&article)
	require.NoError(t, tx.Error)

	sql := tx.Statement.SQL.String()
	assert.Contains(t, sql, "ON CONFLICT")
	assert.NotContains(t, sql, `"tenant_id"="excluded"."tenant_id"`)
	assert.Contains(t, sql, `"title"="excluded"."title"`)
}

func TestFirstOrCreateDecomposesIntoScopedHalves(t *testing.T) {
	db, mock := setupDB(t)
	ctx := WithTenant(context.Background(), 7)

	// Lookup is scoped, so another tenant's row is invisible and the
	// create half runs with the bound tenant forced in.
	mock.ExpectQuery(`SELECT \* FROM "articles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "slug", "title", "status"}))
	mock.ExpectQuery(`INSERT INTO "articles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	var article Article
	tx := db.WithContext(ctx).Where(Article{Slug: "intro"}).FirstOrCreate(&article)
	require.NoError(t, tx.Error)

	assert.Equal(t, uint(7), article.TenantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGlobalTablePassesThroughUnmodified(t *testing.T) {
	db, _ := setupDB(t)

	var regions []Region
	withBinding := dry(db, WithTenant(context.Background(), 7)).Find(&regions)
	require.NoError(t, withBinding.Error)
	noBinding := dry(db, context.Background()).Find(&regions)
	require.NoError(t, noBinding.Error)

	assert.Equal(t, withBinding.Statement.SQL.String(), noBinding.Statement.SQL.String())
	assert.NotContains(t, withBinding.Statement.SQL.String(), "tenant_id")
	assert.Empty(t, withBinding.Statement.Vars)
}

func TestScopedTableWithoutBindingFailsClosed(t *testing.T) {
	db, mock := setupDB(t)

	var articles []Article
	tx := db.WithContext(context.Background()).Find(&articles)

	assert.ErrorIs(t, tx.Error, ErrNoTenantBinding)
	// No SQL ever reaches the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestZeroTenantBindingFailsClosed(t *testing.T) {
	db, _ := setupDB(t)

	var articles []Article
	tx := db.WithContext(WithTenant(context.Background(), 0)).Find(&articles)

	assert.ErrorIs(t, tx.Error, ErrNoTenantBinding)
}

func TestUnscopedModeUnderTenantSessionFailsClosed(t *testing.T) {
	db, mock := setupDB(t)

	// Entering no-scoping mode on top of a tenant session is a wiring bug
	// and must never degrade into an unscoped query.
	ctx := WithoutTenant(WithTenant(context.Background(), 7))

	var articles []Article
	tx := db.WithContext(ctx).Find(&articles)

	assert.ErrorIs(t, tx.Error, ErrUnscopedTenantSession)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExplicitUnscopedModePassesThrough(t *testing.T) {
	db, _ := setupDB(t)

	var articles []Article
	tx := dry(db, WithoutTenant(context.Background())).Find(&articles)
	require.NoError(t, tx.Error)

	assert.NotContains(t, tx.Statement.SQL.String(), "tenant_id = $")
}

func TestInitializeRejectsModelWithoutTenantColumn(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	err = db.Use(New(badEntity{}))
	assert.Error(t, err)
}

// badEntity claims to be tenant-owned but has no tenant column.
type badEntity struct {
	ID uint
}

func (badEntity) TenantScoped() {}
