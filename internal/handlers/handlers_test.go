package handlers

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/models"
)

var testSecret = []byte("test-secret")

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) (models.Category, models.Product) {
	t.Helper()

	cat := models.Category{Name: "Kitchen", Slug: "kitchen", IsActive: true}
	require.NoError(t, db.Create(&cat).Error)

	p := models.Product{
		CategoryID: cat.ID,
		Name:       "Kettle",
		Slug:       "kettle",
		Price:      25,
		Status:     models.ProductStatusActive,
		Images:     []string{"kettle.jpg"},
	}
	require.NoError(t, db.Create(&p).Error)

	return cat, p
}
