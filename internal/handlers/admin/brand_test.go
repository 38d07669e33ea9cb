package admin

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func setupBrandApp(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	h := &BrandHandler{DB: db}

	e := echo.New()
	e.GET("/brands", h.List)
	e.GET("/brands/:id", h.Get)
	e.POST("/brands", h.Create)
	e.PUT("/brands/:id", h.Update)
	e.DELETE("/brands/:id", h.Delete)

	return e, db
}

func TestBrandCRUD(t *testing.T) {
	e, db := setupBrandApp(t)

	rec := doJSON(t, e, http.MethodPost, "/brands", map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var brand models.Brand
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &brand))
	require.Equal(t, "Acme", brand.Name)

	rec = doJSON(t, e, http.MethodGet, "/brands/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodPut, "/brands/1", map[string]string{"name": "Acme Corp"})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, db.First(&brand, 1).Error)
	require.Equal(t, "Acme Corp", brand.Name)

	rec = doJSON(t, e, http.MethodGet, "/brands", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var brands []models.Brand
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &brands))
	require.Len(t, brands, 1)

	rec = doJSON(t, e, http.MethodDelete, "/brands/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodDelete, "/brands/1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBrandValidation(t *testing.T) {
	e, _ := setupBrandApp(t)

	rec := doJSON(t, e, http.MethodPost, "/brands", map[string]string{"name": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/brands/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/brands/42", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
