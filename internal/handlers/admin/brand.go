// Package admin holds the data-entry CRUD surface for brands, categories
// and products.
package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type BrandHandler struct {
	DB *gorm.DB
}

func errorMessage(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func (h *BrandHandler) List(c echo.Context) error {
	var brands []models.Brand
	if err := h.DB.Order("id ASC").Find(&brands).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, brands)
}

func (h *BrandHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorMessage(c, http.StatusBadRequest, err.Error())
	}

	var brand models.Brand
	if err := h.DB.First(&brand, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Brand not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, brand)
}

func (h *BrandHandler) Create(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return errorMessage(c, http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return errorMessage(c, http.StatusBadRequest, "name required")
	}

	brand := models.Brand{Name: req.Name}
	if err := h.DB.Create(&brand).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, brand)
}

func (h *BrandHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorMessage(c, http.StatusBadRequest, err.Error())
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return errorMessage(c, http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return errorMessage(c, http.StatusBadRequest, "name required")
	}

	var brand models.Brand
	if err := h.DB.First(&brand, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Brand not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	brand.Name = req.Name
	if err := h.DB.Save(&brand).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, brand)
}

func (h *BrandHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorMessage(c, http.StatusBadRequest, err.Error())
	}

	res := h.DB.Delete(&models.Brand{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return errorMessage(c, http.StatusNotFound, "Brand not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Brand deleted"})
}
