package admin

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/util"
)

const categoryImageDir = "ecommerce/categories"

type CategoryHandler struct {
	DB    *gorm.DB
	Store storage.Store
}

func (h *CategoryHandler) List(c echo.Context) error {
	var categories []models.Category
	if err := h.DB.Order("id ASC").Find(&categories).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorMessage(c, http.StatusBadRequest, err.Error())
	}

	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, category)
}

// Create accepts a multipart form: name, slug, is_active and an optional
// icon image.
func (h *CategoryHandler) Create(c echo.Context) error {
	name := c.FormValue("name")
	slug := util.Slugify(c.FormValue("slug"))
	if name == "" || slug == "" {
		return errorMessage(c, http.StatusBadRequest, "name and slug required")
	}

	if taken, err := h.nameOrSlugTaken(name, slug, 0); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	} else if taken {
		return errorMessage(c, http.StatusConflict, "category name or slug already exists")
	}

	category := models.Category{
		Name:     name,
		Slug:     slug,
		IsActive: c.FormValue("is_active") != "false",
	}

	if fh, err := c.FormFile("image"); err == nil {
		path, err := storage.SaveUpload(h.Store, categoryImageDir, fh)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		category.Icon = path
	}

	if err := h.DB.Create(&category).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorMessage(c, http.StatusBadRequest, err.Error())
	}

	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	name := c.FormValue("name")
	slug := util.Slugify(c.FormValue("slug"))
	if name == "" || slug == "" {
		return errorMessage(c, http.StatusBadRequest, "name and slug required")
	}

	if taken, err := h.nameOrSlugTaken(name, slug, category.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	} else if taken {
		return errorMessage(c, http.StatusConflict, "category name or slug already exists")
	}

	category.Name = name
	category.Slug = slug
	category.IsActive = c.FormValue("is_active") != "false"

	if fh, err := c.FormFile("image"); err == nil {
		path, err := storage.SaveUpload(h.Store, categoryImageDir, fh)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if category.Icon != "" {
			if err := h.Store.Delete(category.Icon); err != nil {
				c.Logger().Errorf("blob delete error: %v", err)
			}
		}
		category.Icon = path
	}

	if err := h.DB.Save(&category).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorMessage(c, http.StatusBadRequest, err.Error())
	}

	var category models.Category
	if err := h.DB.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if category.Icon != "" {
		if err := h.Store.Delete(category.Icon); err != nil {
			c.Logger().Errorf("blob delete error: %v", err)
		}
	}
	if err := h.DB.Delete(&category).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Category deleted"})
}

func (h *CategoryHandler) nameOrSlugTaken(name, slug string, excludeID uint) (bool, error) {
	var n int64
	q := h.DB.Model(&models.Category{}).
		Where(h.DB.Where("name = ?", name).Or("slug = ?", slug))
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
