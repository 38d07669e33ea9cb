package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/util"
)

var errInternal = errors.New("internal")

type ProductHandler struct {
	DB       *gorm.DB
	Store    storage.Store
	Producer *mykafka.Producer
}

func (h *ProductHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Product{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var products []models.Product
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": products,
		"meta": map[string]interface{}{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorMessage(c, http.StatusBadRequest, err.Error())
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, product)
}

// Create accepts a multipart form with the product fields plus any number
// of image files under "images".
func (h *ProductHandler) Create(c echo.Context) error {
	product, err := h.bindForm(c, nil)
	if err != nil {
		if errors.Is(err, errInternal) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return errorMessage(c, http.StatusBadRequest, err.Error())
	}

	if taken, err := h.slugTaken(product.Slug, 0); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	} else if taken {
		return errorMessage(c, http.StatusConflict, "product slug already exists")
	}

	images, err := h.saveImages(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	product.Images = images

	if err := h.DB.Create(product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]interface{}{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})
	return c.JSON(http.StatusCreated, product)
}

// Update rewrites the scalar fields and appends any newly uploaded images
// to the existing set.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorMessage(c, http.StatusBadRequest, err.Error())
	}

	var existing models.Product
	if err := h.DB.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	product, err := h.bindForm(c, &existing)
	if err != nil {
		if errors.Is(err, errInternal) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return errorMessage(c, http.StatusBadRequest, err.Error())
	}

	if taken, err := h.slugTaken(product.Slug, existing.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	} else if taken {
		return errorMessage(c, http.StatusConflict, "product slug already exists")
	}

	images, err := h.saveImages(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	product.Images = append(product.Images, images...)

	if err := h.DB.Save(product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]interface{}{
		"type":      "product_updated",
		"productID": product.ID,
	})
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorMessage(c, http.StatusBadRequest, err.Error())
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	for _, img := range product.Images {
		if err := h.Store.Delete(img); err != nil {
			c.Logger().Errorf("blob delete error: %v", err)
		}
	}
	if err := h.DB.Delete(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]interface{}{
		"type":      "product_deleted",
		"productID": product.ID,
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "Product deleted"})
}

// bindForm reads the multipart fields into base (a fresh product when nil),
// validating required fields and the category reference. Errors wrapping
// errInternal are storage faults, everything else is caller input.
func (h *ProductHandler) bindForm(c echo.Context, base *models.Product) (*models.Product, error) {
	if base == nil {
		base = &models.Product{}
	}

	name := c.FormValue("product_name")
	slug := util.Slugify(c.FormValue("slug"))
	priceStr := c.FormValue("price")
	categoryStr := c.FormValue("category_id")
	status := c.FormValue("status")

	if name == "" || slug == "" || priceStr == "" || categoryStr == "" {
		return nil, errors.New("category_id, product_name, slug and price required")
	}
	if status != models.ProductStatusActive && status != models.ProductStatusInactive {
		return nil, errors.New("status must be active or inactive")
	}

	categoryID, err := strconv.Atoi(categoryStr)
	if err != nil || categoryID <= 0 {
		return nil, errors.New("invalid category_id")
	}
	var category models.Category
	if err := h.DB.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("category does not exist")
		}
		return nil, fmt.Errorf("%w: %v", errInternal, err)
	}

	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil || price < 0 {
		return nil, errors.New("invalid price")
	}

	base.CategoryID = uint(categoryID)
	base.Name = name
	base.Slug = slug
	base.Price = price
	base.Status = status
	base.SKU = c.FormValue("sku_name")
	base.Detail = c.FormValue("product_detail")
	base.Specification = c.FormValue("product_specification")
	base.Tags = c.FormValue("tags")

	if v := c.FormValue("sale_price"); v != "" {
		sale, err := strconv.ParseFloat(v, 64)
		if err != nil || sale < 0 {
			return nil, errors.New("invalid sale_price")
		}
		base.SalePrice = &sale
	}
	if v := c.FormValue("additional_tax"); v != "" {
		tax, err := strconv.ParseFloat(v, 64)
		if err != nil || tax < 0 {
			return nil, errors.New("invalid additional_tax")
		}
		base.AdditionalTax = tax
	}
	if v := c.FormValue("quantity"); v != "" {
		qty, err := strconv.Atoi(v)
		if err != nil || qty < 0 {
			return nil, errors.New("invalid quantity")
		}
		base.Quantity = uint(qty)
	}
	if v := c.FormValue("brand_id"); v != "" {
		brandID, err := strconv.Atoi(v)
		if err != nil || brandID <= 0 {
			return nil, errors.New("invalid brand_id")
		}
		b := uint(brandID)
		base.BrandID = &b
	}

	return base, nil
}

func (h *ProductHandler) saveImages(c echo.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}

	var images []string
	for _, fh := range form.File["images"] {
		path, err := storage.SaveUpload(h.Store, cart.ProductImageDir, fh)
		if err != nil {
			return nil, err
		}
		images = append(images, path)
	}
	return images, nil
}

func (h *ProductHandler) slugTaken(slug string, excludeID uint) (bool, error) {
	var n int64
	q := h.DB.Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (h *ProductHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", c.RealIP(), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
