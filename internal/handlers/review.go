package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/middleware"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/storage"
)

const ReviewImageDir = "ecommerce/reviews"

type ReviewHandler struct {
	DB       *gorm.DB
	Store    storage.Store
	Producer *mykafka.Producer
}

type createReviewRequest struct {
	ProductID uint     `json:"product_id"`
	Rating    *int     `json:"rating"`
	Detail    string   `json:"detail"`
	Images    []string `json:"images"`
}

// CreateReview records a rating. Only buyers of the product may review it,
// and only once.
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	userID := middleware.IdentityFrom(c).UserID

	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.ProductID == 0 || req.Rating == nil {
		return errorMessage(c, http.StatusBadRequest, "product_id and rating required")
	}
	if *req.Rating < 0 || *req.Rating > 5 {
		return errorMessage(c, http.StatusBadRequest, "rating must be between 0 and 5")
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var purchased int64
	if err := h.DB.Model(&models.OrderItem{}).
		Where("user_id = ? AND product_id = ?", userID, req.ProductID).
		Count(&purchased).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if purchased == 0 {
		return errorMessage(c, http.StatusForbidden, "User has not purchased this product.")
	}

	var existing models.Review
	err := h.DB.Where("product_id = ? AND user_id = ?", req.ProductID, userID).First(&existing).Error
	if err == nil {
		return errorMessage(c, http.StatusForbidden, "You can only rate a product once.")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	review := models.Review{
		ProductID: req.ProductID,
		UserID:    userID,
		Rating:    *req.Rating,
		Detail:    req.Detail,
		Images:    req.Images,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]interface{}{
		"type":      "review_created",
		"userID":    userID,
		"productID": req.ProductID,
		"rating":    *req.Rating,
	})

	return c.JSON(http.StatusCreated, review)
}

// UpdateReview edits the requester's own review. New images replace the old
// set, old blobs are removed from storage.
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	userID := middleware.IdentityFrom(c).UserID

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return errorMessage(c, http.StatusBadRequest, "invalid review id")
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Review not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if review.UserID != userID {
		return errorMessage(c, http.StatusForbidden, "Unauthorized action.")
	}

	ratingStr := c.FormValue("rating")
	rating, err := strconv.Atoi(ratingStr)
	if err != nil || rating < 0 || rating > 5 {
		return errorMessage(c, http.StatusBadRequest, "rating must be between 0 and 5")
	}
	review.Rating = rating
	if detail := c.FormValue("detail"); detail != "" {
		review.Detail = detail
	}

	form, err := c.MultipartForm()
	if err == nil && form != nil && len(form.File["images"]) > 0 {
		var images []string
		for _, fh := range form.File["images"] {
			path, err := storage.SaveUpload(h.Store, ReviewImageDir, fh)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			images = append(images, path)
		}
		for _, old := range review.Images {
			if err := h.Store.Delete(old); err != nil {
				c.Logger().Errorf("blob delete error: %v", err)
			}
		}
		review.Images = images
	}

	if err := h.DB.Save(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	userID := middleware.IdentityFrom(c).UserID

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return errorMessage(c, http.StatusBadRequest, "invalid review id")
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Review not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if review.UserID != userID {
		return errorMessage(c, http.StatusForbidden, "Unauthorized action.")
	}

	for _, img := range review.Images {
		if err := h.Store.Delete(img); err != nil {
			c.Logger().Errorf("blob delete error: %v", err)
		}
	}
	if err := h.DB.Delete(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Rating deleted successfully."})
}

func (h *ReviewHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "review_events", c.RealIP(), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
