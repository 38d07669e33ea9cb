// Package cart exposes the shopping cart over HTTP. The identity middleware
// decides whether a request gets the persisted or the session-backed store;
// the handlers never branch on authentication state themselves.
package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	cartstore "github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/middleware"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/session"
)

type CartHandler struct {
	DB       *gorm.DB
	Sessions session.Store
	Producer *mykafka.Producer
	BaseURL  string
}

func (h *CartHandler) storeFor(c echo.Context) cartstore.Store {
	ident := middleware.IdentityFrom(c)
	if ident.UserID != 0 {
		return &cartstore.DBStore{DB: h.DB, UserID: ident.UserID, BaseURL: h.BaseURL}
	}
	return &cartstore.SessionStore{
		Sessions: h.Sessions,
		Token:    ident.GuestToken,
		DB:       h.DB,
		BaseURL:  h.BaseURL,
	}
}

type mutateRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	var req mutateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "product_id required"})
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	count, err := h.storeFor(c).Add(c.Request().Context(), req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, cartstore.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Product not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]interface{}{
		"type":      "cart_item_added",
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Product added to cart",
		"count":   count,
	})
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	var req mutateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "product_id required"})
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	count, err := h.storeFor(c).Remove(c.Request().Context(), req.ProductID, req.Quantity)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]interface{}{
		"type":      "cart_item_removed",
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Product quantity updated",
		"count":   count,
	})
}

func (h *CartHandler) GetCart(c echo.Context) error {
	lines, err := h.storeFor(c).Lines(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cartstore.BuildView(lines))
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	if err := h.storeFor(c).Clear(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]interface{}{"type": "cart_cleared"})

	return c.JSON(http.StatusOK, map[string]string{"message": "Cart cleared"})
}

func (h *CartHandler) publish(c echo.Context, event map[string]interface{}) {
	ident := middleware.IdentityFrom(c)
	key := ident.GuestToken
	if ident.UserID != 0 {
		key = fmt.Sprint(ident.UserID)
	}
	event["identity"] = key

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
