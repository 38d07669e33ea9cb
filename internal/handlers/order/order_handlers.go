// Package order is the HTTP adapter over the checkout service.
package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/middleware"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/order"
)

type OrderHandler struct {
	Svc      *order.Service
	Producer *mykafka.Producer
}

type createOrderRequest struct {
	AddressID uint                `json:"address_id"`
	Products  []order.ItemRequest `json:"products"`
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID := middleware.IdentityFrom(c).UserID

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}

	result, err := h.Svc.CreateOrder(c.Request().Context(), userID, req.AddressID, req.Products)
	if err != nil {
		var dup *order.DuplicateError
		switch {
		case errors.As(err, &dup):
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"error":    "Order already exists within the last 15 minutes.",
				"order_id": dup.OrderID,
			})
		case errors.Is(err, order.ErrForbidden):
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "The selected address does not belong to the authenticated user.",
			})
		case errors.Is(err, order.ErrValidation), errors.Is(err, order.ErrNotFound):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	h.publish(c, userID, map[string]interface{}{
		"type":         "order_created",
		"userID":       userID,
		"orderID":      result.OrderID,
		"order_amount": result.OrderAmount,
	})

	return c.JSON(http.StatusCreated, result)
}

func (h *OrderHandler) publish(c echo.Context, userID uint, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(userID), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
