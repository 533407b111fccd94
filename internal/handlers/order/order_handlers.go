package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/foodcourt/backend/internal/jwtmiddleware"
	"github.com/foodcourt/backend/internal/mykafka"
	ordersvc "github.com/foodcourt/backend/internal/service/order"
)

type OrderHandler struct {
	Builder  *ordersvc.Builder
	Query    *ordersvc.Query
	Producer *mykafka.Producer
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	userID, err := jwtmiddleware.GetUserID(c)
	if err != nil {
		return err
	}

	var req ordersvc.PlaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	placed, err := h.Builder.Place(c.Request().Context(), userID, req)
	if err != nil {
		return mapPlaceError(err)
	}

	h.publish(c, map[string]any{
		"type":        "order_created",
		"userID":      userID,
		"orderID":     placed.ID,
		"orderNumber": placed.OrderNumber,
		"totalAmount": placed.TotalAmount,
	})
	return c.JSON(http.StatusCreated, placed)
}

func (h *OrderHandler) UserOrders(c echo.Context) error {
	userID, err := jwtmiddleware.GetUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	page, err := h.Query.ListByUser(c.Request().Context(), userID, req.Page, req.Limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, page)
}

// mapPlaceError keeps validation detail visible to the caller while storage
// failures stay opaque.
func mapPlaceError(err error) error {
	var vErr *ordersvc.ValidationError
	var iErr *ordersvc.ItemError
	switch {
	case errors.As(err, &vErr):
		return echo.NewHTTPError(http.StatusBadRequest, vErr.Error())
	case errors.Is(err, ordersvc.ErrCartEmpty):
		return echo.NewHTTPError(http.StatusBadRequest, "cart empty")
	case errors.Is(err, ordersvc.ErrBadPaymentStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &iErr):
		if iErr.Unavailable {
			return echo.NewHTTPError(http.StatusBadRequest, iErr.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, iErr.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
