package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
)

type CartLine struct {
	FoodID      uint    `json:"food_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	IsAvailable bool    `json:"is_available"`
	Quantity    uint    `json:"quantity"`
	ItemTotal   float64 `json:"item_total"`
}

type CartSummary struct {
	ItemCount   int     `json:"item_count"`
	TotalItems  uint    `json:"total_items"`
	TotalAmount float64 `json:"total_amount"`
	DeliveryFee float64 `json:"delivery_fee"`
	FinalAmount float64 `json:"final_amount"`
}

type CartView struct {
	Items   []CartLine  `json:"items"`
	Summary CartSummary `json:"summary"`
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
