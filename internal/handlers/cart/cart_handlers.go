package cart

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/foodcourt/backend/internal/jwtmiddleware"
	"github.com/foodcourt/backend/internal/logging"
	"github.com/foodcourt/backend/internal/models"
	"github.com/foodcourt/backend/internal/mykafka"
	"github.com/foodcourt/backend/internal/service/order"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type itemRequest struct {
	FoodID   uint `json:"food_id"`
	Quantity uint `json:"quantity"`
}

// AddItem increments the stored quantity for the food, creating the row if
// absent. No upper bound is enforced.
func (h *CartHandler) AddItem(c echo.Context) error {
	userID, err := jwtmiddleware.GetUserID(c)
	if err != nil {
		return err
	}

	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be positive")
	}

	var item models.CartItem
	tx := h.DB.Where("user_id = ? AND food_id = ?", userID, req.FoodID).First(&item)
	if tx.Error == nil {
		item.Quantity += req.Quantity
		if err := h.DB.Save(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	} else if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		item = models.CartItem{UserID: userID, FoodID: req.FoodID, Quantity: req.Quantity}
		if err := h.DB.Create(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	} else {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":     "cart_item_added",
		"userID":   userID,
		"foodID":   req.FoodID,
		"quantity": item.Quantity,
	})
	return c.JSON(http.StatusOK, echo.Map{"food_id": item.FoodID, "quantity": item.Quantity})
}

// RemoveItem decrements the stored quantity; a result at or below zero
// deletes the row entirely.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := jwtmiddleware.GetUserID(c)
	if err != nil {
		return err
	}

	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be positive")
	}

	var item models.CartItem
	if err := h.DB.Where("user_id = ? AND food_id = ?", userID, req.FoodID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if req.Quantity >= item.Quantity {
		if err := h.DB.Delete(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		h.publish(c, map[string]any{
			"type":   "cart_item_deleted",
			"userID": userID,
			"foodID": req.FoodID,
		})
		return c.JSON(http.StatusOK, echo.Map{"food_id": req.FoodID, "quantity": 0})
	}

	item.Quantity -= req.Quantity
	if err := h.DB.Save(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	h.publish(c, map[string]any{
		"type":     "cart_item_removed",
		"userID":   userID,
		"foodID":   req.FoodID,
		"quantity": item.Quantity,
	})
	return c.JSON(http.StatusOK, echo.Map{"food_id": item.FoodID, "quantity": item.Quantity})
}

// GetCart joins the stored quantities with current catalog data. Rows whose
// food no longer resolves are skipped and logged, not failed.
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := jwtmiddleware.GetUserID(c)
	if err != nil {
		return err
	}
	l := logging.FromContext(c.Request().Context()).With("handler", "cart_get", "user_id", userID)

	var items []models.CartItem
	if err := h.DB.Where("user_id = ? AND quantity > 0", userID).Order("food_id ASC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	lines := make([]CartLine, 0, len(items))
	for _, it := range items {
		var food models.Food
		if err := h.DB.First(&food, it.FoodID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				l.Warn("cart_item_skipped", "food_id", it.FoodID, "reason", "not_in_catalog")
				continue
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		lines = append(lines, CartLine{
			FoodID:      food.ID,
			Name:        food.Name,
			Price:       food.Price,
			Image:       food.Image,
			IsAvailable: food.IsAvailable,
			Quantity:    it.Quantity,
			ItemTotal:   food.Price * float64(it.Quantity),
		})
	}

	return c.JSON(http.StatusOK, CartView{
		Items:   lines,
		Summary: summarize(lines),
	})
}

// ClearCart empties the cart. Idempotent: clearing an empty cart succeeds.
func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := jwtmiddleware.GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})
	return c.JSON(http.StatusOK, CartView{Items: []CartLine{}, Summary: summarize(nil)})
}

func summarize(lines []CartLine) CartSummary {
	s := CartSummary{ItemCount: len(lines)}
	for _, l := range lines {
		s.TotalItems += l.Quantity
		s.TotalAmount += l.ItemTotal
	}
	if s.TotalAmount > 0 {
		s.DeliveryFee = order.DeliveryFee
	}
	s.FinalAmount = s.TotalAmount + s.DeliveryFee
	return s
}
