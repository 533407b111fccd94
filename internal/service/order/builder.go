package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/foodcourt/backend/internal/logging"
	"github.com/foodcourt/backend/internal/models"
)

// DeliveryFee is the flat fee added to every placed order.
const DeliveryFee = 2.0

const maxNumberAttempts = 5

// Builder converts a user's cart into a persisted order: it validates the
// address and every cart line, snapshots current catalog prices into the
// line items and clears the cart in the same transaction that creates the
// order.
type Builder struct {
	DB *gorm.DB
}

type PlaceRequest struct {
	Address       models.Address       `json:"address"`
	PaymentID     string               `json:"payment_id"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

func (b *Builder) Place(ctx context.Context, userID uint, req PlaceRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("service", "order_builder", "user_id", userID)

	if missing := missingAddressFields(req.Address); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	paymentStatus, err := normalizePaymentStatus(req.PaymentStatus)
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := b.DB.WithContext(ctx).
		Where("user_id = ? AND quantity > 0", userID).
		Order("food_id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	// All-or-nothing: every line must resolve to an available food before
	// anything is written.
	lines := make([]models.OrderItem, 0, len(items))
	var subtotal float64
	for _, it := range items {
		var food models.Food
		if err := b.DB.WithContext(ctx).First(&food, it.FoodID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &ItemError{FoodID: it.FoodID}
			}
			return nil, fmt.Errorf("resolve food %d: %w", it.FoodID, err)
		}
		if !food.IsAvailable {
			return nil, &ItemError{FoodID: food.ID, Name: food.Name, Unavailable: true}
		}

		lines = append(lines, models.OrderItem{
			FoodID:   food.ID,
			Name:     food.Name,
			Price:    food.Price,
			Quantity: it.Quantity,
			Image:    food.Image,
		})
		subtotal += food.Price * float64(it.Quantity)
	}

	order := models.Order{
		UserID:        userID,
		Items:         lines,
		Subtotal:      subtotal,
		DeliveryFee:   DeliveryFee,
		TotalAmount:   subtotal + DeliveryFee,
		Address:       req.Address,
		Status:        models.StatusProcessing,
		PaymentStatus: paymentStatus,
		PaymentID:     req.PaymentID,
	}

	// The unique index on order_number is the real guard; on a collision
	// the number is regenerated with an advanced sequence and the whole
	// transaction retried. The cart is only cleared inside the transaction,
	// so a failed insert leaves it untouched.
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := b.nextOrderNumber(ctx, attempt)
		if err != nil {
			return nil, err
		}
		order.OrderNumber = number
		order.ID = 0
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].OrderID = 0
		}

		txErr := b.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
			return nil
		})
		if txErr == nil {
			l.Info("order_placed", "order_number", order.OrderNumber, "total_amount", order.TotalAmount)
			return &order, nil
		}
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			l.Warn("order_number_collision", "order_number", number, "attempt", attempt)
			continue
		}
		return nil, fmt.Errorf("persist order: %w", txErr)
	}

	return nil, ErrNumberExhausted
}

// nextOrderNumber derives the number from the creation date plus a sequence
// based on the count of existing orders, zero-padded to six digits. Past
// 999999 the segment widens instead of truncating, so numbers stay unique.
func (b *Builder) nextOrderNumber(ctx context.Context, attempt int) (string, error) {
	var count int64
	if err := b.DB.WithContext(ctx).Model(&models.Order{}).Count(&count).Error; err != nil {
		return "", fmt.Errorf("count orders: %w", err)
	}
	seq := count + 1 + int64(attempt)
	return fmt.Sprintf("ORD-%s-%06d", time.Now().Format("20060102"), seq), nil
}

func missingAddressFields(a models.Address) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"email", a.Email},
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zip", a.Zip},
		{"country", a.Country},
		{"phone", a.Phone},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func normalizePaymentStatus(s models.PaymentStatus) (models.PaymentStatus, error) {
	switch s {
	case "":
		return models.PaymentPending, nil
	case models.PaymentPending, models.PaymentPaid, models.PaymentFailed:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadPaymentStatus, s)
	}
}
