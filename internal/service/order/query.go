package order

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/foodcourt/backend/internal/models"
	"github.com/foodcourt/backend/internal/util"
)

// Query lists a user's past orders newest-first with pagination metadata and
// annotates each line with the food's current catalog availability. The
// annotation is display-only; stored orders never change.
type Query struct {
	DB *gorm.DB
}

type LineView struct {
	models.OrderItem
	CurrentlyAvailable bool `json:"currently_available"`
}

type OrderView struct {
	models.Order
	Items []LineView `json:"items"`
}

type PageMeta struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

type Page struct {
	Orders []OrderView `json:"orders"`
	Meta   PageMeta    `json:"meta"`
}

func (q *Query) ListByUser(ctx context.Context, userID uint, page, limit int) (*Page, error) {
	page, limit = util.Clamp(page, limit)

	var total int64
	if err := q.DB.WithContext(ctx).Model(&models.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	meta := PageMeta{
		Page:        page,
		Limit:       limit,
		TotalOrders: total,
		TotalPages:  totalPages,
		HasNextPage: int64(page) < totalPages,
		HasPrevPage: page > 1,
	}

	if total == 0 {
		return &Page{Orders: []OrderView{}, Meta: meta}, nil
	}

	var orders []models.Order
	if err := q.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	availability, err := q.currentAvailability(ctx, orders)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		lines := make([]LineView, 0, len(o.Items))
		for _, it := range o.Items {
			lines = append(lines, LineView{
				OrderItem:          it,
				CurrentlyAvailable: availability[it.FoodID],
			})
		}
		views = append(views, OrderView{Order: o, Items: lines})
	}

	return &Page{Orders: views, Meta: meta}, nil
}

func (q *Query) currentAvailability(ctx context.Context, orders []models.Order) (map[uint]bool, error) {
	ids := make([]uint, 0)
	seen := make(map[uint]bool)
	for _, o := range orders {
		for _, it := range o.Items {
			if !seen[it.FoodID] {
				seen[it.FoodID] = true
				ids = append(ids, it.FoodID)
			}
		}
	}
	if len(ids) == 0 {
		return map[uint]bool{}, nil
	}

	var foods []models.Food
	if err := q.DB.WithContext(ctx).Where("id IN ?", ids).Find(&foods).Error; err != nil {
		return nil, fmt.Errorf("load food availability: %w", err)
	}

	availability := make(map[uint]bool, len(foods))
	for _, f := range foods {
		availability[f.ID] = f.IsAvailable
	}
	return availability, nil
}
