package order

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodcourt/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Food{}, &models.CartItem{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func validAddress() models.Address {
	return models.Address{
		FirstName: "Alex",
		LastName:  "Smith",
		Email:     "alex@example.com",
		Street:    "1 Main St",
		City:      "Springfield",
		State:     "IL",
		Zip:       "62701",
		Country:   "US",
		Phone:     "+1-555-0100",
	}
}

func seedCart(t *testing.T, db *gorm.DB) {
	require.NoError(t, db.Create(&models.Food{ID: 1, Name: "Margherita", Price: 10.99, Image: "margherita.png", IsAvailable: true}).Error)
	require.NoError(t, db.Create(&models.Food{ID: 2, Name: "Tiramisu", Price: 8.50, Image: "tiramisu.png", IsAvailable: true}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, FoodID: 1, Quantity: 2}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, FoodID: 2, Quantity: 1}).Error)
}

func TestPlaceOrderComputesTotals(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	b := &Builder{DB: db}

	placed, err := b.Place(context.Background(), 1, PlaceRequest{Address: validAddress()})
	require.NoError(t, err)

	require.InDelta(t, 30.48, placed.Subtotal, 1e-9)
	require.InDelta(t, 2.0, placed.DeliveryFee, 1e-9)
	require.InDelta(t, 32.48, placed.TotalAmount, 1e-9)
	require.Equal(t, models.StatusProcessing, placed.Status)
	require.Equal(t, models.PaymentPending, placed.PaymentStatus)
	require.Len(t, placed.Items, 2)

	// Lines are snapshots in stable food_id order.
	require.Equal(t, "Margherita", placed.Items[0].Name)
	require.InDelta(t, 10.99, placed.Items[0].Price, 1e-9)
	require.Equal(t, uint(2), placed.Items[0].Quantity)
	require.Equal(t, "Tiramisu", placed.Items[1].Name)

	require.True(t, strings.HasPrefix(placed.OrderNumber, "ORD-"))
	require.Regexp(t, `^ORD-\d{8}-\d{6}$`, placed.OrderNumber)

	var remaining int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&remaining).Error)
	require.Zero(t, remaining, "cart must be empty after placement")
}

func TestPlaceOrderSnapshotSurvivesPriceChange(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	b := &Builder{DB: db}

	placed, err := b.Place(context.Background(), 1, PlaceRequest{Address: validAddress()})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Food{}).Where("id = ?", 1).Update("price", 99.99).Error)

	var reloaded models.Order
	require.NoError(t, db.Preload("Items").First(&reloaded, placed.ID).Error)
	require.InDelta(t, 10.99, reloaded.Items[0].Price, 1e-9)
	require.InDelta(t, 32.48, reloaded.TotalAmount, 1e-9)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	db := newTestDB(t)
	b := &Builder{DB: db}

	_, err := b.Place(context.Background(), 1, PlaceRequest{Address: validAddress()})
	require.ErrorIs(t, err, ErrCartEmpty)

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.Zero(t, orders)
}

func TestPlaceOrderMissingAddressFields(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	b := &Builder{DB: db}

	addr := validAddress()
	addr.Street = ""
	addr.Phone = ""

	_, err := b.Place(context.Background(), 1, PlaceRequest{Address: addr})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, []string{"street", "phone"}, vErr.Missing)
}

func TestPlaceOrderMissingItemIsAtomic(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, FoodID: 42, Quantity: 1}).Error)
	b := &Builder{DB: db}

	_, err := b.Place(context.Background(), 1, PlaceRequest{Address: validAddress()})
	var iErr *ItemError
	require.ErrorAs(t, err, &iErr)
	require.Equal(t, uint(42), iErr.FoodID)
	require.False(t, iErr.Unavailable)

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.Zero(t, orders, "no order may be persisted")

	var cartRows int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&cartRows).Error)
	require.EqualValues(t, 3, cartRows, "cart must be untouched")
}

func TestPlaceOrderUnavailableItem(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	require.NoError(t, db.Model(&models.Food{}).Where("id = ?", 2).Update("is_available", false).Error)
	b := &Builder{DB: db}

	_, err := b.Place(context.Background(), 1, PlaceRequest{Address: validAddress()})
	var iErr *ItemError
	require.ErrorAs(t, err, &iErr)
	require.Equal(t, uint(2), iErr.FoodID)
	require.True(t, iErr.Unavailable)
	require.Contains(t, iErr.Error(), "Tiramisu")

	var cartRows int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&cartRows).Error)
	require.EqualValues(t, 2, cartRows)
}

func TestPlaceOrderBadPaymentStatus(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	b := &Builder{DB: db}

	_, err := b.Place(context.Background(), 1, PlaceRequest{
		Address:       validAddress(),
		PaymentStatus: "Refunded",
	})
	require.ErrorIs(t, err, ErrBadPaymentStatus)
}

func TestPlaceOrderPaymentPassthrough(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	b := &Builder{DB: db}

	placed, err := b.Place(context.Background(), 1, PlaceRequest{
		Address:       validAddress(),
		PaymentID:     "pay_abc123",
		PaymentStatus: models.PaymentPaid,
	})
	require.NoError(t, err)
	require.Equal(t, "pay_abc123", placed.PaymentID)
	require.Equal(t, models.PaymentPaid, placed.PaymentStatus)
}

func TestRapidOrdersGetDistinctNumbers(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	b := &Builder{DB: db}

	first, err := b.Place(context.Background(), 1, PlaceRequest{Address: validAddress()})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.CartItem{UserID: 1, FoodID: 1, Quantity: 1}).Error)
	second, err := b.Place(context.Background(), 1, PlaceRequest{Address: validAddress()})
	require.NoError(t, err)

	require.NotEqual(t, first.OrderNumber, second.OrderNumber)
}

func TestPlaceOrderDuplicateNumberRetries(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	b := &Builder{DB: db}

	// Occupy the number the next placement will generate (one existing
	// order makes the count 1, so placement tries sequence 2); the builder
	// must skip past it via the retry loop.
	blocked := fmt.Sprintf("ORD-%s-%06d", time.Now().Format("20060102"), 2)
	require.NoError(t, db.Create(&models.Order{
		UserID:        2,
		OrderNumber:   blocked,
		Status:        models.StatusProcessing,
		PaymentStatus: models.PaymentPending,
		Address:       validAddress(),
	}).Error)

	placed, err := b.Place(context.Background(), 1, PlaceRequest{Address: validAddress()})
	require.NoError(t, err)
	require.NotEqual(t, blocked, placed.OrderNumber)

	var remaining int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&remaining).Error)
	require.Zero(t, remaining)
}

func TestPlaceOrderSeesOnlyOwnCart(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db) // user 1's cart
	b := &Builder{DB: db}

	_, err := b.Place(context.Background(), 2, PlaceRequest{Address: validAddress()})
	require.ErrorIs(t, err, ErrCartEmpty)
}

func TestTotalAmountInternallyConsistent(t *testing.T) {
	db := newTestDB(t)
	seedCart(t, db)
	b := &Builder{DB: db}

	placed, err := b.Place(context.Background(), 1, PlaceRequest{Address: validAddress()})
	require.NoError(t, err)

	var sum float64
	for _, it := range placed.Items {
		sum += it.Price * float64(it.Quantity)
	}
	require.InDelta(t, placed.TotalAmount, sum+placed.DeliveryFee, 1e-9)
}
