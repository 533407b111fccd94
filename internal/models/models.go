package models

import (
	"time"
)

type Food struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string  `gorm:"not null"                  json:"name"`
	Description string  `json:"description"`
	Price       float64 `gorm:"not null"                  json:"price"`
	Image       string  `json:"image"`
	Category    string  `gorm:"index"                     json:"category"`
	IsAvailable bool    `gorm:"default:true"              json:"is_available"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	Token     string    `gorm:"unique;not null"     json:"token"`
	UserID    uint      `gorm:"index;not null"      json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"            json:"expires_at"`
	Revoked   bool      `gorm:"default:false"       json:"revoked"`
}

type CartItem struct {
	ID       uint `gorm:"primaryKey"                      json:"id"`
	UserID   uint `gorm:"index:idx_cart_user_food,unique" json:"user_id"`
	FoodID   uint `gorm:"index:idx_cart_user_food,unique" json:"food_id"`
	Quantity uint `gorm:"default:1;check:quantity>0"      json:"quantity"`
}

type OrderStatus string

const (
	StatusProcessing     OrderStatus = "Processing"
	StatusConfirmed      OrderStatus = "Confirmed"
	StatusPreparing      OrderStatus = "Preparing"
	StatusOutForDelivery OrderStatus = "OutForDelivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

// Address is embedded into Order; every field is required at order placement.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

type Order struct {
	ID            uint          `gorm:"primaryKey;autoIncrement"      json:"id"`
	UserID        uint          `gorm:"index;not null"                json:"user_id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null"          json:"order_number"`
	Items         []OrderItem   `gorm:"foreignKey:OrderID"            json:"items"`
	Subtotal      float64       `gorm:"not null"                      json:"subtotal"`
	DeliveryFee   float64       `gorm:"not null"                      json:"delivery_fee"`
	TotalAmount   float64       `gorm:"not null"                      json:"total_amount"`
	Address       Address       `gorm:"embedded;embeddedPrefix:addr_" json:"address"`
	Status        OrderStatus   `gorm:"not null"                      json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null"                      json:"payment_status"`
	PaymentID     string        `json:"payment_id,omitempty"`
	CreatedAt     time.Time     `gorm:"index"                         json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// OrderItem is a snapshot of the food at order-creation time, so later
// catalog price or name edits never change a stored order.
type OrderItem struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	OrderID  uint    `gorm:"index"      json:"order_id"`
	FoodID   uint    `gorm:"not null"   json:"food_id"`
	Name     string  `gorm:"not null"   json:"name"`
	Price    float64 `gorm:"not null"   json:"price"`
	Quantity uint    `gorm:"not null"   json:"quantity"`
	Image    string  `json:"image"`
}
