package models

import (
	"time"
)

const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Order statuses. Only OrderStatusCreated is written by the API today,
// later transitions happen outside this service.
const (
	OrderStatusCreated = 0
	OrderStatusPaid    = 1
	OrderStatusShipped = 2
)

const DeliveryStatusPending = 1

type Brand struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null"                 json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null"     json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null"     json:"slug"`
	Icon      string    `json:"icon,omitempty"`
	IsActive  bool      `gorm:"default:true"             json:"is_active"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type Product struct {
	ID            uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID    uint     `gorm:"index;not null"           json:"category_id"`
	BrandID       *uint    `gorm:"index"                    json:"brand_id,omitempty"`
	Name          string   `gorm:"not null"                 json:"name"`
	Slug          string   `gorm:"uniqueIndex;not null"     json:"slug"`
	SKU           string   `json:"sku_name"`
	Quantity      uint     `json:"quantity"`
	Price         float64  `gorm:"not null"                 json:"price"`
	SalePrice     *float64 `json:"sale_price"`
	AdditionalTax float64  `json:"additional_tax"`
	ShipmentTime  *int     `json:"shipment_time,omitempty"`
	ReturnDays    *int     `json:"return_days,omitempty"`
	Detail        string   `json:"product_detail,omitempty"`
	Specification string   `json:"product_specification,omitempty"`
	Tags          string   `json:"tags,omitempty"`
	RatingCount   uint     `json:"rating_count"`
	RatingNumber  float64  `json:"rating_number"`
	Status        string   `gorm:"default:active"           json:"status"`
	Images        []string `gorm:"serializer:json"          json:"images"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type Address struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"index;not null"           json:"user_id"`
	Line1      string    `gorm:"not null"                 json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"             json:"id"`
	ProductID uint      `gorm:"uniqueIndex:idx_review_once;not null" json:"product_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_once;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID"                    json:"user,omitempty"`
	Rating    int       `gorm:"not null"                             json:"rating"`
	Detail    string    `json:"detail"`
	Images    []string  `gorm:"serializer:json"                      json:"images"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                            json:"id"`
	UserID    uint `gorm:"uniqueIndex:idx_user_product;not null" json:"user_id"`
	ProductID uint `gorm:"uniqueIndex:idx_user_product;not null" json:"product_id"`
	Quantity  uint `gorm:"default:1"                             json:"quantity"`
}

type Order struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index;not null"           json:"user_id"`
	AddressID   uint      `gorm:"index;not null"           json:"address_id"`
	TotalPrice  float64   `json:"total_price"`
	TotalTax    float64   `json:"total_tax"`
	SalePrice   float64   `json:"sale_price"`
	SaleTax     float64   `json:"sale_tax"`
	OrderAmount float64   `json:"order_amount"`
	OrderStatus int       `gorm:"default:0"                json:"order_status"`
	PaymentID   *string   `json:"payment_id,omitempty"`
	CreatedAt   time.Time `gorm:"index"                    json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

// OrderItem is an append-only ledger line, never mutated after checkout.
type OrderItem struct {
	ID             uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        uint    `gorm:"index;not null"           json:"order_id"`
	UserID         uint    `gorm:"index;not null"           json:"user_id"`
	ProductID      uint    `gorm:"not null"                 json:"product_id"`
	Qty            uint    `gorm:"not null"                 json:"qty"`
	Tax            float64 `json:"tax"`
	TotalPrice     float64 `json:"total_price"`
	SalePrice      float64 `json:"sale_price"`
	DeliveryStatus int     `gorm:"default:1"                json:"delivery_status"`
}
