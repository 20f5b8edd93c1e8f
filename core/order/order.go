package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
)

type Order struct {
	ID        string          `json:"id" db:"order_id"`
	Number    string          `json:"number" db:"number"`
	UserID    string          `json:"-" db:"user_id"`
	Status    Status          `json:"status" db:"status"`
	Name      string          `json:"name" db:"name"`
	Email     string          `json:"email" db:"email"`
	Street    string          `json:"street" db:"street"`
	Postcode  string          `json:"postcode" db:"postcode"`
	City      string          `json:"city" db:"city"`
	Country   string          `json:"country" db:"country"`
	Total     decimal.Decimal `json:"total" db:"total"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
	Items     []Item          `json:"items,omitempty" db:"-"`
}

// Item snapshots a cart line at checkout time; unlike cart lines the
// price here is frozen.
type Item struct {
	OrderID      string          `json:"-" db:"order_id"`
	SubproductID string          `json:"subproductId" db:"subproduct_id"`
	Name         string          `json:"name" db:"name"`
	Variant      string          `json:"variant" db:"variant"`
	Quantity     int             `json:"quantity" db:"quantity"`
	Price        decimal.Decimal `json:"price" db:"price"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// AddressInfo is the customer detail checkout requires; every field is
// mandatory and failures come back keyed by field.
type AddressInfo struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Street   string `json:"street" validate:"required"`
	Postcode string `json:"postcode" validate:"required"`
	City     string `json:"city" validate:"required"`
	Country  string `json:"country" validate:"required"`
}

// Handle is what checkout returns to the caller: enough to reference
// and display the order without re-reading it.
type Handle struct {
	ID     string          `json:"id"`
	Number string          `json:"number"`
	Total  decimal.Decimal `json:"total"`
}
