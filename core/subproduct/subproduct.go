package subproduct

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subproduct is a purchasable variant of a product, e.g. one size or
// color, carrying its own SKU, price and stock.
type Subproduct struct {
	ID        string          `json:"id" db:"subproduct_id"`
	ProductID string          `json:"productId" db:"product_id"`
	SKU       string          `json:"sku" db:"sku"`
	Variant   string          `json:"variant" db:"variant"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stock     int             `json:"stock" db:"stock"`
	Available bool            `json:"available" db:"available"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
	Version   int             `json:"-" db:"version"`
}

// Purchasable reports whether the variant can currently be added to a
// cart.
func (s Subproduct) Purchasable() bool {
	return s.Available && s.Stock > 0
}

type SubproductNew struct {
	ProductID string          `json:"productId" validate:"required,uuid4"`
	SKU       string          `json:"sku" validate:"required"`
	Variant   string          `json:"variant" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Stock     int             `json:"stock" validate:"gte=0"`
	Available bool            `json:"available"`
}

type SubproductUp struct {
	Variant   *string          `json:"variant"`
	Price     *decimal.Decimal `json:"price"`
	Stock     *int             `json:"stock" validate:"omitempty,gte=0"`
	Available *bool            `json:"available"`
}
