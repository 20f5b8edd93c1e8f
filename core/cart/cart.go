package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoCart is returned when no open cart exists for an owner key.
	ErrNoCart = errors.New("no cart for owner")

	// ErrItemUnavailable is returned when the referenced subproduct is
	// not purchasable (unknown, disabled or out of stock).
	ErrItemUnavailable = errors.New("item unavailable")

	// ErrItemNotFound is returned by quantity mutations on an item the
	// cart does not contain.
	ErrItemNotFound = errors.New("item not in cart")

	// ErrEmptyCart is returned by checkout on a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")
)

type OwnerKind string

const (
	KindGuest OwnerKind = "guest"
	KindUser  OwnerKind = "user"
)

// Owner is the key a cart is bound to: a session token for anonymous
// visitors or a user id after login, never both.
type Owner struct {
	Kind OwnerKind
	ID   string
}

func GuestOwner(sessionToken string) Owner {
	return Owner{Kind: KindGuest, ID: sessionToken}
}

func UserOwner(userID string) Owner {
	return Owner{Kind: KindUser, ID: userID}
}

func (o Owner) key() string {
	return string(o.Kind) + ":" + o.ID
}

type Cart struct {
	ID        string    `json:"id" db:"cart_id"`
	OwnerKind OwnerKind `json:"-" db:"owner_kind"`
	OwnerID   string    `json:"-" db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Items     []Item    `json:"items" db:"-"`
}

// Item is a cart line. Name, variant and unit price are the current
// catalog values joined in at read time, never a stored snapshot.
type Item struct {
	CartID       string          `json:"-" db:"cart_id"`
	SubproductID string          `json:"subproductId" db:"subproduct_id"`
	Quantity     int             `json:"quantity" db:"quantity"`
	Name         string          `json:"name" db:"name"`
	Variant      string          `json:"variant" db:"variant"`
	UnitPrice    decimal.Decimal `json:"unitPrice" db:"unit_price"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// Subtotal recomputes the cart total from the live unit prices.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (c Cart) item(subproductID string) (Item, bool) {
	for _, it := range c.Items {
		if it.SubproductID == subproductID {
			return it, true
		}
	}
	return Item{}, false
}

type ItemNew struct {
	SubproductID string `json:"subproductId" validate:"required,uuid4"`
	Quantity     int    `json:"quantity" validate:"required,gte=1"`
}

type ItemDelta struct {
	SubproductID string `json:"subproductId" validate:"required,uuid4"`
	Delta        int    `json:"delta" validate:"required"`
}
