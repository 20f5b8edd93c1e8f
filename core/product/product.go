package product

import "time"

type Product struct {
	ID          string    `json:"id" db:"product_id"`
	BrandID     string    `json:"brandId" db:"brand_id"`
	CategoryID  string    `json:"categoryId" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	Version     int       `json:"-" db:"version"`
}

type ProductNew struct {
	BrandID     string `json:"brandId" validate:"required,uuid4"`
	CategoryID  string `json:"categoryId" validate:"required,uuid4"`
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug" validate:"required,lowercase"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

type ProductUp struct {
	BrandID     *string `json:"brandId" validate:"omitempty,uuid4"`
	CategoryID  *string `json:"categoryId" validate:"omitempty,uuid4"`
	Name        *string `json:"name"`
	Slug        *string `json:"slug" validate:"omitempty,lowercase"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
}
