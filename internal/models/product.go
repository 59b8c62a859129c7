package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Category is the fixed product classification.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryFood        Category = "Food"
	CategoryBooks       Category = "Books"
	CategoryOther       Category = "Other"
)

// Categories lists every valid Category in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryFood,
	CategoryBooks,
	CategoryOther,
}

// Valid reports whether c is part of the fixed set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MaxProductNameLength bounds Product.Name in characters.
const MaxProductNameLength = 100

// Product represents a catalog entry.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(100);not null"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Category    Category        `json:"category" gorm:"type:varchar(20);not null;index"`
	Stock       int             `json:"stock" gorm:"not null"`
	CreatedBy   string          `json:"createdBy" gorm:"type:varchar(36);not null;index"`
	CreatedAt   time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Validate checks the invariants every stored product must hold.
func (p *Product) Validate() error {
	fields := make(map[string]string)
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "name is required"
	} else if utf8.RuneCountInString(p.Name) > MaxProductNameLength {
		fields["name"] = "name must be at most 100 characters"
	}
	if p.Price.IsNegative() {
		fields["price"] = "price must be greater than or equal to 0"
	}
	if !p.Category.Valid() {
		fields["category"] = "category must be one of Electronics, Clothing, Food, Books, Other"
	}
	if p.Stock < 0 {
		fields["stock"] = "stock must be greater than or equal to 0"
	}
	if p.CreatedBy == "" {
		fields["createdBy"] = "createdBy is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// BeforeSave refuses to persist a product that breaks its invariants.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}

// ProductInput is the request body for creating a product.
type ProductInput struct {
	Name        string           `json:"name" validate:"required,max=100"`
	Description string           `json:"description" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Category    Category         `json:"category" validate:"required,category"`
	Stock       int              `json:"stock" validate:"gte=0"`
}

// ProductPatch is the request body for a partial product update.
// Nil fields are left untouched.
type ProductPatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Category    *Category        `json:"category" validate:"omitempty,category"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

// Apply copies the non-nil fields of the patch onto p.
func (patch ProductPatch) Apply(p *Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = patch.Price.Round(2)
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
}
