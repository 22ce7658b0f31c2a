package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductFilter narrows a catalog listing. Zero value lists everything.
type ProductFilter struct {
	Search     string
	Categories []string
	SortBy     string // name-asc, name-desc, price-asc, price-desc
}

func (f ProductFilter) IsZero() bool {
	return f.Search == "" && len(f.Categories) == 0 && f.SortBy == ""
}
