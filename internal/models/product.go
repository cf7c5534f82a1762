package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductKind string

const (
	ProductPizza ProductKind = "PIZZA"
	ProductPasta ProductKind = "PASTA"
	ProductDrink ProductKind = "DRINK"
)

type DrinkSize string

const (
	DrinkSmall  DrinkSize = "SMALL"
	DrinkMedium DrinkSize = "MEDIUM"
	DrinkBig    DrinkSize = "BIG"
)

func (s DrinkSize) Valid() bool {
	switch s {
	case DrinkSmall, DrinkMedium, DrinkBig:
		return true
	}
	return false
}

// Product хранится одной таблицей с дискриминатором kind.
// PIZZA и PASTA имеют ингредиенты, DRINK имеет только размер.
type Product struct {
	ID    uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Kind  ProductKind     `gorm:"type:text;not null;index"`
	Name  string          `gorm:"type:text;not null;uniqueIndex:ux_products_name"`
	Price decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Size  *DrinkSize      `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Ingredients []Ingredient `gorm:"many2many:product_ingredients;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string { return "products" }

var (
	ErrUnknownProductKind = errors.New("unknown product kind")
	ErrNegativePrice      = errors.New("price must be >= 0")
	ErrEmptyProductName   = errors.New("product name is required")
)

func NewPizza(name string, price decimal.Decimal, ingredients []Ingredient) *Product {
	return &Product{Kind: ProductPizza, Name: name, Price: price, Ingredients: ingredients}
}

func NewPasta(name string, price decimal.Decimal, ingredients []Ingredient) *Product {
	return &Product{Kind: ProductPasta, Name: name, Price: price, Ingredients: ingredients}
}

func NewDrink(name string, price decimal.Decimal, size DrinkSize) *Product {
	return &Product{Kind: ProductDrink, Name: name, Price: price, Size: &size}
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrEmptyProductName
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}

	switch p.Kind {
	case ProductPizza, ProductPasta:
		if p.Size != nil {
			return fmt.Errorf("%s cannot have a size", p.Kind)
		}
	case ProductDrink:
		if p.Size == nil || !p.Size.Valid() {
			return errors.New("drink requires size SMALL, MEDIUM or BIG")
		}
		if len(p.Ingredients) > 0 {
			return errors.New("drink cannot have ingredients")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProductKind, p.Kind)
	}
	return nil
}

// NormalizeAllergens убирает пустые значения и повторы, сохраняя порядок первого вхождения.
func NormalizeAllergens(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
