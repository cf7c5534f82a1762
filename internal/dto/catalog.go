package dto

import (
	"pizzeria-service/internal/models"

	"github.com/shopspring/decimal"
)

type IngredientRequest struct {
	Name      string   `json:"name" binding:"required"`
	Allergens []string `json:"allergens"`
}

type IngredientResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Allergens []string `json:"allergens"`
}

// ProductRequest: price принимается строкой или числом ("9.50" / 9.5).
type ProductRequest struct {
	Kind          string          `json:"kind" binding:"required,oneof=PIZZA PASTA DRINK"`
	Name          string          `json:"name" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	Size          *string         `json:"size" binding:"omitempty,oneof=SMALL MEDIUM BIG"`
	IngredientIDs []string        `json:"ingredient_ids" binding:"omitempty,dive,uuid"`
}

type PriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

type ProductResponse struct {
	ID          string               `json:"id"`
	Kind        string               `json:"kind"`
	Name        string               `json:"name"`
	Price       string               `json:"price"`
	Size        *string              `json:"size,omitempty"`
	Ingredients []IngredientResponse `json:"ingredients,omitempty"`
}

type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int64             `json:"total"`
}

func ToIngredientResponse(in *models.Ingredient) IngredientResponse {
	allergens := in.Allergens
	if allergens == nil {
		allergens = []string{}
	}
	return IngredientResponse{ID: in.ID.String(), Name: in.Name, Allergens: allergens}
}

func ToProductResponse(p *models.Product) ProductResponse {
	resp := ProductResponse{
		ID:    p.ID.String(),
		Kind:  string(p.Kind),
		Name:  p.Name,
		Price: p.Price.StringFixed(2),
	}
	if p.Size != nil {
		s := string(*p.Size)
		resp.Size = &s
	}
	for i := range p.Ingredients {
		resp.Ingredients = append(resp.Ingredients, ToIngredientResponse(&p.Ingredients[i]))
	}
	return resp
}
