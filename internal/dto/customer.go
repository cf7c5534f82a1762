package dto

import (
	"time"

	"pizzeria-service/internal/models"
)

type RegisterRequest struct {
	NationalID string `json:"national_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Surname    string `json:"surname"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	Password   string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Customer        CustomerResponse `json:"customer"`
	AccessToken     string           `json:"access_token"`
	AccessExpiresIn int64            `json:"access_expires_in"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type CustomerResponse struct {
	ID         string `json:"id"`
	NationalID string `json:"national_id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	IsAdmin    bool   `json:"is_admin"`
	CreatedAt  string `json:"created_at"`
}

type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Total int64              `json:"total"`
}

func ToCustomerResponse(c *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:         c.ID.String(),
		NationalID: c.NationalID,
		Name:       c.Name,
		Surname:    c.Surname,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		IsAdmin:    c.IsAdmin,
		CreatedAt:  c.CreatedAt.UTC().Format(time.RFC3339),
	}
}
