package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	NationalID string    `gorm:"type:text;not null;uniqueIndex:ux_customers_national_id"`
	Name       string    `gorm:"type:text;not null"`
	Surname    string    `gorm:"type:text;not null;default:''"`
	Email      string    `gorm:"type:text;not null"` // уникальность по lower(email) в миграции
	Phone      string    `gorm:"type:text;not null;default:''"`
	Address    string    `gorm:"type:text;not null;default:''"`
	Password   string    `gorm:"type:text;not null"` // bcrypt hash
	IsAdmin    bool      `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Orders []Order `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

func (Customer) TableName() string { return "customers" }

type Ingredient struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:ux_ingredients_name"`
	Allergens []string  `gorm:"type:jsonb;serializer:json;not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (Ingredient) TableName() string { return "ingredients" }

type Order struct {
	ID            uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	OrderDate     time.Time     `gorm:"not null"`
	State         OrderState    `gorm:"type:text;not null;default:'PENDING';index"`
	PaymentMethod PaymentMethod `gorm:"type:text;not null;default:'UNPAID'"`
	Version       int64         `gorm:"not null;default:1"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Customer *Customer  `gorm:"foreignKey:CustomerID"`
	Lines    []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"` // каскад на строки
}

func (Order) TableName() string { return "orders" }

// Total всегда вычисляется по строкам, в базе не хранится.
// Строки без загруженного Product дают ноль.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Lines {
		total = total.Add(o.Lines[i].Price())
	}
	return total
}

type OrderLine struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount    int       `gorm:"type:int;not null"` // CHECK > 0 в миграции
	Position  int       `gorm:"type:int;not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (OrderLine) TableName() string { return "order_lines" }

func (l *OrderLine) Price() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Amount)))
}
