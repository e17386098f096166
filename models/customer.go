package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer owns zero or more orders. Orders is the "many" side of the
// relationship and Order.Customer points back at it.
type Customer struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	CustomerName string         `json:"customer_name" gorm:"column:customer_name;size:75;not null"`
	Email        *string        `json:"email" gorm:"column:email;size:150;uniqueIndex"`
	Phone        string         `json:"phone" gorm:"column:phone;size:16"`
	Address      *string        `json:"address" gorm:"column:address;size:150"`
	Orders       []Order        `json:"orders,omitempty" gorm:"foreignKey:CustomerID"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Customer) TableName() string { return "customer" }
