package models

import "time"

// OrderProductsTable is the association table between orders and products.
// (order_id, product_id) is its primary key, so a product is linked to an
// order at most once.
const OrderProductsTable = "order_products"

type Order struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Reference  string    `json:"reference" gorm:"column:reference;size:36;uniqueIndex;not null"`
	OrderDate  time.Time `json:"order_date" gorm:"column:order_date;not null"`
	CustomerID uint      `json:"customer_id" gorm:"column:customer_id;not null;index"`
	Customer   *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Products   []Product `json:"products,omitempty" gorm:"many2many:order_products;"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Order) TableName() string { return "orders" }

// Total sums the prices of the loaded products.
func (o Order) Total() float64 {
	var sum float64
	for _, p := range o.Products {
		sum += p.Price
	}
	return sum
}

// OrderDay truncates t to midnight UTC, the granularity order dates are kept at.
func OrderDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
