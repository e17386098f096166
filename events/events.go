// Package events publishes domain events about orders.
package events

import (
	"time"

	"github.com/studieren/eco_shop/models"
)

const KeyOrderPlaced = "order.placed"

type OrderPlaced struct {
	Reference  string    `json:"reference"`
	OrderID    uint      `json:"order_id"`
	CustomerID uint      `json:"customer_id"`
	ProductIDs []uint    `json:"product_ids"`
	Total      float64   `json:"total"`
	OrderDate  time.Time `json:"order_date"`
}

func NewOrderPlaced(o models.Order) OrderPlaced {
	ids := make([]uint, 0, len(o.Products))
	for _, p := range o.Products {
		ids = append(ids, p.ID)
	}
	return OrderPlaced{
		Reference:  o.Reference,
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		ProductIDs: ids,
		Total:      o.Total(),
		OrderDate:  o.OrderDate,
	}
}
