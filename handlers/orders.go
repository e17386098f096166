package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studieren/eco_shop/events"
	"github.com/studieren/eco_shop/gormtool"
	"github.com/studieren/eco_shop/models"
)

type placeOrderInput struct {
	CustomerID uint   `json:"customer_id" binding:"required"`
	Items      []uint `json:"items" binding:"required,min=1"`
}

// orderView adds the computed total to an order.
type orderView struct {
	models.Order
	Total float64 `json:"total"`
}

var errCustomerMissing = errors.New("customer not found")

type unknownItemsError struct {
	IDs []uint
}

func (e *unknownItemsError) Error() string {
	return fmt.Sprintf("unknown product ids %v", e.IDs)
}

// uniqueIDs drops repeats and keeps first-seen order.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// PlaceOrder creates an order for an existing customer with the listed
// products, all in one transaction. A product listed twice is linked once.
func (h *Handler) PlaceOrder(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	var in placeOrderInput
	if err := gormtool.BindJSON(c, &in); err != nil {
		return
	}
	ids := uniqueIDs(in.Items)

	order := models.Order{
		Reference:  h.newRef(),
		OrderDate:  models.OrderDay(h.now()),
		CustomerID: in.CustomerID,
	}

	err := h.crud.WithTransaction(ctx, func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, in.CustomerID).Error; err != nil {
			if gormtool.IsNotFound(err) {
				return errCustomerMissing
			}
			return err
		}

		var found []models.Product
		if err := tx.Where("id IN ?", ids).Find(&found).Error; err != nil {
			return err
		}
		byID := make(map[uint]models.Product, len(found))
		for _, p := range found {
			byID[p.ID] = p
		}
		var missing []uint
		for _, id := range ids {
			p, ok := byID[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			order.Products = append(order.Products, p)
		}
		if len(missing) > 0 {
			return &unknownItemsError{IDs: missing}
		}

		// Products already exist; only the order row and its links are written.
		return tx.Omit("Products.*").Create(&order).Error
	})

	h.crud.LogOperation(ctx, "place_order", &order, time.Since(start), err, map[string]interface{}{
		"customer_id": in.CustomerID,
		"items":       ids,
	})

	var unknown *unknownItemsError
	switch {
	case err == nil:
	case errors.Is(err, errCustomerMissing):
		gormtool.Fail(c, http.StatusNotFound, errCustomerMissing.Error())
		return
	case errors.As(err, &unknown):
		gormtool.Respond(c, http.StatusBadRequest, "unknown items", gin.H{"items": unknown.IDs})
		return
	default:
		gormtool.FailErr(c, err, "placing order failed")
		return
	}

	if perr := h.events.PublishJSON(ctx, events.KeyOrderPlaced, events.NewOrderPlaced(order)); perr != nil {
		h.crud.Logger.Warn(ctx, "publishing order event failed", map[string]interface{}{
			"order_id": order.ID,
			"error":    perr.Error(),
		})
	}

	gormtool.Respond(c, http.StatusCreated, "order placed", orderView{Order: order, Total: order.Total()})
}

func (h *Handler) ListOrders(c *gin.Context) {
	qb := &gormtool.QueryBuilder{
		Sorts:    []gormtool.SortCondition{{Field: "id", Direction: "ASC"}},
		Preloads: []string{"Products"},
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			gormtool.Fail(c, http.StatusBadRequest, "invalid customer_id")
			return
		}
		qb.Where("customer_id", "=", uint(id))
	}

	var orders []models.Order
	_ = h.crud.List(c, &orders, qb)
}

// GetOrder answers with the order, its customer, its products and the total.
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := gormtool.ParseID(c)
	if err != nil {
		return
	}

	var order models.Order
	if err := h.crud.Load(c.Request.Context(), &order, id, "Customer", "Products"); err != nil {
		gormtool.FailErr(c, err, "query failed")
		return
	}
	gormtool.Respond(c, http.StatusOK, "ok", orderView{Order: order, Total: order.Total()})
}

// OrderItems answers with the products of an order.
func (h *Handler) OrderItems(c *gin.Context) {
	var products []models.Product
	_ = h.crud.GetRelated(c, &models.Order{}, "Products", &products)
}
