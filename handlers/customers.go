package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studieren/eco_shop/gormtool"
	"github.com/studieren/eco_shop/models"
)

type customerInput struct {
	CustomerName string `json:"customer_name" binding:"required,notblank,max=75"`
	Email        string `json:"email" binding:"omitempty,email,max=150"`
	Phone        string `json:"phone" binding:"max=16"`
	Address      string `json:"address" binding:"max=150"`
}

func (in customerInput) applyTo(cust *models.Customer) {
	cust.CustomerName = strings.TrimSpace(in.CustomerName)
	cust.Email = blankToNil(in.Email)
	cust.Phone = in.Phone
	cust.Address = blankToNil(in.Address)
}

// blankToNil keeps empty strings out of nullable columns, so the unique
// index on email only sees real addresses.
func blankToNil(s string) *string {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return &v
}

func (h *Handler) ListCustomers(c *gin.Context) {
	var customers []models.Customer
	qb := &gormtool.QueryBuilder{
		Sorts: []gormtool.SortCondition{{Field: "id", Direction: "ASC"}},
	}
	qb.Where("customer_name", "LIKE", c.Query("name"))
	_ = h.crud.List(c, &customers, qb)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	var customer models.Customer
	_ = h.crud.GetByID(c, &customer)
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var in customerInput
	if err := gormtool.BindJSON(c, &in); err != nil {
		return
	}
	var customer models.Customer
	in.applyTo(&customer)
	_ = h.crud.Create(c, &customer)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	var (
		customer models.Customer
		in       customerInput
	)
	_ = h.crud.UpdateByID(c, &customer, &in, func() { in.applyTo(&customer) })
}

// DeleteCustomer refuses while orders still reference the customer.
func (h *Handler) DeleteCustomer(c *gin.Context) {
	_ = h.crud.SoftDeleteByID(c, &models.Customer{}, func(tx *gorm.DB, id uint) error {
		var n int64
		if err := tx.Model(&models.Order{}).Where("customer_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: customer has %d order(s)", gormtool.ErrConflict, n)
		}
		return nil
	})
}

func (h *Handler) RestoreCustomer(c *gin.Context) {
	_ = h.crud.RestoreSoftDelete(c, &models.Customer{})
}

func (h *Handler) CustomerOrders(c *gin.Context) {
	var orders []models.Order
	_ = h.crud.GetRelated(c, &models.Customer{}, "Orders", &orders)
}
