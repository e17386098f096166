package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studieren/eco_shop/gormtool"
	"github.com/studieren/eco_shop/models"
)

type productInput struct {
	ProductName string  `json:"product_name" binding:"required,notblank,max=255"`
	Price       float64 `json:"price" binding:"required,gt=0"`
}

func (in productInput) applyTo(p *models.Product) {
	p.ProductName = in.ProductName
	p.Price = in.Price
}

// sortable maps ?sort= values to columns.
var productSorts = map[string]string{
	"id":    "id",
	"name":  "product_name",
	"price": "price",
}

func (h *Handler) ListProducts(c *gin.Context) {
	qb := &gormtool.QueryBuilder{}
	qb.Where("product_name", "LIKE", c.Query("name"))

	if sort, ok := gormtool.ParseSort(c.Query("sort")); ok {
		col, known := productSorts[sort.Field]
		if !known {
			gormtool.FailErr(c, fmt.Errorf("%w: cannot sort by %q", gormtool.ErrBadRequest, sort.Field), "")
			return
		}
		sort.Field = col
		qb.Sorts = append(qb.Sorts, sort)
	}
	qb.Sorts = append(qb.Sorts, gormtool.SortCondition{Field: "id", Direction: "ASC"})

	var products []models.Product
	_ = h.crud.List(c, &products, qb)
}

func (h *Handler) GetProduct(c *gin.Context) {
	var product models.Product
	_ = h.crud.GetByID(c, &product)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var in productInput
	if err := gormtool.BindJSON(c, &in); err != nil {
		return
	}
	var product models.Product
	in.applyTo(&product)
	_ = h.crud.Create(c, &product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var (
		product models.Product
		in      productInput
	)
	_ = h.crud.UpdateByID(c, &product, &in, func() { in.applyTo(&product) })
}

// DeleteProduct refuses while the product is part of an order.
func (h *Handler) DeleteProduct(c *gin.Context) {
	_ = h.crud.SoftDeleteByID(c, &models.Product{}, func(tx *gorm.DB, id uint) error {
		var n int64
		if err := tx.Table(models.OrderProductsTable).Where("product_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: product is part of %d order(s)", gormtool.ErrConflict, n)
		}
		return nil
	})
}
