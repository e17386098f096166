// Package handlers exposes customers, products and orders over HTTP.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studieren/eco_shop/events"
	"github.com/studieren/eco_shop/gormtool"
)

const welcome = "Welcome to the eco_shop API."

// Handler serves the shop endpoints on top of a CRUDTool and publishes
// order events.
type Handler struct {
	crud   *gormtool.CRUDTool
	events events.Publisher

	now    func() time.Time
	newRef func() string
}

// New returns a Handler. A nil publisher drops events.
func New(crud *gormtool.CRUDTool, publisher events.Publisher) *Handler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Handler{
		crud:   crud,
		events: publisher,
		now:    time.Now,
		newRef: uuid.NewString,
	}
}

// NewRouter registers every route on a fresh engine.
func NewRouter(h *Handler) *gin.Engine {
	gormtool.ConfigureValidator()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors.Default())

	r.GET("/", h.Home)

	r.GET("/customers", h.ListCustomers)
	r.POST("/customers", h.CreateCustomer)
	r.GET("/customers/:id", h.GetCustomer)
	r.PUT("/customers/:id", h.UpdateCustomer)
	r.DELETE("/customers/:id", h.DeleteCustomer)
	r.PUT("/customers/:id/restore", h.RestoreCustomer)
	r.GET("/customers/:id/orders", h.CustomerOrders)

	r.GET("/products", h.ListProducts)
	r.POST("/products", h.CreateProduct)
	r.GET("/products/:id", h.GetProduct)
	r.PUT("/products/:id", h.UpdateProduct)
	r.DELETE("/products/:id", h.DeleteProduct)

	r.GET("/orders", h.ListOrders)
	r.POST("/orders", h.PlaceOrder)
	r.GET("/orders/:id", h.GetOrder)
	r.GET("/order_items/:id", h.OrderItems)

	r.GET("/metrics", h.crud.GetMetrics)

	return r
}

// Home answers the welcome text.
func (h *Handler) Home(c *gin.Context) {
	c.String(http.StatusOK, welcome)
}
