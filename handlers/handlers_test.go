package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/studieren/eco_shop/database"
	"github.com/studieren/eco_shop/events"
	"github.com/studieren/eco_shop/gormtool"
	"github.com/studieren/eco_shop/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	t      *testing.T
	router *gin.Engine
	crud   *gormtool.CRUDTool
	events *events.Memory
}

type envelope struct {
	Code    int                  `json:"code"`
	Message string               `json:"message"`
	Data    json.RawMessage      `json:"data"`
	Page    *gormtool.Pagination `json:"page"`
}

var fixedNow = time.Date(2024, 6, 15, 22, 45, 0, 0, time.UTC)

func newEnv(t *testing.T) *env {
	t.Helper()
	mem := &events.Memory{}
	e := newEnvWith(t, mem, gormtool.NopLogger{})
	e.events = mem
	return e
}

func newEnvWith(t *testing.T, publisher events.Publisher, log gormtool.Logger) *env {
	t.Helper()
	db, err := database.Open(database.Options{Driver: "sqlite", DSN: ":memory:", LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	crud := gormtool.NewCRUDTool(db, nil, log)
	h := New(crud, publisher)
	h.now = func() time.Time { return fixedNow }
	refs := 0
	h.newRef = func() string {
		refs++
		return fmt.Sprintf("ref-%d", refs)
	}

	return &env{t: t, router: NewRouter(h), crud: crud}
}

func (e *env) do(method, target, body string) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (e *env) createCustomer(body string) models.Customer {
	e.t.Helper()
	w, out := e.do(http.MethodPost, "/customers", body)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Customer](e.t, out.Data)
}

func (e *env) createProduct(name string, price float64) models.Product {
	e.t.Helper()
	w, out := e.do(http.MethodPost, "/products", fmt.Sprintf(`{"product_name":%q,"price":%v}`, name, price))
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Product](e.t, out.Data)
}

func TestHome(t *testing.T) {
	e := newEnv(t)
	w, _ := e.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, welcome, w.Body.String())
}
