package gormtool

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studieren/eco_shop/database"
	"github.com/studieren/eco_shop/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	ConfigureValidator()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Options{Driver: "sqlite", DSN: ":memory:", LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestTool(t *testing.T, rdb *redis.Client) *CRUDTool {
	t.Helper()
	return NewCRUDTool(newTestDB(t), rdb, NopLogger{})
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Page    *Pagination     `json:"page"`
}

// do runs one request against a router holding a single route.
func do(t *testing.T, method, route, target, body string, h gin.HandlerFunc) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	r := gin.New()
	r.Handle(method, route, h)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Code != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func seedProducts(t *testing.T, db *gorm.DB, names ...string) []models.Product {
	t.Helper()
	out := make([]models.Product, 0, len(names))
	for i, n := range names {
		p := models.Product{ProductName: n, Price: float64(i+1) * 10}
		require.NoError(t, db.Create(&p).Error)
		out = append(out, p)
	}
	return out
}
