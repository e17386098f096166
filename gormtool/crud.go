package gormtool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// CRUDTool bundles the database, the optional Redis cache and the logger
// behind a set of gin-aware helpers. Helpers that take a *gin.Context write
// the HTTP response themselves; the returned error is for the caller's logs.
type CRUDTool struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	Logger      Logger
	EnableLog   bool

	tracer   trace.Tracer
	counters cacheCounters
}

// NewCRUDTool builds a tool over db. redisClient may be nil to disable the
// cache; a nil logger selects NewDefaultLogger.
func NewCRUDTool(db *gorm.DB, redisClient *redis.Client, logger Logger) *CRUDTool {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	return &CRUDTool{
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
		EnableLog:   true,
		tracer:      otel.Tracer("github.com/studieren/eco_shop/gormtool"),
	}
}

// LogOperation records the outcome of one operation.
//
//	t.LogOperation(ctx, "get_by_id", &models.Customer{}, time.Since(start), err, map[string]interface{}{
//		"id": id,
//	})
func (t *CRUDTool) LogOperation(ctx context.Context, operation string, model interface{}, duration time.Duration, err error, additionalFields map[string]interface{}) {
	if !t.EnableLog {
		return
	}

	fields := map[string]interface{}{
		"operation": operation,
		"duration":  duration.String(),
		"model":     fmt.Sprintf("%T", model),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	for k, v := range additionalFields {
		fields[k] = v
	}

	if err != nil {
		t.Logger.Error(ctx, "operation failed", fields)
	} else {
		t.Logger.Info(ctx, "operation succeeded", fields)
	}
}

// op is the bookkeeping for one helper call: a span plus a log line on end.
type op struct {
	t      *CRUDTool
	ctx    context.Context
	span   trace.Span
	name   string
	model  interface{}
	start  time.Time
	fields map[string]interface{}
}

func (t *CRUDTool) begin(ctx context.Context, name string, model interface{}) *op {
	ctx, span := t.tracer.Start(ctx, "gormtool."+name,
		trace.WithAttributes(attribute.String("db.model", fmt.Sprintf("%T", model))))
	return &op{t: t, ctx: ctx, span: span, name: name, model: model, start: time.Now(), fields: map[string]interface{}{}}
}

func (o *op) end(err error) {
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.End()
	o.t.LogOperation(o.ctx, o.name, o.model, time.Since(o.start), err, o.fields)
}

// TxFunc is the body of a transaction; returning an error rolls it back.
type TxFunc func(tx *gorm.DB) error

// WithTransaction runs fn in a transaction bound to ctx.
func (t *CRUDTool) WithTransaction(ctx context.Context, fn TxFunc) error {
	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

// ParseID reads the :id route parameter. On failure it answers 400.
func ParseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Fail(c, http.StatusBadRequest, "invalid id")
		if err == nil {
			err = fmt.Errorf("%w: id must be positive", ErrBadRequest)
		}
		return 0, err
	}
	return uint(id), nil
}

// BindJSON binds the body into obj and answers 400 with field messages on failure.
func BindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		ValidationFailed(c, err)
		return err
	}
	return nil
}

// Load fetches model by id, preloading the named associations.
func (t *CRUDTool) Load(ctx context.Context, model interface{}, id uint, preloads ...string) error {
	db := t.DB.WithContext(ctx)
	for _, preload := range preloads {
		db = db.Preload(preload)
	}
	return db.First(model, id).Error
}

// GetByID answers with the record named by :id. Plain lookups go through the
// cache; lookups with preloads always hit the database.
func (t *CRUDTool) GetByID(c *gin.Context, model interface{}, preloads ...string) (err error) {
	o := t.begin(c.Request.Context(), "get_by_id", model)
	defer func() { o.end(err) }()

	id, err := ParseID(c)
	if err != nil {
		return err
	}
	o.fields["id"] = id

	useCache := len(preloads) == 0
	cacheKey := t.GenerateCacheKey(model, id)
	if useCache && t.GetFromCache(o.ctx, cacheKey, model) {
		o.fields["cache"] = "hit"
		Respond(c, http.StatusOK, "ok (cached)", model)
		return nil
	}

	if err = t.Load(o.ctx, model, id, preloads...); err != nil {
		FailErr(c, err, "query failed")
		return err
	}

	if useCache {
		if cerr := t.SetToCache(o.ctx, cacheKey, model); cerr != nil {
			o.fields["cache_error"] = cerr.Error()
		}
	}

	Respond(c, http.StatusOK, "ok", model)
	return nil
}

// List answers with one page of models filtered by qb. The page is read
// from ?page= (1-based) and ?pagesize=.
func (t *CRUDTool) List(c *gin.Context, models interface{}, qb *QueryBuilder) (err error) {
	o := t.begin(c.Request.Context(), "list", models)
	defer func() { o.end(err) }()

	page, pageSize := PageParams(c)
	o.fields["page"] = page
	o.fields["page_size"] = pageSize

	filtered, err := BuildQuery(t.DB.WithContext(o.ctx).Model(models), qb)
	if err != nil {
		FailErr(c, err, "query failed")
		return err
	}

	var total int64
	if err = filtered.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		FailErr(c, err, "query failed")
		return err
	}

	ordered, err := BuildOrdering(filtered.Session(&gorm.Session{}), qb)
	if err != nil {
		FailErr(c, err, "query failed")
		return err
	}
	if err = ordered.Limit(pageSize).Offset((page - 1) * pageSize).Find(models).Error; err != nil {
		FailErr(c, err, "query failed")
		return err
	}

	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "ok",
		Data:    models,
		Page: &Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    int(total),
		},
	})
	return nil
}

// PageParams reads ?page= and ?pagesize=, falling back to 1 and
// DefaultPageSize and capping the size at MaxPageSize.
func PageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("pagesize", strconv.Itoa(DefaultPageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Create inserts model and answers 201 with it.
func (t *CRUDTool) Create(c *gin.Context, model interface{}) (err error) {
	o := t.begin(c.Request.Context(), "create", model)
	defer func() { o.end(err) }()

	if err = t.DB.WithContext(o.ctx).Create(model).Error; err != nil {
		FailErr(c, err, "create failed")
		return err
	}

	Respond(c, http.StatusCreated, "created", model)
	return nil
}

// UpdateByID loads the record named by :id into model, binds the body into
// input, calls apply to copy input onto model and saves the result.
func (t *CRUDTool) UpdateByID(c *gin.Context, model interface{}, input interface{}, apply func()) (err error) {
	o := t.begin(c.Request.Context(), "update_by_id", model)
	defer func() { o.end(err) }()

	id, err := ParseID(c)
	if err != nil {
		return err
	}
	o.fields["id"] = id

	if err = t.Load(o.ctx, model, id); err != nil {
		FailErr(c, err, "query failed")
		return err
	}

	if err = BindJSON(c, input); err != nil {
		return err
	}
	apply()

	if err = t.DB.WithContext(o.ctx).Save(model).Error; err != nil {
		FailErr(c, err, "update failed")
		return err
	}

	t.Invalidate(o.ctx, model, id)

	Respond(c, http.StatusOK, "updated", model)
	return nil
}

// GuardFunc runs inside the delete transaction before the row is removed.
// Returning an error wrapping ErrConflict answers 409.
type GuardFunc func(tx *gorm.DB, id uint) error

// SoftDeleteByID sets deleted_at on the record named by :id.
func (t *CRUDTool) SoftDeleteByID(c *gin.Context, model interface{}, guard GuardFunc) (err error) {
	o := t.begin(c.Request.Context(), "soft_delete", model)
	defer func() { o.end(err) }()

	id, err := ParseID(c)
	if err != nil {
		return err
	}
	o.fields["id"] = id

	err = t.WithTransaction(o.ctx, func(tx *gorm.DB) error {
		if guard != nil {
			if err := guard(tx, id); err != nil {
				return err
			}
		}
		result := tx.Delete(model, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		FailErr(c, err, "delete failed")
		return err
	}

	t.Invalidate(o.ctx, model, id)

	Respond(c, http.StatusOK, "deleted", nil)
	return nil
}

// RestoreSoftDelete clears deleted_at on the record named by :id.
func (t *CRUDTool) RestoreSoftDelete(c *gin.Context, model interface{}) (err error) {
	o := t.begin(c.Request.Context(), "restore", model)
	defer func() { o.end(err) }()

	id, err := ParseID(c)
	if err != nil {
		return err
	}
	o.fields["id"] = id

	result := t.DB.WithContext(o.ctx).Unscoped().Model(model).Where("id = ?", id).Update("deleted_at", nil)
	if result.Error != nil {
		err = result.Error
		FailErr(c, err, "restore failed")
		return err
	}
	if result.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
		FailErr(c, err, "restore failed")
		return err
	}

	Respond(c, http.StatusOK, "restored", nil)
	return nil
}

// GetRelated answers with the association of the record named by :id.
func (t *CRUDTool) GetRelated(c *gin.Context, model interface{}, associationName string, result interface{}) (err error) {
	o := t.begin(c.Request.Context(), "get_related", model)
	defer func() { o.end(err) }()

	id, err := ParseID(c)
	if err != nil {
		return err
	}
	o.fields["id"] = id
	o.fields["association"] = associationName

	if err = t.Load(o.ctx, model, id); err != nil {
		FailErr(c, err, "query failed")
		return err
	}

	if err = t.DB.WithContext(o.ctx).Model(model).Association(associationName).Find(result); err != nil {
		FailErr(c, err, "loading related records failed")
		return err
	}

	Respond(c, http.StatusOK, "ok", result)
	return nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
