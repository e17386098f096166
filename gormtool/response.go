package gormtool

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Page    *Pagination `json:"page,omitempty"`
}

var (
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
)

// Respond writes the envelope with status as both HTTP status and code.
func Respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Code:    status,
		Message: message,
		Data:    data,
	})
}

// Fail writes an envelope without data.
func Fail(c *gin.Context, status int, message string) {
	Respond(c, status, message, nil)
}

// FailErr picks the status from err. fallback is used as the message for
// errors that map to 500.
func FailErr(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		Fail(c, http.StatusNotFound, "record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		Fail(c, http.StatusConflict, "record already exists")
	case errors.Is(err, ErrConflict):
		Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrInvalidField), errors.Is(err, ErrInvalidOperator):
		Fail(c, http.StatusBadRequest, err.Error())
	default:
		Fail(c, http.StatusInternalServerError, fallback)
	}
}

// ValidationFailed answers 400 with one message per offending field.
func ValidationFailed(c *gin.Context, err error) {
	Respond(c, http.StatusBadRequest, "invalid parameters", ValidationMessages(err))
}

// ValidationMessages flattens binding errors into field -> message.
func ValidationMessages(err error) map[string]string {
	out := map[string]string{}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = fieldMessage(fe)
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		out[typeErr.Field] = "must be of type " + typeErr.Type.String()
		return out
	}

	out["body"] = err.Error()
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "missing data for required field"
	case "email":
		return "not a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " elements"
	case "max":
		return "longer than maximum length " + fe.Param()
	}
	return "failed on " + fe.Tag()
}
