package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

type errorItem struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Available *int   `json:"available,omitempty"`
}

type errorResponse struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Errors     []errorItem `json:"errors"`
}

var errMalformedBody = &domain.Error{Kind: domain.KindValidation, Code: "MalformedBody", Message: "request body is not valid JSON"}

var tagNamesOnce sync.Once

// useJSONFieldNames makes validation errors report the wire name of a field.
func useJSONFieldNames() {
	tagNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return ""
		})
	})
}

// bindJSON decodes and validates the body. An absent body is validated as the
// zero value so optional payloads can be omitted entirely.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(dst)
	}
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	return &domain.Error{Kind: errMalformedBody.Kind, Code: errMalformedBody.Code, Message: errMalformedBody.Message, Err: err}
}

func (a *api) fail(c *gin.Context, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		a.logger.Printf("http: %s %s status=%d err=%v", c.Request.Method, c.FullPath(), status, err)
	}
	c.AbortWithStatusJSON(status, body)
}

func errorBody(err error) (int, errorResponse) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		items := make([]errorItem, 0, len(verrs))
		for _, fe := range verrs {
			items = append(items, errorItem{Code: "InvalidField", Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return http.StatusBadRequest, errorResponse{StatusCode: http.StatusBadRequest, Message: "request validation failed", Errors: items}
	}

	var typed *domain.Error
	if errors.As(err, &typed) {
		status := statusFor(typed.Kind)
		item := errorItem{Code: typed.Code, Message: typed.Message}
		if typed.Kind == domain.KindStock {
			available := typed.Available
			item.Available = &available
		}
		msg := typed.Message
		if typed.Kind == domain.KindUpstream {
			msg = domain.ErrUpstream.Message
		}
		return status, errorResponse{StatusCode: status, Message: msg, Errors: []errorItem{item}}
	}

	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound, errorResponse{
			StatusCode: http.StatusNotFound,
			Message:    "resource not found",
			Errors:     []errorItem{{Code: "NotFound", Message: "resource not found"}},
		}
	}

	return http.StatusInternalServerError, errorResponse{
		StatusCode: http.StatusInternalServerError,
		Message:    "internal error",
		Errors:     []errorItem{{Code: "InternalError", Message: "internal error"}},
	}
}

func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindStock, domain.KindState:
		return http.StatusConflict
	case domain.KindUpstream:
		return http.StatusBadGateway
	case domain.KindSession:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
