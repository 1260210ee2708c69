package handlers

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	domain "github.com/yungbote/assets-backend/internal/domain/assets"
)

var registerOnce sync.Once

// RegisterValidators adds the asset enum rules to gin's validator. Safe to
// call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("entitytype", func(fl validator.FieldLevel) bool {
			_, ok := domain.ParseEntityType(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("filetype", func(fl validator.FieldLevel) bool {
			_, ok := domain.ParseFileType(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("assetstatus", func(fl validator.FieldLevel) bool {
			_, ok := domain.ParseStatus(fl.Field().String())
			return ok
		})
	})
}

// bindingMessage turns binder errors into something a client can act on.
func bindingMessage(err error) string {
	if errors.Is(err, io.EOF) {
		return "request body is required"
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fieldMessage(fe))
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "uuid":
		return field + " must be a UUID"
	case "min":
		if fe.Kind().String() == "slice" {
			return field + " must not be empty"
		}
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "entitytype":
		return fmt.Sprintf("%s must be one of %s", field, joinEnum(domain.EntityTypes()))
	case "filetype":
		return field + " must be one of IMAGE, DOCUMENT, SPREADSHEET"
	case "assetstatus":
		return field + " must be one of PROCESSING, ACTIVE, ARCHIVED, DELETED"
	default:
		return fmt.Sprintf("%s failed the %q rule", field, fe.Tag())
	}
}

func joinEnum(vals []domain.EntityType) string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	return strings.Join(out, ", ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
