package handler

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/http/dto"
)

// respondError writes the standard error body. Untyped errors are reported
// as a generic 500 so internal detail does not leak.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var typed *errors.Error
	if !stderrors.As(err, &typed) {
		abort(c, http.StatusInternalServerError, "An unexpected error occurred", nil)
		return
	}
	abort(c, errors.HTTPStatus(err), err.Error(), errors.ContextOf(err))
}

func abort(c *gin.Context, status int, message string, details map[string]any) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Error: dto.ErrorBody{
			Message:    message,
			StatusCode: status,
			Path:       c.Request.URL.Path,
			Details:    details,
		},
	})
}

// bindError converts a ShouldBindJSON failure into a validation error that
// lists each rejected field
func bindError(err error) error {
	var fields []dto.FieldError

	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, dto.FieldError{
				Field:   fieldPath(fe.Namespace()),
				Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
				Type:    fe.Tag(),
			})
		}
	} else {
		fields = append(fields, dto.FieldError{Field: "body", Message: err.Error(), Type: "json_invalid"})
	}

	return errors.ValidationError("Validation failed").WithContext("validation_errors", fields)
}

// fieldPath drops the request struct name from a validator namespace
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
