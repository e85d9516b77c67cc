package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		// Report json names so messages match the wire format.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate = v
	})
	return validate
}

// Validate runs struct-tag validation and returns the first failure as a
// *ValidationError, or nil.
func Validate(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	return &ValidationError{Field: fe.Field(), Message: validationMessage(fe.Field(), fe.Tag(), fe.Param())}
}

func validationMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of the following values: %s", field, param)
	default:
		return fmt.Sprintf("something wrong on %s; %s", field, tag)
	}
}

// NormalizeCreate trims the content and validates the request.
// Length is counted in characters, not bytes.
func NormalizeCreate(req CreateCommentRequest) (CreateCommentRequest, error) {
	req.Content = strings.TrimSpace(req.Content)
	if req.ParentCommentID != nil && strings.TrimSpace(*req.ParentCommentID) == "" {
		req.ParentCommentID = nil
	}
	if err := checkContent(req.Content); err != nil {
		return req, err
	}
	return req, Validate(req)
}

// NormalizeUpdate trims the content and validates the request.
func NormalizeUpdate(req UpdateCommentRequest) (UpdateCommentRequest, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := checkContent(req.Content); err != nil {
		return req, err
	}
	return req, Validate(req)
}

// NormalizeFlag validates a flag request, dropping blank details.
func NormalizeFlag(req FlagCommentRequest) (FlagCommentRequest, error) {
	if req.Reason == "" {
		return req, ErrFlagReasonMissing
	}
	if req.Details != nil {
		d := strings.TrimSpace(*req.Details)
		if d == "" {
			req.Details = nil
		} else {
			req.Details = &d
		}
	}
	return req, Validate(req)
}

func checkContent(content string) error {
	if content == "" {
		return ErrContentRequired
	}
	if len([]rune(content)) > MaxCommentLength {
		return ErrContentTooLong
	}
	return nil
}
