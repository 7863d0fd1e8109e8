// ABOUTME: Payload validation for persons, accounts and batch requests
// ABOUTME: Registers enum validators and checks person fields against account option lists
package directory

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/harperreed/orgmap/models"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("sentiment", func(fl validator.FieldLevel) bool {
		return models.ValidSentiment(fl.Field().String())
	})
	_ = v.RegisterValidation("awareness", func(fl validator.FieldLevel) bool {
		return models.ValidAwareness(fl.Field().String())
	})
	_ = v.RegisterValidation("roletype", func(fl validator.FieldLevel) bool {
		return models.ValidRoleType(fl.Field().String())
	})
	return v
}

// checkStruct converts the first validator failure into a ValidationError.
func (s *Service) checkStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &ValidationError{Field: fieldPath(fe), Message: describe(fe)}
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must have at most %s entry", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entry", fe.Param())
	case "sentiment":
		return "must be one of High, Medium, Low, Unknown"
	case "awareness":
		return "must be one of Hold, Email only, Low, Go Ahead, Unknown"
	case "roletype":
		return "must be one of " + strings.Join(models.RoleTypes(), ", ")
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// checkAccountOptions enforces the account's business unit and location lists
// when the account defines them.
func checkAccountOptions(account *models.Account, p *models.Person) error {
	if account == nil {
		return nil
	}
	if len(account.BusinessUnit) > 0 {
		for _, bu := range p.BusinessUnit {
			if !containsFold(account.BusinessUnit, bu) {
				return invalid("businessUnit", "%q is not a business unit of account %s", bu, account.Name)
			}
		}
	}
	if len(account.Locations) > 0 && p.Location != "" {
		ok := false
		for _, loc := range account.Locations {
			if strings.EqualFold(p.Location, loc.City) || strings.EqualFold(p.Location, loc.Label()) {
				ok = true
				break
			}
		}
		if !ok {
			return invalid("location", "%q is not a location of account %s", p.Location, account.Name)
		}
	}
	return nil
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
