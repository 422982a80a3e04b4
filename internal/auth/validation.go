package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
)

var usStates = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {}, "DE": {}, "FL": {}, "GA": {},
	"HI": {}, "ID": {}, "IL": {}, "IN": {}, "IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {}, "MD": {},
	"MA": {}, "MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {}, "NH": {}, "NJ": {},
	"NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {}, "OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {},
	"SD": {}, "TN": {}, "TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {}, "WY": {},
}

// SignUpParams is the sign-up form.
type SignUpParams struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"firstName" validate:"required,min=3"`
	LastName    string `json:"lastName" validate:"required,min=3"`
	Address1    string `json:"address1" validate:"required,max=50"`
	City        string `json:"city" validate:"required,max=50"`
	State       string `json:"state" validate:"required,usstate"`
	PostalCode  string `json:"postalCode" validate:"required,len=5,numeric"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	SSN         string `json:"ssn" validate:"required,len=4,numeric"`
}

type SignInParams struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

var messages = map[string]string{
	"email":       "Invalid email address",
	"password":    "Password must be at least 8 characters",
	"firstName":   "First name must be at least 3 characters",
	"lastName":    "Last name must be at least 3 characters",
	"address1":    "Address is required and must be at most 50 characters",
	"city":        "City is required and must be at most 50 characters",
	"state":       "State must be a valid US state code (e.g., NY, CA)",
	"postalCode":  "Postal code must be exactly 5 digits",
	"dateOfBirth": "Date of birth must be in YYYY-MM-DD format",
	"ssn":         "SSN must be the last 4 digits",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("usstate", func(fl validator.FieldLevel) bool {
		_, ok := usStates[strings.ToUpper(fl.Field().String())]
		return ok
	})
	return v
}

// validationError turns validator output into a single ErrInvalidInput.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", fe.Field())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%w: %s", models.ErrInvalidInput, strings.Join(msgs, "; "))
}
