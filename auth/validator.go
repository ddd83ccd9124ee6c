package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRequest carries the business rules for account creation: usernames
// are at least 3 characters, passwords at least 8. There is no character
// class requirement; "password123" is a valid password.
type RegisterRequest struct {
	Username string `validate:"required,min=3,max=50"`
	Password string `validate:"required,min=8,max=72"`
}

func ValidateRegister(req RegisterRequest) error {
	return validate.Struct(req)
}
