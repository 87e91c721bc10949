package catalog

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Credentials is the login form payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the register form payload. Role is captured at
// registration; the four roles mirror the backend's user model.
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=Admin ProductManager ProjectManager ProductionEngineer"`
}

// Roles lists the selectable roles in display order.
func Roles() []string {
	return []string{"Admin", "ProductManager", "ProjectManager", "ProductionEngineer"}
}

// TokenResponse is the backend's successful login reply.
type TokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. Validation failures are
// caught client-side before the request goes out.
func Login(ctx context.Context, client Client, creds Credentials) (string, error) {
	if err := validate.Struct(creds); err != nil {
		return "", fmt.Errorf("invalid credentials form: %w", err)
	}

	var resp TokenResponse
	if err := client.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Register creates an account with the chosen role.
func Register(ctx context.Context, client Client, reg Registration) error {
	if err := validate.Struct(reg); err != nil {
		return fmt.Errorf("invalid registration form: %w", err)
	}
	return client.Post(ctx, "/auth/register", reg, nil)
}

// ValidateDraft runs client-side required-field validation on a form draft
// before it is submitted.
func ValidateDraft(draft any) error {
	if err := validate.Struct(draft); err != nil {
		return fmt.Errorf("invalid form: %w", err)
	}
	return nil
}
