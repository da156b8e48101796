package sessions

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// SignUpPayload carries the fields required to create an account.
type SignUpPayload struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

func (p SignUpPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Username, validation.Required, validation.Length(3, 60)),
		validation.Field(&p.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 72)),
	)
}

// SignInPayload identifies an account by username or email.
type SignInPayload struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (p SignInPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Identifier, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}
