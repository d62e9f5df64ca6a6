package types

import "time"

type UserRole string

const (
	UserRoleStudent UserRole = "Student"
	UserRoleAdmin   UserRole = "Admin"
)

type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the authenticated caller, taken from a verified backend token.
type Identity struct {
	UserID string
	Email  string
	Role   UserRole
	Token  string
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == UserRoleAdmin
}

type Credentials struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type Registration struct {
	FirstName       string `json:"firstName" form:"first_name" validate:"required,max=100"`
	LastName        string `json:"lastName" form:"last_name" validate:"required,max=100"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required,min=12,pwdcplx"`
	ConfirmPassword string `json:"-" form:"confirm_password" validate:"required,eqfield=Password"`
}

type AuthToken struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}
