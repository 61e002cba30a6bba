// models/auth.go
package models

// SignupRequest registers a new account. Buyers and sellers self-register;
// staff accounts are provisioned by an admin.
type SignupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Username     string `json:"username" validate:"required,min=3"`
	FullName     string `json:"fullName" validate:"required"`
	UserType     string `json:"userType" validate:"required,oneof=buyer seller"`
	HiveUsername string `json:"hiveUsername"`
	Country      string `json:"country"`
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and the sanitized user.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
