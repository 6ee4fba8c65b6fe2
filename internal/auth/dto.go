package auth

import "strings"

// ValidationError is a lightweight pre-service check failure; the handler
// maps it to a 400 without involving the AppError taxonomy.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// LoginDTO is the transport shape for login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	email := strings.TrimSpace(d.Email)
	if email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if !strings.Contains(email, "@") {
		return ValidationError{Msg: "email is not valid"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

// RefreshTokenDTO is the transport shape for token refresh requests.
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh_token is required"}
	}
	return nil
}
