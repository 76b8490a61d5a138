package domain

import "time"

// Login methods. Federated methods carry no password hash.
const (
	MethodLocal  = "local"
	MethodGoogle = "google"
)

// Identity is one login credential record, keyed by a server-generated
// opaque id. The profile row is linked only through a one-way hash of
// this id; there is no foreign key between the two tables.
type Identity struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   *string    `json:"-"`
	LoginMethod    string     `json:"login_method"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	FailedAttempts int        `json:"-"`
	LockoutUntil   *time.Time `json:"-"`
}

// Locked reports whether the lockout window is still active.
// An elapsed lockout_until is cleared lazily on the next login attempt.
func (i *Identity) Locked(now time.Time) bool {
	return i.LockoutUntil != nil && now.Before(*i.LockoutUntil)
}

type RegisterRequest struct {
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=8,max=72"`
	Username   string  `json:"username" validate:"required"`
	AvatarLink *string `json:"avatar_link"`
	Bio        *string `json:"bio"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}
