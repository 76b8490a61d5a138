package domain

import "time"

// ReactivationWindow is how long a soft-deleted profile can still be
// restored. Past it the account is eligible for permanent purge.
const ReactivationWindow = 30 * 24 * time.Hour

// Profile is the user-facing account record. UserID is the one-way hash
// of the owning Identity's id, never the raw id. A given UserID lives in
// at most one of the active or deleted profile tables at any instant.
type Profile struct {
	UserID     string  `json:"user_id"`
	Username   string  `json:"username"`
	AvatarLink *string `json:"avatar_link,omitempty"`
	Bio        *string `json:"bio,omitempty"`
}

// DeletedProfile is a soft-deleted profile awaiting restore or purge.
type DeletedProfile struct {
	Profile
	DeletedAt time.Time `json:"deleted_at"`
}

// Expired reports whether the reactivation window has elapsed.
func (d *DeletedProfile) Expired(now time.Time) bool {
	return now.After(d.DeletedAt.Add(ReactivationWindow))
}

type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
}

type UpdateAvatarRequest struct {
	AvatarLink string `json:"avatar_link" validate:"required,url"`
}
