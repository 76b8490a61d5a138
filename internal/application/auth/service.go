package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-accounts-api/internal/domain"
	"github.com/go-accounts-api/internal/infrastructure/google"
	"github.com/go-accounts-api/internal/pkg/id"
	"github.com/go-accounts-api/internal/pkg/idhash"
	pkgotp "github.com/go-accounts-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute
)

// LoginResult is what a completed login hands back to the caller.
// Expired=true is a hard rejection: no session is issued. SoftDeleted=true
// (not expired) is a partial success requiring a reactivation step before
// full access.
type LoginResult struct {
	UserID      string `json:"user_id"`
	SessionID   string `json:"-"`
	SoftDeleted bool   `json:"soft_deleted"`
	Expired     bool   `json:"expired"`
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) error
	VerifyPassword(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, submittedOTP string) (*LoginResult, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
	Logout(ctx context.Context, sessionID string) error
	CurrentSession(ctx context.Context, sessionID string) (*domain.SessionData, error)
}

type identityStore interface {
	Insert(ctx context.Context, i *domain.Identity) error
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	UpdateFailedAttempts(ctx context.Context, email string, attempts int, lockoutUntil *time.Time) error
	ClearExpiredLockout(ctx context.Context, email string) error
	UpdateLastLogin(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

type profileStore interface {
	Insert(ctx context.Context, p *domain.Profile) error
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	GetDeletedByUserID(ctx context.Context, userID string) (*domain.DeletedProfile, error)
}

type otpStore interface {
	Store(ctx context.Context, email, code string) error
	Verify(ctx context.Context, email, candidate string) bool
}

type sessionStore interface {
	Create(ctx context.Context, data domain.SessionData) (string, error)
	Get(ctx context.Context, token string) (*domain.SessionData, error)
	Destroy(ctx context.Context, token string) error
}

type profileCache interface {
	Cache(ctx context.Context, p *domain.Profile) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type service struct {
	identities identityStore
	profiles   profileStore
	otps       otpStore
	sessions   sessionStore
	cache      profileCache
	mailer     mailer
	google     googleVerifier
}

type ServiceDeps struct {
	IdentityRepo   identityStore
	ProfileRepo    profileStore
	OTPStore       otpStore
	SessionStore   sessionStore
	ProfileCache   profileCache
	Mailer         mailer
	GoogleVerifier googleVerifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		identities: deps.IdentityRepo,
		profiles:   deps.ProfileRepo,
		otps:       deps.OTPStore,
		sessions:   deps.SessionStore,
		cache:      deps.ProfileCache,
		mailer:     deps.Mailer,
		google:     deps.GoogleVerifier,
	}
}

// Register creates an Identity and its Profile as a two-step insert. If
// the profile insert fails after the identity commit, the identity is
// left behind; the fault is logged and later surfaces as ProfileMissing.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hashStr := string(hash)

	identity := &domain.Identity{
		ID:           id.New(),
		Email:        req.Email,
		PasswordHash: &hashStr,
		LoginMethod:  domain.MethodLocal,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.identities.Insert(ctx, identity); err != nil {
		return err
	}

	profile := &domain.Profile{
		UserID:     idhash.Hash(identity.ID),
		Username:   req.Username,
		AvatarLink: req.AvatarLink,
		Bio:        req.Bio,
	}
	if err := s.profiles.Insert(ctx, profile); err != nil {
		slog.Error("profile insert failed after identity insert", "email", req.Email, "err", err)
		return err
	}
	return nil
}

// VerifyPassword is the first half of a local login. On a correct
// password it issues a fresh OTP and dispatches it; the caller then
// completes the login via Login with the submitted code.
func (s *service) VerifyPassword(ctx context.Context, email, password string) error {
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if identity.LoginMethod != domain.MethodLocal {
		return fmt.Errorf("identity: %w", domain.ErrNotFound)
	}

	now := time.Now()
	if identity.LockoutUntil != nil {
		if identity.Locked(now) {
			return fmt.Errorf("locked until %s: %w", identity.LockoutUntil.Format(time.RFC3339), domain.ErrLocked)
		}
		// Elapsed lockout: clear lazily before proceeding.
		if err := s.identities.ClearExpiredLockout(ctx, email); err != nil {
			return err
		}
		identity.FailedAttempts = 0
	}

	if identity.PasswordHash == nil {
		return fmt.Errorf("no password on identity: %w", domain.ErrInvalidCredential)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*identity.PasswordHash), []byte(password)); err != nil {
		attempts := identity.FailedAttempts + 1
		var lockoutUntil *time.Time
		if attempts >= maxFailedAttempts {
			t := now.Add(lockoutDuration)
			lockoutUntil = &t
		}
		if err := s.identities.UpdateFailedAttempts(ctx, email, attempts, lockoutUntil); err != nil {
			return err
		}
		return fmt.Errorf("wrong password: %w", domain.ErrInvalidCredential)
	}

	return s.sendOTP(ctx, email)
}

// Login is the second half of a local login: consumes the OTP, resets the
// failure state, stamps last-login and resolves the caller's profile.
func (s *service) Login(ctx context.Context, email, submittedOTP string) (*LoginResult, error) {
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity.LoginMethod != domain.MethodLocal {
		return nil, fmt.Errorf("identity: %w", domain.ErrNotFound)
	}
	if !s.otps.Verify(ctx, email, submittedOTP) {
		return nil, fmt.Errorf("invalid or expired otp: %w", domain.ErrInvalidCredential)
	}
	return s.finalize(ctx, identity)
}

// LoginWithGoogle verifies the ID token and completes the login without
// an OTP round: the federated verifier has already asserted identity.
// An unknown email is provisioned on first login with a profile derived
// from the verified claims.
func (s *service) LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	payload, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if payload.Email == "" {
		return nil, fmt.Errorf("google token carries no email: %w", domain.ErrUnauthorized)
	}

	identity, err := s.identities.GetByEmail(ctx, payload.Email)
	if errors.Is(err, domain.ErrNotFound) {
		identity, err = s.provisionGoogleIdentity(ctx, payload)
	}
	if err != nil {
		return nil, err
	}
	if identity.LoginMethod != domain.MethodGoogle {
		return nil, fmt.Errorf("identity: %w", domain.ErrNotFound)
	}
	return s.finalize(ctx, identity)
}

// finalize is the shared tail of both login paths. Session issuance is
// skipped only for expired accounts; a session-store failure fails the
// login, a cache failure does not.
func (s *service) finalize(ctx context.Context, identity *domain.Identity) (*LoginResult, error) {
	if err := s.identities.UpdateLastLogin(ctx, identity.Email); err != nil {
		return nil, err
	}

	userID := idhash.Hash(identity.ID)
	var deleted *domain.DeletedProfile

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		deleted, err = s.profiles.GetDeletedByUserID(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			slog.Error("identity has no profile in either store", "user_id", userID)
			return nil, fmt.Errorf("identity %s: %w", identity.ID, domain.ErrProfileMissing)
		}
		if err != nil {
			return nil, err
		}
		profile = &deleted.Profile
	} else if err != nil {
		return nil, err
	}

	softDeleted := deleted != nil
	expired := softDeleted && deleted.Expired(time.Now())
	result := &LoginResult{UserID: userID, SoftDeleted: softDeleted, Expired: expired}
	if expired {
		return result, nil
	}

	if !softDeleted {
		if err := s.cache.Cache(ctx, profile); err != nil {
			slog.Warn("profile cache populate failed", "user_id", userID, "err", err)
		}
	}

	sessionID, err := s.sessions.Create(ctx, domain.SessionData{UserID: userID})
	if err != nil {
		return nil, err
	}
	result.SessionID = sessionID
	return result, nil
}

// RequestPasswordReset reuses the OTP flow: a pending reset code replaces
// any pending login code for the same email.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if identity.LoginMethod != domain.MethodLocal {
		return fmt.Errorf("identity: %w", domain.ErrNotFound)
	}
	return s.sendOTP(ctx, email)
}

func (s *service) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if identity.LoginMethod != domain.MethodLocal {
		return fmt.Errorf("identity: %w", domain.ErrNotFound)
	}
	if !s.otps.Verify(ctx, email, otp) {
		return fmt.Errorf("invalid or expired otp: %w", domain.ErrInvalidCredential)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.identities.UpdatePassword(ctx, email, string(hash))
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Destroy(ctx, sessionID)
}

func (s *service) CurrentSession(ctx context.Context, sessionID string) (*domain.SessionData, error) {
	return s.sessions.Get(ctx, sessionID)
}

// sendOTP issues, stores and dispatches a fresh code. Neither a store nor
// a dispatch failure fails the call: the caller can re-request, and an
// issued code stays valid even when the email never leaves.
func (s *service) sendOTP(ctx context.Context, email string) error {
	code, err := pkgotp.New()
	if err != nil {
		return err
	}
	if err := s.otps.Store(ctx, email, code); err != nil {
		slog.Warn("otp store failed", "err", err)
		return nil
	}
	if err := s.mailer.SendEmail(email, "Your verification code", "Your one-time passcode: "+code); err != nil {
		slog.Warn("otp dispatch failed", "err", err)
	}
	return nil
}

func (s *service) provisionGoogleIdentity(ctx context.Context, payload *google.Payload) (*domain.Identity, error) {
	identity := &domain.Identity{
		ID:          id.New(),
		Email:       payload.Email,
		LoginMethod: domain.MethodGoogle,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.identities.Insert(ctx, identity); err != nil {
		return nil, err
	}

	username := payload.Name
	if username == "" {
		username = "google_user_" + identity.ID[:8]
	}
	profile := &domain.Profile{
		UserID:   idhash.Hash(identity.ID),
		Username: username,
	}
	if err := s.profiles.Insert(ctx, profile); err != nil {
		slog.Error("profile insert failed after identity insert", "email", payload.Email, "err", err)
		return nil, err
	}
	return identity, nil
}
