package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-accounts-api/internal/domain"
	"github.com/go-accounts-api/internal/pkg/idhash"
)

type Service interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.Profile, error)
	UpdateAvatar(ctx context.Context, userID, avatarLink string) (*domain.Profile, error)
	SoftDelete(ctx context.Context, userID string) error
	Restore(ctx context.Context, userID string) error
	HardDelete(ctx context.Context, userID string) error
	PurgeExpired(ctx context.Context, retentionDays int) (int, error)
}

type profileStore interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateNameAndBio(ctx context.Context, userID string, username, bio *string) error
	UpdateAvatar(ctx context.Context, userID, avatarLink string) error
	MoveToDeleted(ctx context.Context, userID string) error
	Restore(ctx context.Context, userID string) error
	GetDeletedByUserID(ctx context.Context, userID string) (*domain.DeletedProfile, error)
	ListExpiredDeleted(ctx context.Context, retentionDays int) ([]string, error)
	DeleteFromDeleted(ctx context.Context, userID string) (bool, error)
}

type identityStore interface {
	ListIDs(ctx context.Context) ([]string, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

type profileCache interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Cache(ctx context.Context, p *domain.Profile) error
	Clear(ctx context.Context, userID string) error
}

type service struct {
	profiles   profileStore
	identities identityStore
	cache      profileCache
}

type ServiceDeps struct {
	ProfileRepo  profileStore
	IdentityRepo identityStore
	ProfileCache profileCache
}

func NewService(deps ServiceDeps) Service {
	return &service{
		profiles:   deps.ProfileRepo,
		identities: deps.IdentityRepo,
		cache:      deps.ProfileCache,
	}
}

// GetProfile is a read-through lookup: cache first, durable store on a
// miss, repopulate on the way out. Only active profiles ever reach the
// cache; soft-deleted rows live in their own table and miss here.
func (s *service) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		slog.Warn("profile cache read failed", "user_id", userID, "err", err)
	}
	if cached != nil {
		return cached, nil
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Cache(ctx, profile); err != nil {
		slog.Warn("profile cache populate failed", "user_id", userID, "err", err)
	}
	return profile, nil
}

// UpdateProfile clears the cache entry, performs the durable write, then
// re-reads and repopulates. The cache never serves data older than the
// last committed write, at the cost of one guaranteed miss per update.
func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	if req.Username == nil && req.Bio == nil {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	return s.applyUpdate(ctx, userID, func() error {
		return s.profiles.UpdateNameAndBio(ctx, userID, req.Username, req.Bio)
	})
}

func (s *service) UpdateAvatar(ctx context.Context, userID, avatarLink string) (*domain.Profile, error) {
	return s.applyUpdate(ctx, userID, func() error {
		return s.profiles.UpdateAvatar(ctx, userID, avatarLink)
	})
}

func (s *service) applyUpdate(ctx context.Context, userID string, write func() error) (*domain.Profile, error) {
	if err := s.cache.Clear(ctx, userID); err != nil {
		slog.Warn("profile cache invalidate failed", "user_id", userID, "err", err)
	}
	if err := write(); err != nil {
		return nil, err
	}
	updated, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Cache(ctx, updated); err != nil {
		slog.Warn("profile cache populate failed", "user_id", userID, "err", err)
	}
	return updated, nil
}

// SoftDelete moves the profile into the deleted store transactionally and
// invalidates its cache entry.
func (s *service) SoftDelete(ctx context.Context, userID string) error {
	if err := s.profiles.MoveToDeleted(ctx, userID); err != nil {
		return err
	}
	if err := s.cache.Clear(ctx, userID); err != nil {
		slog.Warn("profile cache invalidate failed", "user_id", userID, "err", err)
	}
	return nil
}

// Restore moves a soft-deleted profile back, permitted only inside the
// reactivation window.
func (s *service) Restore(ctx context.Context, userID string) error {
	deleted, err := s.profiles.GetDeletedByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if deleted.Expired(time.Now()) {
		return fmt.Errorf("deleted at %s: %w", deleted.DeletedAt.Format(time.RFC3339), domain.ErrReactivationExpired)
	}
	return s.profiles.Restore(ctx, userID)
}

// HardDelete permanently removes a soft-deleted profile and its identity.
// The deleted-profile removal is retried once when the first call reports
// nothing removed; each row deletion is independently idempotent.
func (s *service) HardDelete(ctx context.Context, userID string) error {
	removed, err := s.profiles.DeleteFromDeleted(ctx, userID)
	if err == nil && !removed {
		removed, err = s.profiles.DeleteFromDeleted(ctx, userID)
	}
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("deleted profile: %w", domain.ErrNotFound)
	}

	if err := s.deleteIdentityByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.cache.Clear(ctx, userID); err != nil {
		slog.Warn("profile cache invalidate failed", "user_id", userID, "err", err)
	}
	return nil
}

// PurgeExpired permanently removes deleted profiles older than the
// retention period together with their identities. The sweep is
// best-effort: a partial failure leaves rows for the next run instead of
// rolling back, since every row deletion is idempotent. Returns the
// number of purged profiles.
func (s *service) PurgeExpired(ctx context.Context, retentionDays int) (int, error) {
	expired, err := s.profiles.ListExpiredDeleted(ctx, retentionDays)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	expiredSet := make(map[string]struct{}, len(expired))
	for _, userID := range expired {
		expiredSet[userID] = struct{}{}
	}

	// The only link between the tables is the one-way hash, so every
	// identity id is hashed and matched against the expired set.
	identityIDs, err := s.identities.ListIDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, identityID := range identityIDs {
		if _, ok := expiredSet[idhash.Hash(identityID)]; !ok {
			continue
		}
		if _, err := s.identities.DeleteByID(ctx, identityID); err != nil {
			slog.Warn("purge: identity delete failed, retried next sweep", "err", err)
		}
	}

	purged := 0
	for _, userID := range expired {
		removed, err := s.profiles.DeleteFromDeleted(ctx, userID)
		if err != nil {
			slog.Warn("purge: deleted-profile delete failed, retried next sweep", "user_id", userID, "err", err)
			continue
		}
		if removed {
			purged++
		}
	}
	return purged, nil
}

func (s *service) deleteIdentityByUserID(ctx context.Context, userID string) error {
	identityIDs, err := s.identities.ListIDs(ctx)
	if err != nil {
		return err
	}
	for _, identityID := range identityIDs {
		if idhash.Hash(identityID) == userID {
			_, err := s.identities.DeleteByID(ctx, identityID)
			return err
		}
	}
	return errors.New("no identity matches profile id")
}
