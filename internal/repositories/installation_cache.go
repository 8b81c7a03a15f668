package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/pushrequest/relay/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	installationKeyPrefix = "installation:"
	// Installation bindings are immutable once created, so a long TTL is
	// safe; it only bounds staleness after an out-of-band deletion.
	installationTTL = 24 * time.Hour
)

// CachedInstallationRepository is a redis read-through cache in front of the
// postgres installation store.
type CachedInstallationRepository struct {
	inner  InstallationRepository
	client *redis.Client
}

func NewCachedInstallationRepository(inner InstallationRepository, client *redis.Client) *CachedInstallationRepository {
	return &CachedInstallationRepository{inner: inner, client: client}
}

func (r *CachedInstallationRepository) Create(ctx context.Context, installation *models.Installation) error {
	if err := r.inner.Create(ctx, installation); err != nil {
		return err
	}

	r.cache(ctx, installation)
	return nil
}

func (r *CachedInstallationRepository) GetByInstallationID(ctx context.Context, installationID int64) (*models.Installation, error) {
	key := installationKey(installationID)

	data, err := r.client.Get(ctx, key).Result()
	if err == nil {
		var installation models.Installation
		if err := json.Unmarshal([]byte(data), &installation); err == nil {
			return &installation, nil
		}
		// Unreadable cache entry; fall through to the store.
		r.client.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("installation cache read failed: %v", err)
	}

	installation, err := r.inner.GetByInstallationID(ctx, installationID)
	if err != nil {
		return nil, err
	}

	r.cache(ctx, installation)
	return installation, nil
}

func (r *CachedInstallationRepository) GetAllByGithubID(ctx context.Context, githubID int64) ([]*models.Installation, error) {
	return r.inner.GetAllByGithubID(ctx, githubID)
}

func (r *CachedInstallationRepository) SetAuthorizedRepos(ctx context.Context, installationID int64, repos []models.Repository) error {
	if err := r.inner.SetAuthorizedRepos(ctx, installationID, repos); err != nil {
		return err
	}

	if err := r.client.Del(ctx, installationKey(installationID)).Err(); err != nil {
		log.Printf("installation cache invalidation failed: %v", err)
	}
	return nil
}

// cache is best-effort: a cache write failure never fails the lookup.
func (r *CachedInstallationRepository) cache(ctx context.Context, installation *models.Installation) {
	data, err := json.Marshal(installation)
	if err != nil {
		return
	}

	key := installationKey(installation.InstallationID)
	if err := r.client.Set(ctx, key, data, installationTTL).Err(); err != nil {
		log.Printf("installation cache write failed: %v", err)
	}
}

func installationKey(installationID int64) string {
	return fmt.Sprintf("%s%d", installationKeyPrefix, installationID)
}
