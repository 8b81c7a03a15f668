package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pushrequest/relay/internal/models"
)

type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (github_id, device_tokens, allowed_types)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.GithubID,
		user.DeviceTokens,
		typesToStrings(user.AllowedTypes),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByGithubID(ctx context.Context, githubID int64) (*models.User, error) {
	query := `SELECT id, github_id, device_tokens, allowed_types, latest_event, created_at, updated_at
	          FROM users
	          WHERE github_id = $1`

	var user models.User
	var allowedTypes []string
	var eventJSON []byte

	err := r.pool.QueryRow(ctx, query, githubID).Scan(
		&user.ID,
		&user.GithubID,
		&user.DeviceTokens,
		&allowedTypes,
		&eventJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.AllowedTypes = stringsToTypes(allowedTypes)

	if len(eventJSON) > 0 {
		var event models.Event
		if err := json.Unmarshal(eventJSON, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal latest event: %w", err)
		}
		user.LatestEvent = &event
	}

	return &user, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *models.User) error {
	var eventJSON []byte
	if user.LatestEvent != nil {
		var err error
		eventJSON, err = json.Marshal(user.LatestEvent)
		if err != nil {
			return fmt.Errorf("failed to marshal latest event: %w", err)
		}
	}

	query := `UPDATE users
	          SET device_tokens = $1, allowed_types = $2, latest_event = $3, updated_at = NOW()
	          WHERE github_id = $4`

	result, err := r.pool.Exec(ctx, query,
		user.DeviceTokens,
		typesToStrings(user.AllowedTypes),
		eventJSON,
		user.GithubID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func typesToStrings(types []models.EventType) []string {
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = string(t)
	}
	return strings
}

func stringsToTypes(strings []string) []models.EventType {
	types := make([]models.EventType, len(strings))
	for i, s := range strings {
		types[i] = models.EventType(s)
	}
	return types
}
