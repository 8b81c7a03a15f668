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

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

const uniqueViolationCode = "23505"

type PostgresInstallationRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresInstallationRepository(pool *pgxpool.Pool) *PostgresInstallationRepository {
	return &PostgresInstallationRepository{pool: pool}
}

func (r *PostgresInstallationRepository) Create(ctx context.Context, installation *models.Installation) error {
	reposJSON, err := json.Marshal(installation.AuthorizedRepos)
	if err != nil {
		return fmt.Errorf("failed to marshal authorized repos: %w", err)
	}

	query := `INSERT INTO installations (installation_id, github_id, authorized_repos)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at`

	err = r.pool.QueryRow(ctx, query,
		installation.InstallationID,
		installation.GithubID,
		reposJSON,
	).Scan(&installation.ID, &installation.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create installation: %w", err)
	}
	return nil
}

func (r *PostgresInstallationRepository) GetByInstallationID(ctx context.Context, installationID int64) (*models.Installation, error) {
	query := `SELECT id, installation_id, github_id, authorized_repos, created_at
	          FROM installations
	          WHERE installation_id = $1`

	installation, err := scanInstallation(r.pool.QueryRow(ctx, query, installationID))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get installation: %w", err)
	}
	return installation, nil
}

func (r *PostgresInstallationRepository) GetAllByGithubID(ctx context.Context, githubID int64) ([]*models.Installation, error) {
	query := `SELECT id, installation_id, github_id, authorized_repos, created_at
	          FROM installations
	          WHERE github_id = $1
	          ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, githubID)
	if err != nil {
		return nil, fmt.Errorf("failed to query installations: %w", err)
	}
	defer rows.Close()

	var installations []*models.Installation
	for rows.Next() {
		installation, err := scanInstallation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installation: %w", err)
		}
		installations = append(installations, installation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating installations: %w", err)
	}

	return installations, nil
}

func (r *PostgresInstallationRepository) SetAuthorizedRepos(ctx context.Context, installationID int64, repos []models.Repository) error {
	reposJSON, err := json.Marshal(repos)
	if err != nil {
		return fmt.Errorf("failed to marshal authorized repos: %w", err)
	}

	query := `UPDATE installations
	          SET authorized_repos = $1
	          WHERE installation_id = $2`

	result, err := r.pool.Exec(ctx, query, reposJSON, installationID)
	if err != nil {
		return fmt.Errorf("failed to update authorized repos: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanInstallation(row pgx.Row) (*models.Installation, error) {
	var installation models.Installation
	var reposJSON []byte

	err := row.Scan(
		&installation.ID,
		&installation.InstallationID,
		&installation.GithubID,
		&reposJSON,
		&installation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(reposJSON) > 0 {
		if err := json.Unmarshal(reposJSON, &installation.AuthorizedRepos); err != nil {
			return nil, fmt.Errorf("failed to unmarshal authorized repos: %w", err)
		}
	}

	return &installation, nil
}
