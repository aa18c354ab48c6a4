package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"clauselens/internal/config"
	"clauselens/internal/core"
	"clauselens/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`
	_, err := c.db.ExecContext(ctx, q, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash, created_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash, created_at
		FROM users WHERE id = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) DeleteUser(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// History records

func (c *DatabaseClient) CreateHistoryRecord(ctx context.Context, rec *models.HistoryRecord) error {
	if rec == nil {
		return errors.New("nil history record")
	}
	const q = `
		INSERT INTO history_records
			(id, user_id, file_name, analyzed_at, analysis, original_text, storage_url)
		VALUES ($1, $2, $3, COALESCE($4, now()), $5, $6, $7)
	`
	_, err := c.db.ExecContext(ctx, q,
		rec.ID, rec.UserID, rec.FileName, rec.AnalyzedAt, rec.Analysis, rec.OriginalText, rec.StorageURL)
	return err
}

func (c *DatabaseClient) GetHistoryRecordByID(ctx context.Context, id string) (*models.HistoryRecord, error) {
	const q = `
		SELECT id, user_id, file_name, analyzed_at, analysis, original_text, storage_url
		FROM history_records
		WHERE id = $1
	`
	var r models.HistoryRecord
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&r.ID, &r.UserID, &r.FileName, &r.AnalyzedAt, &r.Analysis, &r.OriginalText, &r.StorageURL,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *DatabaseClient) ListHistoryByUser(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	const q = `
		SELECT id, user_id, file_name, analyzed_at, analysis, original_text, storage_url
		FROM history_records
		WHERE user_id = $1
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HistoryRecord
	for rows.Next() {
		var r models.HistoryRecord
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.FileName, &r.AnalyzedAt, &r.Analysis, &r.OriginalText, &r.StorageURL,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteHistoryByUser removes every record for the user and returns what was
// deleted so archived originals can be cleaned up too.
func (c *DatabaseClient) DeleteHistoryByUser(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	const q = `
		DELETE FROM history_records
		WHERE user_id = $1
		RETURNING id, user_id, file_name, analyzed_at, analysis, original_text, storage_url
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HistoryRecord
	for rows.Next() {
		var r models.HistoryRecord
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.FileName, &r.AnalyzedAt, &r.Analysis, &r.OriginalText, &r.StorageURL,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Checklist state

// escapeLikePrefix escapes LIKE metacharacters so prefixes built from file
// names (my_lease.txt) match literally instead of as wildcards.
func escapeLikePrefix(prefix string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
}

func (c *DatabaseClient) GetChecklistItems(ctx context.Context, userID, keyPrefix string) ([]models.ChecklistItem, error) {
	const q = `
		SELECT user_id, key, done
		FROM checklist_items
		WHERE user_id = $1 AND key LIKE $2 || '%'
		ORDER BY key ASC
	`
	rows, err := c.db.QueryContext(ctx, q, userID, escapeLikePrefix(keyPrefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChecklistItem
	for rows.Next() {
		var it models.ChecklistItem
		if err := rows.Scan(&it.UserID, &it.Key, &it.Done); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) SetChecklistItem(ctx context.Context, item *models.ChecklistItem) error {
	if item == nil {
		return errors.New("nil checklist item")
	}
	const q = `
		INSERT INTO checklist_items (user_id, key, done)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key) DO UPDATE SET done = EXCLUDED.done
	`
	_, err := c.db.ExecContext(ctx, q, item.UserID, item.Key, item.Done)
	return err
}

// Preferences

func (c *DatabaseClient) GetPreference(ctx context.Context, userID, name string) (string, error) {
	const q = `SELECT value FROM user_preferences WHERE user_id = $1 AND name = $2`
	var v string
	err := c.db.QueryRowContext(ctx, q, userID, name).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (c *DatabaseClient) SetPreference(ctx context.Context, userID, name, value string) error {
	const q = `
		INSERT INTO user_preferences (user_id, name, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, name) DO UPDATE SET value = EXCLUDED.value
	`
	_, err := c.db.ExecContext(ctx, q, userID, name, value)
	return err
}
