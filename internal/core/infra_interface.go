package core

import (
	"context"

	"clauselens/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)
	GetUserByID(ctx context.Context, id string) (user *models.User, err error)
	DeleteUser(ctx context.Context, id string) error

	CreateHistoryRecord(ctx context.Context, rec *models.HistoryRecord) error
	GetHistoryRecordByID(ctx context.Context, id string) (*models.HistoryRecord, error)
	ListHistoryByUser(ctx context.Context, userID string) ([]models.HistoryRecord, error)
	DeleteHistoryByUser(ctx context.Context, userID string) ([]models.HistoryRecord, error)

	GetChecklistItems(ctx context.Context, userID, keyPrefix string) ([]models.ChecklistItem, error)
	SetChecklistItem(ctx context.Context, item *models.ChecklistItem) error

	GetPreference(ctx context.Context, userID, name string) (string, error)
	SetPreference(ctx context.Context, userID, name, value string) error

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It is abstract so AWS can be swapped for MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
}
