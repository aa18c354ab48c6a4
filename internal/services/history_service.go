package services

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clauselens/internal/core"
	"clauselens/internal/models"
)

// SnapshotFunc receives the user's full, sorted record set on every change.
// There is no incremental diffing.
type SnapshotFunc func(records []models.HistoryRecord)

// HistoryService owns the per-user analysis history: append-on-save,
// snapshot subscriptions, and whole-account purge. Records are sorted
// newest-first after fetch; storage order is not relied on.
type HistoryService struct {
	db     core.DbClient
	obj    core.ObjectClient // nil when archival is not configured
	bucket string
	log    *zap.SugaredLogger

	mu      sync.Mutex
	subs    map[string]map[int64]SnapshotFunc // userID -> subscription id -> callback
	nextSub int64
}

func NewHistoryService(db core.DbClient, obj core.ObjectClient, bucket string, log *zap.SugaredLogger) *HistoryService {
	return &HistoryService{
		db:     db,
		obj:    obj,
		bucket: bucket,
		log:    log,
		subs:   make(map[string]map[int64]SnapshotFunc),
	}
}

// SaveAnalysis archives the original upload (best-effort) and appends one
// history record, then notifies the user's subscribers. Called from the
// orchestrator's detached persistence task: errors are returned for logging
// but never reach the rendered view.
func (s *HistoryService) SaveAnalysis(ctx context.Context, rec *models.HistoryRecord, raw []byte, contentType string) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.AnalyzedAt.IsZero() {
		rec.AnalyzedAt = time.Now()
	}

	if s.obj != nil && len(raw) > 0 {
		key := s.objectKey(rec.UserID, rec.ID, rec.FileName)
		storageURL, err := s.obj.UploadFile(ctx, s.bucket, key, raw, contentType)
		if err != nil {
			s.log.Warnw("original archive failed, saving record without storage url",
				"record", rec.ID, "error", err)
		} else {
			rec.StorageURL = storageURL
		}
	}

	if err := s.db.CreateHistoryRecord(ctx, rec); err != nil {
		return fmt.Errorf("append history record: %w", err)
	}

	s.notify(ctx, rec.UserID)
	return nil
}

// List returns the user's records, newest analyzedAt first.
func (s *HistoryService) List(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	records, err := s.db.ListHistoryByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(records)
	return records, nil
}

// Get returns one record, or nil when it does not exist or belongs to a
// different user.
func (s *HistoryService) Get(ctx context.Context, userID, recordID string) (*models.HistoryRecord, error) {
	rec, err := s.db.GetHistoryRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.UserID != userID {
		return nil, nil
	}
	return rec, nil
}

// Subscribe registers fn for snapshot delivery and immediately delivers the
// current record set. The returned function tears the subscription down;
// callers must invoke it before opening another subscription for the same
// session so snapshots are never delivered twice.
func (s *HistoryService) Subscribe(ctx context.Context, userID string, fn SnapshotFunc) func() {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int64]SnapshotFunc)
	}
	s.subs[userID][id] = fn
	s.mu.Unlock()

	s.notifyOne(ctx, userID, fn)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[userID], id)
		if len(s.subs[userID]) == 0 {
			delete(s.subs, userID)
		}
	}
}

// Purge deletes every record for the user, then removes archived originals
// in parallel. Object-store failures are logged only: orphaned objects are
// acceptable during account deletion.
func (s *HistoryService) Purge(ctx context.Context, userID string) error {
	deleted, err := s.db.DeleteHistoryByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}

	if s.obj != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(8)
		for _, rec := range deleted {
			key := storageKey(rec.StorageURL)
			if key == "" {
				continue
			}
			g.Go(func() error {
				if err := s.obj.DeleteFile(gctx, s.bucket, key); err != nil {
					s.log.Warnw("archived original not deleted", "record", rec.ID, "error", err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	s.notify(ctx, userID)
	return nil
}

func (s *HistoryService) notify(ctx context.Context, userID string) {
	s.mu.Lock()
	fns := make([]SnapshotFunc, 0, len(s.subs[userID]))
	for _, fn := range s.subs[userID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	records, err := s.List(ctx, userID)
	if err != nil {
		s.log.Errorw("history snapshot fetch failed", "user", userID, "error", err)
		return
	}
	for _, fn := range fns {
		fn(records)
	}
}

func (s *HistoryService) notifyOne(ctx context.Context, userID string, fn SnapshotFunc) {
	records, err := s.List(ctx, userID)
	if err != nil {
		s.log.Errorw("history snapshot fetch failed", "user", userID, "error", err)
		return
	}
	fn(records)
}

func sortNewestFirst(records []models.HistoryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AnalyzedAt.After(records[j].AnalyzedAt)
	})
}

// objectKey creates a consistent S3 key layout.
func (s *HistoryService) objectKey(userID, recordID, filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("users", userID, "documents", recordID, filename)
}

// storageKey recovers the object key from a stored URL.
func storageKey(storageURL string) string {
	if storageURL == "" {
		return ""
	}
	u, err := url.Parse(storageURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
