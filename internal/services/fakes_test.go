package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"clauselens/internal/core"
	"clauselens/internal/models"
)

// fakeDB is an in-memory core.DbClient for service tests.
type fakeDB struct {
	mu        sync.Mutex
	users     map[string]*models.User
	history   map[string]models.HistoryRecord
	checklist map[string]map[string]bool
	prefs     map[string]map[string]string

	failCreateHistory bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:     make(map[string]*models.User),
		history:   make(map[string]models.HistoryRecord),
		checklist: make(map[string]map[string]bool),
		prefs:     make(map[string]map[string]string),
	}
}

func (f *fakeDB) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDB) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return errors.New("user not found")
	}
	delete(f.users, id)
	return nil
}

func (f *fakeDB) CreateHistoryRecord(_ context.Context, rec *models.HistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateHistory {
		return errors.New("insert failed")
	}
	f.history[rec.ID] = *rec
	return nil
}

func (f *fakeDB) GetHistoryRecordByID(_ context.Context, id string) (*models.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.history[id]; ok {
		cp := r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDB) ListHistoryByUser(_ context.Context, userID string) ([]models.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.HistoryRecord
	for _, r := range f.history {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeDB) DeleteHistoryByUser(_ context.Context, userID string) ([]models.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.HistoryRecord
	for id, r := range f.history {
		if r.UserID == userID {
			out = append(out, r)
			delete(f.history, id)
		}
	}
	return out, nil
}

func (f *fakeDB) GetChecklistItems(_ context.Context, userID, keyPrefix string) ([]models.ChecklistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChecklistItem
	for key, done := range f.checklist[userID] {
		if strings.HasPrefix(key, keyPrefix) {
			out = append(out, models.ChecklistItem{UserID: userID, Key: key, Done: done})
		}
	}
	return out, nil
}

func (f *fakeDB) SetChecklistItem(_ context.Context, item *models.ChecklistItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checklist[item.UserID] == nil {
		f.checklist[item.UserID] = make(map[string]bool)
	}
	f.checklist[item.UserID][item.Key] = item.Done
	return nil
}

func (f *fakeDB) GetPreference(_ context.Context, userID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs[userID][name], nil
}

func (f *fakeDB) SetPreference(_ context.Context, userID, name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prefs[userID] == nil {
		f.prefs[userID] = make(map[string]string)
	}
	f.prefs[userID][name] = value
	return nil
}

func (f *fakeDB) Close() error { return nil }

var _ core.DbClient = (*fakeDB)(nil)

// fakeObjectClient records uploads and deletes.
type fakeObjectClient struct {
	mu        sync.Mutex
	uploaded  map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeObjectClient() *fakeObjectClient {
	return &fakeObjectClient{uploaded: make(map[string][]byte)}
}

func (f *fakeObjectClient) UploadFile(_ context.Context, bucket, key string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded[key] = data
	return "https://" + bucket + ".s3.test.amazonaws.com/" + key, nil
}

func (f *fakeObjectClient) DeleteFile(_ context.Context, _ string, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

var _ core.ObjectClient = (*fakeObjectClient)(nil)

// fakeAnalyzer returns a canned result and records what it was asked.
type fakeAnalyzer struct {
	mu      sync.Mutex
	result  *models.AnalysisResult
	calls   int
	lastReq models.AnalysisRequest
	block   chan struct{} // when set, Analyze waits until closed
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req models.AnalysisRequest) *models.AnalysisResult {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.result
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var _ core.Analyzer = (*fakeAnalyzer)(nil)
