package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clauselens/internal/models"
)

func testHistory(db *fakeDB, obj *fakeObjectClient) *HistoryService {
	if obj == nil {
		// nil interface, not a typed-nil *fakeObjectClient
		return NewHistoryService(db, nil, "", zap.NewNop().Sugar())
	}
	return NewHistoryService(db, obj, "clauselens-test", zap.NewNop().Sugar())
}

func record(userID, fileName string, at time.Time) *models.HistoryRecord {
	return &models.HistoryRecord{
		UserID:       userID,
		FileName:     fileName,
		AnalyzedAt:   at,
		Analysis:     `{"summaries":{"summary":"s"},"risks":[],"checklist":[]}`,
		OriginalText: "text",
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	db := newFakeDB()
	h := testHistory(db, nil)
	ctx := context.Background()

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	// inserted T1, T3, T2; delivery must come back T3, T2, T1
	require.NoError(t, h.SaveAnalysis(ctx, record("u1", "first.txt", t1), nil, ""))
	require.NoError(t, h.SaveAnalysis(ctx, record("u1", "third.txt", t3), nil, ""))
	require.NoError(t, h.SaveAnalysis(ctx, record("u1", "second.txt", t2), nil, ""))

	records, err := h.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "third.txt", records[0].FileName)
	assert.Equal(t, "second.txt", records[1].FileName)
	assert.Equal(t, "first.txt", records[2].FileName)
}

func TestRoundTripReproducesAnalysis(t *testing.T) {
	db := newFakeDB()
	h := testHistory(db, nil)
	ctx := context.Background()

	original := &models.AnalysisResult{
		Summaries: models.Summaries{Summary: "One-sided lease."},
		Risks: []models.Risk{
			{Level: models.RiskHigh, Clause: "Tenant shall forfeit the entire deposit for any reason.", Explanation: "Full deposit at risk."},
		},
		Checklist: []string{"Get the deposit terms in writing."},
	}
	serialized, err := json.Marshal(original)
	require.NoError(t, err)

	rec := record("u1", "lease.txt", time.Now())
	rec.Analysis = string(serialized)
	require.NoError(t, h.SaveAnalysis(ctx, rec, nil, ""))

	records, err := h.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	var restored models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(records[0].Analysis), &restored))
	assert.Equal(t, *original, restored)
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	db := newFakeDB()
	h := testHistory(db, nil)
	ctx := context.Background()

	var mu sync.Mutex
	var snapshots [][]models.HistoryRecord
	unsubscribe := h.Subscribe(ctx, "u1", func(records []models.HistoryRecord) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, records)
	})
	defer unsubscribe()

	mu.Lock()
	require.Len(t, snapshots, 1, "initial snapshot delivered on subscribe")
	assert.Empty(t, snapshots[0])
	mu.Unlock()

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, h.SaveAnalysis(ctx, record("u1", "first.txt", t1), nil, ""))
	require.NoError(t, h.SaveAnalysis(ctx, record("u1", "third.txt", t1.Add(2*time.Hour)), nil, ""))
	require.NoError(t, h.SaveAnalysis(ctx, record("u1", "second.txt", t1.Add(time.Hour)), nil, ""))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snapshots, 4, "one snapshot per change, full set each time")
	last := snapshots[3]
	require.Len(t, last, 3)
	assert.Equal(t, "third.txt", last[0].FileName)
	assert.Equal(t, "second.txt", last[1].FileName)
	assert.Equal(t, "first.txt", last[2].FileName)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	db := newFakeDB()
	h := testHistory(db, nil)
	ctx := context.Background()

	var mu sync.Mutex
	count := 0
	unsubscribe := h.Subscribe(ctx, "u1", func([]models.HistoryRecord) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	unsubscribe()

	require.NoError(t, h.SaveAnalysis(ctx, record("u1", "a.txt", time.Now()), nil, ""))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count, "only the initial snapshot, nothing after unsubscribe")
}

func TestSubscribersAreScopedPerUser(t *testing.T) {
	db := newFakeDB()
	h := testHistory(db, nil)
	ctx := context.Background()

	var mu sync.Mutex
	u2Snapshots := 0
	defer h.Subscribe(ctx, "u2", func([]models.HistoryRecord) {
		mu.Lock()
		u2Snapshots++
		mu.Unlock()
	})()

	require.NoError(t, h.SaveAnalysis(ctx, record("u1", "a.txt", time.Now()), nil, ""))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, u2Snapshots, "u1 changes must not leak into u2's subscription")
}

func TestSaveAnalysisArchivesOriginal(t *testing.T) {
	db := newFakeDB()
	obj := newFakeObjectClient()
	h := testHistory(db, obj)
	ctx := context.Background()

	rec := record("u1", "my lease.txt", time.Now())
	require.NoError(t, h.SaveAnalysis(ctx, rec, []byte("raw bytes"), "text/plain"))

	require.Len(t, obj.uploaded, 1)
	assert.NotEmpty(t, rec.StorageURL)

	saved, err := h.Get(ctx, "u1", rec.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Contains(t, saved.StorageURL, "my_lease.txt", "spaces normalized in object key")
}

func TestSaveAnalysisSurvivesArchiveFailure(t *testing.T) {
	db := newFakeDB()
	obj := newFakeObjectClient()
	obj.uploadErr = assert.AnError
	h := testHistory(db, obj)
	ctx := context.Background()

	rec := record("u1", "lease.txt", time.Now())
	require.NoError(t, h.SaveAnalysis(ctx, rec, []byte("raw"), "text/plain"))

	saved, err := h.Get(ctx, "u1", rec.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Empty(t, saved.StorageURL)
}

func TestGetEnforcesOwnership(t *testing.T) {
	db := newFakeDB()
	h := testHistory(db, nil)
	ctx := context.Background()

	rec := record("u1", "lease.txt", time.Now())
	require.NoError(t, h.SaveAnalysis(ctx, rec, nil, ""))

	got, err := h.Get(ctx, "u2", rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPurgeDeletesRecordsAndArchives(t *testing.T) {
	db := newFakeDB()
	obj := newFakeObjectClient()
	h := testHistory(db, obj)
	ctx := context.Background()

	r1 := record("u1", "a.txt", time.Now())
	r2 := record("u1", "b.txt", time.Now())
	require.NoError(t, h.SaveAnalysis(ctx, r1, []byte("a"), "text/plain"))
	require.NoError(t, h.SaveAnalysis(ctx, r2, []byte("b"), "text/plain"))
	require.NoError(t, h.SaveAnalysis(ctx, record("u2", "c.txt", time.Now()), []byte("c"), "text/plain"))

	require.NoError(t, h.Purge(ctx, "u1"))

	records, err := h.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, records)

	others, err := h.List(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, others, 1, "other users untouched")

	obj.mu.Lock()
	defer obj.mu.Unlock()
	assert.Len(t, obj.deleted, 2)
}

func TestAccountDeleteRemovesHistoryThenUser(t *testing.T) {
	db := newFakeDB()
	h := testHistory(db, nil)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{ID: "u1", Email: "a@b.c"}))
	require.NoError(t, h.SaveAnalysis(ctx, record("u1", "a.txt", time.Now()), nil, ""))

	acct := NewAccountService(db, h, zap.NewNop().Sugar())
	require.NoError(t, acct.Delete(ctx, "u1"))

	u, err := db.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, u)

	records, err := h.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, records)
}
