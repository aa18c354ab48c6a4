package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clauselens/internal/core"
	"clauselens/internal/models"
	"clauselens/internal/render"
)

// RunState tracks one upload through the pipeline.
type RunState string

const (
	StateIdle       RunState = "idle"
	StateExtracting RunState = "extracting"
	StateAnalyzing  RunState = "analyzing"
	StateRendered   RunState = "rendered"
	StateFailed     RunState = "failed"
)

// ErrAnalysisFailed marks a run whose remote analysis came back nil. The
// accompanying report is the failure view; nothing is persisted.
var ErrAnalysisFailed = errors.New("analysis failed")

// ErrAnalysisInFlight is returned when a user uploads again while a
// previous run is still analyzing. Concurrent runs per user are disallowed.
var ErrAnalysisInFlight = errors.New("analysis already in progress")

// HistorySink is the slice of the history service the orchestrator needs
// for its detached persistence task.
type HistorySink interface {
	SaveAnalysis(ctx context.Context, rec *models.HistoryRecord, raw []byte, contentType string) error
}

// UploadInput is everything one analysis run starts from. The document type
// was chosen before upload and is immutable for the run.
type UploadInput struct {
	UserID       string
	FileName     string
	ContentType  string
	DocumentType models.DocumentType
	Data         []byte
}

// Run is the outcome of one upload: the terminal state, the rendered report
// view and, for successful runs, the id the history record will be saved
// under.
type Run struct {
	State    RunState
	Report   render.Report
	Result   *models.AnalysisResult
	RecordID string
}

// AnalysisService drives the upload pipeline:
// idle -> extracting -> analyzing -> rendered, with failed terminal from
// extracting (unsupported or broken input) or analyzing (nil result).
type AnalysisService struct {
	extractor core.DocumentExtractor
	analyzer  core.Analyzer
	history   HistorySink
	db        core.DbClient
	log       *zap.SugaredLogger

	mu       sync.Mutex
	inflight map[string]struct{} // userIDs with a run in progress
	recent   map[string]recentRun

	// persistWait lets tests wait for the detached persistence task.
	persistWait sync.WaitGroup
}

// recentRun keeps the extracted text of a user's latest successful run.
// History persistence is detached and best-effort, so questions about the
// loaded document must stay answerable whether or not the write has landed.
type recentRun struct {
	recordID string
	text     string
}

func NewAnalysisService(extractor core.DocumentExtractor, analyzer core.Analyzer, history HistorySink, db core.DbClient, log *zap.SugaredLogger) *AnalysisService {
	return &AnalysisService{
		extractor: extractor,
		analyzer:  analyzer,
		history:   history,
		db:        db,
		log:       log,
		inflight:  make(map[string]struct{}),
		recent:    make(map[string]recentRun),
	}
}

// Analyze runs the full pipeline for one upload. On success the report is
// returned immediately and persistence happens in a detached task whose
// failure is logged, never surfaced. A nil model result returns the failure
// report together with ErrAnalysisFailed. Extraction errors return before
// any remote call.
func (s *AnalysisService) Analyze(ctx context.Context, in UploadInput) (*Run, error) {
	if err := s.acquire(in.UserID); err != nil {
		return nil, err
	}
	defer s.release(in.UserID)

	run := &Run{State: StateIdle}

	s.transition(run, StateExtracting, in)
	text, err := s.extractor.Extract(ctx, in.FileName, in.Data)
	if err != nil {
		s.transition(run, StateFailed, in)
		return nil, fmt.Errorf("extract %q: %w", in.FileName, err)
	}

	s.transition(run, StateAnalyzing, in)
	result := s.analyzer.Analyze(ctx, models.AnalysisRequest{
		DocumentType: in.DocumentType,
		DocumentText: text,
	})
	if result == nil {
		s.transition(run, StateFailed, in)
		run.Report = render.BuildReport(in.FileName, nil, nil)
		return run, ErrAnalysisFailed
	}

	s.transition(run, StateRendered, in)
	run.Result = result
	run.RecordID = uuid.NewString()
	run.Report = render.BuildReport(in.FileName, result, s.checklistState(ctx, in.UserID, in.FileName))

	s.mu.Lock()
	s.recent[in.UserID] = recentRun{recordID: run.RecordID, text: text}
	s.mu.Unlock()

	s.persist(run.RecordID, in, result, text)
	return run, nil
}

// DocumentText returns the extracted text of the user's most recent
// successful run when recordID names it. A newer run replaces the previous
// one's text.
func (s *AnalysisService) DocumentText(userID, recordID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recent[userID]
	if !ok || r.recordID != recordID {
		return "", false
	}
	return r.text, true
}

// persist is the fire-and-forget save of a successful run. It deliberately
// detaches from the request context so client disconnects after rendering
// cannot abort the write.
func (s *AnalysisService) persist(recordID string, in UploadInput, result *models.AnalysisResult, text string) {
	serialized, err := json.Marshal(result)
	if err != nil {
		s.log.Errorw("analysis result not serializable", "record", recordID, "error", err)
		return
	}

	rec := &models.HistoryRecord{
		ID:           recordID,
		UserID:       in.UserID,
		FileName:     in.FileName,
		AnalyzedAt:   time.Now(),
		Analysis:     string(serialized),
		OriginalText: text,
	}

	s.persistWait.Add(1)
	go func() {
		defer s.persistWait.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.history.SaveAnalysis(ctx, rec, in.Data, in.ContentType); err != nil {
			s.log.Errorw("history persistence failed", "record", recordID, "error", err)
		}
	}()
}

// WaitForPersistence blocks until outstanding persistence tasks finish.
// Used in tests and during shutdown.
func (s *AnalysisService) WaitForPersistence() {
	s.persistWait.Wait()
}

func (s *AnalysisService) checklistState(ctx context.Context, userID, fileName string) map[string]bool {
	items, err := s.db.GetChecklistItems(ctx, userID, render.ChecklistPrefix(fileName))
	if err != nil {
		s.log.Warnw("checklist state unavailable", "user", userID, "error", err)
		return nil
	}
	state := make(map[string]bool, len(items))
	for _, it := range items {
		state[it.Key] = it.Done
	}
	return state
}

func (s *AnalysisService) acquire(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[userID]; busy {
		return ErrAnalysisInFlight
	}
	s.inflight[userID] = struct{}{}
	return nil
}

func (s *AnalysisService) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, userID)
}

func (s *AnalysisService) transition(run *Run, next RunState, in UploadInput) {
	s.log.Debugw("analysis state", "user", in.UserID, "file", in.FileName, "from", run.State, "to", next)
	run.State = next
}
