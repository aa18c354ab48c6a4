package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"clauselens/internal/config"
	"clauselens/internal/core"
	db "clauselens/internal/core/database"
	"clauselens/internal/core/extract"
	"clauselens/internal/core/llm"
	"clauselens/internal/core/objectstore"
	"clauselens/internal/services"
)

type App struct {
	DBClient core.DbClient
	Gemini   *llm.GeminiClient
	Analysis *services.AnalysisService
	History  *services.HistoryService
	Server   *Server

	log *zap.SugaredLogger
}

func NewApp(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	dbClient, err := db.NewDatabaseClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.Infow("database initialized and ready")

	// Original-file archival is optional; without AWS credentials the
	// history keeps only the extracted text.
	var objClient core.ObjectClient
	if cfg.AwsAccessKey != "" && cfg.AwsSecretKey != "" {
		objClient, err = objectstore.NewS3Client(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("object store: %w", err)
		}
	} else {
		log.Warnw("AWS credentials not set, original uploads will not be archived")
	}

	gemini, err := llm.NewGeminiClient(ctx, cfg.AIAPIKey, cfg.GenModel, log)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	extractor := extract.NewDocconvExtractor(false)

	history := services.NewHistoryService(dbClient, objClient, cfg.BucketName, log)
	analysis := services.NewAnalysisService(extractor, gemini, history, dbClient, log)
	account := services.NewAccountService(dbClient, history, log)

	server := NewServer(cfg, dbClient, analysis, history, account, gemini, log)

	return &App{
		DBClient: dbClient,
		Gemini:   gemini,
		Analysis: analysis,
		History:  history,
		Server:   server,
		log:      log,
	}, nil
}

func (a *App) Close() {
	if a.Analysis != nil {
		a.Analysis.WaitForPersistence()
	}
	if a.Gemini != nil {
		_ = a.Gemini.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
