// Package app wires configuration into the storage, OCR, LLM and pipeline
// components shared by the binaries.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/ticket-record/internal/common"
	"github.com/joseph-ayodele/ticket-record/internal/export"
	"github.com/joseph-ayodele/ticket-record/internal/llm/openai"
	"github.com/joseph-ayodele/ticket-record/internal/ocr"
	"github.com/joseph-ayodele/ticket-record/internal/pipeline"
	"github.com/joseph-ayodele/ticket-record/internal/repository"
)

// NewLogger returns a text logger without time and level attributes.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

type App struct {
	Config         *common.Config
	DB             *repository.DB
	Records        repository.RecordRepository
	Transcriptions repository.TranscriptionRepository
	Processor      *pipeline.Processor
	Exporter       *export.Service
	logger         *slog.Logger
}

// New opens and migrates the database and builds the pipeline around it.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.HealthCheck(ctx, cfg.Database.DialTimeout); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	a := &App{
		Config:         cfg,
		DB:             db,
		Records:        repository.NewRecordRepository(db, logger),
		Transcriptions: repository.NewTranscriptionRepository(db, logger),
		logger:         logger,
	}
	a.Processor = NewProcessor(cfg, a.Records, a.Transcriptions, logger)
	a.Exporter = export.NewService(a.Records, a.Processor.Allowed(), logger)
	return a, nil
}

// NewProcessor builds a pipeline from cfg. Repositories may be nil, in which
// case nothing is persisted. Without an API key the LLM stage is skipped.
func NewProcessor(cfg *common.Config, records repository.RecordRepository, transcripts repository.TranscriptionRepository, logger *slog.Logger) *pipeline.Processor {
	deps := pipeline.Deps{
		OCR: ocr.NewExtractor(ocr.Config{
			Tesseract:           cfg.OCR.Tesseract,
			TesseractLang:       cfg.OCR.Lang,
			TessdataDir:         cfg.OCR.TessdataDir,
			PSM:                 cfg.OCR.PSM,
			EnableTSVConfidence: cfg.OCR.EnableTSVConfidence,
		}, logger),
		Records:        records,
		Transcriptions: transcripts,
		Allowed:        cfg.Fields.Allowed,
	}
	if cfg.LLMEnabled() {
		client := openai.NewClient(openai.Config{
			APIKey:          cfg.LLM.APIKey,
			BaseURL:         cfg.LLM.BaseURL,
			Model:           cfg.LLM.Model,
			TranscribeModel: cfg.LLM.TranscribeModel,
			Language:        cfg.LLM.Language,
			Temperature:     cfg.LLM.Temperature,
			Timeout:         cfg.LLM.Timeout,
			MaxAttempts:     cfg.LLM.MaxAttempts,
		}, logger)
		deps.LLM = client
		deps.Transcriber = client
	} else {
		logger.Warn("llm.disabled", "reason", "no api key; fields come from OCR fallback only")
	}
	return pipeline.NewProcessor(deps, logger)
}

func (a *App) Close() {
	a.DB.Close()
}
