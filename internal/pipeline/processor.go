package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/common"
	"github.com/joseph-ayodele/ticket-record/internal/entity"
	"github.com/joseph-ayodele/ticket-record/internal/fields"
	"github.com/joseph-ayodele/ticket-record/internal/llm"
	"github.com/joseph-ayodele/ticket-record/internal/ocr"
	"github.com/joseph-ayodele/ticket-record/internal/repository"
)

// TextExtractor is the OCR stage.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
	ExtractBytes(ctx context.Context, data []byte, name string) (ocr.ExtractionResult, error)
}

// Request carries per-call options. An empty Allowed uses the processor's list.
type Request struct {
	UserID   string
	FileName string
	Mode     constants.ExtractMode
	Allowed  []string
}

// Deps are the collaborators of a Processor. LLM, Transcriber and the
// repositories are optional.
type Deps struct {
	OCR            TextExtractor
	LLM            llm.Completer
	Transcriber    llm.Transcriber
	Records        repository.RecordRepository
	Transcriptions repository.TranscriptionRepository
	Allowed        []string
}

// Processor coordinates OCR, the LLM candidate and field extraction, then
// persists the result for the requesting user.
type Processor struct {
	Logger    *slog.Logger
	deps      Deps
	extractor *fields.Extractor
}

func NewProcessor(deps Deps, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:    logger,
		deps:      deps,
		extractor: fields.NewExtractor(deps.Allowed, fields.WithLogger(logger)),
	}
}

// Allowed returns the default allow-list.
func (p *Processor) Allowed() []string { return p.extractor.Allowed() }

// ProcessFile runs the pipeline for a file on disk.
func (p *Processor) ProcessFile(ctx context.Context, path string, req Request) (*entity.TicketRecord, error) {
	if p.deps.OCR == nil {
		return nil, common.NewAppError("unavailable", "ocr not configured", common.ErrUnavailable)
	}
	if req.FileName == "" {
		req.FileName = filepath.Base(path)
	}
	res, err := p.deps.OCR.Extract(ctx, path)
	if err != nil {
		p.Logger.Error("processor.ocr.failed", "path", path, "err", err)
		return nil, ocrError(req.FileName, err)
	}
	return p.finish(ctx, res, req)
}

// ProcessImage runs the pipeline for uploaded image bytes.
func (p *Processor) ProcessImage(ctx context.Context, data []byte, req Request) (*entity.TicketRecord, error) {
	if len(data) == 0 {
		return nil, common.NewAppError("invalid_input", "image is empty", common.ErrInvalidInput)
	}
	if p.deps.OCR == nil {
		return nil, common.NewAppError("unavailable", "ocr not configured", common.ErrUnavailable)
	}
	res, err := p.deps.OCR.ExtractBytes(ctx, data, req.FileName)
	if err != nil {
		p.Logger.Error("processor.ocr.failed", "file", req.FileName, "err", err)
		return nil, ocrError(req.FileName, err)
	}
	return p.finish(ctx, res, req)
}

// ProcessText skips OCR and extracts fields from text the caller already has.
func (p *Processor) ProcessText(ctx context.Context, text string, req Request) (*entity.TicketRecord, error) {
	res := ocr.ExtractionResult{
		Text:       ocr.Normalize(text),
		SourceType: constants.SourceText,
		Method:     "text",
	}
	res.Confidence = ocr.TicketConfidence(res.Text)
	return p.finish(ctx, res, req)
}

// ExtractText runs OCR only.
func (p *Processor) ExtractText(ctx context.Context, data []byte, name string) (ocr.ExtractionResult, error) {
	if p.deps.OCR == nil {
		return ocr.ExtractionResult{}, common.NewAppError("unavailable", "ocr not configured", common.ErrUnavailable)
	}
	res, err := p.deps.OCR.ExtractBytes(ctx, data, name)
	if err != nil {
		return res, ocrError(name, err)
	}
	return res, nil
}

func ocrError(name string, err error) error {
	if errors.Is(err, ocr.ErrUnsupported) {
		return common.NewAppError("invalid_input", name, errors.Join(common.ErrInvalidInput, err))
	}
	return fmt.Errorf("ocr %s: %w", name, err)
}

func (p *Processor) finish(ctx context.Context, res ocr.ExtractionResult, req Request) (*entity.TicketRecord, error) {
	start := time.Now()
	if req.Mode == "" {
		req.Mode = constants.ModeCompact
	}
	ex := p.extractor
	if len(req.Allowed) > 0 {
		ex = fields.NewExtractor(req.Allowed, fields.WithLogger(p.Logger))
	}

	candidate := p.candidate(ctx, res.Text, ex.Allowed(), req.Mode)
	fm := ex.ExtractMode(res.Text, candidate, req.Mode)
	if req.Mode == constants.ModeDirect {
		fm = fields.Complete(fm, ex.Allowed())
	}

	rec := &entity.TicketRecord{
		UserID:     req.UserID,
		Source:     res.SourceType,
		Mode:       req.Mode,
		FileName:   req.FileName,
		OCRText:    res.Text,
		LLMRaw:     candidate,
		Fields:     fm,
		Confidence: res.Confidence,
		CreatedAt:  time.Now().UTC(),
	}
	p.Logger.Info("processor.extract.ok",
		"file", req.FileName,
		"mode", string(req.Mode),
		"fields", fm.Len(),
		"confidence", res.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if req.UserID == "" || p.deps.Records == nil {
		return rec, nil
	}
	saved, err := p.deps.Records.Create(ctx, rec)
	if err != nil {
		p.Logger.Error("processor.persist.failed", "user_id", req.UserID, "err", err)
		return nil, err
	}
	return saved, nil
}

// candidate asks the LLM for a JSON candidate. Any failure degrades to "".
func (p *Processor) candidate(ctx context.Context, text string, allowed []string, mode constants.ExtractMode) string {
	if p.deps.LLM == nil || strings.TrimSpace(text) == "" {
		return ""
	}
	out, err := llm.RequestCandidate(ctx, p.deps.LLM, llm.ExtractRequest{
		OCRText: text,
		Allowed: allowed,
		Mode:    mode,
	})
	if err != nil {
		p.Logger.Warn("processor.llm.failed", "mode", string(mode), "err", err)
		return ""
	}
	return out
}

// TranscribeOptions selects the LLM follow-ups run on a transcript.
type TranscribeOptions struct {
	Summarize bool
	Questions bool
}

// TranscribeAudio turns a voice memo into text, optionally with a summary and
// follow-up questions, and stores it when a user id is present. Follow-up
// failures are logged and leave their part empty.
func (p *Processor) TranscribeAudio(ctx context.Context, audio io.Reader, req Request, opts TranscribeOptions) (*entity.Transcription, error) {
	if p.deps.Transcriber == nil {
		return nil, common.NewAppError("unavailable", "transcription not configured", common.ErrUnavailable)
	}
	if !constants.IsAudio(constants.NormalizeExt(filepath.Ext(req.FileName))) {
		return nil, common.NewAppError("invalid_input", fmt.Sprintf("unsupported audio file %q", req.FileName), common.ErrInvalidInput)
	}
	text, err := p.deps.Transcriber.Transcribe(ctx, audio, req.FileName)
	if err != nil {
		p.Logger.Error("processor.transcribe.failed", "file", req.FileName, "err", err)
		return nil, common.NewAppError("unavailable", "transcription failed", errors.Join(common.ErrUnavailable, err))
	}

	tr := &entity.Transcription{
		UserID:    req.UserID,
		FileName:  req.FileName,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if opts.Summarize && p.deps.LLM != nil {
		if tr.Summary, err = llm.Summarize(ctx, p.deps.LLM, text); err != nil {
			p.Logger.Warn("processor.summary.failed", "file", req.FileName, "err", err)
		}
	}
	if opts.Questions && p.deps.LLM != nil {
		if tr.Questions, err = llm.GenerateQuestions(ctx, p.deps.LLM, text); err != nil {
			p.Logger.Warn("processor.questions.failed", "file", req.FileName, "err", err)
		} else if len(tr.Questions) == 0 {
			p.Logger.Warn("processor.questions.empty", "file", req.FileName)
		}
	}

	if req.UserID == "" || p.deps.Transcriptions == nil {
		return tr, nil
	}
	return p.deps.Transcriptions.Create(ctx, tr)
}
