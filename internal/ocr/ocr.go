package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/ticket-record/constants"
)

// ErrUnsupported is returned for files that are neither images nor text.
var ErrUnsupported = errors.New("unsupported extension")

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "kor+eng"
	TessdataDir   string

	EnableTSVConfidence bool

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

type ExtractionResult struct {
	Text       string
	SourceType constants.Source
	Method     string // "image-ocr" | "text"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "kor+eng"
	}
	return &Extractor{cfg: cfg, runner: tesseractRunner{logger: logger}, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)
	switch {
	case constants.IsImage(ext):
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IsText(ext):
		b, err := os.ReadFile(path)
		if err != nil {
			return ExtractionResult{SourceType: constants.SourceText}, fmt.Errorf("read text: %w", err)
		}
		txt := Normalize(string(b))
		return ExtractionResult{
			Text:       txt,
			SourceType: constants.SourceText,
			Method:     "text",
			Duration:   time.Since(start),
			Confidence: TicketConfidence(txt),
		}, nil
	default:
		e.logger.Error("ocr.extract.unsupported", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// ExtractBytes runs OCR over an in-memory image. name only supplies the extension.
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte, name string) (ExtractionResult, error) {
	if len(data) == 0 {
		return ExtractionResult{}, fmt.Errorf("empty image")
	}
	ext := constants.NormalizeExt(filepath.Ext(name))
	if ext == "" {
		ext = "png"
	}
	f, err := os.CreateTemp("", "ticket-*."+ext)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return ExtractionResult{}, fmt.Errorf("write temp: %w", err)
	}
	if err := f.Close(); err != nil {
		return ExtractionResult{}, fmt.Errorf("close temp: %w", err)
	}
	return e.Extract(ctx, f.Name())
}
