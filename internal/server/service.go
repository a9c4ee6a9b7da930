package server

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/common"
	"github.com/joseph-ayodele/ticket-record/internal/export"
	"github.com/joseph-ayodele/ticket-record/internal/fields"
	"github.com/joseph-ayodele/ticket-record/internal/pipeline"
	"github.com/joseph-ayodele/ticket-record/internal/repository"
)

const defaultListLimit = 50

type TicketServer struct {
	proc     *pipeline.Processor
	records  repository.RecordRepository
	exporter *export.Service
	logger   *slog.Logger
}

func NewTicketServer(proc *pipeline.Processor, records repository.RecordRepository, exporter *export.Service, logger *slog.Logger) *TicketServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketServer{proc: proc, records: records, exporter: exporter, logger: logger}
}

// ExtractText runs OCR only: {image, file_name} -> {text, confidence, method}.
func (s *TicketServer) ExtractText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	img, err := getBytes(req, "image")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	if len(img) == 0 {
		return nil, common.InvalidArgumentError("image is required")
	}
	res, err := s.proc.ExtractText(ctx, img, fileName(req, "ticket.png"))
	if err != nil {
		common.LoggerFrom(ctx, s.logger).Error("server.extract_text.failed", "err", err)
		return nil, common.ToStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"text":       structpb.NewStringValue(res.Text),
		"method":     structpb.NewStringValue(res.Method),
		"confidence": structpb.NewNumberValue(float64(res.Confidence)),
	}}, nil
}

// ExtractFields resolves only the fields that could be found.
func (s *TicketServer) ExtractFields(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.extract(ctx, req, constants.ModeCompact)
}

// ExtractStructured returns every allowed key, blank when unresolved.
func (s *TicketServer) ExtractStructured(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.extract(ctx, req, constants.ModeDirect)
}

func (s *TicketServer) extract(ctx context.Context, req *structpb.Struct, mode constants.ExtractMode) (*structpb.Struct, error) {
	img, err := getBytes(req, "image")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	text := getRaw(req, "text")
	if len(img) == 0 && strings.TrimSpace(text) == "" {
		return nil, common.InvalidArgumentError("image or text is required")
	}

	preq := pipeline.Request{
		UserID:   common.UserIDFromContext(ctx),
		FileName: fileName(req, "ticket.png"),
		Mode:     mode,
		Allowed:  getStrings(req, "allowed"),
	}
	log := common.LoggerFrom(ctx, s.logger)
	if len(img) > 0 {
		rec, err := s.proc.ProcessImage(ctx, img, preq)
		if err != nil {
			log.Error("server.extract.failed", "mode", string(mode), "err", err)
			return nil, common.ToStatus(err)
		}
		return recordStruct(rec), nil
	}
	preq.FileName = getString(req, "file_name")
	rec, err := s.proc.ProcessText(ctx, text, preq)
	if err != nil {
		log.Error("server.extract.failed", "mode", string(mode), "err", err)
		return nil, common.ToStatus(err)
	}
	return recordStruct(rec), nil
}

// NormalizeFields runs field extraction alone over caller-supplied text and
// candidate: {ocr_text, candidate, allowed, mode} -> {fields}.
func (s *TicketServer) NormalizeFields(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	mode := constants.ExtractMode(strings.ToUpper(getString(req, "mode")))
	switch mode {
	case "":
		mode = constants.ModeCompact
	case constants.ModeCompact, constants.ModeDirect:
	default:
		return nil, common.InvalidArgumentErrorf("mode must be %s or %s", constants.ModeCompact, constants.ModeDirect)
	}

	allowed := getStrings(req, "allowed")
	if len(allowed) == 0 {
		allowed = s.proc.Allowed()
	}
	ex := fields.NewExtractor(allowed, fields.WithLogger(common.LoggerFrom(ctx, s.logger)))
	fm := ex.ExtractMode(getRaw(req, "ocr_text"), getRaw(req, "candidate"), mode)
	if mode == constants.ModeDirect {
		fm = fields.Complete(fm, ex.Allowed())
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"fields": structpb.NewListValue(fieldList(fm)),
	}}, nil
}

// Transcribe: {audio, file_name, summarize, questions} -> {text, summary, questions, transcription_id}.
func (s *TicketServer) Transcribe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	audio, err := getBytes(req, "audio")
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	if len(audio) == 0 {
		return nil, common.InvalidArgumentError("audio is required")
	}
	name := getString(req, "file_name")
	if name == "" {
		return nil, common.InvalidArgumentError("file_name is required")
	}

	tr, err := s.proc.TranscribeAudio(ctx, bytes.NewReader(audio), pipeline.Request{
		UserID:   common.UserIDFromContext(ctx),
		FileName: name,
	}, pipeline.TranscribeOptions{
		Summarize: getBool(req, "summarize"),
		Questions: getBool(req, "questions"),
	})
	if err != nil {
		common.LoggerFrom(ctx, s.logger).Error("server.transcribe.failed", "err", err)
		return nil, common.ToStatus(err)
	}
	id := ""
	if tr.UserID != "" {
		id = tr.ID.String()
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"transcription_id": structpb.NewStringValue(id),
		"text":             structpb.NewStringValue(tr.Text),
		"summary":          structpb.NewStringValue(tr.Summary),
		"questions":        structpb.NewListValue(stringList(tr.Questions)),
	}}, nil
}

// ListRecords: {limit} -> {records}. Requires x-user-id.
func (s *TicketServer) ListRecords(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := common.UserIDFromContext(ctx)
	if userID == "" {
		return nil, common.UnauthenticatedError(UserIDHeader + " metadata is required")
	}
	limit := getInt(req, "limit")
	if limit <= 0 {
		limit = defaultListLimit
	}
	recs, err := s.records.ListByUser(ctx, userID, limit)
	if err != nil {
		common.LoggerFrom(ctx, s.logger).Error("server.list_records.failed", "err", err)
		return nil, common.ToStatus(err)
	}
	list := &structpb.ListValue{}
	for _, r := range recs {
		list.Values = append(list.Values, structpb.NewStructValue(recordStruct(r)))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"records": structpb.NewListValue(list),
	}}, nil
}

// ExportRecords returns an XLSX workbook of the caller's records.
func (s *TicketServer) ExportRecords(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	userID := common.UserIDFromContext(ctx)
	if userID == "" {
		return nil, common.UnauthenticatedError(UserIDHeader + " metadata is required")
	}
	xlsx, err := s.exporter.ExportRecordsXLSX(ctx, userID)
	if err != nil {
		common.LoggerFrom(ctx, s.logger).Error("export.xlsx.failed", "user_id", userID, "err", err)
		return nil, common.ToStatus(err)
	}
	return wrapperspb.Bytes(xlsx), nil
}

func fileName(req *structpb.Struct, def string) string {
	if n := getString(req, "file_name"); n != "" {
		return n
	}
	return def
}
