package server

import (
	"context"
	"encoding/base64"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/export"
	"github.com/joseph-ayodele/ticket-record/internal/llm"
	"github.com/joseph-ayodele/ticket-record/internal/ocr"
	"github.com/joseph-ayodele/ticket-record/internal/pipeline"
	"github.com/joseph-ayodele/ticket-record/internal/repository"
)

type stubOCR struct{ text string }

func (s stubOCR) Extract(context.Context, string) (ocr.ExtractionResult, error) {
	return ocr.ExtractionResult{Text: s.text, SourceType: constants.SourceImage, Method: "image-ocr", Confidence: 0.75}, nil
}

func (s stubOCR) ExtractBytes(ctx context.Context, _ []byte, name string) (ocr.ExtractionResult, error) {
	return s.Extract(ctx, name)
}

type stubLLM struct{ out string }

func (s stubLLM) Complete(context.Context, llm.CompletionRequest) (string, error) { return s.out, nil }

func newTestClient(t *testing.T) (*TicketClient, *grpc.ClientConn) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenSQLite("", nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	records := repository.NewRecordRepository(db, nil)

	proc := pipeline.NewProcessor(pipeline.Deps{
		OCR:     stubOCR{text: "BTS Yet to Come in BUSAN 2022.10.15 6:00 pm 부산 아시아드 주경기장"},
		LLM:     stubLLM{out: `{"seat":"1층 B구역 3일 12번"}`},
		Records: records,
	}, nil)
	svc := NewTicketServer(proc, records, export.NewService(records, constants.DefaultFields(), nil), nil)
	gs, _ := NewGRPCServer(svc, Options{MaxRecvBytes: 1 << 20}, nil)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewTicketClient(conn), conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func withUser(uid string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), UserIDHeader, uid)
}

func TestNormalizeFields(t *testing.T) {
	client, _ := newTestClient(t)

	out, err := client.NormalizeFields(context.Background(), mustStruct(t, map[string]any{
		"ocr_text":  "2023년 7월 9일 오후 7시",
		"candidate": `{"artist":"null","venue":"올림픽공원"}`,
	}))
	require.NoError(t, err)
	fm := FieldsFromList(out.GetFields()["fields"].GetListValue())
	assert.Equal(t, []string{"venue", "date", "time"}, fm.Keys())
	assert.Equal(t, map[string]string{"venue": "올림픽공원", "date": "2023-07-09", "time": "19:00"}, fm.Map())

	out, err = client.NormalizeFields(context.Background(), mustStruct(t, map[string]any{
		"ocr_text": "2023년 7월 9일",
		"mode":     "direct",
		"allowed":  []any{"title", "date"},
	}))
	require.NoError(t, err)
	fm = FieldsFromList(out.GetFields()["fields"].GetListValue())
	assert.Equal(t, []string{"title", "date"}, fm.Keys())

	_, err = client.NormalizeFields(context.Background(), mustStruct(t, map[string]any{"mode": "fancy"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestExtractFields_PersistsForUserAndLists(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := withUser("user-1")

	out, err := client.ExtractFields(ctx, mustStruct(t, map[string]any{
		"image":     base64.StdEncoding.EncodeToString([]byte("fake-png")),
		"file_name": "busan.png",
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, getString(out, "record_id"))
	fm := FieldsFromList(out.GetFields()["fields"].GetListValue())
	assert.Equal(t, "1층 B구역 3열 12번", fm.Map()["seat"])
	assert.Equal(t, "18:00", fm.Map()["time"])
	assert.Equal(t, "seat", fm.Keys()[0], "LLM keys come first")

	list, err := client.ListRecords(ctx, mustStruct(t, map[string]any{"limit": 10}))
	require.NoError(t, err)
	recs := list.GetFields()["records"].GetListValue().GetValues()
	require.Len(t, recs, 1)
	assert.Equal(t, "busan.png", getString(recs[0].GetStructValue(), "file_name"))

	x, err := client.ExportRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(x.GetValue()[:2]))
}

func TestExtractStructured_TextWithoutUserIsNotStored(t *testing.T) {
	client, _ := newTestClient(t)

	out, err := client.ExtractStructured(context.Background(), mustStruct(t, map[string]any{
		"text": "2024-05-01 19:30",
	}))
	require.NoError(t, err)
	assert.Empty(t, getString(out, "record_id"))
	fm := FieldsFromList(out.GetFields()["fields"].GetListValue())
	assert.ElementsMatch(t, constants.DefaultFields(), fm.Keys())
	assert.Equal(t, "2024-05-01", fm.Map()["date"])
	assert.Equal(t, "19:30", fm.Map()["time"])
	assert.Equal(t, "", fm.Map()["venue"])
}

func TestRequestValidation(t *testing.T) {
	client, conn := newTestClient(t)
	ctx := context.Background()

	_, err := client.ExtractFields(ctx, mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.ExtractText(ctx, mustStruct(t, map[string]any{"image": "%%%"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.ListRecords(ctx, mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.ExportRecords(ctx)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	// no transcriber configured
	_, err = client.Transcribe(ctx, mustStruct(t, map[string]any{
		"audio":     base64.StdEncoding.EncodeToString([]byte("a")),
		"file_name": "memo.m4a",
	}))
	assert.Equal(t, codes.Unavailable, status.Code(err))

	hc, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, hc.GetStatus())
}

func TestExtractText(t *testing.T) {
	client, _ := newTestClient(t)
	out, err := client.ExtractText(context.Background(), mustStruct(t, map[string]any{
		"image": base64.StdEncoding.EncodeToString([]byte("fake")),
	}))
	require.NoError(t, err)
	assert.Contains(t, getString(out, "text"), "BUSAN")
	assert.Equal(t, "image-ocr", getString(out, "method"))
}

type stubTranscriber struct{ text string }

func (s stubTranscriber) Transcribe(context.Context, io.Reader, string) (string, error) {
	return s.text, nil
}

func TestTranscribe_ReturnsFollowUpQuestions(t *testing.T) {
	proc := pipeline.NewProcessor(pipeline.Deps{
		LLM:         stubLLM{out: "```json\n[\"무대 연출은 어떠셨나요?\",\"다시 보실 건가요?\"]\n```"},
		Transcriber: stubTranscriber{text: "무대가 정말 멋졌어요"},
	}, nil)
	svc := NewTicketServer(proc, nil, nil, nil)

	out, err := svc.Transcribe(context.Background(), mustStruct(t, map[string]any{
		"audio":     base64.StdEncoding.EncodeToString([]byte("a")),
		"file_name": "memo.m4a",
		"questions": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, "무대가 정말 멋졌어요", getString(out, "text"))
	assert.Equal(t, []string{"무대 연출은 어떠셨나요?", "다시 보실 건가요?"}, getStrings(out, "questions"))
	assert.Empty(t, getString(out, "transcription_id"))
}
