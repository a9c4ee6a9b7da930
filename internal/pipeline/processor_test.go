package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/common"
	"github.com/joseph-ayodele/ticket-record/internal/llm"
	"github.com/joseph-ayodele/ticket-record/internal/ocr"
	"github.com/joseph-ayodele/ticket-record/internal/repository"
)

type fakeOCR struct {
	text string
	err  error
}

func (f fakeOCR) Extract(_ context.Context, path string) (ocr.ExtractionResult, error) {
	if strings.HasSuffix(path, ".pdf") {
		return ocr.ExtractionResult{}, ocr.ErrUnsupported
	}
	return ocr.ExtractionResult{Text: f.text, SourceType: constants.SourceImage, Confidence: 0.9}, f.err
}

func (f fakeOCR) ExtractBytes(ctx context.Context, _ []byte, name string) (ocr.ExtractionResult, error) {
	return f.Extract(ctx, name)
}

type fakeLLM struct {
	out  string
	outs []string // replies in call order; out is used once they run out
	err  error
	reqs []llm.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	if len(f.outs) > 0 {
		out := f.outs[0]
		f.outs = f.outs[1:]
		return out, f.err
	}
	return f.out, f.err
}

type fakeTranscriber struct{ text string }

func (f fakeTranscriber) Transcribe(_ context.Context, audio io.Reader, _ string) (string, error) {
	if _, err := io.ReadAll(audio); err != nil {
		return "", err
	}
	return f.text, nil
}

func newRepos(t *testing.T) (repository.RecordRepository, repository.TranscriptionRepository) {
	t.Helper()
	db, err := repository.OpenSQLite("", nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(context.Background()))
	return repository.NewRecordRepository(db, nil), repository.NewTranscriptionRepository(db, nil)
}

func TestProcessImage_MergesLLMAndFallbackAndPersists(t *testing.T) {
	ctx := context.Background()
	records, _ := newRepos(t)
	model := &fakeLLM{out: "```json\n{\"artist\":\"null\",\"venue\":\"올림픽공원\"}\n```"}
	p := NewProcessor(Deps{
		OCR:     fakeOCR{text: "2023년 7월 9일 오후 7시"},
		LLM:     model,
		Records: records,
	}, nil)

	rec, err := p.ProcessImage(ctx, []byte("img"), Request{UserID: "u1", FileName: "t.jpg"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"venue": "올림픽공원", "date": "2023-07-09", "time": "19:00"}, rec.Fields.Map())
	assert.Equal(t, constants.ModeCompact, rec.Mode)
	require.Len(t, model.reqs, 1)
	assert.True(t, model.reqs[0].JSONObject)
	assert.Contains(t, model.reqs[0].User, "2023년 7월 9일")

	list, err := records.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)
	assert.Equal(t, []string{"venue", "date", "time"}, list[0].Fields.Keys())
}

func TestProcessText_LLMFailureDegradesToFallback(t *testing.T) {
	p := NewProcessor(Deps{LLM: &fakeLLM{err: errors.New("timeout")}}, nil)

	rec, err := p.ProcessText(context.Background(), "BTS Yet to Come in BUSAN 2022.10.15 6:00 pm", Request{})
	require.NoError(t, err)
	assert.Empty(t, rec.LLMRaw)
	assert.Equal(t, "18:00", rec.Field("time"))
	assert.Equal(t, "BTS", rec.Field("artist"))
	assert.Equal(t, constants.SourceText, rec.Source)
}

func TestProcessText_DirectModeReturnsEveryKey(t *testing.T) {
	p := NewProcessor(Deps{LLM: &fakeLLM{out: `{"title":"","venue":"고척스카이돔"}`}}, nil)

	rec, err := p.ProcessText(context.Background(), "2024.05.01", Request{
		Mode:    constants.ModeDirect,
		Allowed: []string{"title", "venue", "date", "seat"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "venue", "date", "seat"}, rec.Fields.Keys())
	assert.Equal(t, "2024-05-01", rec.Field("date"))
	assert.Empty(t, rec.Field("seat"))
}

func TestProcessFile_Errors(t *testing.T) {
	p := NewProcessor(Deps{OCR: fakeOCR{err: errors.New("tesseract missing")}}, nil)
	_, err := p.ProcessFile(context.Background(), "/tmp/a.jpg", Request{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrInvalidInput)

	_, err = p.ProcessFile(context.Background(), "/tmp/a.pdf", Request{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = NewProcessor(Deps{}, nil).ProcessImage(context.Background(), []byte("x"), Request{FileName: "a.png"})
	assert.ErrorIs(t, err, common.ErrUnavailable)

	_, err = p.ProcessImage(context.Background(), nil, Request{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestTranscribeAudio_UnusableQuestionsDegrade(t *testing.T) {
	model := &fakeLLM{out: "질문을 만들 수 없습니다"}
	p := NewProcessor(Deps{
		LLM:         model,
		Transcriber: fakeTranscriber{text: "음향이 아쉬웠어요"},
	}, nil)

	tr, err := p.TranscribeAudio(context.Background(), strings.NewReader("audio"), Request{FileName: "memo.webm"},
		TranscribeOptions{Questions: true})
	require.NoError(t, err)
	assert.Empty(t, tr.Questions)
	assert.Empty(t, tr.Summary)
	require.Len(t, model.reqs, 1)

	model.err = errors.New("rate limited")
	tr, err = p.TranscribeAudio(context.Background(), strings.NewReader("audio"), Request{FileName: "memo.webm"},
		TranscribeOptions{Summarize: true, Questions: true})
	require.NoError(t, err)
	assert.Equal(t, "음향이 아쉬웠어요", tr.Text)
	assert.Empty(t, tr.Questions)
}

func TestTranscribeAudio(t *testing.T) {
	ctx := context.Background()
	_, transcripts := newRepos(t)
	model := &fakeLLM{outs: []string{
		" 만족스러운 공연 ",
		"다음 질문들입니다:\n```json\n[\"어떤 장면이 기억에 남으셨나요?\",\"다시 보실 건가요?\"]\n```",
	}}
	p := NewProcessor(Deps{
		LLM:            model,
		Transcriber:    fakeTranscriber{text: "정말 좋은 공연이었어요"},
		Transcriptions: transcripts,
	}, nil)

	tr, err := p.TranscribeAudio(ctx, strings.NewReader("audio"), Request{UserID: "u1", FileName: "memo.m4a"},
		TranscribeOptions{Summarize: true, Questions: true})
	require.NoError(t, err)
	assert.Equal(t, "정말 좋은 공연이었어요", tr.Text)
	assert.Equal(t, "만족스러운 공연", tr.Summary)
	wantQuestions := []string{"어떤 장면이 기억에 남으셨나요?", "다시 보실 건가요?"}
	assert.Equal(t, wantQuestions, tr.Questions)
	require.Len(t, model.reqs, 2)

	list, err := transcripts.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, wantQuestions, list[0].Questions)

	_, err = p.TranscribeAudio(ctx, strings.NewReader("x"), Request{FileName: "memo.txt"}, TranscribeOptions{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = NewProcessor(Deps{}, nil).TranscribeAudio(ctx, strings.NewReader("x"), Request{FileName: "a.mp3"}, TranscribeOptions{})
	assert.ErrorIs(t, err, common.ErrUnavailable)
}
