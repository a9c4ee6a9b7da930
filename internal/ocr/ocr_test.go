package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ticket-record/constants"
)

type fakeRunner struct {
	calls  [][]string
	stdout map[bool]string // keyed by "is tsv call"
	stderr string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, []byte("tesseract: cannot open"), f.err
	}
	tsv := len(args) > 0 && args[len(args)-1] == "tsv"
	return []byte(f.stdout[tsv]), []byte(f.stderr), nil
}

func newTestExtractor(cfg Config, r Runner) *Extractor {
	e := NewExtractor(cfg, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	e.runner = r
	return e
}

func TestExtract_ImageUsesTesseractWithKoreanLang(t *testing.T) {
	fr := &fakeRunner{stdout: map[bool]string{
		false: "BTS  Yet to Come\r\n-----\n\n\n\n2022.10.15 6:00 pm\t부산 아시아드 주경기장\n",
	}}
	e := newTestExtractor(Config{PSM: 6}, fr)

	res, err := e.Extract(context.Background(), "/tmp/ticket.JPG")
	require.NoError(t, err)

	require.Len(t, fr.calls, 1)
	assert.Equal(t, []string{"tesseract", "/tmp/ticket.JPG", "stdout", "-l", "kor+eng", "--psm", "6"}, fr.calls[0])
	assert.Equal(t, "BTS Yet to Come\n\n2022.10.15 6:00 pm 부산 아시아드 주경기장", res.Text)
	assert.Equal(t, constants.SourceImage, res.SourceType)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Greater(t, res.Confidence, float32(0.5))
}

func TestExtract_TSVConfidenceBlends(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tBTS\n" +
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\t2022.10.15\n" +
		"4\t1\t1\t1\t1\t0\t0\t0\t10\t10\t-1\t\n"
	fr := &fakeRunner{stdout: map[bool]string{false: "BTS", true: tsv}}
	e := newTestExtractor(Config{EnableTSVConfidence: true}, fr)

	res, err := e.Extract(context.Background(), "a.png")
	require.NoError(t, err)
	require.Len(t, fr.calls, 2)
	assert.InDelta(t, 0.7*0.8+0.3*TicketConfidence("BTS"), res.Confidence, 0.001)
}

func TestExtract_Errors(t *testing.T) {
	e := newTestExtractor(Config{}, &fakeRunner{err: errors.New("exit 1")})
	_, err := e.Extract(context.Background(), "a.png")
	assert.Error(t, err)

	_, err = e.Extract(context.Background(), "a.pdf")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = e.ExtractBytes(context.Background(), nil, "a.png")
	assert.Error(t, err)
}

func TestExtract_ImageCollectsTesseractWarnings(t *testing.T) {
	fr := &fakeRunner{
		stdout: map[bool]string{false: "체조경기장"},
		stderr: "Estimating resolution as 300\nWarning: Invalid resolution 0 dpi. Using 70 instead.\n\n",
	}
	e := newTestExtractor(Config{}, fr)

	res, err := e.Extract(context.Background(), "ticket.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"Warning: Invalid resolution 0 dpi. Using 70 instead."}, res.Warnings)
}

func TestStderrWarnings(t *testing.T) {
	assert.Empty(t, stderrWarnings(nil))

	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteString("Warning: line\n")
	}
	got := stderrWarnings([]byte(b.String()))
	require.Len(t, got, maxWarnings+1)
	assert.Equal(t, "...(truncated)", got[maxWarnings])

	long := strings.Repeat("x", 300)
	assert.Len(t, stderrWarnings([]byte(long))[0], 200+len("...(truncated)"))
}

func TestExtract_TextFileSkipsTesseract(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "ticket.txt")
	require.NoError(t, os.WriteFile(p, []byte("올림픽공원\r\n2023년 7월 9일 오후 7시"), 0o600))

	fr := &fakeRunner{}
	e := newTestExtractor(Config{}, fr)
	res, err := e.Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, fr.calls)
	assert.Equal(t, "올림픽공원\n2023년 7월 9일 오후 7시", res.Text)
	assert.Equal(t, constants.SourceText, res.SourceType)
}

func TestExtractBytes_WritesTempImage(t *testing.T) {
	fr := &fakeRunner{stdout: map[bool]string{false: "체조경기장"}}
	e := newTestExtractor(Config{}, fr)

	res, err := e.ExtractBytes(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "upload.png")
	require.NoError(t, err)
	assert.Equal(t, "체조경기장", res.Text)
	require.Len(t, fr.calls, 1)
	tmp := fr.calls[0][1]
	assert.Equal(t, ".png", filepath.Ext(tmp))
	_, statErr := os.Stat(tmp)
	assert.True(t, os.IsNotExist(statErr), "temp image should be removed")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "a b\n\nc", Normalize("a\t\tb  \r\n\r\n\r\n\r\nc"))
	assert.Equal(t, "좌석\n3층", Normalize("좌석\n=====\n3층"))
}

func TestTicketConfidence(t *testing.T) {
	low := TicketConfidence("hello")
	high := TicketConfidence("2023년 7월 9일 오후 7시 올림픽공원 체조경기장 3층 A구역 14열 7번")
	assert.InDelta(t, 0.2, low, 0.001)
	assert.Greater(t, high, low)
	assert.LessOrEqual(t, high, float32(1.0))
}
