package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ticket-record/internal/common"
	"github.com/joseph-ayodele/ticket-record/internal/entity"
	"github.com/joseph-ayodele/ticket-record/internal/pipeline"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type recordingProcessor struct {
	mu    sync.Mutex
	paths []string
	users []string
}

func (p *recordingProcessor) ProcessFile(_ context.Context, path string, req pipeline.Request) (*entity.TicketRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, path)
	p.users = append(p.users, req.UserID)
	return &entity.TicketRecord{ID: uuid.New(), UserID: req.UserID}, nil
}

func (p *recordingProcessor) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.paths...)
}

func inboxConfig(dir string) *common.Config {
	return &common.Config{
		Queue: common.QueueConfig{Workers: 1, Size: 4, ProcessTimeout: time.Second},
		Watch: common.WatchConfig{Dir: dir, UserID: "inbox-user", Debounce: 10 * time.Millisecond},
	}
}

func TestStartInbox_ProcessesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	ticket := filepath.Join(dir, "ticket.txt")
	require.NoError(t, os.WriteFile(ticket, []byte("올림픽공원 2023.7.9"), 0o600))

	logs := &lockedBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	proc := &recordingProcessor{}

	ctx, cancel := context.WithCancel(context.Background())
	queue := startInbox(ctx, inboxConfig(dir), proc, logger)

	require.Eventually(t, func() bool { return len(proc.seen()) > 0 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	queue.Shutdown(context.Background())

	assert.Equal(t, ticket, proc.seen()[0])
	assert.Equal(t, "inbox-user", proc.users[0])
	out := logs.String()
	assert.Contains(t, out, "msg=inbox.watch.started")
	assert.Contains(t, out, "msg=inbox.process.ok")
}

func TestStartInbox_MissingDirDisablesWatch(t *testing.T) {
	logs := &lockedBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))

	queue := startInbox(context.Background(), inboxConfig(filepath.Join(t.TempDir(), "missing")), &recordingProcessor{}, logger)
	queue.Shutdown(context.Background())

	out := logs.String()
	assert.Contains(t, out, "msg=inbox.watch.disabled")
	assert.NotContains(t, out, "msg=inbox.watch.started")
}
