package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/entity"
	"github.com/joseph-ayodele/ticket-record/internal/pipeline"
)

// Job is one ticket file waiting for processing.
type Job struct {
	Path        string
	UserID      string
	Mode        constants.ExtractMode
	SubmittedAt time.Time
	TraceID     string
}

// Result is delivered to the result handler once a job finishes.
type Result struct {
	Job    Job
	Record *entity.TicketRecord
	Err    error
}

// FileProcessor is the pipeline stage a worker drives.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string, req pipeline.Request) (*entity.TicketRecord, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
