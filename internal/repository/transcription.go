package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-record/internal/common"
	"github.com/joseph-ayodele/ticket-record/internal/entity"
)

type TranscriptionRepository interface {
	Create(ctx context.Context, tr *entity.Transcription) (*entity.Transcription, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Transcription, error)
}

type transcriptionRepo struct {
	db  *DB
	log *slog.Logger
}

func NewTranscriptionRepository(db *DB, log *slog.Logger) TranscriptionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &transcriptionRepo{db: db, log: log}
}

func (r *transcriptionRepo) Create(ctx context.Context, tr *entity.Transcription) (*entity.Transcription, error) {
	if tr == nil || tr.UserID == "" {
		return nil, common.NewAppError("invalid_input", "user_id is required", common.ErrInvalidInput)
	}
	out := *tr
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if out.Questions == nil {
		out.Questions = []string{}
	}
	qj, err := json.Marshal(out.Questions)
	if err != nil {
		return nil, common.NewAppError("invalid_input", "encode questions", errors.Join(common.ErrInvalidInput, err))
	}
	q, args := r.db.builder().Insert(tableTranscriptions).
		Columns("id", "user_id", "file_name", "text", "summary", "questions", "created_at").
		Values(out.ID.String(), out.UserID, out.FileName, out.Text, out.Summary, string(qj), out.CreatedAt.UnixMicro()).
		Query()
	if _, err := r.db.sql().ExecContext(ctx, q, args...); err != nil {
		r.log.Error("transcription create failed", "user_id", out.UserID, "err", err)
		return nil, common.DatabaseError("create transcription", err)
	}
	r.log.Info("transcription created", "transcription_id", out.ID, "user_id", out.UserID, "chars", len([]rune(out.Text)))
	return &out, nil
}

func (r *transcriptionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Transcription, error) {
	b := r.db.builder()
	sel := b.Select("id", "user_id", "file_name", "text", "summary", "questions", "created_at").
		From(b.Table(tableTranscriptions)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"), "id")
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()
	rows, err := r.db.sql().QueryContext(ctx, q, args...)
	if err != nil {
		r.log.Error("transcription list failed", "user_id", userID, "err", err)
		return nil, common.DatabaseError("list transcriptions", err)
	}
	defer rows.Close()

	var out []*entity.Transcription
	for rows.Next() {
		var (
			tr        entity.Transcription
			id        string
			questions string
			created   int64
		)
		if err := rows.Scan(&id, &tr.UserID, &tr.FileName, &tr.Text, &tr.Summary, &questions, &created); err != nil {
			return nil, common.DatabaseError("scan transcription", err)
		}
		if err := json.Unmarshal([]byte(questions), &tr.Questions); err != nil {
			return nil, common.DatabaseError("decode questions", err)
		}
		if tr.ID, err = uuid.Parse(id); err != nil {
			return nil, common.DatabaseError("scan transcription", err)
		}
		tr.CreatedAt = time.UnixMicro(created).UTC()
		out = append(out, &tr)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseError("list transcriptions", err)
	}
	return out, nil
}
