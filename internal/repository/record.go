package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/common"
	"github.com/joseph-ayodele/ticket-record/internal/entity"
	"github.com/joseph-ayodele/ticket-record/internal/fields"
)

var recordColumns = []string{
	"id", "user_id", "source", "mode", "file_name",
	"ocr_text", "llm_raw", "fields", "confidence", "created_at",
}

// RecordRepository stores processed tickets per user.
type RecordRepository interface {
	Create(ctx context.Context, rec *entity.TicketRecord) (*entity.TicketRecord, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*entity.TicketRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.TicketRecord, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type recordRepo struct {
	db  *DB
	log *slog.Logger
}

func NewRecordRepository(db *DB, log *slog.Logger) RecordRepository {
	if log == nil {
		log = slog.Default()
	}
	return &recordRepo{db: db, log: log}
}

func (r *recordRepo) Create(ctx context.Context, rec *entity.TicketRecord) (*entity.TicketRecord, error) {
	if rec == nil || rec.UserID == "" {
		return nil, common.NewAppError("invalid_input", "user_id is required", common.ErrInvalidInput)
	}
	out := *rec
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if out.Fields == nil {
		out.Fields = fields.NewFieldMap()
	}
	fj, err := out.Fields.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	q, args := r.db.builder().Insert(tableRecords).
		Columns(recordColumns...).
		Values(
			out.ID.String(), out.UserID, string(out.Source), string(out.Mode), out.FileName,
			out.OCRText, out.LLMRaw, string(fj), out.Confidence, out.CreatedAt.UnixMicro(),
		).
		Query()
	if _, err := r.db.sql().ExecContext(ctx, q, args...); err != nil {
		r.log.Error("ticket_record create failed", "user_id", out.UserID, "err", err)
		return nil, common.DatabaseError("create ticket record", err)
	}
	r.log.Info("ticket_record created", "record_id", out.ID, "user_id", out.UserID, "fields", out.Fields.Len())
	return &out, nil
}

func (r *recordRepo) Get(ctx context.Context, userID string, id uuid.UUID) (*entity.TicketRecord, error) {
	b := r.db.builder()
	t := b.Table(tableRecords)
	q, args := b.Select(recordColumns...).
		From(t).
		Where(entsql.And(entsql.EQ("id", id.String()), entsql.EQ("user_id", userID))).
		Query()

	row := r.db.sql().QueryRowContext(ctx, q, args...)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("not_found", "ticket record not found", common.ErrNotFound)
	}
	if err != nil {
		r.log.Error("ticket_record get failed", "record_id", id, "err", err)
		return nil, common.DatabaseError("get ticket record", err)
	}
	return rec, nil
}

// ListByUser returns the newest records first. limit <= 0 means no limit.
func (r *recordRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.TicketRecord, error) {
	b := r.db.builder()
	t := b.Table(tableRecords)
	sel := b.Select(recordColumns...).
		From(t).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"), "id")
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()

	rows, err := r.db.sql().QueryContext(ctx, q, args...)
	if err != nil {
		r.log.Error("ticket_record list failed", "user_id", userID, "err", err)
		return nil, common.DatabaseError("list ticket records", err)
	}
	defer rows.Close()

	var out []*entity.TicketRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, common.DatabaseError("scan ticket record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseError("list ticket records", err)
	}
	r.log.Debug("ticket_record listed", "user_id", userID, "count", len(out))
	return out, nil
}

func (r *recordRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	q, args := r.db.builder().Delete(tableRecords).
		Where(entsql.And(entsql.EQ("id", id.String()), entsql.EQ("user_id", userID))).
		Query()
	res, err := r.db.sql().ExecContext(ctx, q, args...)
	if err != nil {
		r.log.Error("ticket_record delete failed", "record_id", id, "err", err)
		return common.DatabaseError("delete ticket record", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("not_found", "ticket record not found", common.ErrNotFound)
	}
	r.log.Info("ticket_record deleted", "record_id", id, "user_id", userID)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*entity.TicketRecord, error) {
	var (
		rec             entity.TicketRecord
		id, src, mode   string
		fieldsJSON      string
		confidence      float64
		createdAtMicros int64
	)
	if err := s.Scan(&id, &rec.UserID, &src, &mode, &rec.FileName,
		&rec.OCRText, &rec.LLMRaw, &fieldsJSON, &confidence, &createdAtMicros); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("record id %q: %w", id, err)
	}
	rec.ID = parsed
	rec.Source = constants.Source(src)
	rec.Mode = constants.ExtractMode(mode)
	rec.Confidence = float32(confidence)
	rec.CreatedAt = time.UnixMicro(createdAtMicros).UTC()
	rec.Fields = fields.NewFieldMap()
	if err := rec.Fields.UnmarshalJSON([]byte(fieldsJSON)); err != nil {
		return nil, fmt.Errorf("record %s fields: %w", id, err)
	}
	return &rec, nil
}
