package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/fields"
)

// TicketRecord is one processed ticket, owned by an opaque user ID.
type TicketRecord struct {
	ID         uuid.UUID             `json:"id"`
	UserID     string                `json:"user_id"`
	Source     constants.Source      `json:"source"`
	Mode       constants.ExtractMode `json:"mode"`
	FileName   string                `json:"file_name,omitempty"`
	OCRText    string                `json:"ocr_text,omitempty"`
	LLMRaw     string                `json:"llm_raw,omitempty"`
	Fields     *fields.FieldMap      `json:"fields"`
	Confidence float32               `json:"confidence"`
	CreatedAt  time.Time             `json:"created_at"`
}

// Field returns the value of a resolved field, or "".
func (r *TicketRecord) Field(name string) string {
	v, _ := r.Fields.Get(name)
	return v
}
