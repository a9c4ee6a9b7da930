package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/entity"
	"github.com/joseph-ayodele/ticket-record/internal/fields"
	"github.com/joseph-ayodele/ticket-record/internal/repository"
)

func TestExportRecordsXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.OpenSQLite("", nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	records := repository.NewRecordRepository(db, nil)

	fm := fields.NewFieldMap()
	fm.Set("date", "2022-10-15")
	fm.Set("artist", "BTS")
	_, err = records.Create(ctx, &entity.TicketRecord{
		UserID:    "u1",
		Source:    constants.SourceImage,
		FileName:  "busan.jpg",
		Fields:    fm,
		CreatedAt: time.Date(2022, 10, 16, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = records.Create(ctx, &entity.TicketRecord{UserID: "u2", Fields: fm})
	require.NoError(t, err)

	svc := NewService(records, []string{"artist", "date", "seat"}, nil)
	b, err := svc.ExportRecordsXLSX(ctx, "u1")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Tickets"}, f.GetSheetList())
	rows, err := f.GetRows("Tickets")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"artist", "date", "seat", "source", "file", "confidence", "created_at"}, rows[0])
	assert.Equal(t, "BTS", rows[1][0])
	assert.Equal(t, "2022-10-15", rows[1][1])
	assert.Equal(t, "", rows[1][2])
	assert.Equal(t, "IMAGE", rows[1][3])
	assert.Equal(t, "busan.jpg", rows[1][4])
	assert.Equal(t, "2022-10-16T00:00:00Z", rows[1][6])
}
