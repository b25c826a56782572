package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dayplan/core/model"
	corestore "github.com/kilianp07/dayplan/core/store"
)

var _ corestore.ScheduleStore = (*SQLiteStore)(nil)

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_ReadMissing(t *testing.T) {
	s := openMemory(t)
	day, err := s.ReadCommitted(context.Background(), "u", "2025-03-01")
	require.NoError(t, err)
	assert.Nil(t, day)
}

func TestSQLiteStore_UpsertByKey(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	first := []model.Placement{{Index: 0, Desc: "read", StartTime: "09:00", EndTime: "10:00", Category: "linguistic"}}
	require.NoError(t, s.WriteCommitted(ctx, "u", "2025-03-01", first))

	merged := []model.Placement{
		{Index: 0, Desc: "walk", StartTime: "07:00", EndTime: "07:30"},
		{Index: 1, Desc: "read", StartTime: "09:00", EndTime: "10:00", Category: "linguistic"},
	}
	require.NoError(t, s.WriteCommitted(ctx, "u", "2025-03-01", merged))
	require.NoError(t, s.WriteCommitted(ctx, "u", "2025-03-01", merged))

	day, err := s.ReadCommitted(ctx, "u", "2025-03-01")
	require.NoError(t, err)
	require.Len(t, day.Tasks, 2)
	assert.Equal(t, "walk", day.Tasks[0].Desc)
	assert.Equal(t, 1, day.Tasks[1].Index)
	assert.Equal(t, "linguistic", day.Tasks[1].Category)
	assert.Equal(t, "2025-03-01", day.Tasks[1].Date)
}

func TestSQLiteStore_EmptyDayExists(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	require.NoError(t, s.WriteCommitted(ctx, "u", "2025-03-02", nil))
	day, err := s.ReadCommitted(ctx, "u", "2025-03-02")
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.NotNil(t, day.Tasks)
	assert.Empty(t, day.Tasks)
}
