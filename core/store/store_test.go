package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dayplan/core/model"
)

func TestMemoryStore_ReadMissing(t *testing.T) {
	s := NewMemoryStore()
	day, err := s.ReadCommitted(context.Background(), "u", "2025-03-01")
	require.NoError(t, err)
	assert.Nil(t, day)
}

func TestMemoryStore_WriteIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	tasks := []model.Placement{
		{Index: 1, Desc: "b", StartTime: "10:00", EndTime: "11:00"},
		{Index: 0, Desc: "a", StartTime: "08:00", EndTime: "09:00"},
	}
	require.NoError(t, s.WriteCommitted(ctx, "u", "2025-03-01", tasks))
	require.NoError(t, s.WriteCommitted(ctx, "u", "2025-03-01", tasks))

	day, err := s.ReadCommitted(ctx, "u", "2025-03-01")
	require.NoError(t, err)
	require.Len(t, day.Tasks, 2)
	assert.Equal(t, "a", day.Tasks[0].Desc)
	assert.Equal(t, "2025-03-01", day.Tasks[0].Date)

	other, err := s.ReadCommitted(ctx, "v", "2025-03-01")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMemoryStore_EmptyWriteCreatesDay(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.WriteCommitted(ctx, "u", "d", nil))
	day, err := s.ReadCommitted(ctx, "u", "d")
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.Empty(t, day.Tasks)
}
