package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coracle/shiftclaim/internal/types"
)

func TestFile_LoadMissingIsEmpty(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "history.json"))
	shifts, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, shifts)
}

func TestFile_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	f := NewFile(path)

	want := []types.Shift{tempShift(date(2024, 1, 1)), permShift(date(2024, 1, 1), date(2024, 2, 1))}
	require.NoError(t, f.Save(context.Background(), want))

	got, err := f.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, want[0].Equal(got[0]))
	assert.True(t, want[1].Equal(got[1]))
}

func TestFile_SaveRewritesWholeList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	f := NewFile(path)

	require.NoError(t, f.Save(context.Background(), []types.Shift{tempShift(date(2024, 1, 1)), tempShift(date(2024, 1, 2))}))
	require.NoError(t, f.Save(context.Background(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestFile_LoadKeepsCorruptTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	raw := `[{"type":"Mystery","start_date":"2024-01-01","end_date":"2024-01-01","start_time":"2:00PM","end_time":"3:00PM"}]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	got, err := NewFile(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.ShiftType("Mystery"), got[0].Type)
}

func TestFile_LoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`{nope`), 0o644))

	_, err := NewFile(path).Load(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse history file")
}

func TestNewFile_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewFile("").Path)
}
