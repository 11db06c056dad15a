package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	services "trip-viewer/service"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand_Valid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "itinerary.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"date":"2025-03-28","title":"Arrival","itineraryItems":[]}]`), 0o644))

	out, err := runRoot(t, "validate", file)

	require.NoError(t, err)
	assert.Contains(t, out, "OK, 1 day(s)")
	assert.Contains(t, out, "  2025-03-28  Arrival (0 items)")
}

func TestValidateCommand_ListsEveryProblem(t *testing.T) {
	file := filepath.Join(t.TempDir(), "itinerary.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"date":"2025-03-28"},{"title":"No date","itineraryItems":[]}]`), 0o644))

	out, err := runRoot(t, "validate", file)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 problem(s)")
	assert.Contains(t, out, `Day 1 (2025-03-28): missing required field "title"`)
	assert.Contains(t, out, `Day 1 (2025-03-28): missing required field "itineraryItems"`)
	assert.Contains(t, out, `Day 2: missing required field "date"`)
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := runRoot(t, "validate", filepath.Join(t.TempDir(), "missing.json"))

	assert.Error(t, err)
}

func TestNotificationBoard_DropsExpired(t *testing.T) {
	now := time.Date(2025, 3, 28, 9, 0, 0, 0, time.UTC)
	board := &notificationBoard{}
	board.Add(services.Notification{ID: "a", CreatedAt: now, ExpiresAt: now.Add(time.Second)})
	board.Add(services.Notification{ID: "b", CreatedAt: now, ExpiresAt: now.Add(time.Minute)})

	active := board.Active(now.Add(30 * time.Second))

	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].ID)
	assert.Empty(t, board.Active(now.Add(time.Minute)))
}
