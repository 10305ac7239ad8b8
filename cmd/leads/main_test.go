package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
	"github.com/zhouzirui/leadbot/backend/internal/service/submission"
)

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.db")
	store, err := submission.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), intake.Submission{
		ID:          "lead-1",
		Name:        "Anna",
		Phone:       "+7 912 345 6789",
		Message:     "Call me back",
		UserID:      "42",
		Handle:      "anna",
		SubmittedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.Close())
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		jsonOutput = false
		listLimit = 20
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestListPrintsTable(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "list", "--db", db)

	require.NoError(t, err)
	assert.Contains(t, out, "lead-1")
	assert.Contains(t, out, "@anna")
}

func TestShowPrintsRecordBlock(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "show", "lead-1", "--db", db)

	require.NoError(t, err)
	assert.Contains(t, out, "Имя: Anna")
	assert.Contains(t, out, "Telegram: @anna")
}

func TestShowJSON(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "show", "lead-1", "--db", db, "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"phone": "+7 912 345 6789"`)
}

func TestShowUnknownID(t *testing.T) {
	db := seedDB(t)

	_, err := execute(t, "show", "missing", "--db", db)

	assert.ErrorIs(t, err, submission.ErrNotFound)
}

func TestMissingDatabase(t *testing.T) {
	_, err := execute(t, "list", "--db", filepath.Join(t.TempDir(), "none.db"))
	assert.Error(t, err)
}
