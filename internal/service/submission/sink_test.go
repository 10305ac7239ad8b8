package submission_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
	"github.com/zhouzirui/leadbot/backend/internal/service/submission"
)

type fakeRecorder struct {
	mu   sync.Mutex
	err  error
	subs []intake.Submission
}

func (f *fakeRecorder) Record(_ context.Context, sub intake.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subs = append(f.subs, sub)
	return nil
}

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) Notify(context.Context, intake.Submission) error {
	f.calls++
	return f.err
}

func sampleSubmission() intake.Submission {
	return intake.Submission{
		ID:          "sub-1",
		Name:        "Ann",
		Phone:       "+7 912 345 6789",
		Message:     "Need a quote",
		UserID:      "42",
		Handle:      "ann",
		SubmittedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestSubmitRecordsAndNotifies(t *testing.T) {
	rec := &fakeRecorder{}
	notif := &fakeNotifier{}
	sink := submission.NewSink(rec, notif, zaptest.NewLogger(t))

	res := sink.Submit(context.Background(), sampleSubmission())

	assert.True(t, res.Recorded())
	assert.True(t, res.Notified())
	assert.Len(t, rec.subs, 1)
	assert.Equal(t, 1, notif.calls)
}

func TestNotifyFailureKeepsRecord(t *testing.T) {
	rec := &fakeRecorder{}
	notif := &fakeNotifier{err: errors.New("telegram down")}
	sink := submission.NewSink(rec, notif, zaptest.NewLogger(t))

	res := sink.Submit(context.Background(), sampleSubmission())

	assert.True(t, res.Recorded())
	assert.False(t, res.Notified())
	assert.ErrorIs(t, res.NotifyErr, submission.ErrNotifyFailed)
	assert.Len(t, rec.subs, 1)
}

func TestRecordFailureStillNotifies(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	notif := &fakeNotifier{}
	sink := submission.NewSink(rec, notif, zaptest.NewLogger(t))

	res := sink.Submit(context.Background(), sampleSubmission())

	assert.False(t, res.Recorded())
	assert.ErrorIs(t, res.RecordErr, submission.ErrRecordFailed)
	assert.True(t, res.Notified())
	assert.Equal(t, 1, notif.calls)
}

func TestFileRecorderAppendsBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "leads.txt")
	rec, err := submission.NewFileRecorder(path)
	require.NoError(t, err)

	first := sampleSubmission()
	second := sampleSubmission()
	second.ID = "sub-2"
	second.Name = "Bob"
	second.Handle = ""

	require.NoError(t, rec.Record(context.Background(), first))
	require.NoError(t, rec.Record(context.Background(), second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Equal(t, 2, strings.Count(content, "НОВАЯ ЗАЯВКА - "))
	assert.Contains(t, content, "НОВАЯ ЗАЯВКА - 2026-03-01 10:30:00")
	assert.Contains(t, content, "Имя: Ann\n")
	assert.Contains(t, content, "Телефон: +7 912 345 6789\n")
	assert.Contains(t, content, "Telegram: @ann\n")
	assert.Contains(t, content, "Имя: Bob\n")
	assert.Contains(t, content, "Telegram: Не указан\n")
	assert.Less(t, strings.Index(content, "Ann"), strings.Index(content, "Bob"))
}

func TestFileRecorderRequiresPath(t *testing.T) {
	_, err := submission.NewFileRecorder("  ")
	assert.Error(t, err)
}

func TestFileRecorderRespectsCanceledContext(t *testing.T) {
	rec, err := submission.NewFileRecorder(filepath.Join(t.TempDir(), "leads.txt"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, rec.Record(ctx, sampleSubmission()), context.Canceled)
}
