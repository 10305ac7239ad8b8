package submission

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
)

var (
	ErrRecordFailed = errors.New("submission record failed")
	ErrNotifyFailed = errors.New("operator notification failed")
)

// Recorder durably stores completed submissions.
type Recorder interface {
	Record(ctx context.Context, sub intake.Submission) error
}

// Notifier alerts the operator about a new submission.
type Notifier interface {
	Notify(ctx context.Context, sub intake.Submission) error
}

// Lister is implemented by recorders that can read their records back.
type Lister interface {
	List(ctx context.Context, limit int) ([]intake.Submission, error)
	Get(ctx context.Context, id string) (intake.Submission, error)
}

// Result reports both outcomes of a Submit call. The two are independent.
type Result struct {
	RecordErr error
	NotifyErr error
}

// Recorded reports whether the durable write succeeded.
func (r Result) Recorded() bool { return r.RecordErr == nil }

// Notified reports whether the operator was alerted.
func (r Result) Notified() bool { return r.NotifyErr == nil }

// Sink records a submission and then notifies the operator. A notification
// failure never undoes the record; neither failure reaches the end user.
type Sink struct {
	recorder Recorder
	notifier Notifier
	logger   *zap.Logger
}

// NewSink wires the storage and notification collaborators.
func NewSink(recorder Recorder, notifier Notifier, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{recorder: recorder, notifier: notifier, logger: logger}
}

// Submit records sub, then notifies, logging each outcome.
func (s *Sink) Submit(ctx context.Context, sub intake.Submission) Result {
	var res Result
	log := s.logger.With(zap.String("submission_id", sub.ID), zap.String("user_id", sub.UserID))

	if err := s.recorder.Record(ctx, sub); err != nil {
		res.RecordErr = fmt.Errorf("%w: %w", ErrRecordFailed, err)
		// Operators recover these by hand from the log line.
		log.Error("failed to record submission",
			zap.Error(err),
			zap.String("name", sub.Name),
			zap.String("phone", sub.Phone),
			zap.String("message", sub.Message),
		)
	} else {
		log.Info("submission recorded")
	}

	if s.notifier == nil {
		return res
	}
	if err := s.notifier.Notify(ctx, sub); err != nil {
		res.NotifyErr = fmt.Errorf("%w: %w", ErrNotifyFailed, err)
		log.Warn("failed to notify operator", zap.Error(err))
	} else {
		log.Info("operator notified")
	}

	return res
}
