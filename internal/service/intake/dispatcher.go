package intake

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/moby/locker"
	"go.uber.org/zap"

	"github.com/zhouzirui/leadbot/backend/internal/model/content"
	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
	"github.com/zhouzirui/leadbot/backend/internal/service/session"
	"github.com/zhouzirui/leadbot/backend/internal/service/submission"
	"github.com/zhouzirui/leadbot/backend/internal/service/validate"
)

const defaultSinkTimeout = 15 * time.Second

// Submitter hands a finished form to storage and the operator.
type Submitter interface {
	Submit(ctx context.Context, sub intake.Submission) submission.Result
}

// Options configures keywords and validation thresholds.
type Options struct {
	StartKeywords  []string
	CancelKeywords []string
	Rules          validate.Rules
	// InfoIntercept lets informational keywords answer even while a form is
	// open. When false they are taken as the answer to the current step.
	InfoIntercept bool
	SinkTimeout   time.Duration
}

// DefaultOptions returns the menu button and slash command keywords.
func DefaultOptions() Options {
	return Options{
		StartKeywords:  []string{content.ButtonRequest, "/request"},
		CancelKeywords: []string{content.ButtonCancel, "/cancel"},
		Rules:          validate.DefaultRules(),
		SinkTimeout:    defaultSinkTimeout,
	}
}

// Outcome is the result of handling one event.
type Outcome struct {
	Reply intake.Reply
	// Submission is set only when the event completed the form.
	Submission *intake.Submission
	// Delivery reports the sink outcome for Submission.
	Delivery *submission.Result
}

// Form events. Legal transitions live in formEvents; the step table only
// knows how to validate and prompt.
const (
	eventStart  = "start"
	eventAccept = "accept"
	eventFinish = "finish"
	eventCancel = "cancel"
)

func formEvents() fsm.Events {
	var (
		idle    = string(intake.StateIdle)
		name    = string(intake.StateAwaitingName)
		phone   = string(intake.StateAwaitingPhone)
		message = string(intake.StateAwaitingMessage)
	)
	return fsm.Events{
		{Name: eventStart, Src: []string{idle, name, phone, message}, Dst: name},
		{Name: eventAccept, Src: []string{name}, Dst: phone},
		{Name: eventAccept, Src: []string{phone}, Dst: message},
		{Name: eventFinish, Src: []string{message}, Dst: idle},
		{Name: eventCancel, Src: []string{name, phone, message}, Dst: idle},
	}
}

// step describes one question of the form.
type step struct {
	field    intake.Field
	validate validate.Func
	rejected intake.Reply
	// prompt asks the next question; nil on the last step.
	prompt func(intake.Session) intake.Reply
}

// Dispatcher routes inbound events through the intake state machine.
type Dispatcher struct {
	sessions session.Store
	content  content.Store
	sink     Submitter
	opts     Options
	logger   *zap.Logger

	events fsm.Events
	steps  map[intake.State]step
	start  map[string]struct{}
	cancel map[string]struct{}
	locks  *locker.Locker

	now   func() time.Time
	newID func() string
}

// NewDispatcher wires the collaborators. content may be nil when the bot has
// no informational replies.
func NewDispatcher(sessions session.Store, contentStore content.Store, sink Submitter, opts Options, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = defaultSinkTimeout
	}
	rules := opts.Rules

	return &Dispatcher{
		sessions: sessions,
		content:  contentStore,
		sink:     sink,
		opts:     opts,
		logger:   logger,
		events:   formEvents(),
		steps: map[intake.State]step{
			intake.StateAwaitingName: {
				field:    intake.FieldName,
				validate: rules.Name,
				rejected: nameRejected,
				prompt:   phonePrompt,
			},
			intake.StateAwaitingPhone: {
				field:    intake.FieldPhone,
				validate: rules.Phone,
				rejected: phoneRejected,
				prompt:   messagePrompt,
			},
			intake.StateAwaitingMessage: {
				field:    intake.FieldMessage,
				validate: rules.Message,
				rejected: messageRejected,
			},
		},
		start:  keywordSet(opts.StartKeywords),
		cancel: keywordSet(opts.CancelKeywords),
		locks:  locker.New(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Handle processes one event. It never fails: every input maps to a reply.
// Events of one user are serialized; the sink runs after the user's lock is
// released.
func (d *Dispatcher) Handle(ctx context.Context, ev intake.Event) Outcome {
	d.locks.Lock(ev.UserID)
	reply, sub := d.transition(ctx, ev)
	_ = d.locks.Unlock(ev.UserID)

	out := Outcome{Reply: reply, Submission: sub}
	if sub != nil && d.sink != nil {
		// The user has been told their data was accepted, so a dropped
		// client connection must not abort the write.
		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.SinkTimeout)
		res := d.sink.Submit(sinkCtx, *sub)
		cancel()
		out.Delivery = &res
	}
	return out
}

// transition runs under the user's lock. The session is written only after
// every decision is made, so a panic leaves it untouched.
func (d *Dispatcher) transition(ctx context.Context, ev intake.Event) (reply intake.Reply, sub *intake.Submission) {
	log := d.logger.With(zap.String("user_id", ev.UserID))
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling event", zap.Any("panic", r), zap.Stack("stack"))
			reply, sub = tryAgain, nil
		}
	}()

	text := strings.TrimSpace(ev.Text)
	sess := d.sessions.Get(ctx, ev.UserID)

	if _, ok := d.cancel[text]; ok {
		if sess.IsIdle() {
			return nothingToCancel, nil
		}
		if _, err := d.fire(ctx, sess.State, eventCancel); err != nil {
			log.Warn("cancelling session in unknown state", zap.String("state", string(sess.State)), zap.Error(err))
		}
		d.sessions.Clear(ctx, ev.UserID)
		log.Debug("form cancelled", zap.String("state", string(sess.State)))
		return cancelled, nil
	}

	// The request button restarts the form from any state.
	if _, ok := d.start[text]; ok {
		state, err := d.fire(ctx, sess.State, eventStart)
		if err != nil {
			log.Warn("restarting session in unknown state", zap.String("state", string(sess.State)), zap.Error(err))
			if state, err = d.fire(ctx, intake.StateIdle, eventStart); err != nil {
				panic(err)
			}
		}
		next := intake.NewSession(ev.UserID)
		next.State = state
		d.sessions.Put(ctx, ev.UserID, next)
		log.Debug("form started", zap.Bool("restart", !sess.IsIdle()))
		return namePrompt(next), nil
	}

	if reply, ok := d.info(ev, text, true); ok {
		return reply, nil
	}

	if !sess.IsIdle() {
		if d.opts.InfoIntercept {
			if reply, ok := d.info(ev, text, false); ok {
				return reply, nil
			}
		}
		return d.answer(ctx, ev, sess, log)
	}

	if reply, ok := d.info(ev, text, false); ok {
		return reply, nil
	}
	return unrecognized, nil
}

// fire restores a machine at state, runs event and returns the new state.
// Firing an event that keeps the state is not an error.
func (d *Dispatcher) fire(ctx context.Context, state intake.State, event string) (intake.State, error) {
	if state == "" {
		state = intake.StateIdle
	}
	m := fsm.NewFSM(string(state), d.events, fsm.Callbacks{})
	// The machine lives in memory; a canceled request must not abort it.
	if err := m.Event(context.WithoutCancel(ctx), event); err != nil {
		var noop fsm.NoTransitionError
		if !errors.As(err, &noop) {
			return state, err
		}
	}
	return intake.State(m.Current()), nil
}

func (d *Dispatcher) answer(ctx context.Context, ev intake.Event, sess intake.Session, log *zap.Logger) (intake.Reply, *intake.Submission) {
	event := eventAccept
	if d.can(sess.State, eventFinish) {
		event = eventFinish
	}
	st, ok := d.steps[sess.State]
	if !ok || !d.can(sess.State, event) {
		log.Warn("session in unknown state, resetting", zap.String("state", string(sess.State)))
		d.sessions.Clear(ctx, ev.UserID)
		return unrecognized, nil
	}

	value, accepted := st.validate(ev.Text)
	if !accepted {
		return st.rejected, nil
	}

	state, err := d.fire(ctx, sess.State, event)
	if err != nil {
		panic(err)
	}
	next := sess.With(st.field, value)
	next.State = state

	if next.IsIdle() {
		sub := d.finalize(ev, next)
		d.sessions.Clear(ctx, ev.UserID)
		log.Info("form completed", zap.String("submission_id", sub.ID))
		return confirmation(sub), &sub
	}

	d.sessions.Put(ctx, ev.UserID, next)
	return st.prompt(next), nil
}

func (d *Dispatcher) can(state intake.State, event string) bool {
	return fsm.NewFSM(string(state), d.events, fsm.Callbacks{}).Can(event)
}

func (d *Dispatcher) finalize(ev intake.Event, sess intake.Session) intake.Submission {
	return intake.Submission{
		ID:          d.newID(),
		Name:        sess.Fields[intake.FieldName],
		Phone:       sess.Fields[intake.FieldPhone],
		Message:     sess.Fields[intake.FieldMessage],
		UserID:      ev.UserID,
		DisplayName: ev.DisplayName,
		Handle:      ev.Handle,
		SubmittedAt: d.now(),
	}
}

// info answers with a content entry. With priorityOnly set, only entries
// that answer in every state match.
func (d *Dispatcher) info(ev intake.Event, text string, priorityOnly bool) (intake.Reply, bool) {
	if d.content == nil {
		return intake.Reply{}, false
	}
	entry, ok := d.content.Match(text)
	if !ok || (priorityOnly && !entry.Priority) {
		return intake.Reply{}, false
	}

	reply, err := entry.Render(content.Data{Name: displayName(ev)})
	if err != nil {
		d.logger.Error("failed to render content", zap.String("key", entry.Key), zap.Error(err))
		return intake.Reply{}, false
	}
	return reply, true
}

func displayName(ev intake.Event) string {
	switch {
	case ev.DisplayName != "":
		return ev.DisplayName
	case ev.Handle != "":
		return ev.Handle
	default:
		return "гость"
	}
}

func keywordSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			set[kw] = struct{}{}
		}
	}
	return set
}
