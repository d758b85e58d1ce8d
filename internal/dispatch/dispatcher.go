package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/fumo/internal/audit"
	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/command"
	"github.com/mattjoyce/fumo/internal/cooldown"
	"github.com/mattjoyce/fumo/internal/events"
	"github.com/mattjoyce/fumo/internal/log"
	"github.com/mattjoyce/fumo/internal/permission"
)

const (
	// GenericFault is sent when a command fails unexpectedly.
	GenericFault = "FeelsDankMan something broke!"

	diagnosticFaultPrefix = "FeelsDankMan -> "
)

// ErrCancelled is returned when the caller's context ends mid-dispatch.
var ErrCancelled = errors.New("dispatch cancelled")

var errTimedOut = errors.New("command timed out")

// Deps are the dispatcher's collaborators. Registry, Settings, Cooldowns,
// Audit and Sender are required.
type Deps struct {
	Registry  *command.Registry
	Settings  Settings
	Cooldowns *cooldown.Manager
	Filter    ContentFilter
	Audit     AuditSink
	Sender    chat.Sender
	Events    *events.Hub
	// Capabilities are handed to every command factory.
	Capabilities command.Capabilities
	Logger       *slog.Logger
}

// Options tune the dispatcher.
type Options struct {
	GlobalPrefix string
	// CommandTimeout bounds a single command execution. Zero disables it.
	CommandTimeout time.Duration
	// MaxConcurrent bounds the dispatches Start runs at once.
	MaxConcurrent int
	// SelfUserID is the bot's own user id. Its messages are ignored.
	SelfUserID string
}

// Dispatcher runs the command pipeline. It is safe for concurrent use.
type Dispatcher struct {
	registry  *command.Registry
	settings  Settings
	prefixes  *Resolver
	cooldowns *cooldown.Manager
	filter    ContentFilter
	audit     AuditSink
	sender    chat.Sender
	events    *events.Hub
	caps      command.Capabilities
	opts      Options
	logger    *slog.Logger

	newID func() string
	now   func() time.Time
}

// New creates a Dispatcher.
func New(deps Deps, opts Options) (*Dispatcher, error) {
	switch {
	case deps.Registry == nil:
		return nil, fmt.Errorf("dispatch: registry is required")
	case deps.Settings == nil:
		return nil, fmt.Errorf("dispatch: settings are required")
	case deps.Cooldowns == nil:
		return nil, fmt.Errorf("dispatch: cooldown manager is required")
	case deps.Audit == nil:
		return nil, fmt.Errorf("dispatch: audit sink is required")
	case deps.Sender == nil:
		return nil, fmt.Errorf("dispatch: sender is required")
	case opts.GlobalPrefix == "":
		return nil, fmt.Errorf("dispatch: global prefix is empty")
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.WithComponent("dispatch")
	}
	caps := deps.Capabilities
	caps.Registry = deps.Registry
	if caps.Logger == nil {
		caps.Logger = logger
	}

	return &Dispatcher{
		registry:  deps.Registry,
		settings:  deps.Settings,
		prefixes:  NewResolver(deps.Settings, opts.GlobalPrefix),
		cooldowns: deps.Cooldowns,
		filter:    deps.Filter,
		audit:     deps.Audit,
		sender:    deps.Sender,
		events:    deps.Events,
		caps:      caps,
		opts:      opts,
		logger:    logger,
		newID:     uuid.NewString,
		now:       time.Now,
	}, nil
}

// Start reads messages from src and dispatches each in its own goroutine,
// at most MaxConcurrent at a time. It returns once src is exhausted or ctx
// is done, after in-flight dispatches finish.
func (d *Dispatcher) Start(ctx context.Context, src chat.Source) error {
	d.logger.Info("dispatch loop started", "max_concurrent", d.opts.MaxConcurrent)
	defer d.logger.Info("dispatch loop stopped")

	var wg sync.WaitGroup
	defer wg.Wait()

	slots := make(chan struct{}, d.opts.MaxConcurrent)
	for {
		msg, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("read message: %w", err)
		}

		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		wg.Add(1)
		go func(msg chat.Message) {
			defer wg.Done()
			defer func() { <-slots }()
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("dispatch panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
				}
			}()
			if err := d.OnMessage(ctx, msg); err != nil && !errors.Is(err, ErrCancelled) {
				d.logger.Error("dispatch failed", "channel", msg.Channel.Name, "error", err)
			}
		}(msg)
	}
}

// OnMessage runs the full pipeline for one message and sends the result.
func (d *Dispatcher) OnMessage(ctx context.Context, msg chat.Message) error {
	if len(msg.Tokens) == 0 {
		return nil
	}
	if d.opts.SelfUserID != "" && msg.User.ID == d.opts.SelfUserID {
		return nil
	}

	prefix, err := d.prefixes.Resolve(ctx, msg.Channel)
	if err != nil {
		return d.abort(ctx, err)
	}
	identifier, args, ok := Parse(msg.Tokens, prefix)
	if !ok {
		return nil
	}

	res, err := d.TryExecute(ctx, msg, identifier, args)
	if err != nil || res == nil || res.Message == "" {
		return err
	}

	if err := d.sender.Send(ctx, msg.Channel.Name, res.Message, res.ReplyID); err != nil {
		return d.abort(ctx, fmt.Errorf("send result: %w", err))
	}
	return nil
}

// TryExecute runs identifier with args on behalf of msg. A nil result with a
// nil error means the invocation was silently rejected.
func (d *Dispatcher) TryExecute(ctx context.Context, msg chat.Message, identifier string, args []string) (*command.Result, error) {
	inst, release, ok := d.registry.CreateInvocation(identifier, d.caps)
	if !ok {
		return nil, nil
	}
	def := inst.Definition

	start := d.now()
	rec := audit.Record{
		ID:        d.newID(),
		Command:   def.Name(),
		ChannelID: msg.Channel.ID,
		UserID:    msg.User.ID,
		Input:     slices.Clone(args),
		CreatedAt: start,
	}
	logger := d.logger.With(
		"invocation_id", rec.ID, "command", def.Name(), "channel", msg.Channel.Name, "user", msg.User.Name)

	var (
		cancelled bool
		blocked   string
	)
	defer func() {
		rec.Duration = d.now().Sub(start)
		release()
		if cancelled || rec.Result == "" {
			return
		}
		if err := d.audit.Persist(ctx, rec); err != nil {
			logger.Error("persist audit record failed", "error", err)
		}
		d.publish(rec, msg, blocked)
	}()

	user, err := d.settings.User(ctx, msg.User.ID, msg.User.Name)
	if err != nil {
		return nil, d.abort(ctx, fmt.Errorf("load user %s: %w", msg.User.ID, err))
	}
	inv := &command.Invocation{
		ID:         rec.ID,
		Identifier: identifier,
		Channel:    msg.Channel,
		User:       user,
		Args:       args,
		Message:    msg,
	}

	for _, mw := range def.Middleware {
		veto, err := d.check(ctx, mw, inv)
		if ctx.Err() != nil {
			cancelled = true
			return nil, d.abort(ctx, ctx.Err())
		}
		if err != nil {
			return d.fault(logger, &rec, user, err), nil
		}
		if veto != "" {
			rec.Success = true
			rec.Result = veto
			return &command.Result{Message: veto}, nil
		}
	}

	if !permission.Allowed(user, def, msg.IsModerator(), msg.IsBroadcaster()) {
		return nil, nil
	}
	if !d.cooldowns.Reserve(user.ID, def.Name()) {
		return nil, nil
	}
	committed := false
	defer func() {
		if !committed {
			d.cooldowns.Cancel(user.ID, def.Name())
		}
	}()

	logger.Debug("executing command")
	res, err := d.execute(ctx, logger, inst.Command, inv)
	if ctx.Err() != nil {
		cancelled = true
		return nil, d.abort(ctx, ctx.Err())
	}
	if err != nil {
		return d.fault(logger, &rec, user, err), nil
	}

	rec.Success = true
	rec.Result = res.Message
	if rec.Result == "" {
		rec.Result = audit.NoResponse
	}
	d.cooldowns.Commit(user.ID, def.Name(), def.Cooldown)
	committed = true

	if res.Message != "" && d.filter != nil {
		filtered, err := d.filter.Apply(ctx, def, res.Message, msg.Channel)
		if err != nil {
			cancelled = true
			return nil, d.abort(ctx, err)
		}
		if filtered.Blocked {
			blocked = filtered.Reason
			logger.Info("result blocked by content filter", "reason", filtered.Reason)
		}
		res.Message = filtered.Text
	}

	if def.Flags.Has(command.FlagReply) {
		res.ReplyID = msg.Privmsg.ID
	}
	return &res, nil
}

// execute runs cmd under the command timeout, turning panics into errors.
func (d *Dispatcher) execute(ctx context.Context, logger *slog.Logger, cmd command.Command, inv *command.Invocation) (res command.Result, err error) {
	execCtx := ctx
	if d.opts.CommandTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, d.opts.CommandTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("command panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	res, err = cmd.Execute(execCtx, inv)
	if err != nil && ctx.Err() == nil && errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return command.Result{}, fmt.Errorf("%w after %s", errTimedOut, d.opts.CommandTimeout)
	}
	return res, err
}

func (d *Dispatcher) check(ctx context.Context, mw command.Middleware, inv *command.Invocation) (veto string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("middleware panic: %v", r)
		}
	}()
	return mw.Check(ctx, inv)
}

// fault classifies err into the text sent to chat and records it.
func (d *Dispatcher) fault(logger *slog.Logger, rec *audit.Record, user chat.User, err error) *command.Result {
	kind := command.KindOf(err).String()
	text := err.Error()
	rec.Success = false
	rec.Result = text
	if text == "" {
		// Failed invocations always leave a chat reply and an audit row.
		rec.Result = "(" + kind + ")"
	}
	if command.IsExpected(err) {
		logger.Debug("command failed", "kind", kind, "error", err)
		if text == "" {
			return &command.Result{Message: GenericFault}
		}
		return &command.Result{Message: text}
	}

	logger.Error("command execution failed", "error", err)
	if text != "" && user.HasPermission(command.PermissionChatError) {
		return &command.Result{Message: diagnosticFaultPrefix + text}
	}
	return &command.Result{Message: GenericFault}
}

// abort maps err to ErrCancelled when ctx is done.
func (d *Dispatcher) abort(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
	}
	return err
}

func (d *Dispatcher) publish(rec audit.Record, msg chat.Message, blocked string) {
	if d.events == nil {
		return
	}
	eventType := events.TypeCommandExecuted
	switch {
	case !rec.Success:
		eventType = events.TypeCommandFailed
	case blocked != "":
		eventType = events.TypeCommandBlocked
	}
	d.events.Publish(eventType, events.CommandOutcome{
		InvocationID: rec.ID,
		Command:      rec.Command,
		Channel:      msg.Channel.Name,
		User:         msg.User.Name,
		Success:      rec.Success,
		DurationMS:   rec.Duration.Milliseconds(),
		Reason:       blocked,
	})
}
