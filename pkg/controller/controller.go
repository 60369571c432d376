// Package controller drives a batch of crop sessions from a stream of key
// events.
//
// The controller is a two-state machine built with statekit. It stays in
// "browsing" while commands move, zoom and rotate the crop of the current
// photo, change the current photo or save every photo, and ends in the final
// "closed" state on quit. Key releases are ignored.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/felixgeelhaar/statekit"
	"golang.org/x/mobile/event/key"

	"github.com/menta2k/trombinoscope/internal/logging"
	"github.com/menta2k/trombinoscope/pkg/session"
)

// ErrNoSessions is returned by New for an empty batch.
var ErrNoSessions = errors.New("no photos to edit")

const (
	stateBrowsing statekit.StateID = "browsing"
	stateClosed   statekit.StateID = "closed"
)

const (
	eventMove     statekit.EventType = "MOVE"
	eventZoom     statekit.EventType = "ZOOM"
	eventRotate   statekit.EventType = "ROTATE"
	eventNavigate statekit.EventType = "NAVIGATE"
	eventSave     statekit.EventType = "SAVE"
	eventQuit     statekit.EventType = "QUIT"
)

// EventFor returns the state machine event a command kind is sent as.
func EventFor(k Kind) statekit.EventType {
	switch k {
	case Move:
		return eventMove
	case Zoom:
		return eventZoom
	case Rotate:
		return eventRotate
	case Navigate:
		return eventNavigate
	case Save:
		return eventSave
	default:
		return eventQuit
	}
}

// EventSource yields key events one at a time, blocking until the next one.
// io.EOF ends the loop like a quit command.
type EventSource interface {
	NextEvent() (key.Event, error)
}

// Display shows the current photo after every handled command.
type Display interface {
	Show(s *session.Session, index, total int) error
}

// SaveHook runs after every session has been persisted.
type SaveHook func(sessions []*session.Session) error

// Context is the extended state of the machine.
type Context struct {
	Sessions    []*session.Session
	Index       int
	BaseStep    int
	Multipliers Multipliers

	OnSave  SaveHook
	SaveErr error
	Saves   int

	Log *bolt.Logger
}

// Current returns the session at the cursor.
func (c *Context) Current() *session.Session {
	if c == nil || len(c.Sessions) == 0 {
		return nil
	}
	return c.Sessions[c.Index]
}

// SaveAll persists every session in order. A failure is logged and the
// remaining sessions are still persisted; all failures are joined.
func (c *Context) SaveAll() error {
	var errs []error
	for i, s := range c.Sessions {
		if err := s.Persist(); err != nil {
			logging.NewEvent(c.Log.Error()).Add(logging.Path(s.Path()), logging.Index(i), logging.ErrorField(err)).Msg("failed to save crop")
			errs = append(errs, err)
			continue
		}
		r := s.Rect()
		logging.NewEvent(c.Log.Debug()).Add(logging.Path(s.Path()), logging.Crop(r.X, r.Y, r.W), logging.Rotation(int(s.Rotation()))).Msg("crop saved")
	}

	if c.OnSave != nil {
		if err := c.OnSave(c.Sessions); err != nil {
			logging.NewEvent(c.Log.Error()).Add(logging.ErrorField(err)).Msg("post-save hook failed")
			errs = append(errs, err)
		}
	}

	c.Saves++
	c.SaveErr = errors.Join(errs...)
	return c.SaveErr
}

// payload travels with every machine event.
type payload struct {
	Command
	Mods key.Modifiers
}

func unpack(ctx **Context, e statekit.Event) (*Context, payload, bool) {
	if ctx == nil || *ctx == nil {
		return nil, payload{}, false
	}
	p, ok := e.Payload.(payload)
	return *ctx, p, ok
}

func applyMutation(ctx **Context, e statekit.Event) {
	c, p, ok := unpack(ctx, e)
	if !ok {
		return
	}
	c.Current().Mutate(p.Direction, StepSize(c.BaseStep, p.Mods, c.Multipliers))
}

func applyRotation(ctx **Context, e statekit.Event) {
	c, p, ok := unpack(ctx, e)
	if !ok {
		return
	}
	if p.Delta < 0 {
		c.Current().RotateLeft()
	} else {
		c.Current().RotateRight()
	}
}

func applyNavigation(ctx **Context, e statekit.Event) {
	c, p, ok := unpack(ctx, e)
	if !ok {
		return
	}
	c.Index = max(0, min(c.Index+p.Delta, len(c.Sessions)-1))
}

func applySave(ctx **Context, _ statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).SaveAll()
}

func guardHasSession(ctx *Context, _ statekit.Event) bool {
	return ctx.Current() != nil
}

// NewMachine builds the controller state machine.
func NewMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("crop-controller").
		WithInitial(stateBrowsing).
		WithContext(&Context{}).
		WithAction("mutate", applyMutation).
		WithAction("rotate", applyRotation).
		WithAction("navigate", applyNavigation).
		WithAction("save", applySave).
		WithGuard("hasSession", guardHasSession).
		State(stateBrowsing).
		On(eventMove).Target(stateBrowsing).Guard("hasSession").Do("mutate").
		On(eventZoom).Target(stateBrowsing).Guard("hasSession").Do("mutate").
		On(eventRotate).Target(stateBrowsing).Guard("hasSession").Do("rotate").
		On(eventNavigate).Target(stateBrowsing).Guard("hasSession").Do("navigate").
		On(eventSave).Target(stateBrowsing).Do("save").
		On(eventQuit).Target(stateClosed).
		Done().
		State(stateClosed).
		Final().
		Done().
		Build()
}

// Options configures a Controller.
type Options struct {
	BaseStep    int
	Multipliers Multipliers
	Keymap      Keymap
	Display     Display
	OnSave      SaveHook
	Logger      *bolt.Logger
}

// DefaultOptions returns the default step size, multipliers and keymap.
func DefaultOptions() Options {
	return Options{
		BaseStep:    DefaultBaseStep,
		Multipliers: DefaultMultipliers(),
		Keymap:      DefaultKeymap(),
	}
}

// Controller edits a batch of sessions.
type Controller struct {
	interp  *statekit.Interpreter[*Context]
	ctx     *Context
	keymap  Keymap
	display Display
	log     *bolt.Logger
}

// New starts a controller on the first session. Zero options fall back to
// the defaults.
func New(sessions []*session.Session, opts Options) (*Controller, error) {
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}
	if opts.BaseStep <= 0 {
		opts.BaseStep = DefaultBaseStep
	}
	if opts.Multipliers == (Multipliers{}) {
		opts.Multipliers = DefaultMultipliers()
	}
	if opts.Keymap == nil {
		opts.Keymap = DefaultKeymap()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Get()
	}

	machine, err := NewMachine()
	if err != nil {
		return nil, fmt.Errorf("failed to build controller state machine: %w", err)
	}

	ctx := &Context{
		Sessions:    sessions,
		BaseStep:    opts.BaseStep,
		Multipliers: opts.Multipliers,
		OnSave:      opts.OnSave,
		Log:         opts.Logger,
	}

	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	interp.Start()

	return &Controller{
		interp:  interp,
		ctx:     ctx,
		keymap:  opts.Keymap,
		display: opts.Display,
		log:     opts.Logger,
	}, nil
}

// Handle applies one key event. It reports whether the controller is still
// accepting events.
func (c *Controller) Handle(e key.Event) bool {
	if c.Closed() {
		return false
	}
	if e.Direction != key.DirPress {
		return true
	}
	cmd, ok := c.keymap.Lookup(e)
	if !ok {
		return true
	}

	c.Send(cmd, e.Modifiers)
	return !c.Closed()
}

// Send dispatches a command as if its key had been pressed with mods.
func (c *Controller) Send(cmd Command, mods key.Modifiers) {
	if c.Closed() {
		return
	}
	c.interp.Send(statekit.Event{
		Type:    EventFor(cmd.Kind),
		Payload: payload{Command: cmd, Mods: mods},
	})
	logging.NewEvent(c.log.Debug()).Add(logging.Action(cmd.String()), logging.Index(c.ctx.Index)).Msg("command handled")

	if !c.Closed() {
		c.show()
	}
}

func (c *Controller) show() {
	if c.display == nil {
		return
	}
	if err := c.display.Show(c.ctx.Current(), c.ctx.Index, len(c.ctx.Sessions)); err != nil {
		logging.NewEvent(c.log.Warn()).Add(logging.ErrorField(err)).Msg("failed to display photo")
	}
}

// Run shows the first photo and handles events until quit, the end of the
// source or the cancellation of ctx.
func (c *Controller) Run(ctx context.Context, src EventSource) error {
	c.show()
	for !c.Closed() {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := src.NextEvent()
		if errors.Is(err, io.EOF) {
			c.Close()
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input event: %w", err)
		}
		c.Handle(e)
	}
	return nil
}

// Close moves the controller to its final state. Nothing is persisted.
func (c *Controller) Close() {
	c.Send(cmdQuit, 0)
}

// Closed reports whether quit has been handled.
func (c *Controller) Closed() bool { return c.interp.Done() }

// State returns the name of the current machine state.
func (c *Controller) State() string { return string(c.interp.State().Value) }

// Index returns the position of the current photo.
func (c *Controller) Index() int { return c.ctx.Index }

// Current returns the session being edited.
func (c *Controller) Current() *session.Session { return c.ctx.Current() }

// Sessions returns the whole batch in order.
func (c *Controller) Sessions() []*session.Session {
	return c.ctx.Sessions
}

// SaveErr returns the result of the last save.
func (c *Controller) SaveErr() error { return c.ctx.SaveErr }

// SaveAll persists every session and runs the save hook. Callers use it to
// flush edits when the loop ends.
func (c *Controller) SaveAll() error { return c.ctx.SaveAll() }
