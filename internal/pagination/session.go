package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultIdleTimeout = 60 * time.Second

var ErrNoPages = errors.New("pagination source has no pages")

type Action int

const (
	ActionPrevious Action = iota + 1
	ActionNext
)

func (a Action) String() string {
	switch a {
	case ActionPrevious:
		return "previous"
	case ActionNext:
		return "next"
	default:
		return "unknown"
	}
}

type Event struct {
	ActorID string
	Action  Action
}

// NavigationError is a page move that failed inside one session. The page
// shown is unchanged.
type NavigationError struct {
	SessionID string
	Action    Action
	Page      int
	Err       error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("session %s: %s to page %d: %v", e.SessionID, e.Action, e.Page, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

type State int

const (
	StateActive State = iota
	StateExpired
)

// Renderer shows a page in the message hosting the session.
type Renderer interface {
	Render(ctx context.Context, page Page) error
}

// Observer receives session lifecycle notifications.
type Observer interface {
	SessionStarted()
	SessionExpired()
	PageTurned()
}

type SessionOptions struct {
	IdleTimeout time.Duration
	// OnExpire runs once, after the session has expired.
	OnExpire func(*Session)
	Observer Observer
	Logger   *zap.Logger
}

// Session is one paginated message owned by a single chat user. It stays
// Active until no owner event arrives for IdleTimeout, then it is Expired for
// good.
type Session struct {
	id       string
	ownerID  string
	source   Source
	renderer Renderer
	idle     time.Duration
	onExpire func(*Session)
	observer Observer
	logger   *zap.Logger

	mu         sync.Mutex
	index      int
	state      State
	started    bool
	timer      *time.Timer
	generation uint64
}

func NewSession(ownerID string, source Source, renderer Renderer, opts SessionOptions) *Session {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	id := uuid.NewString()
	return &Session{
		id:       id,
		ownerID:  ownerID,
		source:   source,
		renderer: renderer,
		idle:     opts.IdleTimeout,
		onExpire: opts.OnExpire,
		observer: opts.Observer,
		logger:   opts.Logger.With(zap.String("session", id), zap.String("owner", ownerID)),
	}
}

func (s *Session) ID() string      { return s.id }
func (s *Session) OwnerID() string { return s.ownerID }

func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start renders page 0 and arms the idle timer.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("session %s already started", s.id)
	}

	page, ok, err := s.source.Page(ctx, 0)
	if err != nil {
		return fmt.Errorf("load first page: %w", err)
	}
	if !ok {
		return ErrNoPages
	}
	if err := s.renderer.Render(ctx, page); err != nil {
		return fmt.Errorf("render first page: %w", err)
	}

	s.started = true
	s.armLocked()
	if s.observer != nil {
		s.observer.SessionStarted()
	}
	s.logger.Debug("pagination session started")
	return nil
}

// Handle applies a navigation event. It reports whether the current page
// changed. Events from anyone but the owner, and every event once expired,
// are ignored.
func (s *Session) Handle(ctx context.Context, event Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.state == StateExpired || event.ActorID != s.ownerID {
		return false, nil
	}
	s.armLocked()

	var target int
	switch event.Action {
	case ActionNext:
		target = s.index + 1
	case ActionPrevious:
		if s.index == 0 {
			return false, nil
		}
		target = s.index - 1
	default:
		return false, nil
	}

	page, ok, err := s.source.Page(ctx, target)
	if err != nil {
		return false, &NavigationError{SessionID: s.id, Action: event.Action, Page: target, Err: fmt.Errorf("load page: %w", err)}
	}
	if !ok {
		return false, nil
	}
	if err := s.renderer.Render(ctx, page); err != nil {
		return false, &NavigationError{SessionID: s.id, Action: event.Action, Page: target, Err: fmt.Errorf("render page: %w", err)}
	}

	s.index = target
	if s.observer != nil {
		s.observer.PageTurned()
	}
	return true, nil
}

// Expire ends the session immediately, as if the idle timer had fired.
func (s *Session) Expire() {
	s.expire(0, true)
}

func (s *Session) armLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.generation++
	generation := s.generation
	s.timer = time.AfterFunc(s.idle, func() { s.expire(generation, false) })
}

// expire is a no-op when generation is stale, which happens when an event
// re-armed the timer while this callback was waiting for the lock.
func (s *Session) expire(generation uint64, force bool) {
	s.mu.Lock()
	if s.state == StateExpired || (!force && generation != s.generation) {
		s.mu.Unlock()
		return
	}
	s.state = StateExpired
	started := s.started
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.logger.Debug("pagination session expired")
	if started && s.observer != nil {
		s.observer.SessionExpired()
	}
	if s.onExpire != nil {
		s.onExpire(s)
	}
}
