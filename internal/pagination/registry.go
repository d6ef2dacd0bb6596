package pagination

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MessageRenderer is a Renderer bound to one chat message. MessageID is
// known once the first page has been rendered.
type MessageRenderer interface {
	Renderer
	MessageID() string
}

// Registry routes navigation events to live sessions by message ID.
type Registry struct {
	idle     time.Duration
	observer Observer
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

type RegistryOptions struct {
	IdleTimeout time.Duration
	Observer    Observer
	Logger      *zap.Logger
}

func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Registry{
		idle:     opts.IdleTimeout,
		observer: opts.Observer,
		logger:   opts.Logger,
		sessions: map[string]*Session{},
	}
}

// Open starts a session owned by ownerID and registers it under the message
// the renderer wrote page 0 to. The session deregisters itself on expiry.
func (r *Registry) Open(ctx context.Context, ownerID string, source Source, renderer MessageRenderer) (*Session, error) {
	session := NewSession(ownerID, source, renderer, SessionOptions{
		IdleTimeout: r.idle,
		OnExpire:    func(s *Session) { r.remove(renderer.MessageID(), s) },
		Observer:    r.observer,
		Logger:      r.logger,
	})
	if err := session.Start(ctx); err != nil {
		return nil, err
	}

	messageID := renderer.MessageID()
	r.mu.Lock()
	r.sessions[messageID] = session
	r.mu.Unlock()
	r.logger.Debug("pagination session registered",
		zap.String("session", session.ID()),
		zap.String("message", messageID),
		zap.String("owner", ownerID),
	)

	// The timer may have fired before the session was stored.
	if session.State() == StateExpired {
		r.remove(messageID, session)
	}

	return session, nil
}

// Dispatch forwards event to the session hosted by messageID. It reports
// whether such a session exists.
func (r *Registry) Dispatch(ctx context.Context, messageID string, event Event) (bool, error) {
	r.mu.Lock()
	session, ok := r.sessions[messageID]
	r.mu.Unlock()
	if !ok {
		return false, nil
	}

	changed, err := session.Handle(ctx, event)
	r.logger.Debug("pagination event dispatched",
		zap.String("session", session.ID()),
		zap.String("message", messageID),
		zap.String("actor", event.ActorID),
		zap.Stringer("action", event.Action),
		zap.Bool("changed", changed),
	)
	return true, err
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close expires every live session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.Unlock()

	for _, session := range sessions {
		session.Expire()
	}
}

func (r *Registry) remove(messageID string, session *Session) {
	r.mu.Lock()
	removed := r.sessions[messageID] == session
	if removed {
		delete(r.sessions, messageID)
	}
	r.mu.Unlock()

	if removed {
		r.logger.Debug("pagination session removed",
			zap.String("session", session.ID()),
			zap.String("message", messageID),
		)
	}
}
