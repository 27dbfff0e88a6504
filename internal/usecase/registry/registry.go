package usecase_registry

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suprdory/filmvote/core/internal/model"
	usecase_session "github.com/suprdory/filmvote/core/internal/usecase/session"
)

const codeLen = 6

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Registry is the single authority mapping share codes to live sessions.
// Sessions are fully independent of each other; the registry lock guards
// only the map itself.
type Registry struct {
	mu       sync.Mutex
	sessions map[model.SessionCode]*usecase_session.Session

	idleTTL     time.Duration
	sessionOpts []usecase_session.Option

	rng    *rand.Rand
	logger *slog.Logger
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(r *Registry) {
		r.rng = rng
	}
}

// WithSessionOptions forwards options to every session the registry creates.
func WithSessionOptions(opts ...usecase_session.Option) Option {
	return func(r *Registry) {
		r.sessionOpts = opts
	}
}

func New(idleTTL time.Duration, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[model.SessionCode]*usecase_session.Session),
		idleTTL:  idleTTL,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the live session under code, creating an empty one if
// none exists. An empty code asks for a fresh collision-checked code. A
// finished-and-expired session counts as absent. The returned bool reports
// whether the session was created by this call.
func (r *Registry) GetOrCreate(code model.SessionCode) (*usecase_session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if code == model.EmptySessionCode {
		code = r.freshCode()
	} else if s, ok := r.sessions[code]; ok {
		if !s.Expired(r.idleTTL) {
			return s, false
		}
		delete(r.sessions, code)
	}

	s := usecase_session.New(code, uuid.New().String(), r.sessionOpts...)
	r.sessions[code] = s
	r.logger.Info("session created", "code", code)
	return s, true
}

// Get looks a session up without creating one.
func (r *Registry) Get(code model.SessionCode) (*usecase_session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[code]
	if !ok || s.Expired(r.idleTTL) {
		return nil, false
	}
	return s, true
}

// Sweep drops sessions with no attached connections that finished or idled
// past the TTL.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for code, s := range r.sessions {
		if s.Expired(r.idleTTL) {
			delete(r.sessions, code)
			dropped++
		}
	}
	if dropped > 0 {
		r.logger.Info("swept expired sessions", "count", dropped)
	}
	return dropped
}

// RunSweeper sweeps on a fixed interval until ctx is cancelled.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// freshCode is called with the registry lock held.
func (r *Registry) freshCode() model.SessionCode {
	for {
		var builder strings.Builder
		builder.Grow(codeLen)
		for i := 0; i < codeLen; i++ {
			builder.WriteByte(codeAlphabet[r.rng.Intn(len(codeAlphabet))])
		}
		code := model.SessionCode(builder.String())
		if _, taken := r.sessions[code]; !taken {
			return code
		}
	}
}
