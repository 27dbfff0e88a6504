package usecase_session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/suprdory/filmvote/core/internal/model"
)

var (
	ErrVoteInProgress  = errors.New("voting already started")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrUnknownFilm     = errors.New("film not in pool")
	ErrUnknownGroup    = errors.New("no such group")
	ErrNotEnoughFilms  = errors.New("need at least two films")
	ErrNoPlayers       = errors.New("no players in session")
	ErrInvalidHostID   = errors.New("invalid host id")
	ErrInvalidPlayerID = errors.New("invalid player id")
	ErrNotHost         = errors.New("host-only operation")
	ErrUnknownPlayer   = errors.New("no such player")
	ErrVoteFinished    = errors.New("voting already finished")
	ErrVoteNotStarted  = errors.New("voting not started")
)

//go:generate mockery --name=Archiver --output=./mocks/archiver --filename=archiver.go
type Archiver interface {
	Record(ctx context.Context, code model.SessionCode, winner model.Film, startedAt, finishedAt time.Time) error
}

// Session owns one vote from lobby to finish. Every exported operation takes
// the single mutex for its whole duration; nothing blocks under it, so
// commands from concurrent connections apply atomically in arrival order.
type Session struct {
	mu sync.Mutex

	code   model.SessionCode
	hostID string

	roster     []*model.Player
	pool       []model.Film
	eliminated []string

	status          string
	style           model.VoteStyle
	hybridThreshold int

	current int
	groupA  []model.Film
	groupB  []model.Film

	hostConnected bool
	attached      int
	lastActive    time.Time

	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
	winner     *model.Film

	rng      *rand.Rand
	archiver Archiver
	logger   *slog.Logger
}

type Option func(*Session)

func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.rng = rng
	}
}

func WithArchiver(a Archiver) Option {
	return func(s *Session) {
		s.archiver = a
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func New(code model.SessionCode, hostID string, opts ...Option) *Session {
	now := time.Now()
	s := &Session{
		code:       code,
		hostID:     hostID,
		status:     model.StatusLobby,
		rng:        rand.New(rand.NewSource(now.UnixNano())),
		logger:     slog.Default(),
		createdAt:  now,
		lastActive: now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Code() model.SessionCode {
	return s.code
}

// HostID is the reconnection token handed to the session creator. It never
// appears in snapshots.
func (s *Session) HostID() string {
	return s.hostID
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Join adds a new player in the lobby, or reconnects an existing one at any
// time. The returned bool reports whether this was a reconnection.
func (s *Session) Join(name string, existing model.PlayerID) (model.PlayerID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if existing != model.EmptyPlayerID {
		for _, p := range s.roster {
			if p.ID == existing {
				p.Connected = true
				if name != "" && name != p.Name {
					p.Name = name
				}
				return p.ID, true, nil
			}
		}
		// Token presented but nobody holds it. After a kick or an expired
		// session the client falls through to a fresh join, which the state
		// check below arbitrates.
		if s.status != model.StatusLobby {
			return model.EmptyPlayerID, false, ErrInvalidPlayerID
		}
	}

	if s.status != model.StatusLobby {
		return model.EmptyPlayerID, false, ErrVoteInProgress
	}

	id := s.newPlayerID()
	s.roster = append(s.roster, &model.Player{
		ID:        id,
		Name:      name,
		Connected: true,
	})
	return id, false, nil
}

func (s *Session) HostReconnect(hostID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if hostID == "" || hostID != s.hostID {
		return ErrInvalidHostID
	}
	s.hostConnected = true
	return nil
}

func (s *Session) MarkHostConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.hostConnected = connected
}

func (s *Session) MarkDisconnected(id model.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for _, p := range s.roster {
		if p.ID == id {
			p.Connected = false
			return
		}
	}
}

// Reorder replaces the turn rotation wholesale. Restricted to the lobby:
// moving players under a live turn pointer would silently reassign turns.
func (s *Session) Reorder(callerIsHost bool, order []model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if !callerIsHost {
		return ErrNotHost
	}
	if s.status != model.StatusLobby {
		return ErrVoteInProgress
	}
	if len(order) != len(s.roster) {
		return ErrUnknownPlayer
	}

	byID := make(map[model.PlayerID]*model.Player, len(s.roster))
	for _, p := range s.roster {
		byID[p.ID] = p
	}

	reordered := make([]*model.Player, 0, len(order))
	for _, id := range order {
		p, ok := byID[id]
		if !ok {
			return ErrUnknownPlayer
		}
		reordered = append(reordered, p)
		delete(byID, id)
	}

	s.roster = reordered
	return nil
}

// Kick removes a player. If the vote is running and the removed player held
// the turn, the pointer lands on the next roster entry (modulo the shrunken
// roster). Returns the removed player so the caller can notify them.
func (s *Session) Kick(callerIsHost bool, id model.PlayerID) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if !callerIsHost {
		return model.Player{}, ErrNotHost
	}

	idx := -1
	for i, p := range s.roster {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Player{}, ErrUnknownPlayer
	}

	kicked := *s.roster[idx]
	s.roster = append(s.roster[:idx], s.roster[idx+1:]...)

	if s.status == model.StatusVoting {
		if idx < s.current {
			s.current--
		}
		if len(s.roster) > 0 {
			s.current %= len(s.roster)
		} else {
			s.current = 0
		}
	}

	return kicked, nil
}

// Start freezes the roster, takes ownership of the selected films and begins
// the vote. The pool is shuffled once so elimination order does not mirror
// the host's selection order.
func (s *Session) Start(callerIsHost bool, films []model.Film, style model.VoteStyle, hybridThreshold int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if !callerIsHost {
		return ErrNotHost
	}
	switch s.status {
	case model.StatusVoting:
		return ErrVoteInProgress
	case model.StatusFinished:
		return ErrVoteFinished
	}
	if len(s.roster) < 1 {
		return ErrNoPlayers
	}

	pool := dedupeFilms(films)
	if len(pool) < 2 {
		return ErrNotEnoughFilms
	}
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	s.pool = pool
	s.eliminated = nil
	s.style = style
	s.hybridThreshold = hybridThreshold
	s.current = 0
	s.status = model.StatusVoting
	s.startedAt = time.Now()
	s.winner = nil

	if s.groupedActive() {
		s.partition()
	}

	s.logger.Info("vote started",
		"session", s.code,
		"films", len(s.pool),
		"players", len(s.roster),
		"style", s.style)

	return nil
}

// EliminateOne removes a single film. Only the current player may act, and
// only while one-by-one rules apply.
func (s *Session) EliminateOne(caller model.PlayerID, film model.FilmID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.checkTurn(caller); err != nil {
		return err
	}
	if s.groupedActive() {
		return ErrUnknownFilm
	}

	idx := -1
	for i, f := range s.pool {
		if f.Key() == film {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrUnknownFilm
	}

	s.eliminated = append(s.eliminated, s.pool[idx].Title)
	s.pool = append(s.pool[:idx], s.pool[idx+1:]...)

	if len(s.pool) == 1 {
		s.finish()
		return nil
	}
	s.current = (s.current + 1) % len(s.roster)
	return nil
}

// EliminateGroup removes one whole half of the current partition, then
// re-evaluates the mode (hybrid may drop to one-by-one) and repartitions.
func (s *Session) EliminateGroup(caller model.PlayerID, label model.GroupLabel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.checkTurn(caller); err != nil {
		return err
	}
	if !s.groupedActive() {
		return ErrUnknownGroup
	}

	var removed, kept []model.Film
	switch label {
	case model.GroupA:
		removed, kept = s.groupA, s.groupB
	case model.GroupB:
		removed, kept = s.groupB, s.groupA
	default:
		return ErrUnknownGroup
	}

	for _, f := range removed {
		s.eliminated = append(s.eliminated, f.Title)
	}
	s.pool = kept
	s.groupA, s.groupB = nil, nil

	if len(s.pool) == 1 {
		s.finish()
		return nil
	}
	s.current = (s.current + 1) % len(s.roster)
	if s.groupedActive() {
		s.partition()
	}
	return nil
}

func (s *Session) checkTurn(caller model.PlayerID) error {
	switch s.status {
	case model.StatusLobby:
		return ErrVoteNotStarted
	case model.StatusFinished:
		return ErrVoteFinished
	}
	if len(s.roster) == 0 {
		return ErrNoPlayers
	}
	if s.roster[s.current].ID != caller {
		return ErrNotYourTurn
	}
	return nil
}

// finish is called with the lock held and exactly one film left.
func (s *Session) finish() {
	winner := s.pool[0]
	s.winner = &winner
	s.status = model.StatusFinished
	s.finishedAt = time.Now()
	s.groupA, s.groupB = nil, nil

	s.logger.Info("vote finished", "session", s.code, "winner", winner.Title)

	if s.archiver != nil {
		code, startedAt, finishedAt := s.code, s.startedAt, s.finishedAt
		a := s.archiver
		go func() {
			if err := a.Record(context.Background(), code, winner, startedAt, finishedAt); err != nil {
				s.logger.Error("failed to archive result", "session", code, "error", err)
			}
		}()
	}
}

// groupedActive reports whether the next decision removes a group. Hybrid
// re-evaluates against the threshold every round.
func (s *Session) groupedActive() bool {
	switch s.style {
	case model.StyleGrouped:
		return true
	case model.StyleHybrid:
		return len(s.pool) > s.hybridThreshold
	default:
		return false
	}
}

// partition reshuffles the remaining pool and splits it into halves of
// ceil(n/2) and floor(n/2). Each round is freshly randomized.
func (s *Session) partition() {
	shuffled := make([]model.Film, len(s.pool))
	copy(shuffled, s.pool)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	half := (len(shuffled) + 1) / 2
	s.groupA = shuffled[:half]
	s.groupB = shuffled[half:]
}

// Attach and Detach track live connections for the registry's expiry sweep.
func (s *Session) Attach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached++
	s.touch()
}

func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached > 0 {
		s.attached--
	}
	s.touch()
}

// Expired reports whether the registry may drop this session: nobody is
// connected and it either finished or idled past the TTL.
func (s *Session) Expired(idleTTL time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached > 0 {
		return false
	}
	if s.status == model.StatusFinished {
		return true
	}
	return time.Since(s.lastActive) > idleTTL
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

const playerIDLen = 6

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (s *Session) newPlayerID() model.PlayerID {
	for {
		var builder strings.Builder
		builder.Grow(playerIDLen)
		for i := 0; i < playerIDLen; i++ {
			builder.WriteByte(idAlphabet[s.rng.Intn(len(idAlphabet))])
		}
		id := model.PlayerID(builder.String())

		taken := false
		for _, p := range s.roster {
			if p.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}

func dedupeFilms(films []model.Film) []model.Film {
	seen := make(map[model.FilmID]bool, len(films))
	out := make([]model.Film, 0, len(films))
	for _, f := range films {
		if seen[f.Key()] {
			continue
		}
		seen[f.Key()] = true
		out = append(out, f)
	}
	return out
}
