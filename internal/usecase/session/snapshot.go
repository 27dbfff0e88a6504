package usecase_session

import (
	"time"

	"github.com/suprdory/filmvote/core/internal/model"
)

type PlayerView struct {
	ID        model.PlayerID
	Name      string
	Connected bool
}

// Snapshot is the public point-in-time view of a session, built under the
// session lock and fanned out by the broadcaster after it is released. The
// host token is deliberately absent.
type Snapshot struct {
	Code            model.SessionCode
	Status          string
	Started         bool
	VoteStyle       model.VoteStyle
	HybridThreshold int

	Players       []PlayerView
	CurrentPlayer *PlayerView
	HostConnected bool

	// FilmsRemaining is set while one-by-one rules apply, GroupA/GroupB
	// while grouped rules apply. Never both.
	FilmsRemaining []model.Film
	GroupA         []model.Film
	GroupB         []model.Film
	Eliminated     []string

	HasWinner bool
	Winner    *model.Film

	StartedAt time.Time
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Code:            s.code,
		Status:          s.status,
		Started:         s.status != model.StatusLobby,
		VoteStyle:       s.style,
		HybridThreshold: s.hybridThreshold,
		HostConnected:   s.hostConnected,
		Eliminated:      append([]string(nil), s.eliminated...),
		StartedAt:       s.startedAt,
	}

	snap.Players = make([]PlayerView, len(s.roster))
	for i, p := range s.roster {
		snap.Players[i] = PlayerView{ID: p.ID, Name: p.Name, Connected: p.Connected}
	}

	if s.status == model.StatusVoting && len(s.roster) > 0 {
		cur := snap.Players[s.current]
		snap.CurrentPlayer = &cur
	}

	switch {
	case s.status == model.StatusFinished:
		winner := *s.winner
		snap.HasWinner = true
		snap.Winner = &winner
	case s.status == model.StatusVoting && s.groupedActive():
		snap.GroupA = append([]model.Film(nil), s.groupA...)
		snap.GroupB = append([]model.Film(nil), s.groupB...)
	case s.status == model.StatusVoting:
		snap.FilmsRemaining = append([]model.Film(nil), s.pool...)
	}

	return snap
}
