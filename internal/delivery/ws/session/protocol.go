package ws_session

import (
	"encoding/json"
	"errors"

	"github.com/suprdory/filmvote/core/internal/model"
	usecase_session "github.com/suprdory/filmvote/core/internal/usecase/session"
)

const (
	CommandJoin          = "join"
	CommandHostReconnect = "host_reconnect"
	CommandStart         = "start"
	CommandEliminate     = "eliminate"
	CommandReorder       = "reorder"
	CommandKickPlayer    = "kick_player"
)

const (
	EventPlayerID         = "player_id"
	EventReconnectSuccess = "reconnect_success"
	EventKicked           = "kicked"
	EventError            = "error"
	EventStateUpdate      = "state_update"
)

// Command is the flat inbound envelope. Which fields matter depends on Type;
// everything else stays zero.
type Command struct {
	Type string `json:"type"`

	// join
	Name     string `json:"name,omitempty"`
	PlayerID string `json:"player_id,omitempty"`

	// host_reconnect
	HostID string `json:"host_id,omitempty"`

	// start
	Films           []model.Film `json:"films,omitempty"`
	VoteStyle       string       `json:"vote_style,omitempty"`
	HybridThreshold *int         `json:"hybrid_threshold,omitempty"`

	// eliminate
	Film  string `json:"film,omitempty"`
	Group string `json:"group,omitempty"`

	// reorder, kick_player: players addressed by server-assigned id
	Order  []string `json:"order,omitempty"`
	Player string   `json:"player,omitempty"`
}

type PlayerIDEvent struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	IsHost bool   `json:"is_host"`
}

type ReconnectSuccessEvent struct {
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`
	IsHost bool   `json:"is_host"`
}

type KickedEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ErrorEvent struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	VoteInProgress bool   `json:"vote_in_progress,omitempty"`
}

type PlayerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

type StateUpdateEvent struct {
	Type            string `json:"type"`
	Started         bool   `json:"started"`
	Status          string `json:"status"`
	VoteStyle       string `json:"vote_style,omitempty"`
	HybridThreshold int    `json:"hybrid_threshold,omitempty"`

	Players          []PlayerDTO `json:"players"`
	ConnectedPlayers []string    `json:"connected_players"`
	CurrentPlayer    string      `json:"currentPlayer,omitempty"`
	CurrentPlayerID  string      `json:"current_player_id,omitempty"`
	HostConnected    bool        `json:"host_connected"`

	FilmsRemaining []model.Film `json:"filmsRemaining,omitempty"`
	GroupA         []model.Film `json:"group_a,omitempty"`
	GroupB         []model.Film `json:"group_b,omitempty"`
	Eliminated     []string     `json:"eliminated"`

	HasWinner bool        `json:"has_winner"`
	Winner    *model.Film `json:"winner,omitempty"`

	VoteStartedAt int64 `json:"vote_started_at,omitempty"`
}

func DecodeCommand(raw []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return Command{}, err
	}
	if cmd.Type == "" {
		return Command{}, errors.New("missing command type")
	}
	return cmd, nil
}

// NewStateUpdate maps a session snapshot onto the wire shape every attached
// connection receives.
func NewStateUpdate(snap usecase_session.Snapshot) StateUpdateEvent {
	ev := StateUpdateEvent{
		Type:            EventStateUpdate,
		Started:         snap.Started,
		Status:          snap.Status,
		VoteStyle:       string(snap.VoteStyle),
		HybridThreshold: snap.HybridThreshold,
		HostConnected:   snap.HostConnected,
		FilmsRemaining:  snap.FilmsRemaining,
		GroupA:          snap.GroupA,
		GroupB:          snap.GroupB,
		Eliminated:      snap.Eliminated,
		HasWinner:       snap.HasWinner,
		Winner:          snap.Winner,
	}
	if ev.Eliminated == nil {
		ev.Eliminated = []string{}
	}

	ev.Players = make([]PlayerDTO, len(snap.Players))
	ev.ConnectedPlayers = make([]string, 0, len(snap.Players))
	for i, p := range snap.Players {
		ev.Players[i] = PlayerDTO{ID: string(p.ID), Name: p.Name, Connected: p.Connected}
		if p.Connected {
			ev.ConnectedPlayers = append(ev.ConnectedPlayers, p.Name)
		}
	}

	if snap.CurrentPlayer != nil {
		ev.CurrentPlayer = snap.CurrentPlayer.Name
		ev.CurrentPlayerID = string(snap.CurrentPlayer.ID)
	}
	if !snap.StartedAt.IsZero() {
		ev.VoteStartedAt = snap.StartedAt.Unix()
	}

	return ev
}

// ErrorEventFor translates session errors into the typed error pushed back
// to the offending connection. The vote-in-progress flag lets the player UI
// explain a rejected join instead of showing a generic failure.
func ErrorEventFor(err error) ErrorEvent {
	return ErrorEvent{
		Type:           EventError,
		Message:        err.Error(),
		VoteInProgress: errors.Is(err, usecase_session.ErrVoteInProgress),
	}
}
