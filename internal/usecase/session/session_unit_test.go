package usecase_session

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/suprdory/filmvote/core/internal/model"
	archiver_mocks "github.com/suprdory/filmvote/core/internal/usecase/session/mocks/archiver"
)

type SessionUnitSuite struct {
	suite.Suite
}

func validSessionCode() model.SessionCode {
	return model.SessionCode("AB12C9")
}

func validHostID() string {
	return uuid.New().String()
}

func validFilms(n int) []model.Film {
	films := make([]model.Film, n)
	for i := 0; i < n; i++ {
		films[i] = model.Film{
			ID:    model.FilmID(fmt.Sprintf("F%d", i+1)),
			Title: fmt.Sprintf("Film %d", i+1),
			Year:  2000 + i,
		}
	}
	return films
}

func newLobby(opts ...Option) *Session {
	opts = append([]Option{WithRand(rand.New(rand.NewSource(42)))}, opts...)
	return New(validSessionCode(), validHostID(), opts...)
}

func join(t provider.T, s *Session, names ...string) []model.PlayerID {
	ids := make([]model.PlayerID, len(names))
	for i, name := range names {
		id, reconnected, err := s.Join(name, model.EmptyPlayerID)
		assert.NoError(t, err)
		assert.False(t, reconnected)
		ids[i] = id
	}
	return ids
}

func currentPlayerID(s *Session) model.PlayerID {
	snap := s.Snapshot()
	if snap.CurrentPlayer == nil {
		return model.EmptyPlayerID
	}
	return snap.CurrentPlayer.ID
}

func (suite *SessionUnitSuite) TestJoin(t provider.T) {
	t.Parallel()

	t.Run("Should append players in join order with unique ids", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob", "Carol")

		snap := s.Snapshot()
		assert.Len(t, snap.Players, 3)
		assert.Equal(t, "Alice", snap.Players[0].Name)
		assert.Equal(t, "Bob", snap.Players[1].Name)
		assert.Equal(t, "Carol", snap.Players[2].Name)
		assert.NotEqual(t, ids[0], ids[1])
		assert.NotEqual(t, ids[1], ids[2])
		for _, id := range ids {
			assert.Len(t, string(id), 6)
		}
	})

	t.Run("Should reject new joins after voting starts", func(t provider.T) {
		s := newLobby()
		join(t, s, "Alice")
		assert.NoError(t, s.Start(true, validFilms(3), model.StyleOneByOne, 0))

		_, _, err := s.Join("Late", model.EmptyPlayerID)
		assert.ErrorIs(t, err, ErrVoteInProgress)
	})

	t.Run("Should not duplicate roster entry on reconnect", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob")
		s.MarkDisconnected(ids[0])

		for i := 0; i < 2; i++ {
			id, reconnected, err := s.Join("Alice", ids[0])
			assert.NoError(t, err)
			assert.True(t, reconnected)
			assert.Equal(t, ids[0], id)
		}

		snap := s.Snapshot()
		assert.Len(t, snap.Players, 2)
		assert.True(t, snap.Players[0].Connected)
	})

	t.Run("Should allow reconnect mid-vote", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob")
		assert.NoError(t, s.Start(true, validFilms(3), model.StyleOneByOne, 0))
		s.MarkDisconnected(ids[1])

		id, reconnected, err := s.Join("Bob", ids[1])
		assert.NoError(t, err)
		assert.True(t, reconnected)
		assert.Equal(t, ids[1], id)
	})

	t.Run("Should reject unknown token mid-vote", func(t provider.T) {
		s := newLobby()
		join(t, s, "Alice")
		assert.NoError(t, s.Start(true, validFilms(3), model.StyleOneByOne, 0))

		_, _, err := s.Join("Ghost", model.PlayerID("NOSUCH"))
		assert.ErrorIs(t, err, ErrInvalidPlayerID)
	})
}

func (suite *SessionUnitSuite) TestHostReconnect(t provider.T) {
	t.Parallel()

	t.Run("Should accept the minted host token", func(t provider.T) {
		s := newLobby()
		assert.NoError(t, s.HostReconnect(s.HostID()))
		assert.True(t, s.Snapshot().HostConnected)
	})

	t.Run("Should reject a wrong token", func(t provider.T) {
		s := newLobby()
		assert.ErrorIs(t, s.HostReconnect("nope"), ErrInvalidHostID)
		assert.ErrorIs(t, s.HostReconnect(""), ErrInvalidHostID)
	})
}

func (suite *SessionUnitSuite) TestReorder(t provider.T) {
	t.Parallel()

	t.Run("Should replace rotation order in the lobby", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob", "Carol")

		assert.NoError(t, s.Reorder(true, []model.PlayerID{ids[2], ids[0], ids[1]}))

		snap := s.Snapshot()
		assert.Equal(t, "Carol", snap.Players[0].Name)
		assert.Equal(t, "Alice", snap.Players[1].Name)
		assert.Equal(t, "Bob", snap.Players[2].Name)
	})

	t.Run("Should be host-only", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice")
		assert.ErrorIs(t, s.Reorder(false, ids), ErrNotHost)
	})

	t.Run("Should be rejected once voting started", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob")
		assert.NoError(t, s.Start(true, validFilms(3), model.StyleOneByOne, 0))

		err := s.Reorder(true, []model.PlayerID{ids[1], ids[0]})
		assert.ErrorIs(t, err, ErrVoteInProgress)
	})

	t.Run("Should reject an order that is not a roster permutation", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob")

		assert.ErrorIs(t, s.Reorder(true, []model.PlayerID{ids[0]}), ErrUnknownPlayer)
		assert.ErrorIs(t, s.Reorder(true, []model.PlayerID{ids[0], "NOSUCH"}), ErrUnknownPlayer)
		assert.ErrorIs(t, s.Reorder(true, []model.PlayerID{ids[0], ids[0]}), ErrUnknownPlayer)
	})
}

func (suite *SessionUnitSuite) TestStart(t provider.T) {
	t.Parallel()

	t.Run("Should move to voting with the first player current", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob")

		assert.NoError(t, s.Start(true, validFilms(5), model.StyleOneByOne, 0))

		snap := s.Snapshot()
		assert.True(t, snap.Started)
		assert.Equal(t, model.StatusVoting, snap.Status)
		assert.Equal(t, ids[0], snap.CurrentPlayer.ID)
		assert.Len(t, snap.FilmsRemaining, 5)
	})

	t.Run("Should be host-only", func(t provider.T) {
		s := newLobby()
		join(t, s, "Alice")
		assert.ErrorIs(t, s.Start(false, validFilms(3), model.StyleOneByOne, 0), ErrNotHost)
	})

	t.Run("Should require at least one player", func(t provider.T) {
		s := newLobby()
		assert.ErrorIs(t, s.Start(true, validFilms(3), model.StyleOneByOne, 0), ErrNoPlayers)
	})

	t.Run("Should require two distinct films", func(t provider.T) {
		s := newLobby()
		join(t, s, "Alice")

		assert.ErrorIs(t, s.Start(true, validFilms(1), model.StyleOneByOne, 0), ErrNotEnoughFilms)

		same := validFilms(1)
		dupes := append(same, same...)
		assert.ErrorIs(t, s.Start(true, dupes, model.StyleOneByOne, 0), ErrNotEnoughFilms)
	})

	t.Run("Should reject a second start", func(t provider.T) {
		s := newLobby()
		join(t, s, "Alice")
		assert.NoError(t, s.Start(true, validFilms(3), model.StyleOneByOne, 0))
		assert.ErrorIs(t, s.Start(true, validFilms(3), model.StyleOneByOne, 0), ErrVoteInProgress)
	})
}

func (suite *SessionUnitSuite) TestEliminateOne(t provider.T) {
	t.Parallel()

	t.Run("Should rotate the turn round-robin", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob", "Carol")
		assert.NoError(t, s.Start(true, validFilms(6), model.StyleOneByOne, 0))

		for turn := 0; turn < 4; turn++ {
			expected := ids[turn%3]
			assert.Equal(t, expected, currentPlayerID(s))

			snap := s.Snapshot()
			before := len(snap.FilmsRemaining)
			assert.NoError(t, s.EliminateOne(expected, snap.FilmsRemaining[0].Key()))
			assert.Len(t, s.Snapshot().FilmsRemaining, before-1)
		}
	})

	t.Run("Should reject commands from a non-current player", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob")
		assert.NoError(t, s.Start(true, validFilms(4), model.StyleOneByOne, 0))

		err := s.EliminateOne(ids[1], validFilms(4)[0].Key())
		assert.ErrorIs(t, err, ErrNotYourTurn)
		assert.Len(t, s.Snapshot().FilmsRemaining, 4)
	})

	t.Run("Should reject a film outside the pool", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice")
		assert.NoError(t, s.Start(true, validFilms(4), model.StyleOneByOne, 0))

		assert.ErrorIs(t, s.EliminateOne(ids[0], "NOSUCH"), ErrUnknownFilm)
	})

	t.Run("Should reject elimination before start", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice")
		assert.ErrorIs(t, s.EliminateOne(ids[0], "F1"), ErrVoteNotStarted)
	})

	t.Run("Should finish after one decision when the pool has two films", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob")
		assert.NoError(t, s.Start(true, validFilms(2), model.StyleOneByOne, 0))

		snap := s.Snapshot()
		victim := snap.FilmsRemaining[0]
		survivor := snap.FilmsRemaining[1]
		assert.NoError(t, s.EliminateOne(ids[0], victim.Key()))

		snap = s.Snapshot()
		assert.Equal(t, model.StatusFinished, snap.Status)
		assert.True(t, snap.HasWinner)
		assert.Equal(t, survivor.Key(), snap.Winner.Key())

		assert.ErrorIs(t, s.EliminateOne(ids[1], survivor.Key()), ErrVoteFinished)
	})
}

func (suite *SessionUnitSuite) TestEliminateGroup(t provider.T) {
	t.Parallel()

	t.Run("Should split an odd pool into ceil and floor halves", func(t provider.T) {
		s := newLobby()
		join(t, s, "Alice")
		assert.NoError(t, s.Start(true, validFilms(5), model.StyleGrouped, 0))

		snap := s.Snapshot()
		assert.Len(t, snap.GroupA, 3)
		assert.Len(t, snap.GroupB, 2)
		assert.Nil(t, snap.FilmsRemaining)
	})

	t.Run("Should keep the untouched group as the new pool", func(t provider.T) {
		for _, tc := range []struct {
			label    model.GroupLabel
			poolSize int
		}{
			{model.GroupA, 2},
			{model.GroupB, 3},
		} {
			s := newLobby()
			ids := join(t, s, "Alice", "Bob")
			assert.NoError(t, s.Start(true, validFilms(5), model.StyleGrouped, 0))

			assert.NoError(t, s.EliminateGroup(ids[0], tc.label))

			snap := s.Snapshot()
			assert.Len(t, snap.GroupA, (tc.poolSize+1)/2)
			assert.Len(t, snap.GroupB, tc.poolSize/2)
			assert.Equal(t, ids[1], snap.CurrentPlayer.ID)
		}
	})

	t.Run("Should reject group elimination under one-by-one rules", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice")
		assert.NoError(t, s.Start(true, validFilms(4), model.StyleOneByOne, 0))

		assert.ErrorIs(t, s.EliminateGroup(ids[0], model.GroupA), ErrUnknownGroup)
	})

	t.Run("Should reject an unknown group label", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice")
		assert.NoError(t, s.Start(true, validFilms(4), model.StyleGrouped, 0))

		assert.ErrorIs(t, s.EliminateGroup(ids[0], model.GroupLabel("C")), ErrUnknownGroup)
	})

	t.Run("Should finish when the surviving group is a single film", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice")
		assert.NoError(t, s.Start(true, validFilms(2), model.StyleGrouped, 0))

		assert.NoError(t, s.EliminateGroup(ids[0], model.GroupA))

		snap := s.Snapshot()
		assert.True(t, snap.HasWinner)
		assert.Equal(t, model.StatusFinished, snap.Status)
	})
}

func (suite *SessionUnitSuite) TestHybrid(t provider.T) {
	t.Parallel()

	t.Run("Should run grouped rounds above the threshold and switch below it", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob")
		assert.NoError(t, s.Start(true, validFilms(9), model.StyleHybrid, 4))

		// 9 films: grouped, split 5/4.
		snap := s.Snapshot()
		assert.Len(t, snap.GroupA, 5)
		assert.Len(t, snap.GroupB, 4)

		// Dropping the larger group leaves 4, at the threshold.
		assert.NoError(t, s.EliminateGroup(ids[0], model.GroupA))

		snap = s.Snapshot()
		assert.Nil(t, snap.GroupA)
		assert.Nil(t, snap.GroupB)
		assert.Len(t, snap.FilmsRemaining, 4)
		assert.Equal(t, ids[1], snap.CurrentPlayer.ID)

		assert.NoError(t, s.EliminateOne(ids[1], snap.FilmsRemaining[0].Key()))
		assert.Len(t, s.Snapshot().FilmsRemaining, 3)
	})

	t.Run("Should stay grouped while above the threshold", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob")
		assert.NoError(t, s.Start(true, validFilms(9), model.StyleHybrid, 4))

		// Dropping the smaller group leaves 5, still above 4.
		assert.NoError(t, s.EliminateGroup(ids[0], model.GroupB))

		snap := s.Snapshot()
		assert.Len(t, snap.GroupA, 3)
		assert.Len(t, snap.GroupB, 2)
		assert.Nil(t, snap.FilmsRemaining)
	})
}

func (suite *SessionUnitSuite) TestKick(t provider.T) {
	t.Parallel()

	t.Run("Should be host-only and require a known player", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice")

		_, err := s.Kick(false, ids[0])
		assert.ErrorIs(t, err, ErrNotHost)

		_, err = s.Kick(true, "NOSUCH")
		assert.ErrorIs(t, err, ErrUnknownPlayer)
	})

	t.Run("Should hand the turn onward when the current player is kicked", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob")
		assert.NoError(t, s.Start(true, validFilms(10), model.StyleOneByOne, 0))

		// Alice eliminates F3, Bob eliminates F7.
		assert.NoError(t, s.EliminateOne(ids[0], "F3"))
		assert.Equal(t, ids[1], currentPlayerID(s))
		assert.Len(t, s.Snapshot().FilmsRemaining, 9)

		assert.NoError(t, s.EliminateOne(ids[1], "F7"))
		assert.Equal(t, ids[0], currentPlayerID(s))
		assert.Len(t, s.Snapshot().FilmsRemaining, 8)

		// Kicking Alice mid-turn leaves Bob as the sole, current player.
		kicked, err := s.Kick(true, ids[0])
		assert.NoError(t, err)
		assert.Equal(t, "Alice", kicked.Name)
		assert.Equal(t, ids[1], currentPlayerID(s))

		for i := 0; i < 3; i++ {
			snap := s.Snapshot()
			assert.NoError(t, s.EliminateOne(ids[1], snap.FilmsRemaining[0].Key()))
			assert.Equal(t, ids[1], currentPlayerID(s))
		}
	})

	t.Run("Should keep the earlier turn holder when a later player is kicked", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice", "Bob", "Carol")
		assert.NoError(t, s.Start(true, validFilms(6), model.StyleOneByOne, 0))

		snap := s.Snapshot()
		assert.NoError(t, s.EliminateOne(ids[0], snap.FilmsRemaining[0].Key()))
		assert.Equal(t, ids[1], currentPlayerID(s))

		_, err := s.Kick(true, ids[2])
		assert.NoError(t, err)
		assert.Equal(t, ids[1], currentPlayerID(s))
	})
}

func (suite *SessionUnitSuite) TestArchiver(t provider.T) {
	t.Run("Should record the winner once the vote finishes", func(t provider.T) {
		archiver := archiver_mocks.NewArchiver(t)
		done := make(chan struct{})
		archiver.On("Record",
			mock.Anything,
			validSessionCode(),
			mock.AnythingOfType("model.Film"),
			mock.AnythingOfType("time.Time"),
			mock.AnythingOfType("time.Time"),
		).Return(nil).Once().Run(func(mock.Arguments) { close(done) })

		s := newLobby(WithArchiver(archiver))
		ids := join(t, s, "Alice")
		assert.NoError(t, s.Start(true, validFilms(2), model.StyleOneByOne, 0))

		victim := s.Snapshot().FilmsRemaining[0]
		assert.NoError(t, s.EliminateOne(ids[0], victim.Key()))

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Errorf("archiver was not called")
		}
	})
}

func (suite *SessionUnitSuite) TestExpiry(t provider.T) {
	t.Parallel()

	t.Run("Should expire a finished session with no connections", func(t provider.T) {
		s := newLobby()
		ids := join(t, s, "Alice")
		assert.NoError(t, s.Start(true, validFilms(2), model.StyleOneByOne, 0))
		victim := s.Snapshot().FilmsRemaining[0]
		assert.NoError(t, s.EliminateOne(ids[0], victim.Key()))

		assert.True(t, s.Expired(time.Hour))

		s.Attach()
		assert.False(t, s.Expired(time.Hour))
	})

	t.Run("Should keep a fresh lobby alive", func(t provider.T) {
		s := newLobby()
		assert.False(t, s.Expired(time.Hour))
		assert.True(t, s.Expired(0))
	})
}

func TestSessionUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(SessionUnitSuite))
}
