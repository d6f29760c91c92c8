package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeGioNSoftware/MonkeyPaw/internal/model"
)

func testLobby(name model.LobbyName) *model.Lobby {
	return &model.Lobby{
		Name:     name,
		Public:   true,
		Settings: model.DefaultSettings(),
		Players: []*model.Player{
			{ID: "p1", Username: "alice", IsHost: true},
		},
	}
}

func TestSaveAndGetLobby(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveLobby(ctx, testLobby("room-1")))

	got, err := s.GetLobby(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, model.LobbyName("room-1"), got.Name)
}

func TestGetLobbyReturnsIsolatedCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	lobby := testLobby("room-1")
	lobby.Round = model.NewRound(0, "p1")
	require.NoError(t, s.SaveLobby(ctx, lobby))

	// Mutations on a fetched lobby must not leak into the stored one
	// until it is saved back
	got, err := s.GetLobby(ctx, "room-1")
	require.NoError(t, err)
	got.Players[0].Score = 99
	got.Round.Phase = model.PhaseVoting
	got.Round.Submissions["p1"] = &model.Submission{PlayerID: "p1", Text: "oops"}

	stored, err := s.GetLobby(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Players[0].Score)
	assert.Equal(t, model.PhaseWishPending, stored.Round.Phase)
	assert.Empty(t, stored.Round.Submissions)
}

func TestSaveLobbyDetachesFromCaller(t *testing.T) {
	s := New()
	ctx := context.Background()

	lobby := testLobby("room-1")
	require.NoError(t, s.SaveLobby(ctx, lobby))

	lobby.Players[0].Username = "mallory"

	stored, err := s.GetLobby(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Players[0].Username)
}

func TestGetLobbyNotFound(t *testing.T) {
	s := New()

	_, err := s.GetLobby(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrLobbyNotFound)
}

func TestLobbyExists(t *testing.T) {
	s := New()
	ctx := context.Background()

	exists, err := s.LobbyExists(ctx, "room-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.SaveLobby(ctx, testLobby("room-1")))

	exists, err = s.LobbyExists(ctx, "room-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteLobby(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveLobby(ctx, testLobby("room-1")))
	require.NoError(t, s.DeleteLobby(ctx, "room-1"))

	_, err := s.GetLobby(ctx, "room-1")
	assert.ErrorIs(t, err, model.ErrLobbyNotFound)
}

func TestListLobbies(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveLobby(ctx, testLobby("room-1")))
	require.NoError(t, s.SaveLobby(ctx, testLobby("room-2")))

	lobbies, err := s.ListLobbies(ctx)
	require.NoError(t, err)
	assert.Len(t, lobbies, 2)
}

func TestCredentialLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	cred := &model.Credential{Token: "cred_abc", Lobby: "room-1", PlayerID: "p1"}
	require.NoError(t, s.SaveCredential(ctx, cred))

	got, err := s.GetCredential(ctx, "cred_abc")
	require.NoError(t, err)
	assert.Equal(t, model.PlayerID("p1"), got.PlayerID)

	require.NoError(t, s.DeleteCredential(ctx, "cred_abc"))
	_, err = s.GetCredential(ctx, "cred_abc")
	assert.ErrorIs(t, err, model.ErrInvalidCredential)
}

func TestDeleteCredentialsForLobby(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveCredential(ctx, &model.Credential{Token: "cred_one", Lobby: "room-1", PlayerID: "p1"}))
	require.NoError(t, s.SaveCredential(ctx, &model.Credential{Token: "cred_two", Lobby: "room-1", PlayerID: "p2"}))
	require.NoError(t, s.SaveCredential(ctx, &model.Credential{Token: "cred_other", Lobby: "room-2", PlayerID: "p3"}))

	require.NoError(t, s.DeleteCredentialsForLobby(ctx, "room-1"))

	_, err := s.GetCredential(ctx, "cred_one")
	assert.ErrorIs(t, err, model.ErrInvalidCredential)
	_, err = s.GetCredential(ctx, "cred_two")
	assert.ErrorIs(t, err, model.ErrInvalidCredential)
	_, err = s.GetCredential(ctx, "cred_other")
	assert.NoError(t, err)
}
