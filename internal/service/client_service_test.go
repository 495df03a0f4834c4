package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/require"
)

func TestCreateClientDefaultsToProspect(t *testing.T) {
	env := newTestEnv(t)

	client, err := env.clients.CreateClient(context.Background(), env.userID, CreateClientRequest{
		Nom:    "Moreau",
		Prenom: "Luc",
		Email:  "luc.moreau@exemple.fr",
	})
	require.NoError(t, err)
	require.Equal(t, model.PipelineProspect, client.StatutPipeline)
}

func TestCreateClientRejectsUnknownPipelineStatus(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.clients.CreateClient(context.Background(), env.userID, CreateClientRequest{
		Nom:            "Moreau",
		Prenom:         "Luc",
		Email:          "luc@exemple.fr",
		StatutPipeline: "CLIENT_FIDELE",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdatePipelineStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	updated, err := env.clients.UpdatePipelineStatus(ctx, env.userID, env.clientID, model.PipelineNegociation)
	require.NoError(t, err)
	require.Equal(t, model.PipelineNegociation, updated.StatutPipeline)

	_, err = env.clients.UpdatePipelineStatus(ctx, env.userID, env.clientID, "INCONNU")
	require.ErrorIs(t, err, ErrValidation)
}

func TestClientCrossAccountAccessIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other := env.otherUser(t)

	_, err := env.clients.GetClient(ctx, other, env.clientID)
	require.ErrorIs(t, err, ErrNotFound)

	nom := "Pirate"
	_, err = env.clients.UpdateClient(ctx, other, env.clientID, UpdateClientRequest{Nom: &nom})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.clients.DeleteClient(ctx, env.userID, env.clientID))

	_, err := env.clients.GetClient(ctx, env.userID, env.clientID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListClientsScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other := env.otherUser(t)

	clients, total, err := env.clients.ListClients(ctx, env.userID, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, clients, 1)

	none, total, err := env.clients.ListClients(ctx, other, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
	require.Empty(t, none)
}
