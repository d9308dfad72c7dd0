package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/fieldorders/internal/application"
	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

func TestOrderService_LoginListDetailUseSameToken(t *testing.T) {
	store := newMemCredentialStore()
	sessions := application.NewSessionService(acceptingAuth("abc123"), store, nil)
	client := &mockOrderClient{orders: []model.WorkOrder{{ID: 5, Numero: "OT-5"}}}
	orders := application.NewOrderService(client)
	ctx := context.Background()

	session, err := sessions.Login(ctx, &model.LoginForm{Username: "tech1", Password: "secret"})
	require.NoError(t, err)

	list, err := orders.List(ctx, session.Token)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(5), list[0].ID)

	detail, err := orders.Get(ctx, session.Token, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "OT-5", detail.Numero)

	assert.Equal(t, []string{"abc123", "abc123"}, client.tokens)
}

func TestOrderService_GetNotFoundKeepsServerMessage(t *testing.T) {
	orders := application.NewOrderService(&mockOrderClient{})

	_, err := orders.Get(context.Background(), "abc123", 999)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrServer)
	assert.Equal(t, "No encontrada", model.UserMessage(err, ""))
}

func TestOrderService_ListPropagatesErrors(t *testing.T) {
	cause := &model.Error{Kind: model.ErrConnectivity, Message: "Error de conexión al obtener las órdenes"}
	orders := application.NewOrderService(&mockOrderClient{err: cause})

	list, err := orders.List(context.Background(), "abc123")

	assert.Nil(t, list)
	assert.ErrorIs(t, err, model.ErrConnectivity)
	assert.Equal(t, cause.Message, model.UserMessage(err, ""))
}

func TestOrderService_CanSign(t *testing.T) {
	orders := application.NewOrderService(&mockOrderClient{})

	assert.True(t, orders.CanSign(model.WorkOrder{TieneFirma: false}))
	assert.False(t, orders.CanSign(model.WorkOrder{TieneFirma: true}))
}
