package mcp

import (
	"context"
	"errors"
	"net/http"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/dafmemorial/internal/domain/user"
	"github.com/stretchr/testify/require"
)

type resolverStub map[string]*user.User

func (r resolverStub) Resolve(_ context.Context, token string) (*user.User, error) {
	u, ok := r[token]
	if !ok {
		return nil, user.ErrSessionInvalid
	}
	return u, nil
}

func callWithHeader(t *testing.T, mw sdkmcp.Middleware, method string, header http.Header) (*user.User, error) {
	t.Helper()
	var seen *user.User
	next := func(ctx context.Context, _ string, _ sdkmcp.Request) (sdkmcp.Result, error) {
		seen = getActor(ctx)
		return nil, nil
	}
	req := &sdkmcp.CallToolRequest{Extra: &sdkmcp.RequestExtra{Header: header}}
	_, err := mw(next)(context.Background(), method, req)
	return seen, err
}

func TestAuthMiddleware_ResolvesBearer(t *testing.T) {
	mw := authMiddleware(resolverStub{"tok": {ID: "u1"}})

	header := http.Header{}
	header.Set("Authorization", "Bearer tok")
	actor, err := callWithHeader(t, mw, "tools/call", header)
	require.NoError(t, err)
	require.NotNil(t, actor)
	require.Equal(t, "u1", actor.ID)
}

func TestAuthMiddleware_AnonymousCallProceeds(t *testing.T) {
	mw := authMiddleware(resolverStub{})

	actor, err := callWithHeader(t, mw, "tools/call", http.Header{})
	require.NoError(t, err)
	require.Nil(t, actor)
}

func TestAuthMiddleware_BadTokenRejected(t *testing.T) {
	mw := authMiddleware(resolverStub{})

	header := http.Header{}
	header.Set("Authorization", "Bearer wrong")
	_, err := callWithHeader(t, mw, "tools/call", header)
	require.Error(t, err)
	require.True(t, errors.Is(err, user.ErrSessionInvalid))
}

func TestAuthMiddleware_SkipsProtocolMethods(t *testing.T) {
	mw := authMiddleware(resolverStub{})

	header := http.Header{}
	header.Set("Authorization", "Bearer wrong")
	_, err := callWithHeader(t, mw, "tools/list", header)
	require.NoError(t, err)
}

func TestFixedActorMiddleware(t *testing.T) {
	actor := &user.User{ID: "agent"}
	got, err := callWithHeader(t, fixedActorMiddleware(actor), "tools/call", nil)
	require.NoError(t, err)
	require.Equal(t, actor, got)
}
