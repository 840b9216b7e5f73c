package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehub/scribe-server/internal/auth"
	"github.com/scribehub/scribe-server/internal/documents"
	"github.com/scribehub/scribe-server/internal/identity"
	"github.com/scribehub/scribe-server/internal/invitations"
	"github.com/scribehub/scribe-server/internal/models"
	"github.com/scribehub/scribe-server/internal/relay"
	"github.com/scribehub/scribe-server/internal/store/storetest"
	"github.com/scribehub/scribe-server/internal/versions"
	"github.com/scribehub/scribe-server/pkg/config"
	"github.com/scribehub/scribe-server/pkg/logger"
)

type fallbackResolver struct{}

func (fallbackResolver) ResolveEmail(ctx context.Context, userID string) string {
	return identity.Fallback(userID)
}

type testServer struct {
	srv    *httptest.Server
	authd  *auth.Service
	store  *storetest.Store
	broker *relay.Broker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	quiet := &logger.Logger{Logger: discard}

	cfg := &config.Config{
		JWTSecret: "test-secret-key-0123456789abcdef",
		JWTExpiry: time.Hour,
	}

	st := storetest.New()
	authSvc := auth.NewService(&auth.Config{
		JWTSecret:   []byte(cfg.JWTSecret),
		TokenExpiry: cfg.JWTExpiry,
	}, discard)

	broker := relay.NewBroker(8, discard)
	svcs := Services{
		Documents:   documents.NewService(st, true, quiet),
		Invitations: invitations.NewService(st, fallbackResolver{}, 0, quiet),
		Versions:    versions.NewService(st, quiet),
		Relay:       broker,
	}

	server := NewServer(cfg, st, svcs, authSvc, discard)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return &testServer{srv: ts, authd: authSvc, store: st, broker: broker}
}

func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := ts.authd.GenerateToken(userID, userID+"@example.com", userID)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/v1/documents", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthEndpointIsPublic(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/health", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")

	resp := ts.do(t, http.MethodGet, "/v1/documents", alice, nil)
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/metrics", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestDocumentLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")

	resp := ts.do(t, http.MethodPost, "/v1/documents", alice,
		map[string]string{"title": "Notes", "content": "draft"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	doc := decode[models.Document](t, resp)
	require.NotEmpty(t, doc.ID)

	resp = ts.do(t, http.MethodPatch, "/v1/documents/"+doc.ID, alice,
		map[string]string{"content": "revised"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.Document](t, resp)
	assert.Equal(t, "revised", updated.Content)
	assert.Equal(t, "Notes", updated.Title)

	resp = ts.do(t, http.MethodGet, "/v1/documents", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]models.Document](t, resp)
	require.Len(t, list, 1)

	resp = ts.do(t, http.MethodDelete, "/v1/documents/"+doc.ID, alice, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/v1/documents/"+doc.ID, alice, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAccessDenialsMapToForbidden(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")
	mallory := ts.token(t, "mallory")

	resp := ts.do(t, http.MethodPost, "/v1/documents", alice, map[string]string{"title": "Private"})
	doc := decode[models.Document](t, resp)

	resp = ts.do(t, http.MethodGet, "/v1/documents/"+doc.ID, mallory, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestShareValidatesPermission(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")

	resp := ts.do(t, http.MethodPost, "/v1/documents", alice, map[string]string{"title": "Notes"})
	doc := decode[models.Document](t, resp)

	resp = ts.do(t, http.MethodPost, "/v1/documents/"+doc.ID+"/share", alice,
		map[string]string{"user_id": "bob", "permission": "admin"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvitationFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")
	bob := ts.token(t, "bob")

	resp := ts.do(t, http.MethodPost, "/v1/documents", alice, map[string]string{"title": "Shared"})
	doc := decode[models.Document](t, resp)

	resp = ts.do(t, http.MethodPost, "/v1/documents/"+doc.ID+"/invitations", alice,
		map[string]string{"email": "bob@example.com", "permission": "edit"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	inv := decode[models.Invitation](t, resp)
	assert.Equal(t, models.InvitationStatusPending, inv.Status)

	resp = ts.do(t, http.MethodGet, "/v1/invitations/count", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	count := decode[map[string]int](t, resp)
	assert.Equal(t, 1, count["count"])

	resp = ts.do(t, http.MethodPost, "/v1/invitations/"+inv.ID+"/accept", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	accepted := decode[models.Document](t, resp)
	_, ok := accepted.Collaborator("bob")
	assert.True(t, ok)

	// A second accept surfaces as a conflict.
	resp = ts.do(t, http.MethodPost, "/v1/invitations/"+inv.ID+"/accept", bob, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestExpiredInvitationMapsToGone(t *testing.T) {
	ts := newTestServer(t)
	bob := ts.token(t, "bob")
	ctx := context.Background()

	doc := &models.Document{Title: "Old", OwnerID: "alice"}
	require.NoError(t, ts.store.Documents().Create(ctx, doc))

	inv := &models.Invitation{
		DocumentID:  doc.ID,
		InvitedBy:   models.InvitationUser{UserID: "alice", Email: "alice@example.com"},
		InvitedUser: models.InvitationUser{Email: "bob@example.com"},
		Permission:  models.PermissionEdit,
		Status:      models.InvitationStatusPending,
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, ts.store.Invitations().Create(ctx, inv))

	resp := ts.do(t, http.MethodPost, "/v1/invitations/"+inv.ID+"/accept", bob, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestVersionEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")

	resp := ts.do(t, http.MethodPost, "/v1/documents", alice, map[string]string{"title": "Doc"})
	doc := decode[models.Document](t, resp)

	resp = ts.do(t, http.MethodPost, "/v1/documents/"+doc.ID+"/versions", alice,
		map[string]string{"content": "first draft"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	v1 := decode[models.Version](t, resp)
	assert.Equal(t, len("first draft"), v1.ChangeStats.CharsAdded)

	resp = ts.do(t, http.MethodPost, "/v1/documents/"+doc.ID+"/versions", alice,
		map[string]string{"content": "second"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/v1/documents/"+doc.ID+"/versions", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[[]models.Version](t, resp)
	require.Len(t, history, 2)

	resp = ts.do(t, http.MethodGet, "/v1/versions/"+v1.ID, alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost,
		fmt.Sprintf("/v1/documents/%s/versions/%s/revert", doc.ID, v1.ID), alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reverted := decode[models.Version](t, resp)
	assert.Equal(t, "first draft", reverted.Content)
	assert.True(t, strings.HasPrefix(reverted.Description, "Reverted to version from "))

	resp = ts.do(t, http.MethodGet, "/v1/documents/"+doc.ID+"/contributions", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	contribs := decode[[]models.Contribution](t, resp)
	require.Len(t, contribs, 1)
	assert.Equal(t, 3, contribs[0].Stats.EditsCount)
}

func dialRelay(t *testing.T, ts *testServer, documentID, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/v1/documents/" + documentID + "/ws"
	header := http.Header{"Authorization": {"Bearer " + token}}

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readRelayMessage(t *testing.T, conn *websocket.Conn) models.Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg models.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestRelayWebSocket(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")
	bob := ts.token(t, "bob")

	resp := ts.do(t, http.MethodPost, "/v1/documents", alice, map[string]string{"title": "Live"})
	doc := decode[models.Document](t, resp)

	resp = ts.do(t, http.MethodPost, "/v1/documents/"+doc.ID+"/share", alice,
		map[string]string{"user_id": "bob", "permission": "view"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	aliceConn := dialRelay(t, ts, doc.ID, alice)
	joined := readRelayMessage(t, aliceConn)
	assert.Equal(t, models.MessageTypeUserJoined, joined.Type)
	assert.Equal(t, "alice", joined.UserID)
	assert.Equal(t, "edit", joined.Permission)

	bobConn := dialRelay(t, ts, doc.ID, bob)
	joined = readRelayMessage(t, aliceConn)
	assert.Equal(t, models.MessageTypeUserJoined, joined.Type)
	assert.Equal(t, "bob", joined.UserID)
	assert.Equal(t, "view", joined.Permission)
	readRelayMessage(t, bobConn) // bob sees his own join

	// Alice edits; both sides receive the relayed change with the
	// server-stamped identity.
	require.NoError(t, aliceConn.WriteJSON(models.Message{
		Type:    models.MessageTypeContentChange,
		UserID:  "spoofed",
		Content: "hello",
	}))

	change := readRelayMessage(t, bobConn)
	assert.Equal(t, models.MessageTypeContentChange, change.Type)
	assert.Equal(t, "alice", change.UserID)
	assert.Equal(t, "hello", change.Content)
	assert.False(t, change.Timestamp.IsZero())

	change = readRelayMessage(t, aliceConn)
	assert.Equal(t, "alice", change.UserID)

	// Bob leaves; alice is told.
	bobConn.Close()
	left := readRelayMessage(t, aliceConn)
	assert.Equal(t, models.MessageTypeUserLeft, left.Type)
	assert.Equal(t, "bob", left.UserID)
}

func TestRelayRejectsStrangers(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")
	mallory := ts.token(t, "mallory")

	resp := ts.do(t, http.MethodPost, "/v1/documents", alice, map[string]string{"title": "Private"})
	doc := decode[models.Document](t, resp)

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/v1/documents/" + doc.ID + "/ws"
	header := http.Header{"Authorization": {"Bearer " + mallory}}

	_, wsResp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, wsResp)
	defer wsResp.Body.Close()
	assert.Equal(t, http.StatusForbidden, wsResp.StatusCode)
}
