package invitations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehub/scribe-server/internal/errs"
	"github.com/scribehub/scribe-server/internal/identity"
	"github.com/scribehub/scribe-server/internal/models"
	"github.com/scribehub/scribe-server/internal/store/storetest"
)

// staticResolver maps user IDs to emails, falling back like the real one.
type staticResolver map[string]string

func (r staticResolver) ResolveEmail(ctx context.Context, userID string) string {
	if email, ok := r[userID]; ok {
		return email
	}
	return identity.Fallback(userID)
}

type fixture struct {
	svc *Service
	st  *storetest.Store
	doc *models.Document
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := storetest.New()
	svc := NewService(st, staticResolver{"owner": "owner@example.com"}, 0, nil)

	doc := &models.Document{Title: "Roadmap", OwnerID: "owner"}
	require.NoError(t, st.Documents().Create(context.Background(), doc))

	return &fixture{svc: svc, st: st, doc: doc}
}

func (f *fixture) send(t *testing.T, email string) *models.Invitation {
	t.Helper()
	inv, err := f.svc.Send(context.Background(), "owner", SendInput{
		DocumentID: f.doc.ID,
		Email:      email,
		Permission: models.PermissionEdit,
	})
	require.NoError(t, err)
	return inv
}

func TestSendPopulatesInvitation(t *testing.T) {
	f := newFixture(t)

	inv := f.send(t, "bob@example.com")

	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, models.InvitationStatusPending, inv.Status)
	assert.Equal(t, "Roadmap", inv.DocumentTitle)
	assert.Equal(t, "owner@example.com", inv.InvitedBy.Email)
	assert.Equal(t, "You've been invited to collaborate on Roadmap", inv.Message)
	assert.WithinDuration(t, inv.InvitedAt.Add(DefaultTTL), inv.ExpiresAt, time.Second)
}

func TestSendUsesFallbackSenderEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := &models.Document{Title: "Other", OwnerID: "0123456789abcdef"}
	require.NoError(t, f.st.Documents().Create(ctx, doc))

	inv, err := f.svc.Send(ctx, "0123456789abcdef", SendInput{
		DocumentID: doc.ID,
		Email:      "bob@example.com",
		Permission: models.PermissionView,
	})
	require.NoError(t, err)
	assert.Equal(t, "User 01234567", inv.InvitedBy.Email)
}

func TestSendRequiresOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Send(context.Background(), "someone-else", SendInput{
		DocumentID: f.doc.ID,
		Email:      "bob@example.com",
		Permission: models.PermissionEdit,
	})
	assert.Equal(t, errs.KindAuthorization, errs.KindOf(err))
}

func TestSendDuplicatePendingIsConflict(t *testing.T) {
	f := newFixture(t)
	f.send(t, "bob@example.com")

	_, err := f.svc.Send(context.Background(), "owner", SendInput{
		DocumentID: f.doc.ID,
		Email:      "bob@example.com",
		Permission: models.PermissionView,
	})
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestSendToExistingCollaboratorIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv := f.send(t, "bob@example.com")
	_, err := f.svc.Accept(ctx, inv.ID, "bob", "bob@example.com")
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, "owner", SendInput{
		DocumentID: f.doc.ID,
		Email:      "bob@example.com",
		Permission: models.PermissionEdit,
	})
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestSendMissingDocumentIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Send(context.Background(), "owner", SendInput{
		DocumentID: "missing",
		Email:      "bob@example.com",
		Permission: models.PermissionEdit,
	})
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestAcceptAddsCollaborator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv := f.send(t, "bob@example.com")

	doc, err := f.svc.Accept(ctx, inv.ID, "bob", "bob@example.com")
	require.NoError(t, err)

	c, ok := doc.Collaborator("bob")
	require.True(t, ok)
	assert.Equal(t, models.PermissionEdit, c.Permission)
	assert.Equal(t, "bob@example.com", c.Email)

	stored, err := f.st.Invitations().Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusAccepted, stored.Status)
	assert.NotNil(t, stored.RespondedAt)
	assert.Equal(t, "bob", stored.InvitedUser.UserID)
}

func TestAcceptWrongEmailIsAuthorization(t *testing.T) {
	f := newFixture(t)

	inv := f.send(t, "bob@example.com")

	_, err := f.svc.Accept(context.Background(), inv.ID, "mallory", "mallory@example.com")
	assert.Equal(t, errs.KindAuthorization, errs.KindOf(err))
}

func TestAcceptTwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv := f.send(t, "bob@example.com")

	_, err := f.svc.Accept(ctx, inv.ID, "bob", "bob@example.com")
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, inv.ID, "bob", "bob@example.com")
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestAcceptExpiredPersistsExpiredStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv := &models.Invitation{
		DocumentID:  f.doc.ID,
		InvitedBy:   models.InvitationUser{UserID: "owner", Email: "owner@example.com"},
		InvitedUser: models.InvitationUser{Email: "bob@example.com"},
		Permission:  models.PermissionEdit,
		Status:      models.InvitationStatusPending,
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, f.st.Invitations().Create(ctx, inv))

	_, err := f.svc.Accept(ctx, inv.ID, "bob", "bob@example.com")
	assert.Equal(t, errs.KindExpired, errs.KindOf(err))

	stored, err := f.st.Invitations().Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusExpired, stored.Status)
	assert.NotNil(t, stored.RespondedAt)

	// Expiry is terminal; the accept cannot be retried.
	_, err = f.svc.Accept(ctx, inv.ID, "bob", "bob@example.com")
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestDeclineExpiredPersistsExpiredStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv := &models.Invitation{
		DocumentID:  f.doc.ID,
		InvitedBy:   models.InvitationUser{UserID: "owner", Email: "owner@example.com"},
		InvitedUser: models.InvitationUser{Email: "bob@example.com"},
		Permission:  models.PermissionEdit,
		Status:      models.InvitationStatusPending,
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, f.st.Invitations().Create(ctx, inv))

	_, err := f.svc.Decline(ctx, inv.ID, "bob@example.com")
	assert.Equal(t, errs.KindExpired, errs.KindOf(err))

	stored, err := f.st.Invitations().Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusExpired, stored.Status)
	assert.NotNil(t, stored.RespondedAt)

	_, err = f.svc.Decline(ctx, inv.ID, "bob@example.com")
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestDecline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv := f.send(t, "bob@example.com")

	declined, err := f.svc.Decline(ctx, inv.ID, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusDeclined, declined.Status)
	assert.NotNil(t, declined.RespondedAt)

	// Declining leaves the document untouched.
	doc, err := f.st.Documents().Get(ctx, f.doc.ID)
	require.NoError(t, err)
	assert.Empty(t, doc.Collaborators)
}

func TestDeclineWrongEmailIsAuthorization(t *testing.T) {
	f := newFixture(t)

	inv := f.send(t, "bob@example.com")

	_, err := f.svc.Decline(context.Background(), inv.ID, "mallory@example.com")
	assert.Equal(t, errs.KindAuthorization, errs.KindOf(err))
}

func TestCancelBySender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv := f.send(t, "bob@example.com")

	require.NoError(t, f.svc.Cancel(ctx, inv.ID, "owner"))

	stored, err := f.st.Invitations().Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusCancelled, stored.Status)

	// A cancelled invitation frees the (document, email) slot.
	f.send(t, "bob@example.com")
}

func TestCancelByNonSenderIsAuthorization(t *testing.T) {
	f := newFixture(t)

	inv := f.send(t, "bob@example.com")

	err := f.svc.Cancel(context.Background(), inv.ID, "bob")
	assert.Equal(t, errs.KindAuthorization, errs.KindOf(err))
}

func TestCancelAfterResponseIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv := f.send(t, "bob@example.com")
	_, err := f.svc.Decline(ctx, inv.ID, "bob@example.com")
	require.NoError(t, err)

	err = f.svc.Cancel(ctx, inv.ID, "owner")
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestListAndCountPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc2 := &models.Document{Title: "Second", OwnerID: "owner"}
	require.NoError(t, f.st.Documents().Create(ctx, doc2))

	f.send(t, "bob@example.com")
	inv2, err := f.svc.Send(ctx, "owner", SendInput{
		DocumentID: doc2.ID,
		Email:      "bob@example.com",
		Permission: models.PermissionView,
	})
	require.NoError(t, err)

	invs, err := f.svc.ListPending(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Len(t, invs, 2)

	n, err := f.svc.CountPending(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.svc.Decline(ctx, inv2.ID, "bob@example.com")
	require.NoError(t, err)

	n, err = f.svc.CountPending(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
