// Package storetest provides an in-memory store.Store for service tests.
// It mirrors the postgres implementation's observable behavior: generated
// IDs, (nil, nil) for absent rows, a Conflict error for duplicate pending
// invitations, and copy-on-read so callers never alias stored rows.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scribehub/scribe-server/internal/errs"
	"github.com/scribehub/scribe-server/internal/models"
	"github.com/scribehub/scribe-server/internal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu            sync.RWMutex
	documents     map[string]*models.Document
	invitations   map[string]*models.Invitation
	versions      []*models.Version
	contributions map[string]*models.Contribution
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		documents:     make(map[string]*models.Document),
		invitations:   make(map[string]*models.Invitation),
		contributions: make(map[string]*models.Contribution),
	}
}

// Documents returns the document store.
func (s *Store) Documents() store.DocumentStore { return &documentStore{s} }

// Invitations returns the invitation store.
func (s *Store) Invitations() store.InvitationStore { return &invitationStore{s} }

// Versions returns the version store.
func (s *Store) Versions() store.VersionStore { return &versionStore{s} }

// Contributions returns the contribution store.
func (s *Store) Contributions() store.ContributionStore { return &contributionStore{s} }

// WithTx runs fn against the same store. There is no rollback; tests that
// exercise transactional failure paths use sqlmock against postgres.
func (s *Store) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return fn(s)
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

type documentStore struct{ s *Store }

func (d *documentStore) Create(ctx context.Context, doc *models.Document) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}
	d.s.documents[doc.ID] = copyDocument(doc)
	return nil
}

func (d *documentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	doc, ok := d.s.documents[id]
	if !ok {
		return nil, nil
	}
	return copyDocument(doc), nil
}

func (d *documentStore) Update(ctx context.Context, doc *models.Document) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	d.s.documents[doc.ID] = copyDocument(doc)
	return nil
}

func (d *documentStore) Delete(ctx context.Context, id string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	delete(d.s.documents, id)
	return nil
}

func (d *documentStore) ListAccessible(ctx context.Context, userID string) ([]*models.Document, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	var docs []*models.Document
	for _, doc := range d.s.documents {
		if doc.OwnerID == userID {
			docs = append(docs, copyDocument(doc))
			continue
		}
		if _, ok := doc.Collaborator(userID); ok {
			docs = append(docs, copyDocument(doc))
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
	return docs, nil
}

type invitationStore struct{ s *Store }

func (i *invitationStore) Create(ctx context.Context, inv *models.Invitation) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()

	for _, existing := range i.s.invitations {
		if existing.DocumentID == inv.DocumentID &&
			existing.InvitedUser.Email == inv.InvitedUser.Email &&
			existing.Status == models.InvitationStatusPending {
			return errs.Conflict("invitation already sent to %s", inv.InvitedUser.Email)
		}
	}

	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.InvitedAt.IsZero() {
		inv.InvitedAt = time.Now()
	}
	i.s.invitations[inv.ID] = copyInvitation(inv)
	return nil
}

func (i *invitationStore) Get(ctx context.Context, id string) (*models.Invitation, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()

	inv, ok := i.s.invitations[id]
	if !ok {
		return nil, nil
	}
	return copyInvitation(inv), nil
}

func (i *invitationStore) GetPending(ctx context.Context, documentID, email string) (*models.Invitation, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()

	for _, inv := range i.s.invitations {
		if inv.DocumentID == documentID && inv.InvitedUser.Email == email &&
			inv.Status == models.InvitationStatusPending {
			return copyInvitation(inv), nil
		}
	}
	return nil, nil
}

func (i *invitationStore) ListPendingByEmail(ctx context.Context, email string) ([]*models.Invitation, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()

	var invs []*models.Invitation
	for _, inv := range i.s.invitations {
		if inv.InvitedUser.Email == email && inv.Status == models.InvitationStatusPending {
			invs = append(invs, copyInvitation(inv))
		}
	}
	sort.Slice(invs, func(a, b int) bool {
		return invs[a].InvitedAt.After(invs[b].InvitedAt)
	})
	return invs, nil
}

func (i *invitationStore) CountPendingByEmail(ctx context.Context, email string) (int, error) {
	invs, err := i.ListPendingByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	return len(invs), nil
}

func (i *invitationStore) UpdateStatus(ctx context.Context, inv *models.Invitation) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()

	stored, ok := i.s.invitations[inv.ID]
	if !ok {
		return nil
	}
	stored.Status = inv.Status
	stored.RespondedAt = inv.RespondedAt
	stored.InvitedUser.UserID = inv.InvitedUser.UserID
	return nil
}

func (i *invitationStore) DeleteByDocument(ctx context.Context, documentID string) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()

	for id, inv := range i.s.invitations {
		if inv.DocumentID == documentID {
			delete(i.s.invitations, id)
		}
	}
	return nil
}

type versionStore struct{ s *Store }

func (v *versionStore) Create(ctx context.Context, ver *models.Version) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if ver.ID == "" {
		ver.ID = uuid.New().String()
	}
	if ver.Timestamp.IsZero() {
		ver.Timestamp = time.Now()
	}
	cp := *ver
	v.s.versions = append(v.s.versions, &cp)
	return nil
}

func (v *versionStore) Get(ctx context.Context, id string) (*models.Version, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	for _, ver := range v.s.versions {
		if ver.ID == id {
			cp := *ver
			return &cp, nil
		}
	}
	return nil, nil
}

func (v *versionStore) Latest(ctx context.Context, documentID string) (*models.Version, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	var latest *models.Version
	for _, ver := range v.s.versions {
		if ver.DocumentID != documentID {
			continue
		}
		if latest == nil || !ver.Timestamp.Before(latest.Timestamp) {
			latest = ver
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (v *versionStore) ListByDocument(ctx context.Context, documentID string) ([]*models.Version, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	var vers []*models.Version
	for _, ver := range v.s.versions {
		if ver.DocumentID == documentID {
			cp := *ver
			vers = append(vers, &cp)
		}
	}
	sort.SliceStable(vers, func(a, b int) bool {
		return vers[a].Timestamp.After(vers[b].Timestamp)
	})
	return vers, nil
}

func (v *versionStore) DeleteByDocument(ctx context.Context, documentID string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	kept := v.s.versions[:0]
	for _, ver := range v.s.versions {
		if ver.DocumentID != documentID {
			kept = append(kept, ver)
		}
	}
	v.s.versions = kept
	return nil
}

type contributionStore struct{ s *Store }

func contributionKey(documentID, userID string) string {
	return documentID + "|" + userID
}

func (c *contributionStore) Get(ctx context.Context, documentID, userID string) (*models.Contribution, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	contrib, ok := c.s.contributions[contributionKey(documentID, userID)]
	if !ok {
		return nil, nil
	}
	cp := *contrib
	return &cp, nil
}

func (c *contributionStore) Upsert(ctx context.Context, contrib *models.Contribution) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if contrib.ID == "" {
		contrib.ID = uuid.New().String()
	}
	cp := *contrib
	c.s.contributions[contributionKey(contrib.DocumentID, contrib.UserID)] = &cp
	return nil
}

func (c *contributionStore) ListByDocument(ctx context.Context, documentID string) ([]*models.Contribution, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var contribs []*models.Contribution
	for _, contrib := range c.s.contributions {
		if contrib.DocumentID == documentID {
			cp := *contrib
			contribs = append(contribs, &cp)
		}
	}
	sort.Slice(contribs, func(a, b int) bool {
		return contribs[a].Stats.EditsCount > contribs[b].Stats.EditsCount
	})
	return contribs, nil
}

func (c *contributionStore) DeleteByDocument(ctx context.Context, documentID string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	for key, contrib := range c.s.contributions {
		if contrib.DocumentID == documentID {
			delete(c.s.contributions, key)
		}
	}
	return nil
}

func copyDocument(doc *models.Document) *models.Document {
	cp := *doc
	cp.Collaborators = append([]models.Collaborator(nil), doc.Collaborators...)
	return &cp
}

func copyInvitation(inv *models.Invitation) *models.Invitation {
	cp := *inv
	if inv.RespondedAt != nil {
		t := *inv.RespondedAt
		cp.RespondedAt = &t
	}
	return &cp
}
