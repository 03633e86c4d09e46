package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/voyara/poimod/internal/adapter/sqlite"
	"github.com/voyara/poimod/internal/domain"
)

// newTestRepo creates an in-memory SQLite repository for testing.
func newTestRepo(t *testing.T) *sqlite.POIRepository {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCreate(t *testing.T, repo *sqlite.POIRepository, poi domain.POI) {
	t.Helper()
	if err := repo.Create(context.Background(), poi); err != nil {
		t.Fatalf("mustCreate failed: %v", err)
	}
}

func statusMessage(poi domain.POI, content string) *domain.Message {
	m := domain.NewMessage("m-"+content, "", domain.RoleAdmin, "admin-1", domain.MessageStatusChange, content)
	return &m
}

func TestCreate_And_GetByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	poi := domain.NewPOI("poi-1", "owner-1", "partner-1", "Café de la Gare")

	if err := repo.Create(ctx, poi); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "poi-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.ID != "poi-1" {
		t.Errorf("ID = %q, want %q", got.ID, "poi-1")
	}
	if got.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %q, want %q", got.OwnerID, "owner-1")
	}
	if got.PartnerID != "partner-1" {
		t.Errorf("PartnerID = %q, want %q", got.PartnerID, "partner-1")
	}
	if got.Name != "Café de la Gare" {
		t.Errorf("Name = %q, want %q", got.Name, "Café de la Gare")
	}
	if got.Status != domain.StatusDraft {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusDraft)
	}
	if got.SubmissionCount != 1 {
		t.Errorf("SubmissionCount = %d, want 1", got.SubmissionCount)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
	if got.ValidatedAt != nil {
		t.Errorf("ValidatedAt = %v, want nil", got.ValidatedAt)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrPOINotFound) {
		t.Errorf("expected ErrPOINotFound, got %v", err)
	}
}

func TestApplyTransition(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	poi := domain.NewPOI("poi-1", "owner-1", "", "Musée")
	mustCreate(t, repo, poi)

	updated := poi
	updated.Status = domain.StatusPendingValidation
	updated.Version = 2
	updated.UpdatedAt = time.Now().UTC()

	got, err := repo.ApplyTransition(ctx, updated, 1, nil)
	if err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}
	if got.Status != domain.StatusPendingValidation {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusPendingValidation)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}

	stored, err := repo.GetByID(ctx, "poi-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Status != domain.StatusPendingValidation {
		t.Errorf("stored Status = %q, want %q", stored.Status, domain.StatusPendingValidation)
	}
	if stored.Version != 2 {
		t.Errorf("stored Version = %d, want 2", stored.Version)
	}
}

func TestApplyTransition_VersionConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	poi := domain.NewPOI("poi-1", "owner-1", "", "Musée")
	mustCreate(t, repo, poi)

	first := poi
	first.Status = domain.StatusPendingValidation
	first.Version = 2
	if _, err := repo.ApplyTransition(ctx, first, 1, nil); err != nil {
		t.Fatalf("first ApplyTransition failed: %v", err)
	}

	// Second writer still holds version 1.
	second := poi
	second.Status = domain.StatusPendingValidation
	second.Version = 2

	_, err := repo.ApplyTransition(ctx, second, 1, nil)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ExpectedVersion != 1 {
		t.Errorf("ExpectedVersion = %d, want 1", conflict.ExpectedVersion)
	}
	if conflict.CurrentVersion != 2 {
		t.Errorf("CurrentVersion = %d, want 2", conflict.CurrentVersion)
	}
	if conflict.CurrentStatus != domain.StatusPendingValidation {
		t.Errorf("CurrentStatus = %q, want %q", conflict.CurrentStatus, domain.StatusPendingValidation)
	}
}

func TestApplyTransition_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	poi := domain.NewPOI("nonexistent", "owner-1", "", "X")
	poi.Version = 2

	_, err := repo.ApplyTransition(context.Background(), poi, 1, nil)
	if !errors.Is(err, domain.ErrPOINotFound) {
		t.Errorf("expected ErrPOINotFound, got %v", err)
	}
}

func TestApplyTransition_CreatesConversationAndMessage(t *testing.T) {
	repo := newTestRepo(t)
	convs := sqlite.NewConversationRepository(repo.DB())
	ctx := context.Background()

	poi := domain.NewPOI("poi-1", "owner-1", "", "Musée")
	mustCreate(t, repo, poi)

	updated := poi
	updated.Status = domain.StatusUnderReview
	updated.Version = 2

	got, err := repo.ApplyTransition(ctx, updated, 1, statusMessage(poi, "Statut mis à jour : En cours de révision"))
	if err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}
	if got.ConversationID == "" {
		t.Fatal("ConversationID should be set after a transition with a message")
	}

	conv, err := convs.GetByPOI(ctx, "poi-1")
	if err != nil {
		t.Fatalf("GetByPOI failed: %v", err)
	}
	if conv.ID != got.ConversationID {
		t.Errorf("conversation ID = %q, want %q", conv.ID, got.ConversationID)
	}

	msgs, err := convs.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Type != domain.MessageStatusChange {
		t.Errorf("Type = %q, want %q", msgs[0].Type, domain.MessageStatusChange)
	}
	if msgs[0].ConversationID != conv.ID {
		t.Errorf("message ConversationID = %q, want %q", msgs[0].ConversationID, conv.ID)
	}
}

func TestApplyTransition_ReusesConversation(t *testing.T) {
	repo := newTestRepo(t)
	convs := sqlite.NewConversationRepository(repo.DB())
	ctx := context.Background()

	poi := domain.NewPOI("poi-1", "owner-1", "", "Musée")
	mustCreate(t, repo, poi)

	first := poi
	first.Status = domain.StatusUnderReview
	first.Version = 2
	stored, err := repo.ApplyTransition(ctx, first, 1, statusMessage(poi, "review"))
	if err != nil {
		t.Fatalf("first ApplyTransition failed: %v", err)
	}

	second := stored
	second.Status = domain.StatusRejected
	second.RejectionReason = "incomplet"
	second.Version = 3
	got, err := repo.ApplyTransition(ctx, second, 2, statusMessage(poi, "rejected"))
	if err != nil {
		t.Fatalf("second ApplyTransition failed: %v", err)
	}
	if got.ConversationID != stored.ConversationID {
		t.Errorf("ConversationID = %q, want %q", got.ConversationID, stored.ConversationID)
	}

	msgs, err := convs.ListMessages(ctx, got.ConversationID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("got %d messages, want 2", len(msgs))
	}
}

func TestApplyTransition_ConflictWritesNothing(t *testing.T) {
	repo := newTestRepo(t)
	convs := sqlite.NewConversationRepository(repo.DB())
	ctx := context.Background()

	poi := domain.NewPOI("poi-1", "owner-1", "", "Musée")
	mustCreate(t, repo, poi)

	stale := poi
	stale.Status = domain.StatusUnderReview
	stale.Version = 3

	_, err := repo.ApplyTransition(ctx, stale, 2, statusMessage(poi, "review"))
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	// The rolled-back transaction must not leave a conversation behind.
	if _, err := convs.GetByPOI(ctx, "poi-1"); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestApplyTransition_ValidatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	poi := domain.NewPOI("poi-1", "owner-1", "", "Musée")
	mustCreate(t, repo, poi)

	now := time.Now().UTC()
	updated := poi
	updated.Status = domain.StatusApproved
	updated.ValidatedAt = &now
	updated.Version = 2

	if _, err := repo.ApplyTransition(ctx, updated, 1, statusMessage(poi, "approved")); err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "poi-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ValidatedAt == nil {
		t.Fatal("ValidatedAt should be set")
	}
	if got.ValidatedAt.Sub(now).Abs() > time.Second {
		t.Errorf("ValidatedAt = %v, want close to %v", got.ValidatedAt, now)
	}
}

func TestList_All(t *testing.T) {
	repo := newTestRepo(t)

	mustCreate(t, repo, domain.NewPOI("poi-1", "owner-1", "", "A"))
	mustCreate(t, repo, domain.NewPOI("poi-2", "owner-2", "", "B"))

	pois, err := repo.List(context.Background(), domain.ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pois) != 2 {
		t.Errorf("got %d pois, want 2", len(pois))
	}
}

func TestList_FilterByStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, domain.NewPOI("poi-1", "owner-1", "", "A"))

	p2 := domain.NewPOI("poi-2", "owner-2", "", "B")
	mustCreate(t, repo, p2)

	p2.Status = domain.StatusPendingValidation
	p2.Version = 2
	if _, err := repo.ApplyTransition(ctx, p2, 1, nil); err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}

	status := domain.StatusPendingValidation
	pois, err := repo.List(ctx, domain.ListFilter{Status: &status})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pois) != 1 {
		t.Fatalf("got %d pois, want 1", len(pois))
	}
	if pois[0].ID != "poi-2" {
		t.Errorf("ID = %q, want %q", pois[0].ID, "poi-2")
	}
}

func TestList_FilterByOwner(t *testing.T) {
	repo := newTestRepo(t)

	mustCreate(t, repo, domain.NewPOI("poi-1", "owner-1", "", "A"))
	mustCreate(t, repo, domain.NewPOI("poi-2", "owner-2", "", "B"))
	mustCreate(t, repo, domain.NewPOI("poi-3", "owner-3", "owner-1", "C"))

	pois, err := repo.List(context.Background(), domain.ListFilter{OwnerID: "owner-1"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	// Matches both direct ownership and the partner slot.
	if len(pois) != 2 {
		t.Fatalf("got %d pois, want 2", len(pois))
	}
}

func TestList_Pagination(t *testing.T) {
	repo := newTestRepo(t)

	for i := range 5 {
		id := fmt.Sprintf("poi-%d", i)
		mustCreate(t, repo, domain.NewPOI(id, "owner-1", "", "P"))
	}

	pois, err := repo.List(context.Background(), domain.ListFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pois) != 2 {
		t.Errorf("got %d pois, want 2", len(pois))
	}
}
