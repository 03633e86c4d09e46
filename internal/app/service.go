package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voyara/poimod/internal/domain"
)

// ModerationService orchestrates the POI moderation lifecycle: status
// transitions, resubmissions, and the conversation attached to each POI.
type ModerationService struct {
	pois      domain.POIRepository
	convs     domain.ConversationRepository
	roles     domain.RoleResolver
	validator domain.TransitionValidator
	publisher domain.NotificationPublisher
}

// NewModerationService creates a service with the given adapters.
func NewModerationService(
	pois domain.POIRepository,
	convs domain.ConversationRepository,
	roles domain.RoleResolver,
	validator domain.TransitionValidator,
	publisher domain.NotificationPublisher,
) *ModerationService {
	return &ModerationService{
		pois:      pois,
		convs:     convs,
		roles:     roles,
		validator: validator,
		publisher: publisher,
	}
}

// Create persists a new POI in the draft state, owned by ownerID.
func (s *ModerationService) Create(ctx context.Context, ownerID, partnerID, name string) (domain.POI, error) {
	id, err := generateID()
	if err != nil {
		return domain.POI{}, fmt.Errorf("generating poi id: %w", err)
	}

	poi := domain.NewPOI(id, ownerID, partnerID, name)

	if err := s.pois.Create(ctx, poi); err != nil {
		return domain.POI{}, fmt.Errorf("creating poi: %w", err)
	}

	return poi, nil
}

// GetByID returns a POI by its unique identifier.
func (s *ModerationService) GetByID(ctx context.Context, id string) (domain.POI, error) {
	return s.pois.GetByID(ctx, id)
}

// List returns POIs matching the given filter.
func (s *ModerationService) List(ctx context.Context, filter domain.ListFilter) ([]domain.POI, error) {
	return s.pois.List(ctx, filter)
}

// Transition moves a POI to target, enforcing the transition table, the
// per-edge actor requirement, the reason requirement for rejections and
// blocks, and the optimistic version check. The status mutation and its
// audit message commit as one atomic unit; the notification dispatch
// happens after the commit and never rolls it back.
func (s *ModerationService) Transition(ctx context.Context, poiID, actorID string, expectedVersion int64, target domain.Status, reason, adminMessage string) (domain.POI, error) {
	poi, err := s.pois.GetByID(ctx, poiID)
	if err != nil {
		return domain.POI{}, err
	}

	tr, ok := domain.TransitionFor(poi.Status, target)
	if !ok {
		return domain.POI{}, &domain.TransitionError{From: poi.Status, To: target}
	}

	roles, err := s.roles.Resolve(ctx, actorID, poi)
	if err != nil {
		return domain.POI{}, fmt.Errorf("resolving roles: %w", err)
	}
	if !roles.Has(tr.Actor) {
		return domain.POI{}, &domain.ForbiddenError{
			ActorID: actorID,
			Action:  fmt.Sprintf("set status %q on poi %s", target, poi.ID),
		}
	}

	if expectedVersion != poi.Version {
		return domain.POI{}, &domain.ConflictError{
			ExpectedVersion: expectedVersion,
			CurrentVersion:  poi.Version,
			CurrentStatus:   poi.Status,
		}
	}

	// The FSM is authoritative for edge validity; the table lookup above
	// only selected the edge metadata.
	if _, err := s.validator.Apply(ctx, poi.Status, tr.Event); err != nil {
		return domain.POI{}, err
	}

	reason = strings.TrimSpace(reason)
	if tr.NeedsReason && reason == "" {
		return domain.POI{}, &domain.ReasonRequiredError{Target: target}
	}

	updated := poi
	updated.Status = target
	updated.RejectionReason = ""
	updated.BlockedReason = ""
	switch target {
	case domain.StatusRejected:
		updated.RejectionReason = reason
	case domain.StatusBlocked:
		updated.BlockedReason = reason
	case domain.StatusApproved:
		if poi.ValidatedAt == nil {
			now := time.Now().UTC()
			updated.ValidatedAt = &now
		}
	}
	if tr.Event == domain.EventResubmit {
		updated.SubmissionCount = poi.SubmissionCount + 1
	}
	updated.Version = poi.Version + 1
	updated.UpdatedAt = time.Now().UTC()

	msg, err := s.transitionMessage(tr, updated, actorID, reason, adminMessage)
	if err != nil {
		return domain.POI{}, err
	}

	persisted, err := s.pois.ApplyTransition(ctx, updated, poi.Version, msg)
	if err != nil {
		return domain.POI{}, err
	}

	s.notify(ctx, persisted, reason, adminMessage)

	return persisted, nil
}

// Resubmit is the owner-triggered rejected/blocked → pending_validation
// edge: it increments the submission counter, clears both reason
// fields, and appends a resubmission comment. If the POI is already
// pending_validation the call is a retry of an already-applied
// resubmission and returns the current POI unchanged.
func (s *ModerationService) Resubmit(ctx context.Context, poiID, actorID string, expectedVersion int64) (domain.POI, error) {
	poi, err := s.pois.GetByID(ctx, poiID)
	if err != nil {
		return domain.POI{}, err
	}

	roles, err := s.roles.Resolve(ctx, actorID, poi)
	if err != nil {
		return domain.POI{}, fmt.Errorf("resolving roles: %w", err)
	}
	if !roles.Has(domain.RolePartner) {
		return domain.POI{}, &domain.ForbiddenError{
			ActorID: actorID,
			Action:  fmt.Sprintf("resubmit poi %s", poi.ID),
		}
	}

	if poi.Status == domain.StatusPendingValidation {
		return poi, nil
	}

	if poi.Status != domain.StatusRejected && poi.Status != domain.StatusBlocked {
		return domain.POI{}, &domain.TransitionError{From: poi.Status, To: domain.StatusPendingValidation}
	}

	return s.Transition(ctx, poiID, actorID, expectedVersion, domain.StatusPendingValidation, "", "")
}

// PostMessage appends a free-form message to the POI's conversation,
// creating the conversation if this is its first message. The
// status_change type is reserved for the moderation engine.
func (s *ModerationService) PostMessage(ctx context.Context, poiID, actorID string, msgType domain.MessageType, content string) (domain.Message, error) {
	poi, err := s.pois.GetByID(ctx, poiID)
	if err != nil {
		return domain.Message{}, err
	}

	roles, err := s.roles.Resolve(ctx, actorID, poi)
	if err != nil {
		return domain.Message{}, fmt.Errorf("resolving roles: %w", err)
	}
	if roles.Empty() {
		return domain.Message{}, &domain.ForbiddenError{
			ActorID: actorID,
			Action:  fmt.Sprintf("post to the conversation of poi %s", poi.ID),
		}
	}

	if !isFreeForm(msgType) {
		return domain.Message{}, &domain.ValidationError{
			Detail: fmt.Sprintf("message type %q cannot be posted directly", msgType),
		}
	}
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, &domain.ValidationError{Detail: "message content must not be empty"}
	}

	conv, err := s.convs.GetOrCreate(ctx, poiID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("getting conversation: %w", err)
	}

	id, err := generateID()
	if err != nil {
		return domain.Message{}, fmt.Errorf("generating message id: %w", err)
	}

	msg := domain.NewMessage(id, conv.ID, roles.SenderRole(), actorID, msgType, content)

	if err := s.convs.AppendMessage(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("appending message: %w", err)
	}

	return msg, nil
}

// ListMessages returns the POI's conversation in chronological order,
// along with the viewer's role in it so the transport can project the
// outgoing/incoming alignment per request. A POI without a conversation
// yields an empty list.
func (s *ModerationService) ListMessages(ctx context.Context, poiID, actorID string) ([]domain.Message, domain.Role, error) {
	poi, err := s.pois.GetByID(ctx, poiID)
	if err != nil {
		return nil, "", err
	}

	roles, err := s.roles.Resolve(ctx, actorID, poi)
	if err != nil {
		return nil, "", fmt.Errorf("resolving roles: %w", err)
	}
	if roles.Empty() {
		return nil, "", &domain.ForbiddenError{
			ActorID: actorID,
			Action:  fmt.Sprintf("read the conversation of poi %s", poi.ID),
		}
	}

	viewer := roles.SenderRole()

	conv, err := s.convs.GetByPOI(ctx, poiID)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return []domain.Message{}, viewer, nil
		}
		return nil, "", fmt.Errorf("getting conversation: %w", err)
	}

	msgs, err := s.convs.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, "", fmt.Errorf("listing messages: %w", err)
	}

	return msgs, viewer, nil
}

// transitionMessage builds the audit message committed alongside a
// transition. Resubmissions get a comment; decisions landing on
// under_review, approved, rejected, or blocked get a status_change.
// The submit edge produces no message.
func (s *ModerationService) transitionMessage(tr domain.Transition, updated domain.POI, actorID, reason, adminMessage string) (*domain.Message, error) {
	var msgType domain.MessageType
	var content string

	switch {
	case tr.Event == domain.EventSubmit:
		return nil, nil
	case tr.Event == domain.EventResubmit:
		msgType = domain.MessageComment
		content = fmt.Sprintf("Resoumission #%d", updated.SubmissionCount)
	default:
		msgType = domain.MessageStatusChange
		parts := []string{"Statut mis à jour : " + domain.StatusCatalog[updated.Status].Label}
		if reason != "" {
			parts = append(parts, "Raison : "+reason)
		}
		if adminMessage != "" {
			parts = append(parts, adminMessage)
		}
		content = strings.Join(parts, "\n")
	}

	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	msg := domain.NewMessage(id, "", tr.Actor, actorID, msgType, content)
	return &msg, nil
}

// notify dispatches the status-change event. Dispatch failures are
// logged and never fail the already-committed transition.
func (s *ModerationService) notify(ctx context.Context, poi domain.POI, reason, adminMessage string) {
	err := s.publisher.Publish(ctx, domain.StatusNotification{
		POIID:        poi.ID,
		POIName:      poi.Name,
		OwnerID:      poi.OwnerID,
		Status:       poi.Status,
		Reason:       reason,
		AdminMessage: adminMessage,
	})
	if err != nil {
		slog.WarnContext(ctx, "notification dispatch failed",
			"poi_id", poi.ID,
			"status", poi.Status,
			"error", err,
		)
	}
}

func isFreeForm(msgType domain.MessageType) bool {
	for _, t := range domain.FreeFormMessageTypes {
		if t == msgType {
			return true
		}
	}
	return false
}
