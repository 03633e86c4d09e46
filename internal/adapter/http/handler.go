package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/voyara/poimod/internal/app"
	"github.com/voyara/poimod/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// POIResponse is the API representation of a point of interest.
type POIResponse struct {
	ID              string `json:"id" doc:"Unique identifier"`
	OwnerID         string `json:"owner_id" doc:"Owning identity"`
	PartnerID       string `json:"partner_id,omitempty" doc:"Optional second identity entitled to act as owner"`
	Name            string `json:"name" doc:"Display name"`
	Status          string `json:"status" doc:"Moderation state"`
	StatusLabel     string `json:"status_label" doc:"Display label for the current state"`
	SubmissionCount int    `json:"submission_count" doc:"Number of validation submissions, including the first"`
	RejectionReason string `json:"rejection_reason,omitempty" doc:"Set while the POI is rejected"`
	BlockedReason   string `json:"blocked_reason,omitempty" doc:"Set while the POI is blocked"`
	Version         int64  `json:"version" doc:"Optimistic concurrency version"`
	CreatedAt       string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt       string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
	ValidatedAt     string `json:"validated_at,omitempty" doc:"First approval timestamp (ISO 8601)"`
}

func toPOIResponse(p domain.POI) POIResponse {
	resp := POIResponse{
		ID:              p.ID,
		OwnerID:         p.OwnerID,
		PartnerID:       p.PartnerID,
		Name:            p.Name,
		Status:          string(p.Status),
		StatusLabel:     domain.StatusCatalog[p.Status].Label,
		SubmissionCount: p.SubmissionCount,
		RejectionReason: p.RejectionReason,
		BlockedReason:   p.BlockedReason,
		Version:         p.Version,
		CreatedAt:       p.CreatedAt.Format(timeFormat),
		UpdatedAt:       p.UpdatedAt.Format(timeFormat),
	}
	if p.ValidatedAt != nil {
		resp.ValidatedAt = p.ValidatedAt.Format(timeFormat)
	}
	return resp
}

// MessageResponse is the API representation of a conversation message.
// Outgoing is computed per request: true when the message was sent from
// the same side of the conversation as the viewer.
type MessageResponse struct {
	ID         string `json:"id" doc:"Unique identifier"`
	SenderRole string `json:"sender_role" doc:"Side that sent the message (admin or partner)"`
	SenderID   string `json:"sender_id" doc:"Identity that sent the message"`
	Type       string `json:"type" doc:"Message type"`
	Content    string `json:"content" doc:"Message body"`
	Outgoing   bool   `json:"outgoing" doc:"True when the viewer's side sent this message"`
	CreatedAt  string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toMessageResponse(m domain.Message, viewer domain.Role) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderRole: string(m.SenderRole),
		SenderID:   m.SenderID,
		Type:       string(m.Type),
		Content:    m.Content,
		Outgoing:   m.SenderRole == viewer,
		CreatedAt:  m.CreatedAt.Format(timeFormat),
	}
}

// StatusResponse is one entry of the status catalog.
type StatusResponse struct {
	Status      string `json:"status" doc:"Machine-readable state"`
	Label       string `json:"label" doc:"Display label"`
	Severity    string `json:"severity" doc:"Display severity hint"`
	Description string `json:"description" doc:"Human-readable explanation"`
}

// --- Create POI ---

type CreatePOIInput struct {
	ActorID string `header:"X-Actor-Id" doc:"Acting identity; becomes the POI owner"`
	Body    struct {
		Name      string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		PartnerID string `json:"partner_id,omitempty" required:"false" doc:"Optional second identity entitled to act as owner"`
	}
}

type CreatePOIOutput struct {
	Body POIResponse
}

// --- Get POI ---

type GetPOIInput struct {
	ID string `path:"id" doc:"POI ID"`
}

type GetPOIOutput struct {
	Body POIResponse
}

// --- List POIs ---

type ListPOIsInput struct {
	Status string `query:"status" required:"false" doc:"Filter by moderation state"`
	Owner  string `query:"owner" required:"false" doc:"Filter by owner or partner identity"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListPOIsOutput struct {
	Body []POIResponse
}

// --- Moderate ---

type ModerateInput struct {
	ID      string `path:"id" doc:"POI ID"`
	ActorID string `header:"X-Actor-Id" doc:"Acting identity"`
	Body    struct {
		Status          string `json:"status" doc:"Target moderation state" enum:"pending_validation,under_review,approved,rejected,blocked"`
		ExpectedVersion int64  `json:"expected_version" doc:"Version the caller last read"`
		Reason          string `json:"reason,omitempty" required:"false" doc:"Moderation reason; required when rejecting or blocking"`
		AdminMessage    string `json:"admin_message,omitempty" required:"false" doc:"Optional note appended to the audit message"`
	}
}

type ModerateOutput struct {
	Body POIResponse
}

// --- Resubmit ---

type ResubmitInput struct {
	ID      string `path:"id" doc:"POI ID"`
	ActorID string `header:"X-Actor-Id" doc:"Acting identity"`
	Body    struct {
		ExpectedVersion int64 `json:"expected_version" doc:"Version the caller last read"`
	}
}

type ResubmitOutput struct {
	Body POIResponse
}

// --- Messages ---

type ListMessagesInput struct {
	ID      string `path:"id" doc:"POI ID"`
	ActorID string `header:"X-Actor-Id" doc:"Acting identity"`
}

type ListMessagesOutput struct {
	Body []MessageResponse
}

type PostMessageInput struct {
	ID      string `path:"id" doc:"POI ID"`
	ActorID string `header:"X-Actor-Id" doc:"Acting identity"`
	Body    struct {
		Type    string `json:"type,omitempty" default:"comment" doc:"Message type" enum:"comment,request_info,justification"`
		Content string `json:"content" minLength:"1" doc:"Message body"`
	}
}

type PostMessageOutput struct {
	Body MessageResponse
}

// --- Status catalog ---

type ListStatusesOutput struct {
	Body []StatusResponse
}

// catalogOrder fixes the order the status catalog is served in, matching
// the lifecycle from draft to the terminal states.
var catalogOrder = []domain.Status{
	domain.StatusDraft,
	domain.StatusPendingValidation,
	domain.StatusUnderReview,
	domain.StatusApproved,
	domain.StatusRejected,
	domain.StatusBlocked,
}

// Register adds all POI moderation routes to the Huma API.
func Register(api huma.API, svc *app.ModerationService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-poi",
		Method:      http.MethodPost,
		Path:        "/api/v1/pois",
		Summary:     "Create a POI in draft state",
		Tags:        []string{"POIs"},
	}, func(ctx context.Context, input *CreatePOIInput) (*CreatePOIOutput, error) {
		if input.ActorID == "" {
			return nil, huma.Error401Unauthorized("missing X-Actor-Id header")
		}
		poi, err := svc.Create(ctx, input.ActorID, input.Body.PartnerID, input.Body.Name)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreatePOIOutput{Body: toPOIResponse(poi)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-poi",
		Method:      http.MethodGet,
		Path:        "/api/v1/pois/{id}",
		Summary:     "Get a POI by ID",
		Tags:        []string{"POIs"},
	}, func(ctx context.Context, input *GetPOIInput) (*GetPOIOutput, error) {
		poi, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetPOIOutput{Body: toPOIResponse(poi)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-pois",
		Method:      http.MethodGet,
		Path:        "/api/v1/pois",
		Summary:     "List POIs",
		Tags:        []string{"POIs"},
	}, func(ctx context.Context, input *ListPOIsInput) (*ListPOIsOutput, error) {
		filter := domain.ListFilter{
			OwnerID: input.Owner,
			Limit:   input.Limit,
			Offset:  input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		pois, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]POIResponse, len(pois))
		for i, p := range pois {
			resp[i] = toPOIResponse(p)
		}
		return &ListPOIsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "moderate-poi",
		Method:      http.MethodPost,
		Path:        "/api/v1/pois/{id}/moderate",
		Summary:     "Move a POI to a new moderation state",
		Tags:        []string{"Moderation"},
	}, func(ctx context.Context, input *ModerateInput) (*ModerateOutput, error) {
		if input.ActorID == "" {
			return nil, huma.Error401Unauthorized("missing X-Actor-Id header")
		}
		poi, err := svc.Transition(ctx, input.ID, input.ActorID, input.Body.ExpectedVersion,
			domain.Status(input.Body.Status), input.Body.Reason, input.Body.AdminMessage)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ModerateOutput{Body: toPOIResponse(poi)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resubmit-poi",
		Method:      http.MethodPost,
		Path:        "/api/v1/pois/{id}/resubmit",
		Summary:     "Resubmit a rejected or blocked POI for validation",
		Tags:        []string{"Moderation"},
	}, func(ctx context.Context, input *ResubmitInput) (*ResubmitOutput, error) {
		if input.ActorID == "" {
			return nil, huma.Error401Unauthorized("missing X-Actor-Id header")
		}
		poi, err := svc.Resubmit(ctx, input.ID, input.ActorID, input.Body.ExpectedVersion)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ResubmitOutput{Body: toPOIResponse(poi)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-poi-messages",
		Method:      http.MethodGet,
		Path:        "/api/v1/pois/{id}/messages",
		Summary:     "List the POI's conversation in chronological order",
		Tags:        []string{"Conversations"},
	}, func(ctx context.Context, input *ListMessagesInput) (*ListMessagesOutput, error) {
		if input.ActorID == "" {
			return nil, huma.Error401Unauthorized("missing X-Actor-Id header")
		}
		msgs, viewer, err := svc.ListMessages(ctx, input.ID, input.ActorID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]MessageResponse, len(msgs))
		for i, m := range msgs {
			resp[i] = toMessageResponse(m, viewer)
		}
		return &ListMessagesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "post-poi-message",
		Method:      http.MethodPost,
		Path:        "/api/v1/pois/{id}/messages",
		Summary:     "Post a message to the POI's conversation",
		Tags:        []string{"Conversations"},
	}, func(ctx context.Context, input *PostMessageInput) (*PostMessageOutput, error) {
		if input.ActorID == "" {
			return nil, huma.Error401Unauthorized("missing X-Actor-Id header")
		}
		msg, err := svc.PostMessage(ctx, input.ID, input.ActorID,
			domain.MessageType(input.Body.Type), input.Body.Content)
		if err != nil {
			return nil, toHumaError(err)
		}
		// The author always sees their own message as outgoing.
		return &PostMessageOutput{Body: toMessageResponse(msg, msg.SenderRole)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-poi-statuses",
		Method:      http.MethodGet,
		Path:        "/api/v1/poi-statuses",
		Summary:     "List the status catalog",
		Tags:        []string{"POIs"},
	}, func(_ context.Context, _ *struct{}) (*ListStatusesOutput, error) {
		resp := make([]StatusResponse, len(catalogOrder))
		for i, s := range catalogOrder {
			info := domain.StatusCatalog[s]
			resp[i] = StatusResponse{
				Status:      string(s),
				Label:       info.Label,
				Severity:    info.Severity,
				Description: info.Description,
			}
		}
		return &ListStatusesOutput{Body: resp}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrPOINotFound) {
		return huma.Error404NotFound("poi not found")
	}

	var forbiddenErr *domain.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return huma.Error403Forbidden(forbiddenErr.Error())
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return huma.Error409Conflict(conflictErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var reasonErr *domain.ReasonRequiredError
	if errors.As(err, &reasonErr) {
		return huma.Error422UnprocessableEntity(reasonErr.Error())
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return huma.Error422UnprocessableEntity(valErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
