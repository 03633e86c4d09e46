package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/voyara/poimod/internal/domain"
)

// Compile-time check: Publisher implements domain.NotificationPublisher.
var _ domain.NotificationPublisher = (*Publisher)(nil)

// NotificationJobArgs carries the data needed to deliver a status
// notification asynchronously. River serializes this as JSON into its
// job queue table. It includes a snapshot of the POI at the time the
// transition committed, so the worker never needs to query the database.
type NotificationJobArgs struct {
	POIID        string `json:"poi_id"`
	POIName      string `json:"poi_name"`
	OwnerID      string `json:"owner_id"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	AdminMessage string `json:"admin_message,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (NotificationJobArgs) Kind() string { return "poi.status_notification" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.NotificationPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a status notification as an async job in River.
func (p *Publisher) Publish(ctx context.Context, n domain.StatusNotification) error {
	_, err := p.client.Insert(ctx, NotificationJobArgs{
		POIID:        n.POIID,
		POIName:      n.POIName,
		OwnerID:      n.OwnerID,
		Status:       string(n.Status),
		Reason:       n.Reason,
		AdminMessage: n.AdminMessage,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing notification job: %w", err)
	}
	return nil
}
