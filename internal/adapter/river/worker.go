package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// NotificationWorker processes status notification jobs from the River
// queue. For now it logs the notification; future versions will dispatch
// to email or push channels.
type NotificationWorker struct {
	river.WorkerDefaults[NotificationJobArgs]
}

// Work processes a single notification job.
func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[NotificationJobArgs]) error {
	slog.InfoContext(ctx, "notifying owner of status change",
		"poi_id", job.Args.POIID,
		"poi_name", job.Args.POIName,
		"owner_id", job.Args.OwnerID,
		"status", job.Args.Status,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
