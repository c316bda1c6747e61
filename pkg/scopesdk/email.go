package scopesdk

import (
	"context"
	"fmt"
	"time"
)

// SendEmail submits a notification job and waits for it to complete.
//
// The server processes notifications asynchronously, so the SDK polls the
// job status with a bounded budget of Client.PollAttempts checks spaced
// Client.PollInterval apart. A failed job, a cancelled context, or an
// exhausted budget all return an error. Invalid recipient addresses are
// reported in the outcome even though the job itself completed.
func (s *AdminSession) SendEmail(ctx context.Context, req EmailRequest) (EmailOutcome, error) {
	var submitted notificationSubmitResponse
	if err := s.client.postJSON(ctx, "/api/v0/notifications", req, &submitted, s.sessionKey); err != nil {
		return EmailOutcome{}, err
	}
	if submitted.JobID == "" {
		return EmailOutcome{}, fmt.Errorf("scopesdk: notification submit response missing job id")
	}

	attempts := s.client.pollAttempts()
	interval := s.client.pollInterval()

	for attempt := 0; attempt < attempts; attempt++ {
		var status notificationStatusResponse
		err := s.client.getJSON(ctx, "/api/v0/notifications/"+submitted.JobID, &status, s.sessionKey)
		if err != nil {
			return EmailOutcome{}, err
		}

		switch status.Status {
		case jobStatusCompleted:
			return EmailOutcome{Invalid: status.InvalidAddresses}, nil
		case jobStatusFailed:
			return EmailOutcome{}, fmt.Errorf(
				"scopesdk: notification job %s failed: %s", submitted.JobID, status.Error)
		case jobStatusQueued, jobStatusRunning:
			// still in flight
		default:
			return EmailOutcome{}, fmt.Errorf(
				"scopesdk: notification job %s reported unknown status %q",
				submitted.JobID, status.Status)
		}

		select {
		case <-ctx.Done():
			return EmailOutcome{}, ctx.Err()
		case <-time.After(interval):
		}
	}

	return EmailOutcome{}, fmt.Errorf(
		"scopesdk: notification job %s did not complete within %d checks",
		submitted.JobID, attempts)
}
