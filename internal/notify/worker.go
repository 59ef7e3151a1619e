package notify

import (
	"context"
	"errors"
	"time"

	"harambee/internal/logger"
	"harambee/internal/models"
	"harambee/internal/store"
)

// MemberLookup resolves the recipient of an intent.
type MemberLookup interface {
	GetMember(ctx context.Context, id string) (*models.Member, error)
}

// Recorder persists the outcome of each delivery.
type Recorder interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Worker renders consumed intents and sends them through a Sender.
type Worker struct {
	members     MemberLookup
	recorder    Recorder
	sender      Sender
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

// NewWorker creates a worker that tries each send up to three times.
func NewWorker(members MemberLookup, recorder Recorder, sender Sender) *Worker {
	return &Worker{
		members:     members,
		recorder:    recorder,
		sender:      sender,
		maxAttempts: 3,
		backoff:     exponentialBackoff,
	}
}

// Handle processes one intent. It only returns an error when the intent
// should be redelivered; delivery failures are recorded and swallowed.
func (w *Worker) Handle(ctx context.Context, intent Intent) error {
	member, err := w.members.GetMember(ctx, intent.MemberID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Get().Warnw("dropping notification for unknown member", "member_id", intent.MemberID, "kind", intent.Kind)
			return nil
		}
		return err
	}

	n := &models.Notification{
		MemberID: member.ID,
		Kind:     string(intent.Kind),
		Phone:    member.Phone,
		Params:   toJSONMap(intent.Params),
	}

	message, err := Render(intent)
	if err != nil {
		n.Status = models.NotificationStatusFailed
		n.Error = err.Error()
		w.record(ctx, n)
		return nil
	}
	n.Message = message

	var sendErr error
	for attempt := 0; attempt < w.maxAttempts; attempt++ {
		n.Attempts = attempt + 1
		if sendErr = w.sender.Send(ctx, member.Phone, message); sendErr == nil {
			break
		}
		logger.Get().Warnw("sms send failed", "error", sendErr, "attempt", n.Attempts, "member_id", member.ID)
		if attempt+1 < w.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.backoff(attempt)):
			}
		}
	}

	if sendErr != nil {
		n.Status = models.NotificationStatusFailed
		n.Error = sendErr.Error()
	} else {
		now := time.Now().UTC()
		n.Status = models.NotificationStatusSent
		n.SentAt = &now
	}
	w.record(ctx, n)
	return nil
}

func (w *Worker) record(ctx context.Context, n *models.Notification) {
	if err := w.recorder.CreateNotification(ctx, n); err != nil {
		logger.Get().Errorw("failed to record notification",
			"error", err,
			"member_id", n.MemberID,
			"kind", n.Kind,
			"status", n.Status,
		)
	}
}

func toJSONMap(params map[string]string) map[string]any {
	m := make(map[string]any, len(params))
	for k, v := range params {
		m[k] = v
	}
	return m
}
