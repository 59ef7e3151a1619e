package services

import (
	"context"
	"errors"
	"time"

	apperrors "harambee/internal/errors"
	"harambee/internal/logger"
	"harambee/internal/models"
	"harambee/internal/notify"
	"harambee/internal/store"
)

// reminderService emits pledge_reminder intents for PENDING pledges that
// fall due within the window.
type reminderService struct {
	store      store.LedgerStore
	dispatcher notify.Dispatcher
	window     time.Duration
}

// NewReminderService creates a new ReminderServicer.
func NewReminderService(st store.LedgerStore, dispatcher notify.Dispatcher, window time.Duration) ReminderServicer {
	if dispatcher == nil {
		dispatcher = notify.Discard{}
	}
	return &reminderService{store: st, dispatcher: dispatcher, window: window}
}

// SendDueReminders dispatches one reminder per PENDING pledge due between
// today and today+window inclusive, and returns how many were sent. A pledge
// is reminded once per due date however often the scan runs.
func (s *reminderService) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	from := models.TruncateDate(now)
	to := models.TruncateDate(now.Add(s.window))

	pledges, err := s.store.ListPledgesDue(ctx, from, to)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	goals := make(map[string]*models.Goal)
	sent := 0
	for i := range pledges {
		p := &pledges[i]

		member, err := s.store.GetMember(ctx, p.MemberID)
		if err != nil {
			logger.Get().Warnw("skipping reminder, member lookup failed", "pledge_id", p.ID, "error", err)
			continue
		}
		goal, ok := goals[p.GoalID]
		if !ok {
			goal, err = s.store.GetGoal(ctx, p.GoalID)
			if err != nil {
				logger.Get().Warnw("skipping reminder, goal lookup failed", "pledge_id", p.ID, "error", err)
				continue
			}
			goals[p.GoalID] = goal
		}

		if err := s.store.MarkPledgeReminded(ctx, p.ID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				logger.Get().Warnw("skipping reminder, claim failed", "pledge_id", p.ID, "error", err)
			}
			continue
		}

		params := notifyParams(member, goal, p.Amount)
		params["due_date"] = p.DueDate.Format(models.DateLayout)
		s.dispatcher.Dispatch(ctx, notify.NewIntent(member.ID, notify.KindPledgeReminder, params))
		sent++
	}

	logger.Get().Infow("pledge reminders dispatched", "count", sent, "from", from.Format(models.DateLayout), "to", to.Format(models.DateLayout))
	return sent, nil
}
