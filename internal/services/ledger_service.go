package services

import (
	"context"
	"time"

	apperrors "harambee/internal/errors"
	"harambee/internal/logger"
	"harambee/internal/models"
	"harambee/internal/notify"
	"harambee/internal/pagination"
	"harambee/internal/store"
)

// ledgerService records contributions and pledges. Every mutation runs in a
// single store transaction and notifications go out only after commit.
type ledgerService struct {
	store      store.LedgerStore
	dispatcher notify.Dispatcher
}

// NewLedgerService creates a new LedgerServicer. A nil dispatcher discards
// every notification.
func NewLedgerService(st store.LedgerStore, dispatcher notify.Dispatcher) LedgerServicer {
	if dispatcher == nil {
		dispatcher = notify.Discard{}
	}
	return &ledgerService{store: st, dispatcher: dispatcher}
}

// checkEntryRefs verifies the member and goal exist and, when groupID is set,
// that the member belongs to the group.
func checkEntryRefs(ctx context.Context, st store.LedgerStore, memberID, goalID string, groupID *string) (*models.Member, *models.Goal, error) {
	member, err := loadMember(ctx, st, memberID)
	if err != nil {
		return nil, nil, err
	}
	goal, err := loadGoal(ctx, st, goalID)
	if err != nil {
		return nil, nil, err
	}
	if groupID != nil {
		if _, err := requireMembership(ctx, st, goalID, *groupID, memberID); err != nil {
			return nil, nil, err
		}
	}
	return member, goal, nil
}

func checkContributionDates(pledgeDate, contributionDate *time.Time) error {
	if pledgeDate != nil && contributionDate != nil && contributionDate.Before(*pledgeDate) {
		return apperrors.WithMessage(apperrors.ErrInvalidDateRange, "Contribution date must not be before the pledge date")
	}
	return nil
}

// CreateContribution records a contribution. Without an explicit status the
// contribution is completed and dated today.
func (s *ledgerService) CreateContribution(ctx context.Context, actorID string, in CreateContributionInput) (*models.Contribution, error) {
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.ContributionStatusCompleted
	}
	if status != models.ContributionStatusCompleted && status != models.ContributionStatusPending {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "contributions can only be created pending or completed")
	}

	pledgeDate := truncatePtr(in.PledgeDate)
	contributionDate := truncatePtr(in.ContributionDate)
	if contributionDate == nil && status == models.ContributionStatusCompleted {
		today := models.Today()
		contributionDate = &today
	}
	if err := checkContributionDates(pledgeDate, contributionDate); err != nil {
		return nil, err
	}

	var (
		contribution *models.Contribution
		member       *models.Member
		goal         *models.Goal
	)
	err := s.store.WithTx(ctx, func(tx store.LedgerStore) error {
		var err error
		member, goal, err = checkEntryRefs(ctx, tx, in.MemberID, in.GoalID, in.GroupID)
		if err != nil {
			return err
		}
		contribution = &models.Contribution{
			MemberID:         in.MemberID,
			GoalID:           in.GoalID,
			GroupID:          in.GroupID,
			Amount:           in.Amount,
			Status:           status,
			PledgeDate:       pledgeDate,
			ContributionDate: contributionDate,
			PaymentMethod:    in.PaymentMethod,
			Reference:        in.Reference,
			Description:      in.Description,
			CreatedByID:      actorID,
		}
		return storeErr(tx.CreateContribution(ctx, contribution), nil, nil)
	})
	if err != nil {
		return nil, err
	}

	if contribution.IsRealized() {
		s.confirmContribution(ctx, member, goal, contribution)
	}
	return contribution, nil
}

func (s *ledgerService) confirmContribution(ctx context.Context, member *models.Member, goal *models.Goal, c *models.Contribution) {
	params := notifyParams(member, goal, c.Amount)
	if c.ContributionDate != nil {
		params["contribution_date"] = c.ContributionDate.Format(models.DateLayout)
	}
	s.dispatcher.Dispatch(ctx, notify.NewIntent(member.ID, notify.KindContributionConfirmed, params))
}

// GetContribution returns a contribution by ID.
func (s *ledgerService) GetContribution(ctx context.Context, id string) (*models.Contribution, error) {
	c, err := s.store.GetContribution(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrContributionNotFound, nil)
	}
	return c, nil
}

// ListContributions returns a page of contributions matching filter.
func (s *ledgerService) ListContributions(ctx context.Context, filter store.ContributionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Contribution], error) {
	page.Defaults()
	contributions, total, err := s.store.ListContributions(ctx, filter, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result := pagination.NewPageResponse(contributions, page.Page, page.PageSize, total)
	return &result, nil
}

// UpdateContribution applies the supplied fields. The amount can only change
// while the contribution is pending.
func (s *ledgerService) UpdateContribution(ctx context.Context, id string, in UpdateContributionInput) (*models.Contribution, error) {
	var contribution *models.Contribution
	err := s.store.WithTx(ctx, func(tx store.LedgerStore) error {
		c, err := tx.GetContribution(ctx, id)
		if err != nil {
			return storeErr(err, apperrors.ErrContributionNotFound, nil)
		}
		if c.Status.IsTerminal() {
			return apperrors.WithMessage(apperrors.ErrInvalidState, "Contribution can no longer be edited")
		}

		if in.Amount != nil && !in.Amount.Equal(c.Amount) {
			if !c.Status.AmountMutable() {
				return apperrors.WithMessage(apperrors.ErrInvalidState, "Amount cannot change once the contribution is completed")
			}
			if err := validateAmount(*in.Amount); err != nil {
				return err
			}
			c.Amount = *in.Amount
		}
		if in.GroupID != nil {
			if _, err := requireMembership(ctx, tx, c.GoalID, *in.GroupID, c.MemberID); err != nil {
				return err
			}
			c.GroupID = in.GroupID
		}
		if in.ContributionDate != nil {
			c.ContributionDate = truncatePtr(in.ContributionDate)
			if err := checkContributionDates(c.PledgeDate, c.ContributionDate); err != nil {
				return err
			}
		}
		if in.PaymentMethod != nil {
			c.PaymentMethod = *in.PaymentMethod
		}
		if in.Reference != nil {
			c.Reference = *in.Reference
		}
		if in.Description != nil {
			c.Description = *in.Description
		}

		if err := tx.UpdateContribution(ctx, c); err != nil {
			return storeErr(err, apperrors.ErrContributionNotFound, nil)
		}
		contribution = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contribution, nil
}

// DeleteContribution removes the row only.
func (s *ledgerService) DeleteContribution(ctx context.Context, id string) error {
	return storeErr(s.store.DeleteContribution(ctx, id), apperrors.ErrContributionNotFound, nil)
}

// CompleteContribution moves a pending contribution to completed. The
// contribution date is on when given, otherwise the existing date or today.
func (s *ledgerService) CompleteContribution(ctx context.Context, id string, on *time.Time) (*models.Contribution, error) {
	var (
		contribution *models.Contribution
		member       *models.Member
		goal         *models.Goal
	)
	err := s.store.WithTx(ctx, func(tx store.LedgerStore) error {
		c, err := tx.GetContribution(ctx, id)
		if err != nil {
			return storeErr(err, apperrors.ErrContributionNotFound, nil)
		}

		date := truncatePtr(on)
		if date == nil {
			date = c.ContributionDate
		}
		if date == nil {
			today := models.Today()
			date = &today
		}
		if err := checkContributionDates(c.PledgeDate, date); err != nil {
			return err
		}
		if err := transitionContribution(ctx, tx, c, models.ContributionStatusCompleted, date); err != nil {
			return err
		}

		if member, err = loadMember(ctx, tx, c.MemberID); err != nil {
			return err
		}
		if goal, err = loadGoal(ctx, tx, c.GoalID); err != nil {
			return err
		}
		contribution = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.confirmContribution(ctx, member, goal, contribution)
	return contribution, nil
}

// FailContribution moves a pending contribution to failed.
func (s *ledgerService) FailContribution(ctx context.Context, id string) (*models.Contribution, error) {
	return s.simpleTransition(ctx, id, models.ContributionStatusFailed)
}

// RefundContribution moves a completed contribution to refunded, removing it
// from progress.
func (s *ledgerService) RefundContribution(ctx context.Context, id string) (*models.Contribution, error) {
	return s.simpleTransition(ctx, id, models.ContributionStatusRefunded)
}

func (s *ledgerService) simpleTransition(ctx context.Context, id string, to models.ContributionStatus) (*models.Contribution, error) {
	var contribution *models.Contribution
	err := s.store.WithTx(ctx, func(tx store.LedgerStore) error {
		c, err := tx.GetContribution(ctx, id)
		if err != nil {
			return storeErr(err, apperrors.ErrContributionNotFound, nil)
		}
		if err := transitionContribution(ctx, tx, c, to, nil); err != nil {
			return err
		}
		contribution = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Get().Infow("contribution status changed", "contribution_id", id, "status", to)
	return contribution, nil
}

// transitionContribution checks the move against the status table, then
// applies it with a compare-and-set so a concurrent change loses cleanly.
func transitionContribution(ctx context.Context, tx store.LedgerStore, c *models.Contribution, to models.ContributionStatus, date *time.Time) error {
	if !c.Status.CanTransitionTo(to) {
		return apperrors.WithMessage(apperrors.ErrInvalidState, "Contribution cannot move from "+string(c.Status)+" to "+string(to))
	}
	if err := tx.TransitionContribution(ctx, c.ID, c.Status, to, date); err != nil {
		return storeErr(err, apperrors.ErrInvalidState, nil)
	}
	c.Status = to
	if date != nil {
		c.ContributionDate = date
	}
	return nil
}

// CreatePledge records a pending pledge. The pledge date defaults to today.
func (s *ledgerService) CreatePledge(ctx context.Context, actorID string, in CreatePledgeInput) (*models.Pledge, error) {
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}

	pledgeDate := models.Today()
	if in.PledgeDate != nil {
		pledgeDate = models.TruncateDate(*in.PledgeDate)
	}
	if in.DueDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "due date is required")
	}
	dueDate := models.TruncateDate(in.DueDate)
	if dueDate.Before(pledgeDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var (
		pledge *models.Pledge
		member *models.Member
		goal   *models.Goal
	)
	err := s.store.WithTx(ctx, func(tx store.LedgerStore) error {
		var err error
		member, goal, err = checkEntryRefs(ctx, tx, in.MemberID, in.GoalID, in.GroupID)
		if err != nil {
			return err
		}
		pledge = &models.Pledge{
			MemberID:    in.MemberID,
			GroupID:     in.GroupID,
			GoalID:      in.GoalID,
			Amount:      in.Amount,
			PledgeDate:  pledgeDate,
			DueDate:     dueDate,
			Status:      models.PledgeStatusPending,
			Description: in.Description,
			CreatedByID: actorID,
		}
		return storeErr(tx.CreatePledge(ctx, pledge), nil, nil)
	})
	if err != nil {
		return nil, err
	}

	params := notifyParams(member, goal, pledge.Amount)
	params["due_date"] = pledge.DueDate.Format(models.DateLayout)
	s.dispatcher.Dispatch(ctx, notify.NewIntent(member.ID, notify.KindPledgeConfirmation, params))
	return pledge, nil
}

// GetPledge returns a pledge by ID.
func (s *ledgerService) GetPledge(ctx context.Context, id string) (*models.Pledge, error) {
	p, err := s.store.GetPledge(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrPledgeNotFound, nil)
	}
	return p, nil
}

// ListPledges returns a page of pledges matching filter.
func (s *ledgerService) ListPledges(ctx context.Context, filter store.PledgeFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Pledge], error) {
	page.Defaults()
	pledges, total, err := s.store.ListPledges(ctx, filter, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result := pagination.NewPageResponse(pledges, page.Page, page.PageSize, total)
	return &result, nil
}

// UpdatePledge applies the supplied fields to a PENDING pledge.
func (s *ledgerService) UpdatePledge(ctx context.Context, id string, in UpdatePledgeInput) (*models.Pledge, error) {
	var pledge *models.Pledge
	err := s.store.WithTx(ctx, func(tx store.LedgerStore) error {
		p, err := tx.GetPledge(ctx, id)
		if err != nil {
			return storeErr(err, apperrors.ErrPledgeNotFound, nil)
		}
		if p.Status != models.PledgeStatusPending {
			return apperrors.WithMessage(apperrors.ErrInvalidState, "Only pending pledges can be edited")
		}

		if in.Amount != nil {
			if err := validateAmount(*in.Amount); err != nil {
				return err
			}
			p.Amount = *in.Amount
		}
		if in.GroupID != nil {
			if _, err := requireMembership(ctx, tx, p.GoalID, *in.GroupID, p.MemberID); err != nil {
				return err
			}
			p.GroupID = in.GroupID
		}
		if in.PledgeDate != nil {
			p.PledgeDate = models.TruncateDate(*in.PledgeDate)
		}
		if in.DueDate != nil {
			p.DueDate = models.TruncateDate(*in.DueDate)
		}
		if p.DueDate.Before(p.PledgeDate) {
			return apperrors.ErrInvalidDateRange
		}
		if in.Description != nil {
			p.Description = *in.Description
		}

		if err := tx.UpdatePledge(ctx, p); err != nil {
			return storeErr(err, apperrors.ErrPledgeNotFound, nil)
		}
		pledge = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pledge, nil
}

// DeletePledge removes the row only. A contribution produced by fulfilling
// the pledge is left in place without its pledge link.
func (s *ledgerService) DeletePledge(ctx context.Context, id string) error {
	return storeErr(s.store.DeletePledge(ctx, id), apperrors.ErrPledgeNotFound, nil)
}

// FulfillPledge marks a PENDING pledge PAID and records the linked completed
// contribution in the same transaction.
func (s *ledgerService) FulfillPledge(ctx context.Context, actorID, id string, in FulfillPledgeInput) (*models.Pledge, *models.Contribution, error) {
	paidAt := time.Now().UTC()
	if in.PaidOn != nil {
		paidAt = in.PaidOn.UTC()
	}
	paidDate := models.TruncateDate(paidAt)

	var (
		pledge       *models.Pledge
		contribution *models.Contribution
		member       *models.Member
		goal         *models.Goal
	)
	err := s.store.WithTx(ctx, func(tx store.LedgerStore) error {
		p, err := tx.GetPledge(ctx, id)
		if err != nil {
			return storeErr(err, apperrors.ErrPledgeNotFound, nil)
		}
		if !p.Status.CanTransitionTo(models.PledgeStatusPaid) {
			return apperrors.WithMessage(apperrors.ErrInvalidState, "Only pending pledges can be fulfilled")
		}
		if paidDate.Before(p.PledgeDate) {
			return apperrors.WithMessage(apperrors.ErrInvalidDateRange, "Payment date must not be before the pledge date")
		}

		if err := tx.TransitionPledge(ctx, p.ID, models.PledgeStatusPending, models.PledgeStatusPaid, paidAt); err != nil {
			return storeErr(err, apperrors.ErrInvalidState, nil)
		}
		p.Status = models.PledgeStatusPaid
		p.PaidAt = &paidAt

		pledgeDate := p.PledgeDate
		c := &models.Contribution{
			MemberID:         p.MemberID,
			GoalID:           p.GoalID,
			GroupID:          p.GroupID,
			PledgeID:         &p.ID,
			Amount:           p.Amount,
			Status:           models.ContributionStatusCompleted,
			PledgeDate:       &pledgeDate,
			ContributionDate: &paidDate,
			PaymentMethod:    in.PaymentMethod,
			Reference:        in.Reference,
			Description:      p.Description,
			CreatedByID:      actorID,
		}
		if err := tx.CreateContribution(ctx, c); err != nil {
			return storeErr(err, nil, apperrors.ErrInvalidState)
		}

		if member, err = loadMember(ctx, tx, p.MemberID); err != nil {
			return err
		}
		if goal, err = loadGoal(ctx, tx, p.GoalID); err != nil {
			return err
		}
		pledge, contribution = p, c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Get().Infow("pledge fulfilled", "pledge_id", pledge.ID, "contribution_id", contribution.ID)
	s.confirmContribution(ctx, member, goal, contribution)
	return pledge, contribution, nil
}

// CancelPledge marks a PENDING pledge CANCELLED.
func (s *ledgerService) CancelPledge(ctx context.Context, id string) (*models.Pledge, error) {
	cancelledAt := time.Now().UTC()

	var (
		pledge *models.Pledge
		member *models.Member
		goal   *models.Goal
	)
	err := s.store.WithTx(ctx, func(tx store.LedgerStore) error {
		p, err := tx.GetPledge(ctx, id)
		if err != nil {
			return storeErr(err, apperrors.ErrPledgeNotFound, nil)
		}
		if !p.Status.CanTransitionTo(models.PledgeStatusCancelled) {
			return apperrors.WithMessage(apperrors.ErrInvalidState, "Only pending pledges can be cancelled")
		}
		if err := tx.TransitionPledge(ctx, p.ID, models.PledgeStatusPending, models.PledgeStatusCancelled, cancelledAt); err != nil {
			return storeErr(err, apperrors.ErrInvalidState, nil)
		}
		p.Status = models.PledgeStatusCancelled
		p.CancelledAt = &cancelledAt

		if member, err = loadMember(ctx, tx, p.MemberID); err != nil {
			return err
		}
		if goal, err = loadGoal(ctx, tx, p.GoalID); err != nil {
			return err
		}
		pledge = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, notify.NewIntent(member.ID, notify.KindPledgeCancelled, notifyParams(member, goal, pledge.Amount)))
	return pledge, nil
}

