package models

// PledgeStatus is the lifecycle state of a pledge.
type PledgeStatus string

const (
	PledgeStatusPending   PledgeStatus = "PENDING"
	PledgeStatusPaid      PledgeStatus = "PAID"
	PledgeStatusCancelled PledgeStatus = "CANCELLED"
)

// ContributionStatus is the lifecycle state of a contribution.
type ContributionStatus string

const (
	ContributionStatusPending   ContributionStatus = "pending"
	ContributionStatusCompleted ContributionStatus = "completed"
	ContributionStatusFailed    ContributionStatus = "failed"
	ContributionStatusRefunded  ContributionStatus = "refunded"
)

// pledgeTransitions lists every allowed move. Every state is a key; terminal
// states map to nil.
var pledgeTransitions = map[PledgeStatus][]PledgeStatus{
	PledgeStatusPending:   {PledgeStatusPaid, PledgeStatusCancelled},
	PledgeStatusPaid:      nil,
	PledgeStatusCancelled: nil,
}

var contributionTransitions = map[ContributionStatus][]ContributionStatus{
	ContributionStatusPending:   {ContributionStatusCompleted, ContributionStatusFailed},
	ContributionStatusCompleted: {ContributionStatusRefunded},
	ContributionStatusFailed:    nil,
	ContributionStatusRefunded:  nil,
}

// Valid reports whether s is a known pledge status.
func (s PledgeStatus) Valid() bool {
	_, ok := pledgeTransitions[s]
	return ok
}

// IsTerminal reports whether no further transition is possible from s.
func (s PledgeStatus) IsTerminal() bool {
	return s.Valid() && len(pledgeTransitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s PledgeStatus) CanTransitionTo(next PledgeStatus) bool {
	for _, allowed := range pledgeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ContributionStatus) Valid() bool {
	_, ok := contributionTransitions[s]
	return ok
}

func (s ContributionStatus) IsTerminal() bool {
	return s.Valid() && len(contributionTransitions[s]) == 0
}

func (s ContributionStatus) CanTransitionTo(next ContributionStatus) bool {
	for _, allowed := range contributionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsRealized reports whether a contribution in this status counts toward progress.
func (s ContributionStatus) IsRealized() bool {
	return s == ContributionStatusCompleted
}

// AmountMutable reports whether the amount may still be edited.
func (s ContributionStatus) AmountMutable() bool {
	return s == ContributionStatusPending
}
