package job

import (
	"encoding/json"
	"fmt"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type EscrowStatus string

const (
	EscrowUnfunded EscrowStatus = "unfunded"
	EscrowFunded   EscrowStatus = "funded"
	EscrowReleased EscrowStatus = "released"
)

type BudgetType string

const (
	BudgetFixed  BudgetType = "fixed"
	BudgetHourly BudgetType = "hourly"
)

// statusTransitions is the only place job status edges are defined.
var statusTransitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

var escrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowUnfunded: {EscrowFunded},
	EscrowFunded:   {EscrowReleased},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown job status %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range statusTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

func ParseEscrowStatus(s string) (EscrowStatus, error) {
	st := EscrowStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown escrow status %q", s)
	}
	return st, nil
}

func (s EscrowStatus) Valid() bool {
	switch s {
	case EscrowUnfunded, EscrowFunded, EscrowReleased:
		return true
	}
	return false
}

func (s EscrowStatus) CanTransitionTo(to EscrowStatus) bool {
	for _, next := range escrowTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *EscrowStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseEscrowStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

func ParseBudgetType(s string) (BudgetType, error) {
	switch BudgetType(s) {
	case BudgetFixed, BudgetHourly:
		return BudgetType(s), nil
	}
	return "", fmt.Errorf("unknown budget type %q", s)
}
