package proposal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidTransition = errors.New("invalid proposal transition")

type Status string

const (
	StatusSubmitted   Status = "submitted"
	StatusShortlisted Status = "shortlisted"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
)

var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusShortlisted, StatusAccepted, StatusRejected},
	StatusShortlisted: {StatusAccepted, StatusRejected},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown proposal status %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusShortlisted, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
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

type Proposal struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	FreelancerID uuid.UUID
	CoverLetter  string
	ProposedRate float64
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func New(jobID, freelancerID uuid.UUID, coverLetter string, rate float64, now time.Time) Proposal {
	return Proposal{
		ID:           uuid.New(),
		JobID:        jobID,
		FreelancerID: freelancerID,
		CoverLetter:  coverLetter,
		ProposedRate: rate,
		Status:       StatusSubmitted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (p *Proposal) transition(to Status) error {
	if !p.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
	}
	p.Status = to
	return nil
}

func (p *Proposal) Accept() error {
	return p.transition(StatusAccepted)
}

func (p *Proposal) Shortlist() error {
	return p.transition(StatusShortlisted)
}
