// Package appointments implements the booking stub: requests are validated,
// held for a fixed confirmation delay, and acknowledged with a confirmation
// line. Nothing is persisted and no clinic system is contacted.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMissingFields is returned when a required booking field is blank.
var ErrMissingFields = errors.New("appointments: doctor, date and time are required")

// Scheduler produces booking confirmations after a fixed delay that stands
// in for a real clinic round trip.
type Scheduler struct {
	delay time.Duration
}

// NewScheduler creates a scheduler with the given confirmation delay.
func NewScheduler(delay time.Duration) *Scheduler {
	return &Scheduler{delay: delay}
}

// Schedule confirms a doctor appointment. It blocks for the configured
// delay unless the context is cancelled first.
func (s *Scheduler) Schedule(ctx context.Context, doctor, date, timeSlot string) (string, error) {
	if doctor == "" || date == "" || timeSlot == "" {
		return "", ErrMissingFields
	}
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Appointment scheduled with %s on %s at %s", doctor, date, timeSlot), nil
}

// ScheduleConsultation confirms a remote consultation of the given type.
func (s *Scheduler) ScheduleConsultation(ctx context.Context, consultationType, date, timeSlot string) (string, error) {
	if consultationType == "" || date == "" || timeSlot == "" {
		return "", ErrMissingFields
	}
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Consultation scheduled for %s on %s at %s", consultationType, date, timeSlot), nil
}

func (s *Scheduler) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
