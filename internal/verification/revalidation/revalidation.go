// Package revalidation classifies accounts by how soon their verified ID
// expires and raises alerts for the ones that need attention.
package revalidation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"docverify/internal/verification/models"
	"docverify/internal/verification/ports"
	"docverify/pkg/platform/audit"
	"docverify/pkg/requestcontext"
)

type State string

const (
	StateValid               State = "valid"
	StateExpiringSoon        State = "expiring_soon"
	StateExpired             State = "expired"
	StatePendingVerification State = "pending_verification"
	StateVerificationFailed  State = "verification_failed"
)

// DefaultWarnDays is how far ahead an expiry starts raising alerts.
const DefaultWarnDays = 30

// Classify places one account into a revalidation state as of now. A nil
// status means the account has never completed a verification; a latest
// attempt still awaiting manual review counts as pending, not failed.
func Classify(status *models.AccountVerificationStatus, now time.Time, warnDays int) State {
	if status == nil {
		return StatePendingVerification
	}
	if !status.IdentityVerified {
		if status.OverallStatus == models.OverallManualReview {
			return StatePendingVerification
		}
		return StateVerificationFailed
	}
	if status.NextRevalidationDate == nil {
		return StateValid
	}
	days := DaysUntil(*status.NextRevalidationDate, now)
	switch {
	case days < 0:
		return StateExpired
	case days <= warnDays:
		return StateExpiringSoon
	default:
		return StateValid
	}
}

// DaysUntil counts calendar days from now to t, in UTC.
func DaysUntil(t, now time.Time) int {
	day := func(v time.Time) time.Time {
		v = v.UTC()
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
	}
	return int(day(t).Sub(day(now)).Hours() / 24)
}

// Alert is one account that needs administrator attention.
type Alert struct {
	Status models.AccountVerificationStatus
	State  State
}

// Report summarizes one revalidation pass.
type Report struct {
	CheckedAt time.Time
	Counts    map[State]int
	Alerts    []Alert
}

type Job struct {
	accounts ports.AccountStore
	ops      ports.OpsTracker
	warnDays int
	interval time.Duration
	logger   *slog.Logger
}

type Option func(*Job)

func WithLogger(logger *slog.Logger) Option {
	return func(j *Job) { j.logger = logger }
}

func WithWarnDays(days int) Option {
	return func(j *Job) {
		if days > 0 {
			j.warnDays = days
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(j *Job) {
		if d > 0 {
			j.interval = d
		}
	}
}

func NewJob(accounts ports.AccountStore, ops ports.OpsTracker, opts ...Option) (*Job, error) {
	if accounts == nil {
		return nil, errors.New("account store is required")
	}
	if ops == nil {
		return nil, errors.New("ops tracker is required")
	}
	j := &Job{
		accounts: accounts,
		ops:      ops,
		warnDays: DefaultWarnDays,
		interval: 24 * time.Hour,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// WarnDays returns the configured warning horizon.
func (j *Job) WarnDays() int { return j.warnDays }

func (j *Job) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				j.logger.ErrorContext(ctx, "revalidation pass failed", "error", err)
			}
		}
	}
}

// RunOnce classifies every account and emits an alert for each one that is
// not valid.
func (j *Job) RunOnce(ctx context.Context) (*Report, error) {
	now := requestcontext.Now(ctx)
	statuses, err := j.accounts.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{CheckedAt: now, Counts: make(map[State]int)}
	for i := range statuses {
		st := statuses[i]
		state := Classify(&st, now, j.warnDays)
		report.Counts[state]++
		if state == StateValid {
			continue
		}
		report.Alerts = append(report.Alerts, Alert{Status: st, State: state})
		j.ops.Track(ctx, audit.OpsEvent{
			Timestamp: now,
			AccountID: st.AccountID.String(),
			Subject:   st.VerificationID.String(),
			Action:    audit.EventRevalidationAlert,
			Reason:    string(state),
		})
	}

	j.logger.InfoContext(ctx, "revalidation pass completed",
		"accounts", len(statuses),
		"alerts", len(report.Alerts),
	)
	return report, nil
}
