// Package validate enforces domain sanity bounds on transactions before
// persistence.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
)

// Config holds the validator's tunable bounds.
type Config struct {
	// MaxAmount is the amount ceiling, inclusive.
	MaxAmount float64
	// RetentionDays is how far in the past a transaction date may lie,
	// inclusive.
	RetentionDays int
}

// DefaultConfig returns the standard bounds: a one crore ceiling and a
// 90 day retention window.
func DefaultConfig() Config {
	return Config{
		MaxAmount:     10_000_000,
		RetentionDays: 90,
	}
}

// Outcome contains all validation errors and warnings for one transaction.
// The transaction is persistable iff Valid; warnings never block.
type Outcome struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9]$`)

// Validator checks persisted transactions against the configured bounds.
// The zero clock means time.Now; tests inject a fixed clock via NewAt.
type Validator struct {
	cfg Config
	now func() time.Time
}

// New creates a validator with the given bounds.
func New(cfg Config) *Validator {
	return NewAt(cfg, time.Now)
}

// NewAt creates a validator with an explicit clock.
func NewAt(cfg Config, now func() time.Time) *Validator {
	return &Validator{cfg: cfg, now: now}
}

// Validate checks one transaction and returns every violated rule. Rules
// are checked in a fixed order so error and warning lists are deterministic.
func (v *Validator) Validate(txn *domain.PersistedTransaction) Outcome {
	outcome := Outcome{
		Errors:   []string{},
		Warnings: []string{},
	}

	v.checkAmount(txn, &outcome)
	v.checkDate(txn, &outcome)
	v.checkAccount(txn, &outcome)
	v.checkRequiredFields(txn, &outcome)
	v.checkConfidence(txn, &outcome)

	outcome.Valid = len(outcome.Errors) == 0
	return outcome
}

func (v *Validator) checkAmount(txn *domain.PersistedTransaction, out *Outcome) {
	switch {
	case txn.Amount <= 0:
		out.Errors = append(out.Errors, fmt.Sprintf("amount: must be greater than zero, got %.2f", txn.Amount))
	case txn.Amount > v.cfg.MaxAmount:
		out.Errors = append(out.Errors, fmt.Sprintf("amount: %.2f exceeds ceiling of %.2f", txn.Amount, v.cfg.MaxAmount))
	case txn.Amount < 1:
		out.Warnings = append(out.Warnings, fmt.Sprintf("amount: %.2f is below one unit", txn.Amount))
	}
}

func (v *Validator) checkDate(txn *domain.PersistedTransaction, out *Outcome) {
	date, err := time.Parse("2006-01-02", txn.Date)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("date: %q is not a valid ISO date", txn.Date))
		return
	}

	today := v.today()
	oldest := today.AddDate(0, 0, -v.cfg.RetentionDays)

	switch {
	case date.After(today):
		out.Errors = append(out.Errors, fmt.Sprintf("date: %s is in the future", txn.Date))
	case date.Before(oldest):
		out.Errors = append(out.Errors, fmt.Sprintf("date: %s is older than the %d day retention window", txn.Date, v.cfg.RetentionDays))
	case date.Before(oldest.AddDate(0, 0, 7)):
		out.Warnings = append(out.Warnings, fmt.Sprintf("date: %s is within 7 days of the retention boundary", txn.Date))
	}
}

func (v *Validator) checkAccount(txn *domain.PersistedTransaction, out *Outcome) {
	if txn.Account == nil {
		return
	}
	account := *txn.Account

	if len(account) < 4 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("account: %q is shorter than 4 characters", account))
		return
	}
	if !strings.ContainsFunc(account, func(r rune) bool {
		return (r >= '0' && r <= '9') || r == 'X' || r == 'x' || r == '*'
	}) {
		out.Warnings = append(out.Warnings, fmt.Sprintf("account: %q has no digit or mask character", account))
	}
}

func (v *Validator) checkRequiredFields(txn *domain.PersistedTransaction, out *Outcome) {
	required := []struct {
		name  string
		value string
	}{
		{"id", txn.ID},
		{"ownerId", txn.OwnerID},
		{"sourceContent", txn.SourceContent},
		{"sourceSender", txn.SourceSender},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			out.Errors = append(out.Errors, fmt.Sprintf("%s: must not be empty", f.name))
		}
	}

	if !timeOfDayPattern.MatchString(txn.Time) {
		out.Errors = append(out.Errors, fmt.Sprintf("time: %q is not a well-formed HH:MM:SS", txn.Time))
	}
}

func (v *Validator) checkConfidence(txn *domain.PersistedTransaction, out *Outcome) {
	switch {
	case txn.Confidence < 0 || txn.Confidence > 1:
		out.Errors = append(out.Errors, fmt.Sprintf("confidence: %.2f is outside [0,1]", txn.Confidence))
	case txn.Confidence < 0.5:
		out.Warnings = append(out.Warnings, fmt.Sprintf("confidence: %.2f is below 0.5", txn.Confidence))
	}
}

// today truncates the clock to a calendar date so boundary comparisons work
// at day granularity.
func (v *Validator) today() time.Time {
	now := v.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
