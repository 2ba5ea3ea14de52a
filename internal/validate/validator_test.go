package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
)

var testNow = time.Date(2024, 12, 20, 12, 0, 0, 0, time.UTC)

func newValidator() *Validator {
	return NewAt(Config{MaxAmount: 100_000, RetentionDays: 90}, func() time.Time { return testNow })
}

func validTxn() *domain.PersistedTransaction {
	account := "XXXX2323"
	return &domain.PersistedTransaction{
		ParsedTransaction: domain.ParsedTransaction{
			Amount:        1500.00,
			Type:          domain.TypeDebit,
			Account:       &account,
			Date:          "2024-12-15",
			Time:          "10:30:00",
			SourceContent: "Your a/c XXXX2323 debited with Rs.1,500.00",
			SourceSender:  "HDFCBK",
			Confidence:    0.9,
		},
		ID:        "txn-1",
		OwnerID:   "owner-1",
		CreatedAt: testNow,
		DedupHash: "hash-1",
	}
}

func TestValidator_ValidTransaction(t *testing.T) {
	outcome := newValidator().Validate(validTxn())

	if !outcome.Valid {
		t.Errorf("expected valid, got errors: %v", outcome.Errors)
	}
	if len(outcome.Warnings) != 0 {
		t.Errorf("expected no warnings, got: %v", outcome.Warnings)
	}
}

func TestValidator_AmountBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		amount    float64
		wantValid bool
		wantWarn  bool
	}{
		{"exactly at ceiling", 100_000, true, false},
		{"one unit above ceiling", 100_001, false, false},
		{"zero", 0, false, false},
		{"negative", -10, false, false},
		{"below one unit warns", 0.50, true, true},
		{"ordinary amount", 42.00, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := validTxn()
			txn.Amount = tt.amount
			outcome := newValidator().Validate(txn)

			if outcome.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors: %v)", outcome.Valid, tt.wantValid, outcome.Errors)
			}
			if tt.wantWarn && len(outcome.Warnings) == 0 {
				t.Error("expected a warning, got none")
			}
		})
	}
}

func TestValidator_DateBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		wantValid bool
		wantWarn  bool
	}{
		{"today", "2024-12-20", true, false},
		{"tomorrow is future", "2024-12-21", false, false},
		{"exactly at retention boundary", "2024-09-21", true, true},
		{"one day past the boundary", "2024-09-20", false, false},
		{"inside warning band", "2024-09-25", true, true},
		{"just outside warning band", "2024-09-28", true, false},
		{"garbage date", "15-12-2024", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := validTxn()
			txn.Date = tt.date
			outcome := newValidator().Validate(txn)

			if outcome.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors: %v)", outcome.Valid, tt.wantValid, outcome.Errors)
			}
			if tt.wantWarn && len(outcome.Warnings) == 0 {
				t.Error("expected a warning, got none")
			}
			if !tt.wantWarn && len(outcome.Warnings) != 0 {
				t.Errorf("expected no warnings, got: %v", outcome.Warnings)
			}
		})
	}
}

func TestValidator_AccountWarningsNeverBlock(t *testing.T) {
	tests := []struct {
		name     string
		account  *string
		wantWarn bool
	}{
		{"nil account is fine", nil, false},
		{"short account warns", ptr("12"), true},
		{"no digit or mask warns", ptr("SAVINGS"), true},
		{"masked account is fine", ptr("XXXX2323"), false},
		{"plain digits are fine", ptr("12345678"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := validTxn()
			txn.Account = tt.account
			outcome := newValidator().Validate(txn)

			if !outcome.Valid {
				t.Errorf("account issues must never block, got errors: %v", outcome.Errors)
			}
			if tt.wantWarn != (len(outcome.Warnings) > 0) {
				t.Errorf("warnings = %v, wantWarn %v", outcome.Warnings, tt.wantWarn)
			}
		})
	}
}

func TestValidator_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(txn *domain.PersistedTransaction)
		field  string
	}{
		{"missing id", func(txn *domain.PersistedTransaction) { txn.ID = "" }, "id"},
		{"missing owner", func(txn *domain.PersistedTransaction) { txn.OwnerID = " " }, "ownerId"},
		{"missing content", func(txn *domain.PersistedTransaction) { txn.SourceContent = "" }, "sourceContent"},
		{"missing sender", func(txn *domain.PersistedTransaction) { txn.SourceSender = "" }, "sourceSender"},
		{"bad time", func(txn *domain.PersistedTransaction) { txn.Time = "25:99:00" }, "time"},
		{"time without seconds", func(txn *domain.PersistedTransaction) { txn.Time = "10:30" }, "time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := validTxn()
			tt.mutate(txn)
			outcome := newValidator().Validate(txn)

			if outcome.Valid {
				t.Fatal("expected invalid outcome")
			}
			found := false
			for _, e := range outcome.Errors {
				if strings.HasPrefix(e, tt.field+":") {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error for %q, got: %v", tt.field, outcome.Errors)
			}
		})
	}
}

func TestValidator_Confidence(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		wantValid  bool
		wantWarn   bool
	}{
		{"in range", 0.8, true, false},
		{"low confidence warns", 0.3, true, true},
		{"above one", 1.5, false, false},
		{"below zero", -0.1, false, false},
		{"exactly one", 1.0, true, false},
		{"exactly zero warns", 0.0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := validTxn()
			txn.Confidence = tt.confidence
			outcome := newValidator().Validate(txn)

			if outcome.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors: %v)", outcome.Valid, tt.wantValid, outcome.Errors)
			}
			if tt.wantWarn != (len(outcome.Warnings) > 0) {
				t.Errorf("warnings = %v, wantWarn %v", outcome.Warnings, tt.wantWarn)
			}
		})
	}
}

func ptr(s string) *string { return &s }
