package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	for tag, fn := range map[string]validator.Func{
		"phone":               validatePhone,
		"member_code":         validateMemberCode,
		"pledge_status":       validatePledgeStatus,
		"contribution_status": validateContributionStatus,
		"goal_status":         validateGoalStatus,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			t.Fatalf("register %s: %v", tag, err)
		}
	}
	return v
}

func TestValidators(t *testing.T) {
	v := newValidate(t)

	tests := []struct {
		tag   string
		value string
		want  bool
	}{
		{"phone", "+254712345678", true},
		{"phone", "0712345678", true},
		{"phone", "07123", false},
		{"phone", "0712-345-678", false},
		{"phone", "+2547123456789012", false},
		{"member_code", "004217", true},
		{"member_code", "4217", false},
		{"member_code", "00421a", false},
		{"pledge_status", "PENDING", true},
		{"pledge_status", "PAID", true},
		{"pledge_status", "CANCELLED", true},
		{"pledge_status", "pending", false},
		{"contribution_status", "completed", true},
		{"contribution_status", "refunded", true},
		{"contribution_status", "cancelled", false},
		{"goal_status", "active", true},
		{"goal_status", "completed", true},
		{"goal_status", "archived", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"_"+tt.value, func(t *testing.T) {
			err := v.Var(tt.value, tt.tag)
			if got := err == nil; got != tt.want {
				t.Errorf("%s(%q) valid = %v, want %v (err: %v)", tt.tag, tt.value, got, tt.want, err)
			}
		})
	}
}
