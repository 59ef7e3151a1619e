// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"harambee/internal/models"
)

// phoneRegex accepts local and international mobile numbers: an optional
// leading +, then 9 to 15 digits.
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

var memberCodeRegex = regexp.MustCompile(`^[0-9]{6}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("phone", validatePhone)
		_ = v.RegisterValidation("member_code", validateMemberCode)
		_ = v.RegisterValidation("pledge_status", validatePledgeStatus)
		_ = v.RegisterValidation("contribution_status", validateContributionStatus)
		_ = v.RegisterValidation("goal_status", validateGoalStatus)
	}
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func validateMemberCode(fl validator.FieldLevel) bool {
	return memberCodeRegex.MatchString(fl.Field().String())
}

func validatePledgeStatus(fl validator.FieldLevel) bool {
	return models.PledgeStatus(fl.Field().String()).Valid()
}

func validateContributionStatus(fl validator.FieldLevel) bool {
	return models.ContributionStatus(fl.Field().String()).Valid()
}

func validateGoalStatus(fl validator.FieldLevel) bool {
	switch models.GoalStatus(fl.Field().String()) {
	case models.GoalStatusActive, models.GoalStatusCompleted:
		return true
	}
	return false
}
