package validator

import (
	"log"

	"github.com/go-playground/validator/v10"

	"dronemarket_backend/internal/models"
)

// registerCustomRules регистрирует правила для всех перечислений моделей
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// Роль при регистрации: admin создается только сидом
	mustRegister("is-signup-role", oneOf(models.UserRolePropertyManager, models.UserRolePilot))

	mustRegister("is-pilot-status", oneOf(
		models.PilotStatusPending, models.PilotStatusActive, models.PilotStatusSuspended, models.PilotStatusInactive,
	))
	mustRegister("is-job-status", oneOf(
		models.JobStatusDraft, models.JobStatusPublished, models.JobStatusBidding, models.JobStatusAwarded,
		models.JobStatusInProgress, models.JobStatusCompleted, models.JobStatusCancelled,
	))
	mustRegister("is-property-type", oneOf(
		models.PropertyResidential, models.PropertyCommercial, models.PropertyIndustrial,
		models.PropertyInstitutional, models.PropertyMixedUse,
	))
	mustRegister("is-cleaning-type", oneOf(
		models.CleaningWindow, models.CleaningPressure, models.CleaningRoof, models.CleaningSolarPanel,
		models.CleaningGutter, models.CleaningFacade, models.CleaningOther,
	))
	mustRegister("is-urgency", oneOf(models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh, models.UrgencyEmergency))
	mustRegister("is-budget-type", oneOf(models.BudgetFixed, models.BudgetRange, models.BudgetNegotiable))

	mustRegister("is-policy-type", oneOf(
		models.PolicyGeneralLiability, models.PolicyProfessionalLiability, models.PolicyDroneLiability,
		models.PolicyComprehensive, models.PolicyOther,
	))
	mustRegister("is-billing-cycle", oneOf(models.BillingMonthly, models.BillingQuarterly, models.BillingAnnually))
	mustRegister("is-verification-method", oneOf(
		models.VerificationManual, models.VerificationAPI, models.VerificationDocumentUpload,
	))

	mustRegister("is-lucid-tier", oneOf(
		models.LucidTierBasic, models.LucidTierProfessional, models.LucidTierEnterprise, models.LucidTierCustom,
	))
	mustRegister("is-sync-status", oneOf(models.SyncSynced, models.SyncPending, models.SyncFailed, models.SyncDisabled))

	mustRegister("is-plan", validatePlan)
}

// oneOf - правило "значение из списка"; пустое значение пропускаем, для этого есть 'required'
func oneOf[T ~string](allowed ...T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		for _, a := range allowed {
			if string(a) == value {
				return true
			}
		}
		return false
	}
}

func validatePlan(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := models.FindPlan(value)
	return ok
}
