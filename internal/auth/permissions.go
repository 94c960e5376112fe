package auth

import "errors"

// Роли маркетплейса
const (
	RoleAdmin           = "admin"
	RolePropertyManager = "property_manager"
	RolePilot           = "pilot"
)

// Разрешения, проверяемые middleware.RequirePermission
const (
	PermJobsWrite        = "jobs:write"
	PermBidsWrite        = "bids:write"
	PermPaymentsRefund   = "payments:refund"
	PermPilotsModerate   = "pilots:moderate"
	PermInsuranceVerify  = "insurance:verify"
	PermInsuranceList    = "insurance:list"
	PermLucidSuiteSync   = "lucid_suite:sync"
	PermSubscriptionsBuy = "subscriptions:buy"
)

// Permissions список разрешений по ролям
var Permissions = map[string][]string{
	RoleAdmin: {
		PermPaymentsRefund,
		PermPilotsModerate,
		PermInsuranceVerify,
		PermInsuranceList,
		PermLucidSuiteSync,
	},
	RolePropertyManager: {
		PermJobsWrite,
	},
	RolePilot: {
		PermBidsWrite,
		PermSubscriptionsBuy,
	},
}

// HasPermission проверяет есть ли у роли указанное разрешение
func HasPermission(role, permission string) bool {
	for _, p := range Permissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// IsAdmin проверяет является ли пользователь администратором
func IsAdmin(claims *Claims) bool {
	return claims != nil && claims.Role == RoleAdmin
}

// ValidateRole проверяет валидность роли
func ValidateRole(role string) error {
	switch role {
	case RoleAdmin, RolePropertyManager, RolePilot:
		return nil
	default:
		return errors.New("invalid role")
	}
}
