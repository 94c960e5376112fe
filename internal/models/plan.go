package models

import "dronemarket_backend/internal/money"

// Plan - тариф членства пилота
type Plan struct {
	ID       MembershipTier `json:"id"`
	Name     string         `json:"name"`
	Price    money.Cents    `json:"price"`
	Interval string         `json:"interval"`
	Features []string       `json:"features"`
}

var Plans = []Plan{
	{
		ID:       MembershipBasic,
		Name:     "Basic",
		Price:    2999,
		Interval: "month",
		Features: []string{"Up to 10 job bids per month", "Basic profile listing", "Email support"},
	},
	{
		ID:       MembershipPremium,
		Name:     "Premium",
		Price:    7999,
		Interval: "month",
		Features: []string{
			"Unlimited job bids",
			"Featured profile listing",
			"Priority customer support",
			"Advanced analytics",
			"Direct messaging with property managers",
		},
	},
	{
		ID:       MembershipEnterprise,
		Name:     "Enterprise",
		Price:    19999,
		Interval: "month",
		Features: []string{
			"Everything in Premium",
			"Team management",
			"API access",
			"Dedicated account manager",
			"Custom integrations",
		},
	},
}

// FindPlan ищет тариф по идентификатору
func FindPlan(id string) (Plan, bool) {
	for _, p := range Plans {
		if string(p.ID) == id {
			return p, true
		}
	}
	return Plan{}, false
}
