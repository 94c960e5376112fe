package payment

import (
	"bytes"
	"encoding/json"
)

// ExpandableID - строковый id или развернутый объект {"id": ...}
type ExpandableID string

func (e *ExpandableID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*e = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = ExpandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*e = ExpandableID(obj.ID)
	return nil
}

func (e ExpandableID) String() string { return string(e) }

// CheckoutSessionObject - data.object события checkout.session.completed
type CheckoutSessionObject struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	Customer          ExpandableID      `json:"customer"`
	Subscription      ExpandableID      `json:"subscription"`
	PaymentIntent     ExpandableID      `json:"payment_intent"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// IsJobPayment - оплата работы; старые сессии без type узнаем по bidId
func (s *CheckoutSessionObject) IsJobPayment() bool {
	t := s.Metadata["type"]
	return t == MetadataTypeJobPayment || (t == "" && s.Metadata["bidId"] != "")
}

func (s *CheckoutSessionObject) IsSubscription() bool {
	t := s.Metadata["type"]
	return t == MetadataTypeSubscription || (t == "" && s.Metadata["planId"] != "")
}

// BillingReasonCreate - первый счет подписки, приходит вместе с checkout
const BillingReasonCreate = "subscription_create"

type InvoiceObject struct {
	ID                  string       `json:"id"`
	Customer            ExpandableID `json:"customer"`
	Subscription        ExpandableID `json:"subscription"`
	AmountPaid          int64        `json:"amount_paid"`
	AmountDue           int64        `json:"amount_due"`
	Currency            string       `json:"currency"`
	PaymentIntent       ExpandableID `json:"payment_intent"`
	Charge              ExpandableID `json:"charge"`
	BillingReason       string       `json:"billing_reason"`
	SubscriptionDetails struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"subscription_details"`
}

type SubscriptionObject struct {
	ID       string            `json:"id"`
	Customer ExpandableID      `json:"customer"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}
