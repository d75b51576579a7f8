package models

import "time"

// SubscriptionStatus is the billing state of a practitioner.
type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "TRIALING"
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionExpired  SubscriptionStatus = "EXPIRED"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

// TrialPeriodDays is the length of the trial window granted at registration.
const TrialPeriodDays = 7

// TrialEndsAt computes the end of the trial window for an account created at
// createdAt. The result keeps the time of day of createdAt.
func TrialEndsAt(createdAt time.Time) time.Time {
	return createdAt.UTC().AddDate(0, 0, TrialPeriodDays)
}

// PractitionerProfile is owned one-to-one by a DOCTOR account.
type PractitionerProfile struct {
	ID                 string             `json:"id"`
	AccountID          string             `json:"accountId"`
	Name               string             `json:"name"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	TrialEndsAt        time.Time          `json:"trialEndsAt"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// InTrial reports whether the profile is still inside its trial window.
func (p *PractitionerProfile) InTrial(now time.Time) bool {
	return p.SubscriptionStatus == SubscriptionTrialing && now.Before(p.TrialEndsAt)
}

// Registration is the composed result of provisioning a practitioner.
type Registration struct {
	Account AccountView         `json:"account"`
	Profile PractitionerProfile `json:"profile"`
}
