package almoner

import "time"

// Donor is one person in an organization's donor directory, keyed by
// (OrgID, Email). Aggregate totals are maintained by the ledger writer and
// must only be mutated through atomic store-side updates.
type Donor struct {
	ID        int       `json:"id"`
	OrgID     int       `json:"org_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`

	// LifetimeTotal and DonationCount only ever increase.
	// YearToDateTotal resets when a gift lands in a different calendar
	// year than LastDonationAt.
	LifetimeTotal   int64 `json:"lifetime_total"`
	YearToDateTotal int64 `json:"ytd_total"`
	DonationCount   int   `json:"donation_count"`

	FirstDonationAt *time.Time `json:"first_donation_at"`
	LastDonationAt  *time.Time `json:"last_donation_at"`

	// Consent flags are set only by explicit donor action, never inferred.
	PushConsent  bool `json:"push_consent"`
	EmailConsent bool `json:"email_consent"`
	SMSConsent   bool `json:"sms_consent"`
}

type DonorConsent struct {
	Push  bool `json:"push"`
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}
