package almoner

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DonationSource string

const (
	DonationSourceUnknown   DonationSource = ""
	DonationSourceCardpoint DonationSource = "cardpoint"
	DonationSourceGiveCorps DonationSource = "givecorps"
	DonationSourceOther     DonationSource = "other"
)

// Donation is one settled gift, as normalized from a provider callback.
// All amounts are minor units of Currency (cents for USD).
// Exactly one Donation exists per (OrgID, ExternalID) pair, and the record
// is immutable once written.
type Donation struct {
	ID        int       `json:"id"`
	OrgID     int       `json:"org_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ExternalID is the provider-assigned transaction identifier,
	// used as the idempotency key for webhook redeliveries.
	ExternalID string    `json:"external_id"`
	DonatedAt  time.Time `json:"donated_at"`

	GrossAmount int64 `json:"gross_amount"`
	NetAmount   int64 `json:"net_amount"`
	FeeAmount   int64 `json:"fee_amount"`
	// FairMarketValue is the value of any goods or services the donor
	// received in exchange for the gift. Zero for outright gifts.
	FairMarketValue int64  `json:"fair_market_value"`
	Currency        string `json:"currency"`

	// Donor snapshot at time of gift. The Donor directory entry may
	// change later; the donation keeps what the provider sent.
	DonorEmail string `json:"donor_email"`
	DonorName  string `json:"donor_name"`
	DonorPhone string `json:"donor_phone"`

	CampaignID *int           `json:"campaign_id"`
	Source     DonationSource `json:"source"`
	Metadata   map[string]any `json:"metadata"`
}

type DonationFilter struct {
	ID         *int
	OrgID      int
	ExternalID *string
	Source     *DonationSource
	CampaignID *int
	DonorEmail *string

	Since *time.Time
	Until *time.Time

	Limit  int
	Offset int
}

// FormatAmount renders an amount in minor units as a human-readable string,
// e.g. FormatAmount(2550, "usd") == "25.50 USD".
func FormatAmount(amount int64, currency string) string {
	return decimal.New(amount, -2).StringFixed(2) + " " + strings.ToUpper(currency)
}
