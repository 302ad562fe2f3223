package almoner

import (
	"fmt"
	"strings"
	"time"
)

// Receipt is the contemporaneous written acknowledgment for a single
// donation, 1:1 with the Donation it documents. Regenerating a receipt for
// the same donation overwrites the existing one.
type Receipt struct {
	ID         int       `json:"id"`
	OrgID      int       `json:"org_id"`
	DonationID int       `json:"donation_id"`
	Number     string    `json:"number"`
	IssuedAt   time.Time `json:"issued_at"`

	DeductibleAmount int64  `json:"deductible_amount"`
	Disclosure       string `json:"disclosure"`

	// Compliance snapshot of the organization at issuance time.
	OrgLegalName    string `json:"org_legal_name"`
	OrgEIN          string `json:"org_ein"`
	StateDisclosure string `json:"state_disclosure"`
}

// OrgProfile is the organization compliance profile used verbatim on
// receipts. It is supplied by the organization settings store, which is
// outside this core.
type OrgProfile struct {
	ID              int    `json:"id"`
	LegalName       string `json:"legal_name"`
	EIN             string `json:"ein"`
	StateDisclosure string `json:"state_disclosure"`
}

// DeductibleAmount computes the tax-deductible portion of a gift. When the
// fair market value of goods or services received meets or exceeds the gross
// amount, the deductible portion is clamped to zero rather than going
// negative.
func DeductibleAmount(gross, fairMarketValue int64) int64 {
	if fairMarketValue >= gross {
		return 0
	}
	return gross - fairMarketValue
}

// RenderDisclosure builds the full receipt disclosure text for a donation.
// It includes either the quid-pro-quo statement or the "no goods or
// services" statement, followed by the general deductibility disclaimer, and
// the organization's state solicitation disclosure verbatim when configured.
func RenderDisclosure(d *Donation, prof *OrgProfile) string {
	var b strings.Builder

	deductible := DeductibleAmount(d.GrossAmount, d.FairMarketValue)
	if d.FairMarketValue > 0 {
		fmt.Fprintf(&b, "In exchange for your contribution of %s, you received goods or services with an estimated fair market value of %s. "+
			"Only the portion of your contribution that exceeds that value, %s, is tax-deductible.",
			FormatAmount(d.GrossAmount, d.Currency),
			FormatAmount(d.FairMarketValue, d.Currency),
			FormatAmount(deductible, d.Currency),
		)
	} else {
		fmt.Fprintf(&b, "No goods or services were provided in exchange for your contribution of %s.",
			FormatAmount(d.GrossAmount, d.Currency),
		)
	}

	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s is a tax-exempt organization described in Section 501(c)(3) of the Internal Revenue Code", prof.LegalName)
	if prof.EIN != "" {
		fmt.Fprintf(&b, " (EIN %s)", prof.EIN)
	}
	b.WriteString(". Contributions are deductible to the extent allowed by law. Please retain this receipt for your records.")

	if prof.StateDisclosure != "" {
		b.WriteString("\n\n")
		b.WriteString(prof.StateDisclosure)
	}

	return b.String()
}
