package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/AlmonerProjects/almoner"
)

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidCardpointSignature(t *testing.T) {
	body := []byte(`{"type":"checkout.session.completed"}`)
	secret := "whsec_test"

	if !validCardpointSignature(body, signBody(body, secret), secret) {
		t.Fatal("Valid signature was rejected")
	}
	if validCardpointSignature(body, signBody(body, "other_secret"), secret) {
		t.Fatal("Signature from another secret was accepted")
	}
	if validCardpointSignature(body, "", secret) {
		t.Fatal("Empty signature was accepted")
	}
	if validCardpointSignature([]byte(`{"type":"tampered"}`), signBody(body, secret), secret) {
		t.Fatal("Signature over different body was accepted")
	}
}

func TestParseMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
		errors bool
	}{
		{"25.00", 2500, false},
		{"25.5", 2550, false},
		{"0.01", 1, false},
		{"1000", 100000, false},
		{"25.005", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, test := range tests {
		got, err := parseMinorUnits(test.amount)
		if test.errors != (err != nil) {
			t.Fatalf("parseMinorUnits(%q) error = %v, wanted error: %v", test.amount, err, test.errors)
		}
		if err == nil && got != test.want {
			t.Fatalf("parseMinorUnits(%q) = %d, expected %d", test.amount, got, test.want)
		}
	}
}

func TestDonationFromGiveCorpsGift(t *testing.T) {
	gift := &givecorpsGift{
		ID:       "gc_12345",
		Amount:   "25.00",
		Fees:     "1.05",
		Currency: "usd",
	}
	gift.Donor.Email = "donor@example.com"
	gift.Donor.Name = "Ada Example"
	gift.CreatedAt = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	d, err := donationFromGiveCorpsGift(7, gift)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.OrgID != 7 || d.ExternalID != "gc_12345" || d.Source != almoner.DonationSourceGiveCorps {
		t.Fatalf("Wrong identity fields: %+v", d)
	}
	if d.GrossAmount != 2500 || d.FeeAmount != 105 || d.NetAmount != 2395 {
		t.Fatalf("Wrong amounts: gross %d fee %d net %d", d.GrossAmount, d.FeeAmount, d.NetAmount)
	}

	// Missing required fields must be rejected before the ledger.
	for _, broken := range []func(g *givecorpsGift){
		func(g *givecorpsGift) { g.ID = "" },
		func(g *givecorpsGift) { g.Currency = "" },
		func(g *givecorpsGift) { g.Donor.Email = "" },
		func(g *givecorpsGift) { g.Amount = "0" },
		func(g *givecorpsGift) { g.Amount = "12.345" },
		func(g *givecorpsGift) { g.Fees = "26.00" },
	} {
		bad := *gift
		broken(&bad)
		if _, err := donationFromGiveCorpsGift(7, &bad); err == nil {
			t.Fatalf("Malformed gift %+v was accepted", bad)
		} else if almoner.ErrorCode(err) != 400 {
			t.Fatalf("Expected status 400, got %d", almoner.ErrorCode(err))
		}
	}
}

func TestDonationFromCardpointSession(t *testing.T) {
	evt := &cardpointEvent{ID: "evt_1", Type: "checkout.session.completed", Created: 1741942800}
	session := &cardpointSession{
		ID:          "cs_98765",
		AmountTotal: 5000,
		Currency:    "usd",
		PaymentID:   "pay_555",
		Metadata:    map[string]string{"campaign_id": "12", "fair_market_value": "750"},
	}
	session.CustomerDetails.Email = "donor@example.com"

	d, err := donationFromCardpointSession(3, evt, session)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.ExternalID != "cs_98765" || d.Source != almoner.DonationSourceCardpoint {
		t.Fatalf("Wrong identity fields: %+v", d)
	}
	if d.GrossAmount != 5000 || d.NetAmount != 5000 || d.FeeAmount != 0 {
		t.Fatalf("Fee breakdown should default to zero fees: %+v", d)
	}
	if d.CampaignID == nil || *d.CampaignID != 12 {
		t.Fatalf("Campaign metadata was not picked up: %+v", d.CampaignID)
	}
	if d.FairMarketValue != 750 {
		t.Fatalf("Fair market value = %d, expected 750", d.FairMarketValue)
	}
	if !d.DonatedAt.Equal(time.Unix(1741942800, 0)) {
		t.Fatalf("DonatedAt = %v, expected event timestamp", d.DonatedAt)
	}

	session.AmountTotal = 0
	if _, err := donationFromCardpointSession(3, evt, session); err == nil {
		t.Fatal("Zero-amount session was accepted")
	}
	session.AmountTotal = 5000
	session.Metadata["campaign_id"] = "not-a-number"
	if _, err := donationFromCardpointSession(3, evt, session); err == nil {
		t.Fatal("Invalid campaign metadata was accepted")
	}
}
