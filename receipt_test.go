package almoner

import (
	"strings"
	"testing"
)

func TestDeductibleAmount(t *testing.T) {
	tests := []struct {
		gross, fmv, want int64
	}{
		{10000, 2000, 8000},
		{10000, 0, 10000},
		{10000, 10000, 0},
		{5000, 7500, 0}, // goods worth more than the gift, clamp at zero
		{1, 0, 1},
	}
	for _, test := range tests {
		if got := DeductibleAmount(test.gross, test.fmv); got != test.want {
			t.Fatalf("DeductibleAmount(%d, %d) = %d, wanted %d", test.gross, test.fmv, got, test.want)
		}
	}
}

func TestRenderDisclosureQuidProQuo(t *testing.T) {
	d := &Donation{GrossAmount: 10000, FairMarketValue: 2000, Currency: "usd"}
	prof := &OrgProfile{LegalName: "Harbor Light Relief", EIN: "12-3456789", StateDisclosure: "Registered with the state of Florida, registration CH-0000."}

	text := RenderDisclosure(d, prof)
	for _, want := range []string{
		"fair market value of 20.00 USD",
		"80.00 USD",
		"Harbor Light Relief",
		"EIN 12-3456789",
		"501(c)(3)",
		"Registered with the state of Florida, registration CH-0000.",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("disclosure missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "No goods or services") {
		t.Fatal("quid-pro-quo receipt must not carry the no-goods statement")
	}
}

func TestRenderDisclosureNoGoods(t *testing.T) {
	d := &Donation{GrossAmount: 2550, FairMarketValue: 0, Currency: "usd"}
	prof := &OrgProfile{LegalName: "Harbor Light Relief"}

	text := RenderDisclosure(d, prof)
	if !strings.Contains(text, "No goods or services were provided in exchange for your contribution of 25.50 USD") {
		t.Fatalf("missing no-goods statement:\n%s", text)
	}
	if strings.Contains(text, "EIN") {
		t.Fatal("EIN should be omitted when the profile has none")
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   int64
		currency string
		want     string
	}{
		{2550, "usd", "25.50 USD"},
		{100, "eur", "1.00 EUR"},
		{5, "USD", "0.05 USD"},
		{0, "usd", "0.00 USD"},
	}
	for _, test := range tests {
		if got := FormatAmount(test.amount, test.currency); got != test.want {
			t.Fatalf("FormatAmount(%d, %q) = %q, wanted %q", test.amount, test.currency, got, test.want)
		}
	}
}
