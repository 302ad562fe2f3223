package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AlmonerProjects/almoner"
	"github.com/AlmonerProjects/almoner/integrations/cardpoint"
	"github.com/AlmonerProjects/almoner/sudoapi/flags"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type cardpointEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type cardpointSession struct {
	ID          string `json:"id"`
	AmountTotal int64  `json:"amount_total"`
	Currency    string `json:"currency"`
	PaymentID   string `json:"payment"`

	CustomerDetails struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"customer_details"`

	Metadata map[string]string `json:"metadata"`
}

// cardpointEvent handles a signed event from the Cardpoint payment provider.
func (s *API) cardpointEvent(w http.ResponseWriter, r *http.Request) {
	orgID, err := strconv.Atoi(chi.URLParam(r, "orgID"))
	if err != nil || orgID <= 0 {
		errorData(w, "Invalid organization", 400)
		return
	}

	if flags.CardpointWebhookSecret.Value() == "" {
		slog.WarnContext(r.Context(), "cardpoint_event was POSTed but no secret was specified in config file")
		errorData(w, "Cardpoint secret not rolled out", 400)
		return
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r.Body); err != nil {
		slog.WarnContext(r.Context(), "Couldn't read body to buffer", slog.Any("err", err))
		errorData(w, "Couldn't read body to buffer", 500)
		return
	}
	if !validCardpointSignature(buf.Bytes(), r.Header.Get("X-Cardpoint-Signature"), flags.CardpointWebhookSecret.Value()) {
		webhookEventsTotal.WithLabelValues("cardpoint", "bad_signature").Inc()
		errorData(w, "Invalid signature", 401)
		return
	}

	var evt cardpointEvent
	if err := json.NewDecoder(&buf).Decode(&evt); err != nil {
		slog.WarnContext(r.Context(), "Invalid JSON", slog.Any("err", err))
		webhookEventsTotal.WithLabelValues("cardpoint", "malformed").Inc()
		errorData(w, "Invalid JSON", 400)
		return
	}

	switch evt.Type {
	case "checkout.session.completed":
		var session cardpointSession
		if err := json.Unmarshal(evt.Data.Object, &session); err != nil {
			slog.WarnContext(r.Context(), "Invalid JSON session data", slog.Any("err", err))
			webhookEventsTotal.WithLabelValues("cardpoint", "malformed").Inc()
			errorData(w, "Invalid session data", 400)
			return
		}
		donation, err := donationFromCardpointSession(orgID, &evt, &session)
		if err != nil {
			webhookEventsTotal.WithLabelValues("cardpoint", "malformed").Inc()
			statusError(w, err)
			return
		}
		s.enrichCardpointFees(r.Context(), donation, session.PaymentID)
		created, err := s.base.ProcessDonation(r.Context(), donation)
		if err != nil {
			webhookEventsTotal.WithLabelValues("cardpoint", "internal_error").Inc()
			statusError(w, err)
			return
		}
		if !created {
			webhookEventsTotal.WithLabelValues("cardpoint", "duplicate").Inc()
			returnData(w, "Already processed")
			return
		}
		webhookEventsTotal.WithLabelValues("cardpoint", "accepted").Inc()
		returnData(w, "Donation recorded")
	case "checkout.session.expired", "payment.refunded", "payout.paid":
		// Known event types that carry no ledger-relevant payload.
		webhookEventsTotal.WithLabelValues("cardpoint", "ignored").Inc()
		returnData(w, "Acknowledged")
	default:
		slog.InfoContext(r.Context(), "Unhandled cardpoint event type", slog.String("type", evt.Type))
		webhookEventsTotal.WithLabelValues("cardpoint", "ignored").Inc()
		returnData(w, "Acknowledged")
	}
}

// enrichCardpointFees fills in the fee breakdown from the provider's balance
// transaction endpoint. The lookup is bounded and fails open: a slow or broken
// fee API must never block the ledger write.
func (s *API) enrichCardpointFees(ctx context.Context, donation *almoner.Donation, paymentID string) {
	if paymentID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cardpoint.FeeTimeout())
	defer cancel()
	bt, err := s.cardpoint.BalanceTransaction(ctx, paymentID)
	if err != nil {
		slog.WarnContext(ctx, "Couldn't fetch balance transaction, recording donation without fees",
			slog.String("payment_id", paymentID), slog.Any("err", err))
		return
	}
	donation.FeeAmount = bt.Fee
	donation.NetAmount = bt.Net
}

func validCardpointSignature(body []byte, signature string, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func donationFromCardpointSession(orgID int, evt *cardpointEvent, session *cardpointSession) (*almoner.Donation, error) {
	if session.ID == "" || session.Currency == "" || session.CustomerDetails.Email == "" {
		return nil, almoner.Statusf(400, "Session is missing required fields")
	}
	if session.AmountTotal <= 0 {
		return nil, almoner.Statusf(400, "Session amount must be positive")
	}

	donation := &almoner.Donation{
		OrgID:      orgID,
		ExternalID: session.ID,
		Source:     almoner.DonationSourceCardpoint,

		GrossAmount: session.AmountTotal,
		NetAmount:   session.AmountTotal,
		Currency:    session.Currency,

		DonorEmail: session.CustomerDetails.Email,
		DonorName:  session.CustomerDetails.Name,
		DonorPhone: session.CustomerDetails.Phone,

		DonatedAt: time.Unix(evt.Created, 0),
	}
	if evt.Created == 0 {
		donation.DonatedAt = time.Now()
	}

	if raw, ok := session.Metadata["campaign_id"]; ok {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, almoner.Statusf(400, "Invalid campaign_id metadata")
		}
		donation.CampaignID = &id
	}
	if raw, ok := session.Metadata["fair_market_value"]; ok {
		fmv, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || fmv < 0 {
			return nil, almoner.Statusf(400, "Invalid fair_market_value metadata")
		}
		donation.FairMarketValue = fmv
	}
	if len(session.Metadata) > 0 {
		donation.Metadata = make(map[string]any, len(session.Metadata))
		for k, v := range session.Metadata {
			donation.Metadata[k] = v
		}
	}
	return donation, nil
}

type givecorpsEvent struct {
	Event string        `json:"event"`
	Data  givecorpsGift `json:"data"`
}

type givecorpsGift struct {
	ID       string `json:"id"`
	Amount   string `json:"amount"`
	Fees     string `json:"fees"`
	Currency string `json:"currency"`

	Donor struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"donor"`

	CampaignID *int           `json:"campaign_id"`
	CreatedAt  time.Time      `json:"created_at"`
	Metadata   map[string]any `json:"metadata"`
}

// givecorpsEvent handles an event from the GiveCorps giving platform. GiveCorps
// doesn't sign payloads, it sends back the shared token configured on the
// campaign page.
func (s *API) givecorpsEvent(w http.ResponseWriter, r *http.Request) {
	orgID, err := strconv.Atoi(chi.URLParam(r, "orgID"))
	if err != nil || orgID <= 0 {
		errorData(w, "Invalid organization", 400)
		return
	}

	if flags.GiveCorpsWebhookToken.Value() == "" {
		slog.WarnContext(r.Context(), "givecorps_event was POSTed but no token was specified in config file")
		errorData(w, "GiveCorps token not rolled out", 400)
		return
	}
	if !hmac.Equal([]byte(r.Header.Get("X-GiveCorps-Token")), []byte(flags.GiveCorpsWebhookToken.Value())) {
		webhookEventsTotal.WithLabelValues("givecorps", "bad_signature").Inc()
		errorData(w, "Invalid token", 401)
		return
	}

	var evt givecorpsEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		slog.WarnContext(r.Context(), "Invalid JSON", slog.Any("err", err))
		webhookEventsTotal.WithLabelValues("givecorps", "malformed").Inc()
		errorData(w, "Invalid JSON", 400)
		return
	}

	switch evt.Event {
	case "donation.completed":
		donation, err := donationFromGiveCorpsGift(orgID, &evt.Data)
		if err != nil {
			webhookEventsTotal.WithLabelValues("givecorps", "malformed").Inc()
			statusError(w, err)
			return
		}
		created, err := s.base.ProcessDonation(r.Context(), donation)
		if err != nil {
			webhookEventsTotal.WithLabelValues("givecorps", "internal_error").Inc()
			statusError(w, err)
			return
		}
		if !created {
			webhookEventsTotal.WithLabelValues("givecorps", "duplicate").Inc()
			returnData(w, "Already processed")
			return
		}
		webhookEventsTotal.WithLabelValues("givecorps", "accepted").Inc()
		returnData(w, "Donation recorded")
	case "donation.pending", "donation.refunded", "campaign.goal_reached":
		webhookEventsTotal.WithLabelValues("givecorps", "ignored").Inc()
		returnData(w, "Acknowledged")
	default:
		slog.InfoContext(r.Context(), "Unhandled givecorps event type", slog.String("event", evt.Event))
		webhookEventsTotal.WithLabelValues("givecorps", "ignored").Inc()
		returnData(w, "Acknowledged")
	}
}

func donationFromGiveCorpsGift(orgID int, gift *givecorpsGift) (*almoner.Donation, error) {
	if gift.ID == "" || gift.Currency == "" || gift.Donor.Email == "" {
		return nil, almoner.Statusf(400, "Gift is missing required fields")
	}

	gross, err := parseMinorUnits(gift.Amount)
	if err != nil {
		return nil, almoner.Statusf(400, "Invalid gift amount %q", gift.Amount)
	}
	if gross <= 0 {
		return nil, almoner.Statusf(400, "Gift amount must be positive")
	}
	var fees int64
	if gift.Fees != "" {
		fees, err = parseMinorUnits(gift.Fees)
		if err != nil || fees < 0 || fees > gross {
			return nil, almoner.Statusf(400, "Invalid gift fees %q", gift.Fees)
		}
	}

	donation := &almoner.Donation{
		OrgID:      orgID,
		ExternalID: gift.ID,
		Source:     almoner.DonationSourceGiveCorps,

		GrossAmount: gross,
		FeeAmount:   fees,
		NetAmount:   gross - fees,
		Currency:    gift.Currency,

		DonorEmail: gift.Donor.Email,
		DonorName:  gift.Donor.Name,
		DonorPhone: gift.Donor.Phone,

		CampaignID: gift.CampaignID,
		Metadata:   gift.Metadata,

		DonatedAt: gift.CreatedAt,
	}
	if donation.DonatedAt.IsZero() {
		donation.DonatedAt = time.Now()
	}
	return donation, nil
}

// parseMinorUnits converts a decimal amount string like "25.00" into minor
// currency units. Amounts with sub-cent precision are rejected rather than
// silently rounded.
func parseMinorUnits(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, err
	}
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, almoner.Statusf(400, "Amount has sub-cent precision")
	}
	return shifted.IntPart(), nil
}
