package sudoapi

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/AlmonerProjects/almoner"
	"github.com/google/uuid"
)

// GenerateReceipt produces the written acknowledgment for a persisted
// donation: deductible amount, the required disclosures, and a snapshot of
// the organization's compliance profile. Re-running for the same donation
// overwrites the stored receipt instead of duplicating it. Persistence is
// the only side effect; delivering the receipt to the donor is the caller's
// concern.
func (s *BaseAPI) GenerateReceipt(ctx context.Context, d *almoner.Donation) (*almoner.Receipt, error) {
	prof, err := s.OrgProfile(ctx, d.OrgID)
	if err != nil {
		return nil, fmt.Errorf("couldn't load org compliance profile: %w", err)
	}

	rec := &almoner.Receipt{
		OrgID:      d.OrgID,
		DonationID: d.ID,
		Number:     uuid.NewString(),

		DeductibleAmount: almoner.DeductibleAmount(d.GrossAmount, d.FairMarketValue),
		Disclosure:       almoner.RenderDisclosure(d, prof),

		OrgLegalName:    prof.LegalName,
		OrgEIN:          prof.EIN,
		StateDisclosure: prof.StateDisclosure,
	}

	if err := s.db.UpsertReceipt(ctx, rec); err != nil {
		return nil, fmt.Errorf("couldn't persist receipt: %w", err)
	}

	s.LogAudit(ctx, &almoner.AuditEntry{
		OrgID:  d.OrgID,
		Action: "receipt.issued",
		Entity: almoner.EntityRef{Kind: "receipt", ID: strconv.Itoa(rec.ID)},
		After: map[string]any{
			"donation_id":       rec.DonationID,
			"number":            rec.Number,
			"deductible_amount": rec.DeductibleAmount,
		},
	})

	return rec, nil
}

func (s *BaseAPI) Receipt(ctx context.Context, donationID int) (*almoner.Receipt, error) {
	rec, err := s.db.ReceiptByDonationID(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("couldn't get receipt: %w", err)
	}
	if rec == nil {
		return nil, almoner.ErrNotFound
	}
	return rec, nil
}

// emailReceipt delivers the receipt over the email channel, best-effort.
// Requires the donor's email consent and an available slot under the daily
// channel limit; any failure degrades to "no email sent" without affecting
// the receipt itself.
func (s *BaseAPI) emailReceipt(ctx context.Context, d *almoner.Donation, rec *almoner.Receipt) {
	if s.mailer == nil {
		return
	}
	donor, err := s.db.Donor(ctx, d.OrgID, d.DonorEmail)
	if err != nil || donor == nil {
		slog.WarnContext(ctx, "Couldn't look up donor for receipt email", slog.Any("err", err))
		return
	}
	if !donor.EmailConsent {
		slog.InfoContext(ctx, "Skipping receipt email, no consent", slog.Int("donor_id", donor.ID))
		return
	}
	ok, err := s.underDailyLimit(ctx, d.OrgID, donor.ID, almoner.ChannelEmail)
	if err != nil || !ok {
		slog.InfoContext(ctx, "Skipping receipt email", slog.Int("donor_id", donor.ID), slog.Any("err", err))
		return
	}

	subject := fmt.Sprintf("Your donation receipt from %s", rec.OrgLegalName)
	msg := &almoner.MailerMessage{
		To:           donor.Email,
		Subject:      subject,
		PlainContent: fmt.Sprintf("Thank you for your gift of %s.\n\n%s\n\nReceipt number: %s\n", almoner.FormatAmount(d.GrossAmount, d.Currency), rec.Disclosure, rec.Number),
	}

	comm := &almoner.Communication{
		OrgID:   d.OrgID,
		DonorID: donor.ID,
		Channel: almoner.ChannelEmail,
		Title:   subject,
		Body:    msg.PlainContent,
		SentBy:  "system",
	}
	if err := s.mailer.SendEmail(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Couldn't send receipt email", slog.Int("donor_id", donor.ID), slog.Any("err", err))
		comm.FailureCount = 1
	} else {
		comm.SuccessCount = 1
	}
	if err := s.db.CreateCommunication(ctx, comm); err != nil {
		slog.WarnContext(ctx, "Couldn't log receipt email communication", slog.Any("err", err))
	}
}
