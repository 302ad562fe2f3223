package sudoapi

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/AlmonerProjects/almoner"
)

// ProcessDonation is the donation event pipeline: the ledger write plus the
// donor rollup run first and transactionally, then receipt generation,
// notification dispatch and the audit entry run best-effort. It reports
// whether the donation was new; a false return means an idempotent replay
// that caused no writes at all.
//
// Only a failure of the ledger write itself is returned as an error. Every
// later stage failing leaves the donation durably recorded and must not make
// the provider retry the event.
func (s *BaseAPI) ProcessDonation(ctx context.Context, d *almoner.Donation) (bool, error) {
	donor, created, err := s.db.RecordDonation(ctx, d)
	if err != nil {
		return false, fmt.Errorf("couldn't record donation: %w", err)
	}
	if !created {
		slog.InfoContext(ctx, "Duplicate donation delivery acknowledged",
			slog.String("external_id", d.ExternalID), slog.String("source", string(d.Source)))
		return false, nil
	}

	if rec, err := s.GenerateReceipt(ctx, d); err != nil {
		slog.WarnContext(ctx, "Couldn't generate receipt", slog.Int("donation_id", d.ID), slog.Any("err", err))
	} else {
		s.emailReceipt(ctx, d, rec)
	}

	if err := s.NotifyDonation(ctx, donor, d); err != nil && !IsDispatchSkip(err) {
		slog.WarnContext(ctx, "Couldn't dispatch donation notification", slog.Int("donor_id", donor.ID), slog.Any("err", err))
	}

	s.LogAudit(ctx, &almoner.AuditEntry{
		OrgID:  d.OrgID,
		Action: "donation.webhook." + string(d.Source),
		Entity: almoner.EntityRef{Kind: "donation", ID: strconv.Itoa(d.ID)},
		After:  donationSnapshot(d),
	})

	return true, nil
}

func (s *BaseAPI) Donations(ctx context.Context, filter almoner.DonationFilter) ([]*almoner.Donation, error) {
	donations, err := s.db.Donations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("couldn't get donations: %w", err)
	}
	return donations, nil
}

func (s *BaseAPI) CountDonations(ctx context.Context, filter almoner.DonationFilter) (int, error) {
	cnt, err := s.db.CountDonations(ctx, filter)
	if err != nil {
		return -1, fmt.Errorf("couldn't count donations: %w", err)
	}
	return cnt, nil
}

func (s *BaseAPI) UpdateDonorConsent(ctx context.Context, actor *almoner.Actor, orgID, donorID int, consent almoner.DonorConsent) error {
	if !actor.HasCapability(almoner.CapDonorsManage) {
		return almoner.ErrForbidden
	}
	donor, err := s.db.DonorByID(ctx, donorID)
	if err != nil {
		return fmt.Errorf("couldn't look up donor: %w", err)
	}
	if donor == nil || donor.OrgID != orgID {
		return almoner.ErrNotFound
	}

	if err := s.db.UpdateDonorConsent(ctx, donorID, consent); err != nil {
		return fmt.Errorf("couldn't update consent: %w", err)
	}

	s.LogAudit(ctx, &almoner.AuditEntry{
		OrgID:  orgID,
		Action: "donor.consent.updated",
		Actor:  *actor,
		Entity: almoner.EntityRef{Kind: "donor", ID: strconv.Itoa(donorID)},
		Before: map[string]any{"push": donor.PushConsent, "email": donor.EmailConsent, "sms": donor.SMSConsent},
		After:  map[string]any{"push": consent.Push, "email": consent.Email, "sms": consent.SMS},
	})
	return nil
}

func (s *BaseAPI) RegisterDeviceToken(ctx context.Context, orgID, donorID int, token string) error {
	donor, err := s.db.DonorByID(ctx, donorID)
	if err != nil {
		return fmt.Errorf("couldn't look up donor: %w", err)
	}
	if donor == nil || donor.OrgID != orgID {
		return almoner.ErrNotFound
	}
	if err := s.db.RegisterDeviceToken(ctx, donorID, token); err != nil {
		return fmt.Errorf("couldn't register device token: %w", err)
	}
	return nil
}

func donationSnapshot(d *almoner.Donation) map[string]any {
	return map[string]any{
		"external_id":       d.ExternalID,
		"gross_amount":      d.GrossAmount,
		"net_amount":        d.NetAmount,
		"fee_amount":        d.FeeAmount,
		"fair_market_value": d.FairMarketValue,
		"currency":          d.Currency,
		"donor_email":       d.DonorEmail,
		"source":            string(d.Source),
	}
}
