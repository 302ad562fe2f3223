package sudoapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/AlmonerProjects/almoner"
	"github.com/AlmonerProjects/almoner/sudoapi/flags"
)

// IsDispatchSkip reports whether a dispatch error is one of the expected
// short-circuit outcomes (no consent, rate limited, no devices) rather than
// a real failure. The donation pipeline treats these as silent no-ops; the
// human-triggered entry point surfaces them to the caller.
func IsDispatchSkip(err error) bool {
	return errors.Is(err, almoner.ErrNoConsent) ||
		errors.Is(err, almoner.ErrRateLimited) ||
		errors.Is(err, almoner.ErrNoDevices)
}

// NotifyDonation is the pipeline's thank-you push for a freshly recorded
// donation.
func (s *BaseAPI) NotifyDonation(ctx context.Context, donor *almoner.Donor, d *almoner.Donation) error {
	title := "Thank you for your gift!"
	body := fmt.Sprintf("We received your donation of %s.", almoner.FormatAmount(d.GrossAmount, d.Currency))
	return s.dispatchPush(ctx, donor, title, body, "system")
}

// NotifyDonorAs lets an authenticated human actor trigger a push to a donor
// directly. The actor must hold the notifications:send capability; consent
// and rate-limit rules are identical to the automated path.
func (s *BaseAPI) NotifyDonorAs(ctx context.Context, actor *almoner.Actor, orgID, donorID int, title, body string) error {
	if !actor.HasCapability(almoner.CapNotificationsSend) {
		return almoner.ErrForbidden
	}
	donor, err := s.db.DonorByID(ctx, donorID)
	if err != nil {
		return fmt.Errorf("couldn't look up donor: %w", err)
	}
	if donor == nil || donor.OrgID != orgID {
		return almoner.ErrNotFound
	}

	if err := s.dispatchPush(ctx, donor, title, body, "user:"+actor.ID); err != nil {
		return err
	}

	s.LogAudit(ctx, &almoner.AuditEntry{
		OrgID:  orgID,
		Action: "notification.manual",
		Actor:  *actor,
		Entity: almoner.EntityRef{Kind: "donor", ID: strconv.Itoa(donorID)},
		After:  map[string]any{"title": title},
	})
	return nil
}

// dispatchPush walks the dispatch states in order: consent, rate limit,
// token fetch, multicast send, token hygiene, communication log. Failing a
// precondition terminates with the matching sentinel error and no writes.
func (s *BaseAPI) dispatchPush(ctx context.Context, donor *almoner.Donor, title, body, sentBy string) error {
	if !donor.PushConsent {
		slog.InfoContext(ctx, "Skipping push, donor has no consent", slog.Int("donor_id", donor.ID))
		notificationsTotal.WithLabelValues("push", "no_consent").Inc()
		return almoner.ErrNoConsent
	}

	ok, err := s.underDailyLimit(ctx, donor.OrgID, donor.ID, almoner.ChannelPush)
	if err != nil {
		return fmt.Errorf("couldn't check rate limit: %w", err)
	}
	if !ok {
		notificationsTotal.WithLabelValues("push", "rate_limited").Inc()
		return almoner.ErrRateLimited
	}

	devices, err := s.db.DeviceTokens(ctx, donor.ID)
	if err != nil {
		return fmt.Errorf("couldn't fetch device tokens: %w", err)
	}
	if len(devices) == 0 {
		notificationsTotal.WithLabelValues("push", "no_devices").Inc()
		return almoner.ErrNoDevices
	}

	if s.pusher == nil {
		return errors.New("push backend not configured")
	}

	tokens := make([]string, len(devices))
	for i, dev := range devices {
		tokens[i] = dev.Token
	}

	res, err := s.pusher.Send(ctx, tokens, &almoner.PushMessage{Title: title, Body: body})
	if err != nil {
		// Whole-batch failure still gets its Communication row.
		slog.WarnContext(ctx, "Push send failed", slog.Int("donor_id", donor.ID), slog.Any("err", err))
		res = &almoner.PushResult{FailureCount: len(tokens)}
	}

	if len(res.InvalidTokens) > 0 {
		if err := s.db.DeleteDeviceTokens(ctx, res.InvalidTokens); err != nil {
			slog.WarnContext(ctx, "Couldn't prune invalid device tokens", slog.Any("err", err))
		} else {
			prunedTokensTotal.Add(float64(len(res.InvalidTokens)))
		}
	}

	comm := &almoner.Communication{
		OrgID:        donor.OrgID,
		DonorID:      donor.ID,
		Channel:      almoner.ChannelPush,
		Title:        title,
		Body:         body,
		SuccessCount: res.SuccessCount,
		FailureCount: res.FailureCount,
		SentBy:       sentBy,
	}
	if err := s.db.CreateCommunication(ctx, comm); err != nil {
		return fmt.Errorf("couldn't log communication: %w", err)
	}

	notificationsTotal.WithLabelValues("push", "sent").Inc()
	return nil
}

// underDailyLimit compares today's communication count against the
// configured cap. The check is advisory: two concurrent sends near the
// boundary may both observe a count below the limit and both proceed, which
// is an accepted soft guarantee.
func (s *BaseAPI) underDailyLimit(ctx context.Context, orgID, donorID int, channel almoner.CommunicationChannel) (bool, error) {
	cnt, err := s.db.CountCommunicationsSince(ctx, orgID, donorID, channel, startOfDay(time.Now()))
	if err != nil {
		return false, err
	}
	return cnt < flags.DailyNotificationLimit.Value(), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
