package sudoapi

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/AlmonerProjects/almoner"
	"github.com/AlmonerProjects/almoner/db"
)

var (
	testDB = flag.Bool("testDB", false, "Run tests that require a live PostgreSQL instance (ALMONER_TEST_DSN)")

	ctx = context.Background()
)

type countingMailer struct {
	sent int
}

func (m *countingMailer) SendEmail(ctx context.Context, msg *almoner.MailerMessage) error {
	m.sent++
	return nil
}

func testBase(t *testing.T, mailer almoner.Mailer) (*BaseAPI, *db.DB) {
	t.Helper()
	if !*testDB {
		t.SkipNow()
	}
	dsn := os.Getenv("ALMONER_TEST_DSN")
	if dsn == "" {
		t.Skip("ALMONER_TEST_DSN not set")
	}
	conn, err := db.NewPSQL(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.RunMigrations(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(conn.Close)

	base, err := GetBaseAPI(conn, mailer, nil)
	if err != nil {
		t.Fatal(err)
	}
	return base, conn
}

func testOrg(t *testing.T, conn *db.DB) int {
	t.Helper()
	var orgID int
	err := conn.GetPool().QueryRow(ctx, "INSERT INTO orgs (legal_name, ein) VALUES ('Test Org', '00-0000000') RETURNING id").Scan(&orgID)
	if err != nil {
		t.Fatal(err)
	}
	return orgID
}

func TestDispatchRequiresConsent(t *testing.T) {
	base, conn := testBase(t, nil)
	orgID := testOrg(t, conn)

	donor, err := conn.UpsertDonor(ctx, orgID, "noconsent@example.com", "No Consent", "")
	if err != nil {
		t.Fatal(err)
	}

	err = base.dispatchPush(ctx, donor, "Hello", "World", "system")
	if !errors.Is(err, almoner.ErrNoConsent) {
		t.Fatalf("dispatch without consent returned %v, wanted ErrNoConsent", err)
	}

	cnt, err := conn.CountCommunicationsSince(ctx, orgID, donor.ID, almoner.ChannelPush, startOfDay(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if cnt != 0 {
		t.Fatalf("consent-rejected dispatch wrote %d communication rows", cnt)
	}
}

func TestDispatchDailyRateLimit(t *testing.T) {
	base, conn := testBase(t, nil)
	orgID := testOrg(t, conn)

	donor, err := conn.UpsertDonor(ctx, orgID, "limited@example.com", "Rate Limited", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.UpdateDonorConsent(ctx, donor.ID, almoner.DonorConsent{Push: true}); err != nil {
		t.Fatal(err)
	}
	donor, err = conn.DonorByID(ctx, donor.ID)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 3 {
		err := conn.CreateCommunication(ctx, &almoner.Communication{
			OrgID:        orgID,
			DonorID:      donor.ID,
			Channel:      almoner.ChannelPush,
			Title:        fmt.Sprintf("Earlier %d", i),
			SuccessCount: 1,
			SentBy:       "system",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	err = base.dispatchPush(ctx, donor, "One too many", "Body", "system")
	if !errors.Is(err, almoner.ErrRateLimited) {
		t.Fatalf("dispatch over the daily limit returned %v, wanted ErrRateLimited", err)
	}

	cnt, err := conn.CountCommunicationsSince(ctx, orgID, donor.ID, almoner.ChannelPush, startOfDay(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if cnt != 3 {
		t.Fatalf("rate-limited dispatch changed the communication count to %d", cnt)
	}
}

func TestGenerateReceiptDoesNotEmail(t *testing.T) {
	mailer := &countingMailer{}
	base, conn := testBase(t, mailer)
	orgID := testOrg(t, conn)

	donor, err := conn.UpsertDonor(ctx, orgID, "receipts@example.com", "Receipt Donor", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.UpdateDonorConsent(ctx, donor.ID, almoner.DonorConsent{Email: true}); err != nil {
		t.Fatal(err)
	}

	d := &almoner.Donation{
		OrgID:       orgID,
		ExternalID:  "txn_receipt_only",
		DonatedAt:   time.Now(),
		GrossAmount: 2500,
		NetAmount:   2500,
		Currency:    "usd",
		DonorEmail:  donor.Email,
		Source:      almoner.DonationSourceOther,
	}
	if _, _, err := conn.RecordDonation(ctx, d); err != nil {
		t.Fatal(err)
	}

	// Generating (or regenerating) a receipt persists it and nothing else.
	rec, err := base.GenerateReceipt(ctx, d)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == 0 {
		t.Fatal("receipt was not persisted")
	}
	if mailer.sent != 0 {
		t.Fatalf("GenerateReceipt sent %d emails", mailer.sent)
	}

	// The pipeline delivers the email after the receipt is written.
	d2 := &almoner.Donation{
		OrgID:       orgID,
		ExternalID:  "txn_receipt_mailed",
		DonatedAt:   time.Now(),
		GrossAmount: 4200,
		NetAmount:   4200,
		Currency:    "usd",
		DonorEmail:  donor.Email,
		Source:      almoner.DonationSourceOther,
	}
	created, err := base.ProcessDonation(ctx, d2)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("donation unexpectedly deduplicated")
	}
	if mailer.sent != 1 {
		t.Fatalf("pipeline sent %d receipt emails, wanted 1", mailer.sent)
	}
}
