package db

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/AlmonerProjects/almoner"
)

var (
	testDB = flag.Bool("testDB", false, "Run tests that require a live PostgreSQL instance (ALMONER_TEST_DSN)")

	ctx = context.Background()
)

func testConn(t *testing.T) *DB {
	t.Helper()
	if !*testDB {
		t.SkipNow()
	}
	dsn := os.Getenv("ALMONER_TEST_DSN")
	if dsn == "" {
		t.Skip("ALMONER_TEST_DSN not set")
	}
	conn, err := NewPSQL(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.RunMigrations(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(conn.Close)
	return conn
}

func testOrg(t *testing.T, conn *DB) int {
	t.Helper()
	var orgID int
	err := conn.conn.QueryRow(ctx, "INSERT INTO orgs (legal_name, ein) VALUES ('Test Org', '00-0000000') RETURNING id").Scan(&orgID)
	if err != nil {
		t.Fatal(err)
	}
	return orgID
}

func testDonation(orgID int, externalID string, amount int64, at time.Time) *almoner.Donation {
	return &almoner.Donation{
		OrgID:       orgID,
		ExternalID:  externalID,
		DonatedAt:   at,
		GrossAmount: amount,
		NetAmount:   amount,
		Currency:    "usd",
		DonorEmail:  fmt.Sprintf("donor-%d@example.com", orgID),
		DonorName:   "Test Donor",
		Source:      almoner.DonationSourceOther,
	}
}

func TestRecordDonationIdempotency(t *testing.T) {
	conn := testConn(t)
	orgID := testOrg(t, conn)
	at := time.Now()

	d := testDonation(orgID, "txn_replay", 1000, at)
	donor, created, err := conn.RecordDonation(ctx, d)
	if err != nil {
		t.Fatal(err)
	}
	if !created || donor == nil {
		t.Fatal("first delivery should create the donation")
	}

	for range 3 {
		replay := testDonation(orgID, "txn_replay", 1000, at)
		_, created, err := conn.RecordDonation(ctx, replay)
		if err != nil {
			t.Fatal(err)
		}
		if created {
			t.Fatal("replayed delivery must not create a second donation")
		}
	}

	final, err := conn.DonorByID(ctx, donor.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.DonationCount != 1 || final.LifetimeTotal != 1000 {
		t.Fatalf("aggregates changed on replay: count=%d lifetime=%d", final.DonationCount, final.LifetimeTotal)
	}
}

func TestDonorRollupSums(t *testing.T) {
	conn := testConn(t)
	orgID := testOrg(t, conn)
	at := time.Now()

	amounts := []int64{500, 2500, 100, 10000}
	var donorID int
	var total int64
	for i, amount := range amounts {
		d := testDonation(orgID, fmt.Sprintf("txn_sum_%d", i), amount, at)
		donor, created, err := conn.RecordDonation(ctx, d)
		if err != nil {
			t.Fatal(err)
		}
		if !created {
			t.Fatalf("donation %d unexpectedly deduplicated", i)
		}
		donorID = donor.ID
		total += amount
	}

	donor, err := conn.DonorByID(ctx, donorID)
	if err != nil {
		t.Fatal(err)
	}
	if donor.LifetimeTotal != total {
		t.Fatalf("lifetime total = %d, wanted %d", donor.LifetimeTotal, total)
	}
	if donor.DonationCount != len(amounts) {
		t.Fatalf("donation count = %d, wanted %d", donor.DonationCount, len(amounts))
	}
	if donor.YearToDateTotal != total {
		t.Fatalf("same-year ytd = %d, wanted %d", donor.YearToDateTotal, total)
	}
}

func TestDonorYearBoundaryReset(t *testing.T) {
	conn := testConn(t)
	orgID := testOrg(t, conn)

	lastYear := time.Date(time.Now().Year()-1, time.November, 12, 10, 0, 0, 0, time.UTC)
	thisYear := time.Date(time.Now().Year(), time.February, 3, 10, 0, 0, 0, time.UTC)

	if _, _, err := conn.RecordDonation(ctx, testDonation(orgID, "txn_y1", 7500, lastYear)); err != nil {
		t.Fatal(err)
	}
	donor, _, err := conn.RecordDonation(ctx, testDonation(orgID, "txn_y2", 1200, thisYear))
	if err != nil {
		t.Fatal(err)
	}

	if donor.YearToDateTotal != 1200 {
		t.Fatalf("ytd after year boundary = %d, wanted 1200", donor.YearToDateTotal)
	}
	if donor.LifetimeTotal != 8700 {
		t.Fatalf("lifetime total = %d, wanted 8700", donor.LifetimeTotal)
	}
}

func TestUpsertDonorKeepsProfileFields(t *testing.T) {
	conn := testConn(t)
	orgID := testOrg(t, conn)

	first, err := conn.UpsertDonor(ctx, orgID, "keep@example.com", "Jane Doe", "+15550100")
	if err != nil {
		t.Fatal(err)
	}
	if first.PushConsent || first.EmailConsent || first.SMSConsent {
		t.Fatal("new donors must start with all consent flags false")
	}

	second, err := conn.UpsertDonor(ctx, orgID, "keep@example.com", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatal("upsert created a second donor for the same email")
	}
	if second.Name != "Jane Doe" || second.Phone != "+15550100" {
		t.Fatalf("empty update overwrote profile fields: %q %q", second.Name, second.Phone)
	}
}
