package db

import (
	"context"
	"errors"
	"time"

	"github.com/AlmonerProjects/almoner"
	"github.com/jackc/pgx/v5"
)

type donor struct {
	ID        int       `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	OrgID     int       `db:"org_id"`

	Email string `db:"email"`
	Name  string `db:"name"`
	Phone string `db:"phone"`

	LifetimeTotal   int64 `db:"lifetime_total"`
	YearToDateTotal int64 `db:"ytd_total"`
	DonationCount   int   `db:"donation_count"`

	FirstDonationAt *time.Time `db:"first_donation_at"`
	LastDonationAt  *time.Time `db:"last_donation_at"`

	PushConsent  bool `db:"push_consent"`
	EmailConsent bool `db:"email_consent"`
	SMSConsent   bool `db:"sms_consent"`
}

const donorUpsertQuery = `INSERT INTO donors (org_id, email, name, phone)
VALUES ($1, $2, $3, $4)
ON CONFLICT (org_id, email) DO UPDATE SET
	name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE donors.name END,
	phone = CASE WHEN EXCLUDED.phone <> '' THEN EXCLUDED.phone ELSE donors.phone END,
	updated_at = NOW()
RETURNING *;`

// UpsertDonor finds or creates the donor for (orgID, email). New donors get
// zeroed aggregates and all consent flags false. Optional profile fields only
// overwrite when the incoming value is non-empty.
func (s *DB) UpsertDonor(ctx context.Context, orgID int, email, name, phone string) (*almoner.Donor, error) {
	return s.upsertDonor(ctx, s.conn, orgID, email, name, phone)
}

func (s *DB) upsertDonor(ctx context.Context, q querier, orgID int, email, name, phone string) (*almoner.Donor, error) {
	rows, _ := q.Query(ctx, donorUpsertQuery, orgID, email, name, phone)
	d, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[donor])
	if err != nil {
		return nil, err
	}
	return internalToDonor(d), nil
}

// The whole rollup is a single UPDATE so concurrent donations for the same
// donor serialize on the row and no increment is ever lost. The year-to-date
// total resets when the gift's calendar year differs from the stored
// last_donation_at; out-of-order deliveries across a year boundary can
// leave the YTD total tracking the most recent delivery, not the most
// recent gift.
const donorRollupQuery = `UPDATE donors SET
	lifetime_total = lifetime_total + $2,
	donation_count = donation_count + 1,
	ytd_total = CASE
		WHEN last_donation_at IS NULL OR date_part('year', last_donation_at) <> date_part('year', $3::timestamptz)
		THEN $2::bigint
		ELSE ytd_total + $2
	END,
	first_donation_at = COALESCE(first_donation_at, $3),
	last_donation_at = $3,
	updated_at = NOW()
WHERE id = $1
RETURNING *;`

func (s *DB) ApplyDonationToDonor(ctx context.Context, donorID int, amount int64, donatedAt time.Time) (*almoner.Donor, error) {
	return s.applyDonationToDonor(ctx, s.conn, donorID, amount, donatedAt)
}

func (s *DB) applyDonationToDonor(ctx context.Context, q querier, donorID int, amount int64, donatedAt time.Time) (*almoner.Donor, error) {
	rows, _ := q.Query(ctx, donorRollupQuery, donorID, amount, donatedAt)
	d, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[donor])
	if err != nil {
		return nil, err
	}
	return internalToDonor(d), nil
}

// RecordDonation runs the ledger write and the donor rollup in one
// transaction. The returned donor is nil when the donation was a duplicate
// delivery, in which case nothing was written.
func (s *DB) RecordDonation(ctx context.Context, d *almoner.Donation) (*almoner.Donor, bool, error) {
	var resDonor *almoner.Donor
	var created bool
	err := pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		var err error
		created, err = s.createDonation(ctx, tx, d)
		if err != nil || !created {
			return err
		}
		dnr, err := s.upsertDonor(ctx, tx, d.OrgID, d.DonorEmail, d.DonorName, d.DonorPhone)
		if err != nil {
			return err
		}
		resDonor, err = s.applyDonationToDonor(ctx, tx, dnr.ID, d.GrossAmount, d.DonatedAt)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return resDonor, created, nil
}

func (s *DB) Donor(ctx context.Context, orgID int, email string) (*almoner.Donor, error) {
	rows, _ := s.conn.Query(ctx, "SELECT * FROM donors WHERE org_id = $1 AND email = $2 LIMIT 1", orgID, email)
	return collectDonor(rows)
}

func (s *DB) DonorByID(ctx context.Context, id int) (*almoner.Donor, error) {
	rows, _ := s.conn.Query(ctx, "SELECT * FROM donors WHERE id = $1 LIMIT 1", id)
	return collectDonor(rows)
}

func (s *DB) UpdateDonorConsent(ctx context.Context, donorID int, consent almoner.DonorConsent) error {
	_, err := s.conn.Exec(ctx,
		"UPDATE donors SET push_consent = $2, email_consent = $3, sms_consent = $4, updated_at = NOW() WHERE id = $1",
		donorID, consent.Push, consent.Email, consent.SMS,
	)
	return err
}

func collectDonor(rows pgx.Rows) (*almoner.Donor, error) {
	d, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[donor])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return internalToDonor(d), nil
}

func internalToDonor(d *donor) *almoner.Donor {
	return &almoner.Donor{
		ID:        d.ID,
		OrgID:     d.OrgID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,

		Email: d.Email,
		Name:  d.Name,
		Phone: d.Phone,

		LifetimeTotal:   d.LifetimeTotal,
		YearToDateTotal: d.YearToDateTotal,
		DonationCount:   d.DonationCount,

		FirstDonationAt: d.FirstDonationAt,
		LastDonationAt:  d.LastDonationAt,

		PushConsent:  d.PushConsent,
		EmailConsent: d.EmailConsent,
		SMSConsent:   d.SMSConsent,
	}
}
