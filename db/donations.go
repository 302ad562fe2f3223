package db

import (
	"context"
	"errors"
	"time"

	"github.com/AlmonerProjects/almoner"
	"github.com/jackc/pgx/v5"
)

type donation struct {
	ID        int       `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	OrgID     int       `db:"org_id"`

	ExternalID string    `db:"external_id"`
	DonatedAt  time.Time `db:"donated_at"`

	GrossAmount     int64  `db:"gross_amount"`
	NetAmount       int64  `db:"net_amount"`
	FeeAmount       int64  `db:"fee_amount"`
	FairMarketValue int64  `db:"fair_market_value"`
	Currency        string `db:"currency"`

	DonorEmail string `db:"donor_email"`
	DonorName  string `db:"donor_name"`
	DonorPhone string `db:"donor_phone"`

	CampaignID *int                   `db:"campaign_id"`
	Source     almoner.DonationSource `db:"source"`
	Metadata   map[string]any         `db:"metadata"`
}

const donationCreateQuery = `INSERT INTO donations (
	org_id, external_id, donated_at,
	gross_amount, net_amount, fee_amount, fair_market_value, currency,
	donor_email, donor_name, donor_phone, campaign_id, source, metadata
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
) ON CONFLICT (org_id, external_id) DO NOTHING
RETURNING id;`

// CreateDonation writes the donation if no donation with the same
// (org, external ID) pair exists. It reports whether a row was actually
// inserted: a false return with nil error is an idempotency hit. The unique
// constraint makes this safe under concurrent duplicate deliveries.
func (s *DB) CreateDonation(ctx context.Context, d *almoner.Donation) (bool, error) {
	return s.createDonation(ctx, s.conn, d)
}

func (s *DB) createDonation(ctx context.Context, q querier, d *almoner.Donation) (bool, error) {
	var id int
	err := q.QueryRow(ctx, donationCreateQuery,
		d.OrgID, d.ExternalID, d.DonatedAt,
		d.GrossAmount, d.NetAmount, d.FeeAmount, d.FairMarketValue, d.Currency,
		d.DonorEmail, d.DonorName, d.DonorPhone, d.CampaignID, d.Source, d.Metadata,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	d.ID = id
	return true, nil
}

func (s *DB) Donation(ctx context.Context, id int) (*almoner.Donation, error) {
	rows, _ := s.conn.Query(ctx, "SELECT * FROM donations WHERE id = $1 LIMIT 1", id)
	d, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[donation])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return internalToDonation(d), nil
}

func (s *DB) DonationByExternalID(ctx context.Context, orgID int, externalID string) (*almoner.Donation, error) {
	rows, _ := s.conn.Query(ctx, "SELECT * FROM donations WHERE org_id = $1 AND external_id = $2 LIMIT 1", orgID, externalID)
	d, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[donation])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return internalToDonation(d), nil
}

func (s *DB) Donations(ctx context.Context, filter almoner.DonationFilter) ([]*almoner.Donation, error) {
	fb := donationFilterQuery(&filter)
	rows, _ := s.conn.Query(ctx,
		"SELECT * FROM donations WHERE "+fb.Where()+" ORDER BY donated_at DESC, id DESC "+FormatLimitOffset(filter.Limit, filter.Offset),
		fb.Args()...,
	)
	donations, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[donation])
	if errors.Is(err, pgx.ErrNoRows) {
		return []*almoner.Donation{}, nil
	} else if err != nil {
		return nil, err
	}

	return mapper(donations, internalToDonation), nil
}

func (s *DB) CountDonations(ctx context.Context, filter almoner.DonationFilter) (int, error) {
	fb := donationFilterQuery(&filter)
	var cnt int
	err := s.conn.QueryRow(ctx, "SELECT COUNT(id) FROM donations WHERE "+fb.Where(), fb.Args()...).Scan(&cnt)
	return cnt, err
}

func donationFilterQuery(filter *almoner.DonationFilter) *filterBuilder {
	fb := newFilterBuilder()
	if v := filter.ID; v != nil {
		fb.AddConstraint("id = %s", v)
	}
	if filter.OrgID > 0 {
		fb.AddConstraint("org_id = %s", filter.OrgID)
	}
	if v := filter.ExternalID; v != nil {
		fb.AddConstraint("external_id = %s", v)
	}
	if v := filter.Source; v != nil {
		fb.AddConstraint("source = %s", v)
	}
	if v := filter.CampaignID; v != nil {
		fb.AddConstraint("campaign_id = %s", v)
	}
	if v := filter.DonorEmail; v != nil {
		fb.AddConstraint("donor_email = %s", v)
	}
	if v := filter.Since; v != nil {
		fb.AddConstraint("donated_at >= %s", v)
	}
	if v := filter.Until; v != nil {
		fb.AddConstraint("donated_at < %s", v)
	}
	return fb
}

func internalToDonation(d *donation) *almoner.Donation {
	return &almoner.Donation{
		ID:        d.ID,
		OrgID:     d.OrgID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,

		ExternalID: d.ExternalID,
		DonatedAt:  d.DonatedAt,

		GrossAmount:     d.GrossAmount,
		NetAmount:       d.NetAmount,
		FeeAmount:       d.FeeAmount,
		FairMarketValue: d.FairMarketValue,
		Currency:        d.Currency,

		DonorEmail: d.DonorEmail,
		DonorName:  d.DonorName,
		DonorPhone: d.DonorPhone,

		CampaignID: d.CampaignID,
		Source:     d.Source,
		Metadata:   d.Metadata,
	}
}

func mapper[T1 any, T2 any](lst []*T1, f func(*T1) *T2) []*T2 {
	if len(lst) == 0 {
		return []*T2{}
	}
	rez := make([]*T2, len(lst))
	for i := range rez {
		rez[i] = f(lst[i])
	}
	return rez
}
