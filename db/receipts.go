package db

import (
	"context"
	"errors"
	"time"

	"github.com/AlmonerProjects/almoner"
	"github.com/jackc/pgx/v5"
)

type receipt struct {
	ID         int       `db:"id"`
	OrgID      int       `db:"org_id"`
	DonationID int       `db:"donation_id"`
	Number     string    `db:"number"`
	IssuedAt   time.Time `db:"issued_at"`

	DeductibleAmount int64  `db:"deductible_amount"`
	Disclosure       string `db:"disclosure"`

	OrgLegalName    string `db:"org_legal_name"`
	OrgEIN          string `db:"org_ein"`
	StateDisclosure string `db:"state_disclosure"`
}

const receiptUpsertQuery = `INSERT INTO receipts (
	org_id, donation_id, number, deductible_amount, disclosure,
	org_legal_name, org_ein, state_disclosure
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8
) ON CONFLICT (donation_id) DO UPDATE SET
	deductible_amount = EXCLUDED.deductible_amount,
	disclosure = EXCLUDED.disclosure,
	org_legal_name = EXCLUDED.org_legal_name,
	org_ein = EXCLUDED.org_ein,
	state_disclosure = EXCLUDED.state_disclosure
RETURNING id, number, issued_at;`

// UpsertReceipt persists the receipt for a donation. Re-running for the same
// donation overwrites the rendered content but keeps the original receipt
// number and issuance time.
func (s *DB) UpsertReceipt(ctx context.Context, r *almoner.Receipt) error {
	return s.conn.QueryRow(ctx, receiptUpsertQuery,
		r.OrgID, r.DonationID, r.Number, r.DeductibleAmount, r.Disclosure,
		r.OrgLegalName, r.OrgEIN, r.StateDisclosure,
	).Scan(&r.ID, &r.Number, &r.IssuedAt)
}

func (s *DB) ReceiptByDonationID(ctx context.Context, donationID int) (*almoner.Receipt, error) {
	rows, _ := s.conn.Query(ctx, "SELECT * FROM receipts WHERE donation_id = $1 LIMIT 1", donationID)
	r, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[receipt])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return internalToReceipt(r), nil
}

func internalToReceipt(r *receipt) *almoner.Receipt {
	return &almoner.Receipt{
		ID:         r.ID,
		OrgID:      r.OrgID,
		DonationID: r.DonationID,
		Number:     r.Number,
		IssuedAt:   r.IssuedAt,

		DeductibleAmount: r.DeductibleAmount,
		Disclosure:       r.Disclosure,

		OrgLegalName:    r.OrgLegalName,
		OrgEIN:          r.OrgEIN,
		StateDisclosure: r.StateDisclosure,
	}
}
