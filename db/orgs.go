package db

import (
	"context"
	"errors"

	"github.com/AlmonerProjects/almoner"
	"github.com/jackc/pgx/v5"
)

type orgProfile struct {
	ID              int    `db:"id"`
	LegalName       string `db:"legal_name"`
	EIN             string `db:"ein"`
	StateDisclosure string `db:"state_disclosure"`
}

// OrgProfile returns the compliance profile snapshotted onto receipts.
// Profile contents are managed by the organization settings surface, outside
// this core.
func (s *DB) OrgProfile(ctx context.Context, orgID int) (*almoner.OrgProfile, error) {
	rows, _ := s.conn.Query(ctx, "SELECT * FROM orgs WHERE id = $1 LIMIT 1", orgID)
	p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[orgProfile])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, almoner.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &almoner.OrgProfile{
		ID:              p.ID,
		LegalName:       p.LegalName,
		EIN:             p.EIN,
		StateDisclosure: p.StateDisclosure,
	}, nil
}
