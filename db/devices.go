package db

import (
	"context"
	"errors"
	"time"

	"github.com/AlmonerProjects/almoner"
	"github.com/jackc/pgx/v5"
)

type deviceToken struct {
	ID           int       `db:"id"`
	DonorID      int       `db:"donor_id"`
	Token        string    `db:"token"`
	RegisteredAt time.Time `db:"registered_at"`
	LastSeenAt   time.Time `db:"last_seen_at"`
}

const deviceRegisterQuery = `INSERT INTO device_tokens (donor_id, token)
VALUES ($1, $2)
ON CONFLICT (token) DO UPDATE SET donor_id = EXCLUDED.donor_id, last_seen_at = NOW()
RETURNING id;`

// RegisterDeviceToken records a push token for a donor. Re-registering an
// existing token refreshes its last-seen time and moves it to the new donor.
func (s *DB) RegisterDeviceToken(ctx context.Context, donorID int, token string) error {
	var id int
	return s.conn.QueryRow(ctx, deviceRegisterQuery, donorID, token).Scan(&id)
}

func (s *DB) DeviceTokens(ctx context.Context, donorID int) ([]*almoner.DeviceToken, error) {
	rows, _ := s.conn.Query(ctx, "SELECT * FROM device_tokens WHERE donor_id = $1 ORDER BY registered_at ASC", donorID)
	tokens, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[deviceToken])
	if errors.Is(err, pgx.ErrNoRows) {
		return []*almoner.DeviceToken{}, nil
	} else if err != nil {
		return nil, err
	}
	return mapper(tokens, internalToDeviceToken), nil
}

// DeleteDeviceTokens prunes tokens the push backend reported as permanently
// invalid.
func (s *DB) DeleteDeviceTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := s.conn.Exec(ctx, "DELETE FROM device_tokens WHERE token = ANY($1)", tokens)
	return err
}

func internalToDeviceToken(t *deviceToken) *almoner.DeviceToken {
	return &almoner.DeviceToken{
		ID:           t.ID,
		DonorID:      t.DonorID,
		Token:        t.Token,
		RegisteredAt: t.RegisteredAt,
		LastSeenAt:   t.LastSeenAt,
	}
}
