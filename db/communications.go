package db

import (
	"context"
	"time"

	"github.com/AlmonerProjects/almoner"
)

const communicationCreateQuery = `INSERT INTO communications (
	org_id, donor_id, channel, title, body, success_count, failure_count, sent_by
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8
) RETURNING id, sent_at;`

func (s *DB) CreateCommunication(ctx context.Context, c *almoner.Communication) error {
	return s.conn.QueryRow(ctx, communicationCreateQuery,
		c.OrgID, c.DonorID, c.Channel, c.Title, c.Body, c.SuccessCount, c.FailureCount, c.SentBy,
	).Scan(&c.ID, &c.SentAt)
}

// CountCommunicationsSince is the basis for daily rate limiting: the number
// of notification attempts on a channel for a donor since the given instant.
func (s *DB) CountCommunicationsSince(ctx context.Context, orgID, donorID int, channel almoner.CommunicationChannel, since time.Time) (int, error) {
	var cnt int
	err := s.conn.QueryRow(ctx,
		"SELECT COUNT(id) FROM communications WHERE org_id = $1 AND donor_id = $2 AND channel = $3 AND sent_at >= $4",
		orgID, donorID, channel, since,
	).Scan(&cnt)
	return cnt, err
}
