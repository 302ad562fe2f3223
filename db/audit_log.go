package db

import (
	"context"
	"errors"
	"time"

	"github.com/AlmonerProjects/almoner"
	"github.com/jackc/pgx/v5"
)

type auditEntry struct {
	ID       int       `db:"id"`
	OrgID    int       `db:"org_id"`
	LoggedAt time.Time `db:"logged_at"`
	Action   string    `db:"action"`

	ActorID    string `db:"actor_id"`
	ActorType  string `db:"actor_type"`
	ActorEmail string `db:"actor_email"`

	EntityKind string `db:"entity_kind"`
	EntityID   string `db:"entity_id"`

	BeforeState map[string]any `db:"before_state"`
	AfterState  map[string]any `db:"after_state"`
	Metadata    map[string]any `db:"metadata"`
}

const auditCreateQuery = `INSERT INTO audit_log (
	org_id, logged_at, action, actor_id, actor_type, actor_email,
	entity_kind, entity_id, before_state, after_state, metadata
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
) RETURNING id;`

// CreateAuditEntry appends one immutable entry. Snapshots must already be
// redacted; this layer stores them as given.
func (s *DB) CreateAuditEntry(ctx context.Context, e *almoner.AuditEntry) (int, error) {
	var id int
	err := s.conn.QueryRow(ctx, auditCreateQuery,
		e.OrgID, e.Timestamp, e.Action, e.Actor.ID, e.Actor.Type, e.Actor.Email,
		e.Entity.Kind, e.Entity.ID, e.Before, e.After, e.Metadata,
	).Scan(&id)
	return id, err
}

func (s *DB) AuditEntries(ctx context.Context, orgID, limit, offset int) ([]*almoner.AuditEntry, error) {
	rows, _ := s.conn.Query(ctx,
		"SELECT * FROM audit_log WHERE org_id = $1 ORDER BY logged_at DESC, id DESC "+FormatLimitOffset(limit, offset),
		orgID,
	)
	entries, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[auditEntry])
	if errors.Is(err, pgx.ErrNoRows) {
		return []*almoner.AuditEntry{}, nil
	} else if err != nil {
		return nil, err
	}
	return mapper(entries, internalToAuditEntry), nil
}

func (s *DB) AuditEntryCount(ctx context.Context, orgID int) (int, error) {
	var cnt int
	err := s.conn.QueryRow(ctx, "SELECT COUNT(id) FROM audit_log WHERE org_id = $1", orgID).Scan(&cnt)
	return cnt, err
}

func internalToAuditEntry(e *auditEntry) *almoner.AuditEntry {
	return &almoner.AuditEntry{
		ID:        e.ID,
		OrgID:     e.OrgID,
		Action:    e.Action,
		Timestamp: e.LoggedAt,
		Actor: almoner.Actor{
			ID:    e.ActorID,
			Type:  almoner.ActorType(e.ActorType),
			Email: e.ActorEmail,
		},
		Entity: almoner.EntityRef{
			Kind: e.EntityKind,
			ID:   e.EntityID,
		},
		Before:   e.BeforeState,
		After:    e.AfterState,
		Metadata: e.Metadata,
	}
}
