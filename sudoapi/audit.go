package sudoapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlmonerProjects/almoner"
)

// LogAudit records a mutating action on the organization-scoped audit log.
// Snapshots are redacted before the entry ever leaves this function, and a
// failure to persist is never surfaced to the caller: audit completeness is
// best-effort in favor of pipeline availability.
func (s *BaseAPI) LogAudit(ctx context.Context, e *almoner.AuditEntry) {
	e.Before = almoner.RedactMap(e.Before)
	e.After = almoner.RedactMap(e.After)
	e.Metadata = almoner.RedactMap(e.Metadata)
	e.Timestamp = time.Now()
	if e.Actor.ID == "" {
		e.Actor = almoner.SystemActor
	}

	select {
	case s.auditChan <- e:
	default:
		// Ingest queue is saturated, write inline instead of dropping.
		if _, err := s.db.CreateAuditEntry(ctx, e); err != nil {
			slog.WarnContext(ctx, "Couldn't store audit entry", slog.String("action", e.Action), slog.Any("err", err))
		}
	}
}

func (s *BaseAPI) ingestAuditEntries(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.Canceled) {
				return ctx.Err()
			}
			return nil
		case e := <-s.auditChan:
			if _, err := s.db.CreateAuditEntry(ctx, e); err != nil {
				slog.WarnContext(ctx, "Couldn't store audit entry to database", slog.String("action", e.Action), slog.Any("err", err))
				continue
			}
			slog.DebugContext(ctx, "Audit entry stored",
				slog.String("action", e.Action),
				slog.String("actor", fmt.Sprintf("%s:%s", e.Actor.Type, e.Actor.ID)),
				slog.String("entity", e.Entity.Kind+"/"+e.Entity.ID),
			)
		}
	}
}

func (s *BaseAPI) AuditEntries(ctx context.Context, orgID, count, offset int) ([]*almoner.AuditEntry, error) {
	entries, err := s.db.AuditEntries(ctx, orgID, count, offset)
	if err != nil {
		return nil, fmt.Errorf("couldn't fetch audit entries: %w", err)
	}
	return entries, nil
}

func (s *BaseAPI) AuditEntryCount(ctx context.Context, orgID int) (int, error) {
	cnt, err := s.db.AuditEntryCount(ctx, orgID)
	if err != nil {
		return -1, fmt.Errorf("couldn't get audit entry count: %w", err)
	}
	return cnt, nil
}
