package sudoapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlmonerProjects/almoner"
	"github.com/AlmonerProjects/almoner/db"
	"github.com/AlmonerProjects/almoner/email"
	"github.com/AlmonerProjects/almoner/internal/config"
	"github.com/AlmonerProjects/almoner/push"
	"github.com/AlmonerProjects/almoner/sudoapi/flags"
	"github.com/Yiling-J/theine-go"
)

type BaseAPI struct {
	db     *db.DB
	mailer almoner.Mailer
	pusher almoner.Pusher

	orgProfileCache *theine.LoadingCache[int, *almoner.OrgProfile]

	auditChan chan *almoner.AuditEntry
}

func (s *BaseAPI) Start(ctx context.Context) {
	go s.ingestAuditEntries(ctx)
}

func (s *BaseAPI) Close() error {
	s.db.Close()
	return nil
}

func GetBaseAPI(db *db.DB, mailer almoner.Mailer, pusher almoner.Pusher) (*BaseAPI, error) {
	base := &BaseAPI{
		db:     db,
		mailer: mailer,
		pusher: pusher,

		auditChan: make(chan *almoner.AuditEntry, 64),
	}

	orgCache, err := theine.NewBuilder[int, *almoner.OrgProfile](200).BuildWithLoader(func(ctx context.Context, orgID int) (theine.Loaded[*almoner.OrgProfile], error) {
		prof, err := base.db.OrgProfile(ctx, orgID)
		if err != nil {
			return theine.Loaded[*almoner.OrgProfile]{}, err
		}
		return theine.Loaded[*almoner.OrgProfile]{
			Value: prof,
			Cost:  1,
			TTL:   5 * time.Minute,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not build org profile cache: %w", err)
	}
	base.orgProfileCache = orgCache

	return base, nil
}

func InitializeBaseAPI(ctx context.Context) (*BaseAPI, error) {
	dbClient, err := db.NewPSQL(ctx, config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to DB: %w", err)
	}
	slog.InfoContext(ctx, "Connected to DB")

	if flags.MigrateOnStart.Value() {
		if err := dbClient.RunMigrations(ctx); err != nil {
			return nil, fmt.Errorf("couldn't run migrations: %w", err)
		}
	}

	var mailer almoner.Mailer
	if config.Email.Enabled {
		m, err := email.NewMailer()
		if err != nil {
			slog.WarnContext(ctx, "Couldn't initialize mailer. Make sure you entered the correct information", slog.Any("err", err))
		} else {
			mailer = m
		}
	}

	var pusher almoner.Pusher
	if config.Push.Enabled {
		p, err := push.NewPusher()
		if err != nil {
			slog.WarnContext(ctx, "Couldn't initialize push sender", slog.Any("err", err))
		} else {
			pusher = p
		}
	}

	return GetBaseAPI(dbClient, mailer, pusher)
}
