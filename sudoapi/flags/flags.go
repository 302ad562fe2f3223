package flags

import "github.com/AlmonerProjects/almoner/internal/config"

var (
	CardpointWebhookSecret = config.GenFlag[string]("donation.cardpoint.webhook_secret", "", "Signing secret for Cardpoint webhook callbacks")
	CardpointAPIBase       = config.GenFlag[string]("donation.cardpoint.api_base", "https://api.cardpoint.io/v1", "Base URL for Cardpoint balance transaction lookups")
	CardpointAPIKey        = config.GenFlag[string]("donation.cardpoint.api_key", "", "API key for Cardpoint fee lookups")
	CardpointFeeTimeoutMS  = config.GenFlag[int]("donation.cardpoint.fee_lookup_timeout_ms", 3000, "Timeout for the Cardpoint balance transaction lookup, in milliseconds")

	GiveCorpsWebhookToken = config.GenFlag[string]("donation.givecorps.webhook_token", "", "Shared-secret token for GiveCorps webhook callbacks")
)

var (
	ListenHost = config.GenFlag[string]("server.listen.host", "localhost", "Host to listen to")
	ListenPort = config.GenFlag[int]("server.listen.port", 8480, "Port to listen on")
)

var (
	DailyNotificationLimit = config.GenFlag[int]("notifications.daily_limit", 3, "Maximum notifications per donor, per channel, per calendar day")
)

var MigrateOnStart = config.GenFlag[bool]("behavior.db.run_migrations", true, "Run PostgreSQL migrations on start")
