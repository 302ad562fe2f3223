package almoner

import (
	"context"
	"time"
)

type CommunicationChannel string

const (
	ChannelPush  CommunicationChannel = "push"
	ChannelEmail CommunicationChannel = "email"
	ChannelSMS   CommunicationChannel = "sms"
)

// DeviceToken is one push-capable device registered by a donor.
type DeviceToken struct {
	ID           int       `json:"id"`
	DonorID      int       `json:"donor_id"`
	Token        string    `json:"token"`
	RegisteredAt time.Time `json:"registered_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// Communication is the append-only record of one notification attempt
// batch. It doubles as the basis for daily rate-limit counting.
type Communication struct {
	ID      int                  `json:"id"`
	OrgID   int                  `json:"org_id"`
	DonorID int                  `json:"donor_id"`
	Channel CommunicationChannel `json:"channel"`

	Title string `json:"title"`
	Body  string `json:"body"`

	SentAt       time.Time `json:"sent_at"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`

	// SentBy is "system" for pipeline dispatches or "user:<id>" for
	// human-triggered ones.
	SentBy string `json:"sent_by"`
}

type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// PushResult summarizes a multicast send. InvalidTokens holds tokens the
// backend reported as permanently unregistered; callers are expected to
// prune them so future dispatches don't retry dead devices.
type PushResult struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
}

type Pusher interface {
	Send(ctx context.Context, tokens []string, msg *PushMessage) (*PushResult, error)
}

type Mailer interface {
	SendEmail(ctx context.Context, msg *MailerMessage) error
}

type MailerMessage struct {
	To      string
	Subject string
	ReplyTo string

	PlainContent string
	HTMLContent  string
}
