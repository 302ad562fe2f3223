package api

import (
	"net/http"

	"github.com/AlmonerProjects/almoner/integrations/cardpoint"
	"github.com/AlmonerProjects/almoner/sudoapi"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

var decoder *schema.Decoder

func init() {
	decoder = schema.NewDecoder()
	decoder.SetAliasTag("json")
	decoder.IgnoreUnknownKeys(true)
}

type API struct {
	base      *sudoapi.BaseAPI
	cardpoint *cardpoint.Client
}

func New(base *sudoapi.BaseAPI) *API {
	return &API{base: base, cardpoint: cardpoint.NewClient()}
}

func (s *API) Handler() http.Handler {
	r := chi.NewRouter()

	// Provider callbacks authenticate with their own signature schemes,
	// never with the portal's identity system.
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/cardpoint/{orgID}", s.cardpointEvent)
		r.Post("/givecorps/{orgID}", s.givecorpsEvent)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.SetupActor)

		r.With(s.MustBeAuthed).Post("/notifications/send", s.sendNotification)
		r.With(s.MustBeAuthed).Post("/devices", s.registerDevice)
		r.With(s.MustBeAuthed).Post("/donors/consent", s.updateDonorConsent)

		r.With(s.MustBeAuthed).Get("/donations", s.getDonations)
		r.With(s.MustBeAuthed).Get("/audit", s.getAuditEntries)
	})

	return r
}
