package api

import (
	"net/http"
	"time"

	"github.com/AlmonerProjects/almoner"
	"github.com/AlmonerProjects/almoner/internal/util"
)

type donationListArgs struct {
	ExternalID *string `json:"external_id"`
	Source     *string `json:"source"`
	CampaignID *int    `json:"campaign_id"`
	DonorEmail *string `json:"donor_email"`

	Since *string `json:"since"`
	Until *string `json:"until"`

	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (args donationListArgs) toFilter(orgID int) (almoner.DonationFilter, error) {
	filter := almoner.DonationFilter{
		OrgID:      orgID,
		ExternalID: args.ExternalID,
		CampaignID: args.CampaignID,
		DonorEmail: args.DonorEmail,
		Limit:      args.Limit,
		Offset:     args.Offset,
	}
	if args.Source != nil {
		src := almoner.DonationSource(*args.Source)
		filter.Source = &src
	}
	for name, raw := range map[string]*string{"since": args.Since, "until": args.Until} {
		if raw == nil {
			continue
		}
		t, err := time.Parse(time.RFC3339, *raw)
		if err != nil {
			return filter, almoner.Statusf(400, "Invalid %s timestamp, expected RFC 3339", name)
		}
		if name == "since" {
			filter.Since = &t
		} else {
			filter.Until = &t
		}
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return filter, nil
}

func (s *API) getDonations(w http.ResponseWriter, r *http.Request) {
	if !util.Actor(r).HasCapability(almoner.CapDonationsRead) {
		statusError(w, almoner.ErrForbidden)
		return
	}
	r.ParseForm()
	var args donationListArgs
	if err := decoder.Decode(&args, r.Form); err != nil {
		errorData(w, err, 400)
		return
	}
	filter, err := args.toFilter(util.OrgID(r))
	if err != nil {
		statusError(w, err)
		return
	}

	donations, err := s.base.Donations(r.Context(), filter)
	if err != nil {
		statusError(w, err)
		return
	}
	count, err := s.base.CountDonations(r.Context(), filter)
	if err != nil {
		statusError(w, err)
		return
	}
	returnData(w, struct {
		TotalCount int                 `json:"count"`
		Donations  []*almoner.Donation `json:"donations"`
	}{TotalCount: count, Donations: donations})
}

func (s *API) getAuditEntries(w http.ResponseWriter, r *http.Request) {
	if !util.Actor(r).HasCapability(almoner.CapAuditRead) {
		statusError(w, almoner.ErrForbidden)
		return
	}
	r.ParseForm()
	var args struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	if err := decoder.Decode(&args, r.Form); err != nil {
		errorData(w, err, 400)
		return
	}
	if args.Limit <= 0 || args.Limit > 100 {
		args.Limit = 50
	}

	entries, err := s.base.AuditEntries(r.Context(), util.OrgID(r), args.Limit, args.Offset)
	if err != nil {
		statusError(w, err)
		return
	}
	count, err := s.base.AuditEntryCount(r.Context(), util.OrgID(r))
	if err != nil {
		statusError(w, err)
		return
	}
	returnData(w, struct {
		TotalCount int                   `json:"total_count"`
		Entries    []*almoner.AuditEntry `json:"entries"`
	}{TotalCount: count, Entries: entries})
}
