package api

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/AlmonerProjects/almoner"
	"github.com/AlmonerProjects/almoner/internal/util"
)

type sendNotificationForm struct {
	DonorID int    `json:"donor_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

func (f sendNotificationForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.DonorID, validation.Required, validation.Min(1)),
		validation.Field(&f.Title, validation.Required, validation.Length(1, 120)),
		validation.Field(&f.Body, validation.Required, validation.Length(1, 1024)),
	)
}

func (s *API) sendNotification(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	var args sendNotificationForm
	if err := decoder.Decode(&args, r.Form); err != nil {
		errorData(w, err, 400)
		return
	}
	if err := args.Validate(); err != nil {
		errorData(w, err, 400)
		return
	}

	err := s.base.NotifyDonorAs(r.Context(), util.Actor(r), util.OrgID(r), args.DonorID, args.Title, args.Body)
	if err != nil {
		statusError(w, err)
		return
	}
	returnData(w, "Notification sent")
}

type registerDeviceForm struct {
	DonorID int    `json:"donor_id"`
	Token   string `json:"token"`
}

func (f registerDeviceForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.DonorID, validation.Required, validation.Min(1)),
		validation.Field(&f.Token, validation.Required, validation.Length(8, 512)),
	)
}

func (s *API) registerDevice(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	var args registerDeviceForm
	if err := decoder.Decode(&args, r.Form); err != nil {
		errorData(w, err, 400)
		return
	}
	if err := args.Validate(); err != nil {
		errorData(w, err, 400)
		return
	}

	if err := s.base.RegisterDeviceToken(r.Context(), util.OrgID(r), args.DonorID, args.Token); err != nil {
		statusError(w, err)
		return
	}
	returnData(w, "Device registered")
}

func (s *API) updateDonorConsent(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	var args struct {
		DonorID int  `json:"donor_id"`
		Push    bool `json:"push"`
		Email   bool `json:"email"`
		SMS     bool `json:"sms"`
	}
	if err := decoder.Decode(&args, r.Form); err != nil {
		errorData(w, err, 400)
		return
	}
	if args.DonorID <= 0 {
		errorData(w, "Invalid donor ID", 400)
		return
	}

	consent := almoner.DonorConsent{Push: args.Push, Email: args.Email, SMS: args.SMS}
	if err := s.base.UpdateDonorConsent(r.Context(), util.Actor(r), util.OrgID(r), args.DonorID, consent); err != nil {
		statusError(w, err)
		return
	}
	returnData(w, "Consent updated")
}
