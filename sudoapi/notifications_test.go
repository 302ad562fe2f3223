package sudoapi

import (
	"testing"
	"time"

	"github.com/AlmonerProjects/almoner"
)

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{
			time.Date(2024, time.March, 14, 23, 59, 59, 1e8, time.UTC),
			time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			time.Date(2024, time.December, 31, 1, 30, 0, 0, loc),
			time.Date(2024, time.December, 31, 0, 0, 0, 0, loc),
		},
	}
	for _, test := range tests {
		if got := startOfDay(test.in); !got.Equal(test.want) {
			t.Fatalf("startOfDay(%v) = %v, wanted %v", test.in, got, test.want)
		}
	}
}

func TestIsDispatchSkip(t *testing.T) {
	for _, err := range []error{almoner.ErrNoConsent, almoner.ErrRateLimited, almoner.ErrNoDevices} {
		if !IsDispatchSkip(err) {
			t.Fatalf("%v should be a dispatch skip", err)
		}
	}
	for _, err := range []error{almoner.ErrForbidden, almoner.ErrNotFound} {
		if IsDispatchSkip(err) {
			t.Fatalf("%v should not be a dispatch skip", err)
		}
	}
}
