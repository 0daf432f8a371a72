package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayStatus(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		license License
		want    LicenseStatus
	}{
		{
			"valid and current",
			License{Status: LicenseStatusValid, ExpiryDate: now.AddDate(1, 0, 0)},
			LicenseStatusValid,
		},
		{
			"valid but past expiry",
			License{Status: LicenseStatusValid, ExpiryDate: now.AddDate(0, 0, -1)},
			LicenseStatusExpired,
		},
		{
			"suspension outranks expiry",
			License{Status: LicenseStatusSuspended, ExpiryDate: now.AddDate(0, 0, -1)},
			LicenseStatusSuspended,
		},
		{
			"suspended and current",
			License{Status: LicenseStatusSuspended, ExpiryDate: now.AddDate(1, 0, 0)},
			LicenseStatusSuspended,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.license.DisplayStatus(now))
		})
	}
}
