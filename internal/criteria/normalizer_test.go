package criteria

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conntrace-systems/conntrace/internal/models"
)

func TestNormalize_Empty(t *testing.T) {
	c, err := Normalize(models.RawSearchRequest{})
	require.NoError(t, err)

	assert.Empty(t, c.PublicIP)
	assert.Nil(t, c.PublicPort)
	assert.Nil(t, c.Start)
	assert.Nil(t, c.End)
	assert.Equal(t, models.DefaultTimezone, c.Timezone)
	assert.Equal(t, models.DefaultLimit, c.Limit)
	assert.Equal(t, 0, c.Offset)
}

func TestNormalize_PublicIP(t *testing.T) {
	tests := []struct {
		name    string
		ip      string
		wantErr bool
	}{
		{name: "valid IPv4", ip: "177.45.123.45"},
		{name: "valid IPv6", ip: "2001:db8::1"},
		{name: "hostname rejected", ip: "nat.example.com", wantErr: true},
		{name: "garbage rejected", ip: "177.45.123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Normalize(models.RawSearchRequest{PublicIP: tt.ip})
			if tt.wantErr {
				var verr *ValidationError
				require.Error(t, err)
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, "publicIp", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ip, c.PublicIP)
		})
	}
}

func TestNormalize_PublicPort(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		want    int
		wantErr bool
	}{
		{name: "valid port", port: "40123", want: 40123},
		{name: "port zero allowed", port: "0", want: 0},
		{name: "max port", port: "65535", want: 65535},
		{name: "over range", port: "65536", wantErr: true},
		{name: "negative", port: "-1", wantErr: true},
		{name: "not a number", port: "https", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Normalize(models.RawSearchRequest{PublicPort: tt.port})
			if tt.wantErr {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, "publicPort", verr.Field)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, c.PublicPort)
			assert.Equal(t, tt.want, *c.PublicPort)
		})
	}
}

func TestNormalize_TimeWindowConversion(t *testing.T) {
	// 2024-03-15 14:30:00 in Sao Paulo (UTC-3) is 17:30 UTC.
	c, err := Normalize(models.RawSearchRequest{
		StartDate: "2024-03-15",
		StartTime: "14:30:00",
		EndDate:   "2024-03-15",
		EndTime:   "15:00:00",
	})
	require.NoError(t, err)

	require.NotNil(t, c.Start)
	require.NotNil(t, c.End)
	assert.Equal(t, time.Date(2024, 3, 15, 17, 30, 0, 0, time.UTC), *c.Start)
	assert.Equal(t, time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC), *c.End)
	assert.Equal(t, time.UTC, c.Start.Location())
}

func TestNormalize_DateWithoutTimeFillsDayBounds(t *testing.T) {
	c, err := Normalize(models.RawSearchRequest{
		StartDate: "2024-03-15",
		EndDate:   "2024-03-16",
		Timezone:  "UTC",
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *c.Start)
	assert.Equal(t, time.Date(2024, 3, 16, 23, 59, 59, 0, time.UTC), *c.End)
}

func TestNormalize_ExplicitTimezone(t *testing.T) {
	c, err := Normalize(models.RawSearchRequest{
		StartDate: "2024-06-01",
		StartTime: "12:00:00",
		Timezone:  "Europe/Lisbon",
	})
	require.NoError(t, err)
	// Lisbon is UTC+1 in June.
	assert.Equal(t, time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC), *c.Start)
}

func TestNormalize_UnknownTimezone(t *testing.T) {
	_, err := Normalize(models.RawSearchRequest{Timezone: "Mars/Olympus"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "timezone", verr.Field)
}

func TestNormalize_TimeWithoutDate(t *testing.T) {
	_, err := Normalize(models.RawSearchRequest{StartTime: "14:30:00"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "startTime", verr.Field)

	_, err = Normalize(models.RawSearchRequest{EndTime: "14:30:00"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "endTime", verr.Field)
}

func TestNormalize_MalformedDate(t *testing.T) {
	_, err := Normalize(models.RawSearchRequest{StartDate: "15/03/2024"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "startDate", verr.Field)
}

func TestNormalize_LimitClamp(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero defaults", limit: 0, want: 100},
		{name: "negative defaults", limit: -10, want: 100},
		{name: "in range preserved", limit: 2500, want: 2500},
		{name: "over cap clamped silently", limit: 99999, want: 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Normalize(models.RawSearchRequest{Limit: tt.limit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Limit)
		})
	}
}

func TestNormalize_NegativeOffset(t *testing.T) {
	_, err := Normalize(models.RawSearchRequest{Offset: -1})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "offset", verr.Field)
}

func TestNormalize_PrivateIPPassedThrough(t *testing.T) {
	// Private IPs are not validated as literals; operators search CPE
	// identifiers verbatim.
	c, err := Normalize(models.RawSearchRequest{PrivateIP: "100.64.12.7"})
	require.NoError(t, err)
	assert.Equal(t, "100.64.12.7", c.PrivateIP)
}
