// Package criteria validates and canonicalizes raw search input.
package criteria

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/conntrace-systems/conntrace/internal/models"
)

// ValidationError reports a malformed or out-of-range input field. It names
// the offending field so the caller can surface a field-specific message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"

	dayStart = "00:00:00"
	dayEnd   = "23:59:59"
)

// Normalize validates raw request fields and produces canonical
// SearchCriteria. All fields are optional: absence of every filter degrades
// to an unfiltered query bounded by the limit, which is not an error.
// Normalize has no side effects.
func Normalize(raw models.RawSearchRequest) (models.SearchCriteria, error) {
	c := models.SearchCriteria{
		PrivateIP: raw.PrivateIP,
		StartDate: raw.StartDate,
		StartTime: raw.StartTime,
		EndDate:   raw.EndDate,
		EndTime:   raw.EndTime,
		Timezone:  raw.Timezone,
	}

	if c.Timezone == "" {
		c.Timezone = models.DefaultTimezone
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return models.SearchCriteria{}, invalid("timezone", "unknown IANA zone %q", c.Timezone)
	}

	if raw.PublicIP != "" {
		if net.ParseIP(raw.PublicIP) == nil {
			return models.SearchCriteria{}, invalid("publicIp", "not an IPv4/IPv6 literal: %q", raw.PublicIP)
		}
		c.PublicIP = raw.PublicIP
	}

	if raw.PublicPort != "" {
		port, err := strconv.Atoi(raw.PublicPort)
		if err != nil {
			return models.SearchCriteria{}, invalid("publicPort", "not a base-10 integer: %q", raw.PublicPort)
		}
		if port < 0 || port > 65535 {
			return models.SearchCriteria{}, invalid("publicPort", "%d outside [0, 65535]", port)
		}
		c.PublicPort = &port
	}

	if raw.StartDate != "" {
		start, err := combine(raw.StartDate, raw.StartTime, dayStart, loc)
		if err != nil {
			return models.SearchCriteria{}, invalid("startDate", "%v", err)
		}
		c.Start = &start
	} else if raw.StartTime != "" {
		return models.SearchCriteria{}, invalid("startTime", "startTime given without startDate")
	}

	if raw.EndDate != "" {
		end, err := combine(raw.EndDate, raw.EndTime, dayEnd, loc)
		if err != nil {
			return models.SearchCriteria{}, invalid("endDate", "%v", err)
		}
		c.End = &end
	} else if raw.EndTime != "" {
		return models.SearchCriteria{}, invalid("endTime", "endTime given without endDate")
	}

	if raw.Offset < 0 {
		return models.SearchCriteria{}, invalid("offset", "%d is negative", raw.Offset)
	}
	c.Offset = raw.Offset

	// Clamp silently: over-requesting a page is harmless and must not fail
	// an otherwise valid export.
	c.Limit = raw.Limit
	if c.Limit <= 0 {
		c.Limit = models.DefaultLimit
	}
	if c.Limit > models.MaxPageSize {
		c.Limit = models.MaxPageSize
	}

	return c, nil
}

// combine joins a date with an optional time-of-day in loc and converts the
// local instant to UTC. fallback supplies the time-of-day when none is given.
func combine(date, tod, fallback string, loc *time.Location) (time.Time, error) {
	if tod == "" {
		tod = fallback
	}
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+tod, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date/time %q %q", date, tod)
	}
	return t.UTC(), nil
}
