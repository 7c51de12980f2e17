package tenancy

import (
	"fmt"
	"time"
)

// LicenseState is the outcome of evaluating a license against a date.
type LicenseState string

const (
	LicenseActive  LicenseState = "active"
	LicenseGrace   LicenseState = "grace"
	LicenseExpired LicenseState = "expired"
	LicenseRevoked LicenseState = "revoked"
	LicenseInvalid LicenseState = "invalid"
)

// StatusRevoked is the stored status that overrides all date logic.
const StatusRevoked = "revoked"

// License is the stored license record for a tenant. The core only reads it;
// mutation belongs to the billing collaborator.
type License struct {
	TenantID        string
	ExpirationDate  time.Time
	GracePeriodDays int
	Status          string
}

// Evaluation is the result of a license check. There is no persisted state
// transition - the state is recomputed fresh on every check.
type Evaluation struct {
	State              LicenseState `json:"state"`
	RemainingGraceDays int          `json:"remaining_grace_days,omitempty"`
	Reason             string       `json:"reason"`
}

// Permitted reports whether the evaluated state allows tenant operations.
func (e Evaluation) Permitted() bool {
	return e.State == LicenseActive || e.State == LicenseGrace
}

// Evaluate computes the license state for a given wall-clock date.
// Evaluation order, first match wins:
//  1. no record -> invalid
//  2. stored status revoked -> revoked, unconditionally
//  3. today <= expiration -> active
//  4. expiration < today <= expiration+grace -> grace, with remaining days
//  5. otherwise -> expired
//
// Comparisons are at day granularity in UTC.
func Evaluate(l *License, today time.Time) Evaluation {
	if l == nil {
		return Evaluation{State: LicenseInvalid, Reason: "no license found"}
	}
	if l.Status == StatusRevoked {
		return Evaluation{State: LicenseRevoked, Reason: "license has been revoked"}
	}

	day := truncateToDay(today)
	expiration := truncateToDay(l.ExpirationDate)

	if !day.After(expiration) {
		return Evaluation{State: LicenseActive, Reason: "license is active"}
	}

	graceEnd := expiration.AddDate(0, 0, l.GracePeriodDays)
	if !day.After(graceEnd) {
		remaining := int(graceEnd.Sub(day).Hours() / 24)
		return Evaluation{
			State:              LicenseGrace,
			RemainingGraceDays: remaining,
			Reason:             fmt.Sprintf("license in grace period, %d day(s) remaining", remaining),
		}
	}

	return Evaluation{State: LicenseExpired, Reason: "license has expired"}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
