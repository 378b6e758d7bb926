package models

import (
	"fmt"
	"time"

	"collegetour/internal/domain"

	"github.com/shopspring/decimal"
)

// MaxMainPackagesPerCollege caps active non-optional packages of one college.
const MaxMainPackagesPerCollege = 5

// Package is a fixed-price, college-scoped bundle of places.
type Package struct {
	ID              int64           `json:"id"`
	CollegeID       int64           `json:"collegeId"`
	Name            string          `json:"name"`
	PlaceIDs        []int64         `json:"placeIds"`
	Places          []Place         `json:"places,omitempty"`
	Duration        int             `json:"duration"`
	Price           decimal.Decimal `json:"price"`
	Description     string          `json:"description"`
	StartDate       time.Time       `json:"startDate"`
	MaxParticipants int             `json:"maxParticipants"`
	IsOptional      bool            `json:"isOptional"`
	IsActive        bool            `json:"isActive"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// HasPlace reports whether placeID is bundled in the package.
func (p Package) HasPlace(placeID int64) bool {
	for _, id := range p.PlaceIDs {
		if id == placeID {
			return true
		}
	}
	return false
}

// CountsTowardCap reports whether the package occupies one of the college's
// main package slots.
func (p Package) CountsTowardCap() bool {
	return p.IsActive && !p.IsOptional
}

// CheckMainPackageCap rejects a new main package when the college already
// has limit active main packages. Optional packages are never capped.
func CheckMainPackageCap(p Package, existing, limit int) error {
	if p.IsOptional {
		return nil
	}
	if limit <= 0 {
		limit = MaxMainPackagesPerCollege
	}
	if existing >= limit {
		return domain.CapacityError{
			Resource: "package",
			Reason:   domain.ReasonPackageLimitExceeded,
			Msg:      fmt.Sprintf("maximum %d main packages allowed per college", limit),
		}
	}
	return nil
}

// IsUpcoming reports whether the start date is today or later, compared by
// calendar day in now's location.
func (p Package) IsUpcoming(now time.Time) bool {
	if p.StartDate.IsZero() {
		return false
	}
	return !truncateDay(p.StartDate, now.Location()).Before(truncateDay(now, now.Location()))
}

// DaysUntilStart returns whole days between today and the start date.
func (p Package) DaysUntilStart(now time.Time) int {
	start := truncateDay(p.StartDate, now.Location())
	today := truncateDay(now, now.Location())
	return int(start.Sub(today).Hours() / 24)
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
