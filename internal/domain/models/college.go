package models

import (
	"strings"
	"time"
)

// College groups students, buses and packages.
type College struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Departments       []string  `json:"departments"`
	AmbassadorName    string    `json:"ambassadorName"`
	AmbassadorContact string    `json:"ambassadorContact"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// HasDepartment reports whether dept is listed on the college (case-insensitive).
// A college without departments accepts any value.
func (c College) HasDepartment(dept string) bool {
	if len(c.Departments) == 0 {
		return true
	}
	dept = strings.TrimSpace(dept)
	for _, d := range c.Departments {
		if strings.EqualFold(d, dept) {
			return true
		}
	}
	return false
}

// SplitDepartments turns "CE, IT,,ME" into ["CE","IT","ME"].
func SplitDepartments(raw string) []string {
	out := []string{}
	for _, d := range strings.Split(raw, ",") {
		d = strings.TrimSpace(d)
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
