package begehung

import (
	"fmt"
	"strings"
)

// Status is the result of one checklist item.
type Status string

const (
	StatusOK            Status = "ok"
	StatusOpen          Status = "open"
	StatusCritical      Status = "critical"
	StatusNotApplicable Status = "not-applicable"
)

// Statuses lists the recognized values in display order.
var Statuses = []Status{StatusOK, StatusOpen, StatusCritical, StatusNotApplicable}

func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusOpen, StatusCritical, StatusNotApplicable:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// ParseStatus maps user input onto the closed status set. Legacy German labels
// from older exports are accepted:
// - ok -> ok
// - open/offen -> open
// - critical/kritisch -> critical
// - not-applicable/n/a/na -> not-applicable
func ParseStatus(v string) (Status, error) {
	s := strings.ToLower(strings.TrimSpace(v))
	switch s {
	case "ok":
		return StatusOK, nil
	case "open", "offen":
		return StatusOpen, nil
	case "critical", "kritisch":
		return StatusCritical, nil
	case "not-applicable", "not_applicable", "n/a", "na":
		return StatusNotApplicable, nil
	default:
		return "", fmt.Errorf("unrecognized status %q", v)
	}
}

// ParseStatusFilter accepts the filter form of a status: "", "any" or "(alle)"
// match everything and yield "".
func ParseStatusFilter(v string) (Status, error) {
	s := strings.ToLower(strings.TrimSpace(v))
	switch s {
	case "", "any", "all", "(alle)":
		return "", nil
	}
	return ParseStatus(v)
}
