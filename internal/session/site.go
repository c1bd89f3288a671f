package session

import (
	"net/url"
	"slices"
	"strings"

	"github.com/coracle/shiftclaim/internal/types"
)

// Location is a page of the site's claim workflow.
type Location string

// Known locations. Unauthenticated is the state before InitSession and Unknown is any
// URL the site table does not list.
const (
	Unauthenticated Location = "unauthenticated"
	Login           Location = "login"
	Home            Location = "home"
	Schedule        Location = "schedule"
	Confirm         Location = "confirm"
	Unknown         Location = "unknown"
)

// DefaultBaseURL is the punchcard site root.
const DefaultBaseURL = "https://snowball.itsli.albany.edu/punchcard/ut/"

// pagePaths maps navigable locations to their path below the base URL.
var pagePaths = map[Location]string{
	Login:    "",
	Home:     "index.php",
	Schedule: "show_shifts.php",
	Confirm:  "shift_confirm.php",
}

// Site describes the remote layout: where pages live and which schedule columns exist.
type Site struct {
	BaseURL   string
	Locations []string
}

// DefaultSite returns the punchcard layout.
func DefaultSite() Site {
	return Site{BaseURL: DefaultBaseURL, Locations: slices.Clone(types.DefaultLocations)}
}

func (s Site) base() string {
	if s.BaseURL == "" {
		return DefaultBaseURL
	}
	if !strings.HasSuffix(s.BaseURL, "/") {
		return s.BaseURL + "/"
	}
	return s.BaseURL
}

// URL returns the address of a navigable location.
func (s Site) URL(loc Location) (string, bool) {
	p, ok := pagePaths[loc]
	if !ok {
		return "", false
	}
	return s.base() + p, true
}

// LocationOf maps a rendered URL to a location. Query and fragment are ignored.
func (s Site) LocationOf(raw string) (Location, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return Unknown, false
	}
	u.RawQuery = ""
	u.Fragment = ""
	page := u.String()
	for loc, p := range pagePaths {
		if page == s.base()+p {
			return loc, true
		}
	}
	return Unknown, false
}

// Column returns the schedule column index of a location name.
func (s Site) Column(location string) (int, bool) {
	i := slices.Index(s.Locations, location)
	return i, i >= 0
}
