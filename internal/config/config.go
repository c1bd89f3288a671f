// Package config loads and validates the settings and credentials files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/coracle/shiftclaim/internal/history"
	"github.com/coracle/shiftclaim/internal/rules"
	"github.com/coracle/shiftclaim/internal/schemas"
	"github.com/coracle/shiftclaim/internal/session"
	"github.com/coracle/shiftclaim/internal/types"
)

// Default file locations, relative to the working directory.
const (
	DefaultSettingsPath    = "./settings/settings.json"
	DefaultCredentialsPath = "./settings/creds.json"
)

// Forever is the active value that keeps polling until interrupted.
const Forever = -1

// Settings is the settings file.
type Settings struct {
	Active            int             `json:"active" validate:"gte=-1"`  // minutes, Forever to never stop
	Refresh           int             `json:"refresh" validate:"gte=1"`  // seconds between cycles
	AdvancedLogging   bool            `json:"advanced_logging"`          // debug-level development logs
	NotificationEmail string          `json:"notification_email" validate:"omitempty,email"`
	HistoryFile       string          `json:"history_file"`
	Site              SiteSettings    `json:"site"`
	Dates             json.RawMessage `json:"dates" validate:"required"`

	// Rules is Dates parsed and validated.
	Rules *rules.Tree `json:"-"`
}

// SiteSettings overrides the scheduling site layout.
type SiteSettings struct {
	BaseURL   string   `json:"base_url" validate:"omitempty,url"`
	Locations []string `json:"locations" validate:"omitempty,unique,dive,required"`
}

// LoadSettings reads, validates and defaults a settings file. The rule tree is parsed
// against the configured locations.
func LoadSettings(path string) (*Settings, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSettings(data)
}

// ParseSettings is LoadSettings over an in-memory document.
func ParseSettings(data []byte) (*Settings, error) {
	if err := schemas.ValidateSettings(data); err != nil {
		return nil, err
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
	}
	s.applyDefaults()

	if err := validator.New().Struct(&s); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	tree, err := rules.Parse(s.Dates, s.Site.Locations)
	if err != nil {
		return nil, err
	}
	s.Rules = tree
	return &s, nil
}

func (s *Settings) applyDefaults() {
	if s.HistoryFile == "" {
		s.HistoryFile = history.DefaultPath
	}
	if s.Site.BaseURL == "" {
		s.Site.BaseURL = session.DefaultBaseURL
	}
	if len(s.Site.Locations) == 0 {
		s.Site.Locations = slices.Clone(types.DefaultLocations)
	}
}

// ActiveDuration converts Active to a duration. Forever is negative.
func (s *Settings) ActiveDuration() time.Duration {
	if s.Active < 0 {
		return -1
	}
	return time.Duration(s.Active) * time.Minute
}

// RefreshInterval converts Refresh to a duration.
func (s *Settings) RefreshInterval() time.Duration {
	return time.Duration(s.Refresh) * time.Second
}

// SessionSite returns the site layout for the session machine.
func (s *Settings) SessionSite() session.Site {
	return session.Site{BaseURL: s.Site.BaseURL, Locations: slices.Clone(s.Site.Locations)}
}

// readFile resolves path against the working directory and reads it.
func readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return data, nil
}
