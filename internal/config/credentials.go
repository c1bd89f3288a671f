package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/coracle/shiftclaim/internal/schemas"
)

// Environment variables that override the credentials file.
const (
	EnvITSUsername = "CORACLE_ITS_USERNAME"
	EnvITSPassword = "CORACLE_ITS_PASSWORD"
	EnvDatabaseURL = "DATABASE_URL"
)

// Account is one username and password pair.
type Account struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Credentials is the credentials file. ITS logs in to the scheduling site; Outlook is
// kept for the mail collaborator and is optional.
type Credentials struct {
	ITS     Account  `json:"ITS"`
	Outlook *Account `json:"Outlook,omitempty" validate:"omitempty"`
}

// LoadCredentials reads a credentials file and applies environment overrides. A missing
// file is allowed when the environment supplies the site account.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := readFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		data = []byte("{}")
	}
	return ParseCredentials(data)
}

// ParseCredentials is LoadCredentials over an in-memory document.
func ParseCredentials(data []byte) (*Credentials, error) {
	if err := schemas.ValidateCredentials(data); err != nil {
		return nil, err
	}

	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse credentials JSON: %w", err)
	}
	if v := os.Getenv(EnvITSUsername); v != "" {
		c.ITS.Username = v
	}
	if v := os.Getenv(EnvITSPassword); v != "" {
		c.ITS.Password = v
	}

	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("config error: ITS username and password are required (set them in the credentials file or %s/%s): %w",
			EnvITSUsername, EnvITSPassword, err)
	}
	return &c, nil
}

// DatabaseURL returns the Postgres URL for history storage, or "" to use the file.
func DatabaseURL() string {
	return os.Getenv(EnvDatabaseURL)
}
