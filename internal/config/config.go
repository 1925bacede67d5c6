// Package config provides YAML-based table configuration loading for
// hosting and joining Tong-its tables.
package config

import (
	"errors"
	"fmt"
	"time"
)

// TableConfig contains every tunable of a table: how it is advertised, how
// liveness is judged, how big the party is and how the cards are dealt.
type TableConfig struct {
	// EntryType tags catalog registrations so lobby listings can filter.
	EntryType string `yaml:"entry_type"`
	// CatalogAddress is host:port of the presence catalog (UDP and HTTP).
	CatalogAddress string `yaml:"catalog_address"`
	// RegisterInterval is both the re-registration period and the age after
	// which a catalog entry is treated as stale.
	RegisterInterval time.Duration `yaml:"register_interval"`
	// PingInterval is the client heartbeat period and the supervisor tick.
	PingInterval time.Duration `yaml:"ping_interval"`
	// GraceDelay is added to PingInterval before a silent client is kicked.
	GraceDelay     time.Duration `yaml:"grace_delay"`
	CatalogTimeout time.Duration `yaml:"catalog_timeout"`

	// MaxClients and MinClients count clients only, not the host.
	MaxClients int `yaml:"max_clients"`
	MinClients int `yaml:"min_clients"`

	HandSize     int  `yaml:"hand_size"`
	LegacyPoints bool `yaml:"legacy_points"`

	MaxMessageBytes int64         `yaml:"max_message_bytes"`
	SendTimeout     time.Duration `yaml:"send_timeout"`
	OutboundQueue   int           `yaml:"outbound_queue"`
}

// Validate checks the configuration for values the host cannot run with.
func (c TableConfig) Validate() error {
	var errs []error
	if c.EntryType == "" {
		errs = append(errs, errors.New("entry_type must not be empty"))
	}
	if c.PingInterval <= 0 {
		errs = append(errs, errors.New("ping_interval must be positive"))
	}
	if c.GraceDelay < 0 {
		errs = append(errs, errors.New("grace_delay must not be negative"))
	}
	if c.RegisterInterval <= 0 {
		errs = append(errs, errors.New("register_interval must be positive"))
	}
	if c.CatalogTimeout <= 0 {
		errs = append(errs, errors.New("catalog_timeout must be positive"))
	}
	if c.MinClients < 1 || c.MaxClients < c.MinClients {
		errs = append(errs, fmt.Errorf("need 1 <= min_clients (%d) <= max_clients (%d)", c.MinClients, c.MaxClients))
	}
	if c.HandSize <= 0 || c.HandSize*(c.MaxClients+1) >= 52 {
		errs = append(errs, fmt.Errorf("hand_size %d does not fit %d players", c.HandSize, c.MaxClients+1))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("max_message_bytes must be positive"))
	}
	if c.SendTimeout <= 0 {
		errs = append(errs, errors.New("send_timeout must be positive"))
	}
	if c.OutboundQueue <= 0 {
		errs = append(errs, errors.New("outbound_queue must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// StaleAfter is how long a client may stay silent before it is kicked.
func (c TableConfig) StaleAfter() time.Duration {
	return c.PingInterval + c.GraceDelay
}
