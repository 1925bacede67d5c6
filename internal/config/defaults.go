package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/table.yaml
var defaultTableYAML []byte

// Well-known values of the shared catalog.
const (
	DefaultEntryType      = "Tong-its"
	DefaultCatalogAddress = "catalog.cse.nd.edu:9097"
)

// DefaultTableConfig returns the default table configuration.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		EntryType:        DefaultEntryType,
		CatalogAddress:   DefaultCatalogAddress,
		RegisterInterval: 60 * time.Second,
		PingInterval:     5 * time.Second,
		GraceDelay:       1 * time.Second,
		CatalogTimeout:   5 * time.Second,
		MaxClients:       2,
		MinClients:       2,
		HandSize:         12,
		LegacyPoints:     false,
		MaxMessageBytes:  1 << 20,
		SendTimeout:      5 * time.Second,
		OutboundQueue:    64,
	}
}
