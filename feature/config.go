package feature

import "time"

// Config holds configuration for the Store.
type Config struct {
	// PrimaryTable is the table keyed by bright_uid.
	// Default: "features_bright_uid"
	PrimaryTable string

	// SecondaryTable is the table keyed by account_id.
	// Default: "features_account_id"
	SecondaryTable string

	// Timeout bounds each DynamoDB call. Retries by the SDK happen within it.
	// Default: 5s
	Timeout time.Duration

	// RecordTTL, when positive, stamps written records with a ttl attribute this far in
	// the future. Expired records read as not found.
	// Default: 0 (records never expire)
	RecordTTL time.Duration

	// ConsistentRead makes the read in an upsert observe the latest committed write.
	// Default: true
	ConsistentRead bool
}

// DefaultConfig returns the table names used by the deployed service.
func DefaultConfig() Config {
	return Config{
		PrimaryTable:   "features_bright_uid",
		SecondaryTable: "features_account_id",
		Timeout:        5 * time.Second,
		ConsistentRead: true,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.PrimaryTable == "" {
		c.PrimaryTable = "features_bright_uid"
	}
	if c.SecondaryTable == "" {
		c.SecondaryTable = "features_account_id"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RecordTTL < 0 {
		c.RecordTTL = 0
	}
}

// TableFor returns the table holding records of the given kind.
func (c Config) TableFor(kind EntityKind) string {
	if kind == Secondary {
		return c.SecondaryTable
	}
	return c.PrimaryTable
}
