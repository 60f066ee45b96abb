// Package config loads process settings from flags, environment variables and .env files.
//
// Every setting has a flag name (e.g. "table-bright-uid") that doubles as its viper key.
// Environment variables use the FEATURESTORE_ prefix with dashes replaced by underscores
// (FEATURESTORE_TABLE_BRIGHT_UID). The unprefixed names used by earlier deployments
// (TABLE_NAME_BRIGHT_UID, AWS_REGION, LOG_LEVEL, ...) are honored as aliases.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
)

// EnvPrefix is the prefix of every environment variable read by Bind.
const EnvPrefix = "featurestore"

// Setting keys. Each is also the name of the matching command line flag.
const (
	KeyEnvironment       = "environment"
	KeyAppName           = "app-name"
	KeyAppVersion        = "app-version"
	KeyDebug             = "debug"
	KeyAWSRegion         = "aws-region"
	KeyAWSEndpoint       = "aws-endpoint"
	KeyAWSMaxAttempts    = "aws-max-attempts"
	KeyPrimaryTable      = "table-bright-uid"
	KeySecondaryTable    = "table-account-id"
	KeyTimeout           = "timeout"
	KeyRecordTTL         = "record-ttl"
	KeyReadCategories    = "allowed-read-categories"
	KeyWriteCategories   = "allowed-write-categories"
	KeyListen            = "listen"
	KeyWriteSource       = "write-source"
	KeyCORSOrigins       = "cors-origins"
	KeyLogLevel          = "log-level"
	KeyLogFile           = "log-file"
	KeyNotifyBackend     = "notify-backend"
	KeyNotifyTimeout     = "notify-timeout"
	KeyNATSURL           = "nats-url"
	KeyNATSStream        = "nats-stream"
	KeyNATSSubjectPrefix = "nats-subject-prefix"
)

// Notification backends.
const (
	NotifyNATS   = "nats"
	NotifyMemory = "memory"
	NotifyNone   = "none"
)

// aliases maps keys to the unprefixed environment variables of earlier deployments.
var aliases = map[string][]string{
	KeyEnvironment:     {"ENVIRONMENT"},
	KeyAppName:         {"APP_NAME"},
	KeyAppVersion:      {"APP_VERSION"},
	KeyDebug:           {"DEBUG"},
	KeyAWSRegion:       {"AWS_REGION", "AWS_DEFAULT_REGION"},
	KeyAWSEndpoint:     {"AWS_ENDPOINT_URL_DYNAMODB"},
	KeyPrimaryTable:    {"TABLE_NAME_BRIGHT_UID"},
	KeySecondaryTable:  {"TABLE_NAME_ACCOUNT_ID"},
	KeyReadCategories:  {"ALLOWED_READ_CATEGORIES"},
	KeyWriteCategories: {"ALLOWED_WRITE_CATEGORIES"},
	KeyLogLevel:        {"LOG_LEVEL"},
	KeyLogFile:         {"LOG_FILE"},
	KeyNATSURL:         {"NATS_URL"},
}

// Settings holds the resolved process configuration.
type Settings struct {
	Environment string
	AppName     string
	AppVersion  string
	Debug       bool

	AWSRegion      string
	AWSEndpoint    string
	AWSMaxAttempts int

	PrimaryTable   string
	SecondaryTable string
	Timeout        time.Duration
	RecordTTL      time.Duration

	ReadCategories  []string
	WriteCategories []string

	Listen      string
	WriteSource string
	CORSOrigins []string

	LogLevel string
	LogFile  string

	NotifyBackend     string
	NotifyTimeout     time.Duration
	NATSURL           string
	NATSStream        string
	NATSSubjectPrefix string
}

// IsProduction reports whether the process runs in the production environment.
func (s Settings) IsProduction() bool { return s.Environment == "production" }

// IsDevelopment reports whether the process runs in the development environment.
func (s Settings) IsDevelopment() bool { return s.Environment == "development" }

// FeatureConfig returns the storage configuration derived from s.
func (s Settings) FeatureConfig() feature.Config {
	cfg := feature.DefaultConfig()
	cfg.PrimaryTable = s.PrimaryTable
	cfg.SecondaryTable = s.SecondaryTable
	cfg.Timeout = s.Timeout
	cfg.RecordTTL = s.RecordTTL
	return cfg
}

// Policy returns the category policy configured by s.
func (s Settings) Policy() *feature.Policy {
	return feature.NewPolicy(s.ReadCategories, s.WriteCategories)
}

// LoadEnvFiles loads .env.<ENVIRONMENT> and then .env from dir. Variables already present
// in the environment are never overwritten, so the environment specific file wins over .env.
// Missing files are ignored.
func LoadEnvFiles(dir string) {
	env := os.Getenv("FEATURESTORE_ENVIRONMENT")
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		env = "development"
	}
	for _, name := range []string{".env." + strings.ToLower(env), ".env"} {
		path := name
		if dir != "" {
			path = dir + string(os.PathSeparator) + name
		}
		_ = godotenv.Load(path)
	}
}

// Bind registers defaults and environment bindings on v.
func Bind(v *viper.Viper) error {
	v.SetDefault(KeyEnvironment, "development")
	v.SetDefault(KeyAppName, "Feature Store API")
	v.SetDefault(KeyAppVersion, "1.0.0")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyAWSRegion, "us-west-2")
	v.SetDefault(KeyAWSMaxAttempts, 3)
	v.SetDefault(KeyPrimaryTable, feature.DefaultConfig().PrimaryTable)
	v.SetDefault(KeySecondaryTable, feature.DefaultConfig().SecondaryTable)
	v.SetDefault(KeyTimeout, feature.DefaultConfig().Timeout)
	v.SetDefault(KeyRecordTTL, time.Duration(0))
	v.SetDefault(KeyListen, ":8000")
	v.SetDefault(KeyWriteSource, "prediction_service")
	v.SetDefault(KeyLogLevel, "INFO")
	v.SetDefault(KeyNotifyBackend, NotifyNone)
	v.SetDefault(KeyNotifyTimeout, feature.DefaultNotifyTimeout)
	v.SetDefault(KeyNATSStream, "FEATURES")
	v.SetDefault(KeyNATSSubjectPrefix, "features.available")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, names := range aliases {
		envs := append([]string{envName(key)}, names...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

// envName returns the prefixed environment variable for key.
func envName(key string) string {
	return strings.ToUpper(EnvPrefix + "_" + strings.ReplaceAll(key, "-", "_"))
}

// RegisterFlags adds a flag for every setting to fs. Flag defaults are empty; unset flags
// fall through to the environment and then to the defaults registered by Bind.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyEnvironment, "", "deployment environment (development, staging, production)")
	fs.String(KeyAWSRegion, "", "AWS region of the feature tables")
	fs.String(KeyAWSEndpoint, "", "DynamoDB endpoint override, e.g. http://localhost:8000 for DynamoDB Local")
	fs.Int(KeyAWSMaxAttempts, 0, "maximum attempts per DynamoDB call including retries")
	fs.String(KeyPrimaryTable, "", "table holding bright_uid records")
	fs.String(KeySecondaryTable, "", "table holding account_id records")
	fs.Duration(KeyTimeout, 0, "timeout of a single DynamoDB call")
	fs.Duration(KeyRecordTTL, 0, "lifetime of written records, 0 keeps them forever")
	fs.String(KeyReadCategories, "", "comma separated categories that may be read")
	fs.String(KeyWriteCategories, "", "comma separated categories that may be written")
	fs.String(KeyLogLevel, "", "log level (DEBUG, INFO, WARNING, ERROR)")
	fs.String(KeyLogFile, "", "also write logs to this file, rotated")
	fs.String(KeyNotifyBackend, "", "where availability events go (nats, memory, none)")
	fs.String(KeyNATSURL, "", "NATS server URL")
}

// Load resolves Settings from v. Bind must have been called on v.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		Environment:       strings.ToLower(strings.TrimSpace(v.GetString(KeyEnvironment))),
		AppName:           v.GetString(KeyAppName),
		AppVersion:        v.GetString(KeyAppVersion),
		Debug:             v.GetBool(KeyDebug),
		AWSRegion:         v.GetString(KeyAWSRegion),
		AWSEndpoint:       v.GetString(KeyAWSEndpoint),
		AWSMaxAttempts:    v.GetInt(KeyAWSMaxAttempts),
		PrimaryTable:      v.GetString(KeyPrimaryTable),
		SecondaryTable:    v.GetString(KeySecondaryTable),
		Timeout:           v.GetDuration(KeyTimeout),
		RecordTTL:         v.GetDuration(KeyRecordTTL),
		ReadCategories:    splitList(v.GetString(KeyReadCategories)),
		WriteCategories:   splitList(v.GetString(KeyWriteCategories)),
		Listen:            v.GetString(KeyListen),
		WriteSource:       v.GetString(KeyWriteSource),
		CORSOrigins:       splitList(v.GetString(KeyCORSOrigins)),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFile:           v.GetString(KeyLogFile),
		NotifyBackend:     strings.ToLower(strings.TrimSpace(v.GetString(KeyNotifyBackend))),
		NotifyTimeout:     v.GetDuration(KeyNotifyTimeout),
		NATSURL:           v.GetString(KeyNATSURL),
		NATSStream:        v.GetString(KeyNATSStream),
		NATSSubjectPrefix: v.GetString(KeyNATSSubjectPrefix),
	}
	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// validate rejects settings the process cannot start with and fills the rest.
func (s *Settings) validate() error {
	if s.Environment == "" {
		s.Environment = "development"
	}
	switch s.NotifyBackend {
	case "":
		s.NotifyBackend = NotifyNone
	case NotifyNATS, NotifyMemory, NotifyNone:
	default:
		return fmt.Errorf("config: unknown notify backend %q (expected nats, memory or none)", s.NotifyBackend)
	}
	if s.AWSMaxAttempts < 1 {
		s.AWSMaxAttempts = 1
	}
	if s.Timeout <= 0 {
		s.Timeout = feature.DefaultConfig().Timeout
	}
	if s.RecordTTL < 0 {
		return fmt.Errorf("config: record ttl must not be negative, got %s", s.RecordTTL)
	}
	if s.Listen == "" {
		s.Listen = ":8000"
	}
	if len(s.CORSOrigins) == 0 && s.IsDevelopment() {
		s.CORSOrigins = []string{"*"}
	}
	return nil
}

// splitList splits a comma separated list, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
