package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"f0oster/scimsync/directory"
	"f0oster/scimsync/logging"
	"f0oster/scimsync/scim"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	defaultEndpoint  = "/Users"
	defaultTimeout   = 30 * time.Second
	defaultCacheFile = "scimsync-cache.json"
	defaultPageSize  = 500
)

type Configuration struct {
	Directory directory.Config
	SCIM      scim.Config

	TemplatePath     string
	OperationTimeout time.Duration

	// CacheDSN selects the Postgres cache store; otherwise CacheFile is used
	CacheFile string
	CacheDSN  string

	Workers    int
	MaxDeletes int

	LogLevel zerolog.Level
}

// ValidationError lists every problem found in a settings file.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration")
	for i, p := range e.Problems {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(p)
	}
	return b.String()
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Load reads a dotenv style settings file, or a TOML file when the path ends
// in .toml. Process environment variables with a known name override values
// from the file.
func Load(path string) (*Configuration, error) {
	var values map[string]string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		values, err = readTOML(path)
	} else {
		values, err = godotenv.Read(path)
	}
	if err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("failed to read settings file %s: %v", path, err)}}
	}
	for _, name := range Names() {
		if value, ok := os.LookupEnv(name); ok {
			values[name] = value
		}
	}
	return FromValues(values)
}

// FromValues validates and parses already loaded settings.
func FromValues(values map[string]string) (*Configuration, error) {
	verr := &ValidationError{}
	validate(values, verr)
	if len(verr.Problems) > 0 {
		return nil, verr
	}

	cfg := &Configuration{
		Directory: directory.Config{
			URI:              values[LDAPURI],
			BindDN:           values[LDAPWho],
			Password:         values[LDAPPasswd],
			BaseDN:           values[LDAPBase],
			Filter:           values[LDAPFilter],
			Attributes:       splitList(values[LDAPAttrs]),
			AttrsOnly:        strings.EqualFold(values[LDAPAttrsOnly], "TRUE"),
			StartTLS:         strings.EqualFold(values[LDAPStartTLS], "TRUE"),
			UniqueIdentifier: values[LDAPUniqueIdentifier],
			PageSize:         defaultPageSize,
		},
		SCIM: scim.Config{
			BaseURL:  values[SCIMURL],
			Endpoint: withDefault(values[SCIMEndpoint], defaultEndpoint),
			CertFile: values[SCIMCert],
			KeyFile:  values[SCIMKey],
			CAFile:   values[SCIMCA],
		},
		TemplatePath:     values[SCIMTemplate],
		OperationTimeout: defaultTimeout,
		CacheFile:        withDefault(values[CacheFile], defaultCacheFile),
		CacheDSN:         values[CacheDSN],
		Workers:          1,
		LogLevel:         zerolog.InfoLevel,
	}

	scope, err := directory.ParseScope(values[LDAPScope])
	if err != nil {
		verr.add("%s: %v", LDAPScope, err)
	}
	cfg.Directory.Scope = scope

	if len(cfg.Directory.Attributes) == 0 {
		verr.add("%s lists no attributes", LDAPAttrs)
	}

	// entries would carry no values, not even the unique identifier
	if cfg.Directory.AttrsOnly {
		verr.add("%s=TRUE returns no attribute values, so %s cannot be read", LDAPAttrsOnly, LDAPUniqueIdentifier)
	}

	if raw := values[LDAPPageSize]; raw != "" {
		size, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || size == 0 {
			verr.add("%s must be a positive integer, got %q", LDAPPageSize, raw)
		}
		cfg.Directory.PageSize = uint32(size)
	}

	if (cfg.SCIM.CertFile == "") != (cfg.SCIM.KeyFile == "") {
		verr.add("%s and %s must be set together", SCIMCert, SCIMKey)
	}

	if raw := values[SCIMPinnedPubKey]; raw != "" {
		pins, err := scim.ParsePins(raw)
		if err != nil {
			verr.add("%s: %v", SCIMPinnedPubKey, err)
		}
		cfg.SCIM.PinnedPublicKeys = pins
	}

	if raw := values[SCIMTimeout]; raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			verr.add("%s must be a positive duration, got %q", SCIMTimeout, raw)
		}
		cfg.OperationTimeout = timeout
	}

	if raw := values[SyncWorkers]; raw != "" {
		workers, err := strconv.Atoi(raw)
		if err != nil || workers < 1 {
			verr.add("%s must be an integer of at least 1, got %q", SyncWorkers, raw)
		}
		cfg.Workers = workers
	}

	if raw := values[SyncMaxDeletes]; raw != "" {
		maxDeletes, err := strconv.Atoi(raw)
		if err != nil || maxDeletes < 0 {
			verr.add("%s must be a non-negative integer, got %q", SyncMaxDeletes, raw)
		}
		cfg.MaxDeletes = maxDeletes
	}

	if raw := values[LogLevel]; raw != "" {
		cfg.LogLevel, _ = logging.ParseLevel(raw)
	}

	if len(verr.Problems) > 0 {
		return nil, verr
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
