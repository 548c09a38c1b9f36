package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alexanderramin/retention/internal/domain"
)

// Identifier modes accepted by RM_IDENTIFIER_MODE.
const (
	IdentifierSequence = "sequence"
	IdentifierUUID     = "uuid"
)

// Config holds the runtime configuration of rmctl.
type Config struct {
	DBPath              string
	TxAttempts          int
	MandatoryProperties []string
	IdentifierMode      string
	LogUseCases         bool
	Metrics             bool
}

// Default returns a Config with defaults. DBPath is empty when the home
// directory cannot be determined.
func Default() Config {
	cfg := Config{
		TxAttempts:          3,
		MandatoryProperties: append([]string(nil), domain.DefaultMandatoryProperties...),
		IdentifierMode:      IdentifierSequence,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.DBPath = filepath.Join(home, ".rmctl", "rm.db")
	}
	return cfg
}

// Load reads configuration from environment variables, falling back to
// defaults for unset or invalid values.
func Load() Config {
	cfg := Default()

	if v := os.Getenv("RM_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("RM_TX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TxAttempts = n
		}
	}
	if v := os.Getenv("RM_MANDATORY_PROPERTIES"); v != "" {
		if props := splitList(v); len(props) > 0 {
			cfg.MandatoryProperties = props
		}
	}
	if v := os.Getenv("RM_IDENTIFIER_MODE"); v != "" {
		switch mode := strings.ToLower(strings.TrimSpace(v)); mode {
		case IdentifierSequence, IdentifierUUID:
			cfg.IdentifierMode = mode
		}
	}
	if v := os.Getenv("RM_LOG_USE_CASES"); v != "" {
		cfg.LogUseCases, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("RM_METRICS"); v != "" {
		cfg.Metrics, _ = strconv.ParseBool(v)
	}
	return cfg
}

// Validate reports configuration that cannot be used.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("no database path: set RM_DB")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
