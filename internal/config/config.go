// Package config is AGENTESE's environment-var-driven configuration layer,
// carrying the shape and defaulting style of its teacher's
// internal/config/config.go, extended with every AGENTESE_* variable
// the control plane recognizes plus its ambient additions.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds every setting the daemon needs at startup.
type Config struct {
	Port    int
	Version string

	SpecRoot string
	ImplRoot string

	Budget    BudgetConfig
	Telemetry TelemetryConfig
	Compose   ComposeConfig

	AliasFile      string
	LedgerURL      string
	ReplayLogURL   string
	CORSOrigins    []string
}

// BudgetConfig seeds every observer's first-touch EntropyBudget.
type BudgetConfig struct {
	Initial    float64
	Max        float64
	RefillRate float64
}

// TelemetryConfig drives internal/telemetry.Init.
type TelemetryConfig struct {
	Enabled        bool
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
	MetricsEnabled bool
}

// ComposeConfig holds the default flags a bare `compose(...)` call with no
// explicit overrides uses.
type ComposeConfig struct {
	EnforceOutputDefault bool
}

// Load reads configuration from environment variables with their
// documented defaults.
func Load() *Config {
	return &Config{
		Port:     envInt("AGENTESE_PORT", 8080),
		Version:  envStr("AGENTESE_VERSION", "0.1.0"),
		SpecRoot: envStr("AGENTESE_SPEC_ROOT", "spec/"),
		ImplRoot: envStr("AGENTESE_IMPL_ROOT", "impl/"),
		Budget: BudgetConfig{
			Initial:    envFloat("AGENTESE_BUDGET_INITIAL", 100),
			Max:        envFloat("AGENTESE_BUDGET_MAX", 100),
			RefillRate: envFloat("AGENTESE_BUDGET_REFILL_RATE", 1),
		},
		Telemetry: TelemetryConfig{
			Enabled:        envOnOff("AGENTESE_TELEMETRY", true),
			OTLPEndpoint:   envStr("AGENTESE_TELEMETRY_ENDPOINT", ""),
			ServiceName:    envStr("AGENTESE_SERVICE_NAME", "agentese"),
			ServiceVersion: envStr("AGENTESE_VERSION", "0.1.0"),
			MetricsEnabled: envOnOff("AGENTESE_METRICS", true),
		},
		Compose: ComposeConfig{
			EnforceOutputDefault: envOnOff("AGENTESE_ENFORCE_OUTPUT", true),
		},
		AliasFile:    envStr("AGENTESE_ALIAS_FILE", "aliases.yaml"),
		LedgerURL:    envStr("AGENTESE_LEDGER_URL", ""),
		ReplayLogURL: envStr("AGENTESE_REPLAY_LOG_URL", ""),
		CORSOrigins:  envList("AGENTESE_CORS_ORIGINS", []string{"*"}),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envOnOff reads the `on|off` convention these flags use
// (AGENTESE_TELEMETRY=on|off, AGENTESE_METRICS=on|off,
// AGENTESE_ENFORCE_OUTPUT=on|off), falling back to envBool for callers
// that set "true"/"false" instead.
func envOnOff(key string, fallback bool) bool {
	v := os.Getenv(key)
	switch strings.ToLower(v) {
	case "on":
		return true
	case "off":
		return false
	case "":
		return fallback
	default:
		return envBool(key, fallback)
	}
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
