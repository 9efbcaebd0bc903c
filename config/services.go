package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ServiceMode names a long-running component the binary can host.
type ServiceMode string

const (
	ServiceModeHTTP   ServiceMode = "http"   // public web UI and JSON API
	ServiceModeReaper ServiceMode = "reaper" // closes idle session mirrors
)

var serviceModes = []ServiceMode{ServiceModeHTTP, ServiceModeReaper}

// ValidServiceModes lists the accepted modes in startup order.
func ValidServiceModes() []ServiceMode {
	return slices.Clone(serviceModes)
}

func (m ServiceMode) valid() bool { return slices.Contains(serviceModes, m) }

func validModeList() string {
	names := make([]string, len(serviceModes))
	for i, m := range serviceModes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// ParseServices reads a comma-separated APP_SERVICES value. Blank entries and
// duplicates are tolerated; an unknown name or an empty result is an error.
func ParseServices(raw string) (map[ServiceMode]bool, error) {
	enabled := make(map[ServiceMode]bool, len(serviceModes))
	for _, field := range strings.Split(raw, ",") {
		name := strings.TrimSpace(field)
		if name == "" {
			continue
		}
		mode := ServiceMode(strings.ToLower(name))
		if !mode.valid() {
			return nil, fmt.Errorf("unknown service %q (valid: %s)", name, validModeList())
		}
		enabled[mode] = true
	}
	if len(enabled) == 0 {
		return nil, errors.New("no service enabled")
	}
	return enabled, nil
}

// MirrorConfig bounds the lifetime of per-client session mirrors.
type MirrorConfig struct {
	// IdleTTL is how long a mirror may sit unused before the reaper closes it.
	IdleTTL       time.Duration `env:"MIRROR_IDLE_TTL" envDefault:"30m"`
	SweepInterval time.Duration `env:"MIRROR_SWEEP_INTERVAL" envDefault:"1m"`
}

// Sanitize keeps IdleTTL at one minute or more and the sweep between one
// second and IdleTTL.
func (m *MirrorConfig) Sanitize() {
	m.IdleTTL = max(m.IdleTTL, time.Minute)
	m.SweepInterval = min(max(m.SweepInterval, time.Second), m.IdleTTL)
}
