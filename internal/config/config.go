package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Roles a core instance can take. One IDE family binds and accepts, the
// other scans loopback ports and connects. The role is fixed at startup.
const (
	RoleListener = "listener"
	RoleScanner  = "scanner"
)

// Family tags for the two IDE families. The tag is carried in every
// outbound EditorState as its source and selects the platform path
// normalization style (A is slash-based, B is Windows-based).
const (
	FamilyA = "A"
	FamilyB = "B"
)

const (
	portMin = 1024
	portMax = 65535
)

// Config holds all environment-based configuration for tandem.
type Config struct {
	// Role decides the transport rendezvous side: "listener" or "scanner".
	Role string `env:"SYNC_ROLE" envDefault:"listener"`

	// ProjectPath is the absolute path of the project this instance has
	// open. Both sides must agree (prefix match) during the handshake.
	ProjectPath string `env:"PROJECT_PATH"`

	// IDEType and IDEName identify this instance in the handshake.
	IDEType string `env:"IDE_TYPE" envDefault:"tandem"`
	IDEName string `env:"IDE_NAME" envDefault:"tandem dev"`

	// Family selects the path normalization style and the source tag
	// stamped on outbound editor states: "A" or "B".
	Family string `env:"IDE_FAMILY" envDefault:"A"`

	// Port policy. When UseCustomPort is true the transport tries
	// CustomPort first and falls back to the automatic 3000-4000 scan.
	UseCustomPort bool `env:"USE_CUSTOM_PORT" envDefault:"false"`
	CustomPort    int  `env:"CUSTOM_PORT" envDefault:"3000"`

	// AutoStartSync enables auto-reconnect as soon as the core starts.
	AutoStartSync bool `env:"AUTO_START_SYNC" envDefault:"false"`

	// Environment controls log format.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing local setup to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Resolve ProjectPath to an absolute path at startup. The handshake
	// path match and workspace reconciliation both compare against it,
	// and prefix comparison only works reliably with absolute paths.
	absPath, err := filepath.Abs(cfg.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("resolving project path: %w", err)
	}
	cfg.ProjectPath = absPath

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ProjectPath == "" {
		return fmt.Errorf("PROJECT_PATH is required")
	}

	if c.Role != RoleListener && c.Role != RoleScanner {
		return fmt.Errorf("SYNC_ROLE must be %q or %q, got %q", RoleListener, RoleScanner, c.Role)
	}

	if c.Family != FamilyA && c.Family != FamilyB {
		return fmt.Errorf("IDE_FAMILY must be %q or %q, got %q", FamilyA, FamilyB, c.Family)
	}

	if c.UseCustomPort && (c.CustomPort < portMin || c.CustomPort > portMax) {
		return fmt.Errorf("CUSTOM_PORT must be in [%d, %d], got %d", portMin, portMax, c.CustomPort)
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
