// Package config resolves everything a run needs into one value that is
// passed explicitly to the components.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/bcgov/mmti-sync/pkg/sources/mem"
)

const (
	DefaultStoreURI = "mongodb://localhost:27017/mmti-dev"
	DefaultTimeout  = 30 * time.Second
)

// Config is the resolved run configuration.
type Config struct {
	StoreURI string

	SourceBaseURL string
	SessionID     string
	UserAgent     string
	// HTTPTimeout applies to each request.
	HTTPTimeout time.Duration
	Retries     int

	ProjectCode string
	Concurrency int
	DryRun      bool
	RunTimeout  time.Duration
	FailOnError bool
	CodeMapFile string
	MetricsFile string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		StoreURI:      DefaultStoreURI,
		SourceBaseURL: mem.DefaultBaseURL,
		UserAgent:     mem.DefaultUserAgent,
		HTTPTimeout:   DefaultTimeout,
	}
}

// MongoURI builds the connection string of the legacy positional form.
func MongoURI(username, password, host, database string) string {
	u := url.URL{
		Scheme: "mongodb",
		User:   url.UserPassword(username, password),
		Host:   host + ":27017",
		Path:   "/" + database,
	}
	return u.String()
}

// Positional holds the values of the legacy positional arguments:
//
//	[username password host database [sessionId [projectCode]]]
//
// With fewer than four arguments the default store is used and the
// arguments are read as [sessionId [projectCode]].
type Positional struct {
	StoreURI    string
	SessionID   string
	ProjectCode string
}

// FromArgs parses the legacy positional arguments.
func FromArgs(args []string) (Positional, error) {
	var p Positional
	if len(args) < 4 {
		p.StoreURI = DefaultStoreURI
		if len(args) > 0 {
			p.SessionID = args[0]
		}
		if len(args) > 1 {
			p.ProjectCode = args[1]
		}
		if len(args) > 2 {
			return p, fmt.Errorf("unexpected argument %q: pass username password host database to select a store", args[2])
		}
		return p, nil
	}
	if len(args) > 6 {
		return p, fmt.Errorf("too many arguments (%d)", len(args))
	}
	p.StoreURI = MongoURI(args[0], args[1], args[2], args[3])
	if len(args) > 4 {
		p.SessionID = args[4]
	}
	if len(args) > 5 {
		p.ProjectCode = args[5]
	}
	return p, nil
}

// Apply overlays positional values that were given onto c. Flags set
// explicitly on the command line win, so callers pass only the positional
// values that were not overridden.
func (c *Config) Apply(p Positional) {
	if p.StoreURI != "" {
		c.StoreURI = p.StoreURI
	}
	if p.SessionID != "" {
		c.SessionID = p.SessionID
	}
	if p.ProjectCode != "" {
		c.ProjectCode = p.ProjectCode
	}
}

// Validate reports settings a sync run cannot start with.
func (c Config) Validate() error {
	if c.StoreURI == "" {
		return fmt.Errorf("no store configured")
	}
	if c.SourceBaseURL == "" {
		return fmt.Errorf("no source base URL configured")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	return nil
}
