// Package connect opens a PostgreSQL connection by trying an ordered list of
// authentication methods and collecting the error of every failed attempt.
//
// Basic usage:
//
//	c := connect.New(connect.Config{Host: "localhost", User: "postgres", Database: "app"})
//	db, method, err := c.Connect(ctx)
//	var connErr *connect.Error
//	if errors.As(err, &connErr) {
//	    for _, a := range connErr.Attempts {
//	        fmt.Println(a)
//	    }
//	}
package connect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/lib/pq"              // registers the "postgres" driver
	"go.uber.org/zap"
)

// ErrNoConnection is matched by every *Error returned from Connect.
var ErrNoConnection = errors.New("no connection method succeeded")

// Method is one authentication strategy.
type Method int

const (
	// PasswordAuth connects over TCP with the configured password.
	PasswordAuth Method = iota
	// TrustAuth connects over the local unix socket without a password,
	// relying on peer or trust authentication.
	TrustAuth
	// EmptyPasswordAuth connects over TCP with an explicit empty password.
	EmptyPasswordAuth
)

// DefaultMethods is the order in which Connect tries the strategies.
var DefaultMethods = []Method{PasswordAuth, TrustAuth, EmptyPasswordAuth}

func (m Method) String() string {
	switch m {
	case PasswordAuth:
		return "Password authentication"
	case TrustAuth:
		return "Peer authentication"
	case EmptyPasswordAuth:
		return "No password authentication"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Attempt records one failed strategy.
type Attempt struct {
	Method Method
	Err    error
}

func (a Attempt) String() string {
	return fmt.Sprintf("%s failed: %v", a.Method, a.Err)
}

// Error is returned when every strategy failed. Attempts are in try order.
type Error struct {
	Attempts []Attempt
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", ErrNoConnection, strings.Join(e.Messages(), "; "))
}

// Is makes errors.Is(err, ErrNoConnection) hold.
func (e *Error) Is(target error) bool {
	return target == ErrNoConnection
}

// Messages returns the attempt descriptions in try order.
func (e *Error) Messages() []string {
	msgs := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		msgs = append(msgs, a.String())
	}
	return msgs
}

// Opener opens and verifies a database handle for one DSN.
type Opener func(ctx context.Context, driver, dsn string) (*sql.DB, error)

// Connector tries authentication methods in order.
type Connector struct {
	config  Config
	methods []Method
	open    Opener
	logger  *zap.Logger
}

// Option configures a Connector.
type Option func(*Connector)

// WithMethods overrides DefaultMethods.
func WithMethods(methods ...Method) Option {
	return func(c *Connector) {
		c.methods = methods
	}
}

// WithOpener replaces the sql.Open + Ping opener, mostly for tests.
func WithOpener(open Opener) Option {
	return func(c *Connector) {
		if open != nil {
			c.open = open
		}
	}
}

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Connector. Zero fields in cfg get PostgreSQL defaults.
func New(cfg Config, opts ...Option) *Connector {
	c := &Connector{
		config:  cfg.withDefaults(),
		methods: DefaultMethods,
		open:    openAndPing,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Connector) Config() Config {
	return c.config
}

// DSN returns the connection string used for method m.
func (c *Connector) DSN(m Method) string {
	cfg := c.config
	port := strconv.Itoa(cfg.Port)

	var pairs [][2]string
	switch m {
	case TrustAuth:
		pairs = [][2]string{
			{"host", cfg.SocketDir},
			{"port", port},
			{"user", cfg.User},
			{"dbname", cfg.Database},
		}
	case EmptyPasswordAuth:
		pairs = [][2]string{
			{"host", cfg.Host},
			{"port", port},
			{"user", cfg.User},
			{"dbname", cfg.Database},
			{"password", ""},
			{"sslmode", cfg.SSLMode},
		}
	default:
		pairs = [][2]string{
			{"host", cfg.Host},
			{"port", port},
			{"user", cfg.User},
			{"dbname", cfg.Database},
			{"password", cfg.Password},
			{"sslmode", cfg.SSLMode},
		}
	}

	if cfg.ConnectTimeout > 0 {
		secs := int(cfg.ConnectTimeout.Seconds())
		if secs < 1 {
			secs = 1
		}
		pairs = append(pairs, [2]string{"connect_timeout", strconv.Itoa(secs)})
	}

	return keywordDSN(pairs)
}

// Connect returns the first handle that opens and answers a ping. If every
// method fails the error is an *Error listing all attempts.
func (c *Connector) Connect(ctx context.Context) (*sql.DB, Method, error) {
	var attempts []Attempt

	for _, m := range c.methods {
		db, err := c.open(ctx, c.config.Driver, c.DSN(m))
		if err == nil {
			c.logger.Debug("connected",
				zap.String("method", m.String()),
				zap.String("database", c.config.Database),
				zap.Int("failed_attempts", len(attempts)))
			return db, m, nil
		}

		c.logger.Debug("connection attempt failed",
			zap.String("method", m.String()),
			zap.Error(err))
		attempts = append(attempts, Attempt{Method: m, Err: err})
	}

	return nil, 0, &Error{Attempts: attempts}
}

func openAndPing(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
