package main

import (
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type config struct {
	port int
	env  string
	db   struct {
		driver             string
		dsn                string
		maxOpenConnections int
		maxIdleConnections int
		maxIdleTime        time.Duration
	}
	jwt struct {
		secret string
		ttl    time.Duration
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	cors struct {
		trustedOrigins []string
	}
}

// envConfig holds the environment defaults that command-line flags override.
type envConfig struct {
	Port               int           `env:"PORT" envDefault:"3000"`
	Env                string        `env:"APP_ENV" envDefault:"development"`
	DBDriver           string        `env:"DB_DRIVER" envDefault:"postgres"`
	DBDSN              string        `env:"DB_DSN"`
	DBMaxOpenConns     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	DBMaxIdleTime      time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"15m"`
	JWTSecret          string        `env:"JWT_SECRET"`
	JWTTTL             time.Duration `env:"JWT_TTL" envDefault:"720h"`
	SMTPHost           string        `env:"SMTP_HOST"`
	SMTPPort           int           `env:"SMTP_PORT" envDefault:"25"`
	SMTPUsername       string        `env:"SMTP_USERNAME"`
	SMTPPassword       string        `env:"SMTP_PASSWORD"`
	SMTPSender         string        `env:"SMTP_SENDER" envDefault:"Task Manager <no-reply@taskmanager.local>"`
	CORSTrustedOrigins []string      `env:"CORS_TRUSTED_ORIGINS" envSeparator:","`
}

// loadDotenv reads .env from the working directory when one exists.
func loadDotenv() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
}

func loadConfig(args []string) (config, error) {
	var cfg config

	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	flags := flag.NewFlagSet("api", flag.ContinueOnError)
	flags.IntVar(&cfg.port, "port", ec.Port, "Server port")
	flags.StringVar(&cfg.env, "env", ec.Env, "Environment [development|production]")

	flags.StringVar(&cfg.db.driver, "db-driver", ec.DBDriver, "Database driver [postgres|sqlite]")
	flags.StringVar(&cfg.db.dsn, "db-dsn", ec.DBDSN, "Database DSN")
	flags.IntVar(&cfg.db.maxOpenConnections, "db-max-open-conns", ec.DBMaxOpenConns, "PostgreSQL max open connections")
	flags.IntVar(&cfg.db.maxIdleConnections, "db-max-idle-conns", ec.DBMaxIdleConns, "PostgreSQL max idle connections")
	flags.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", ec.DBMaxIdleTime, "PostgreSQL max connection idle time")

	flags.StringVar(&cfg.jwt.secret, "jwt-secret", ec.JWTSecret, "JWT secret")
	flags.DurationVar(&cfg.jwt.ttl, "jwt-ttl", ec.JWTTTL, "JWT lifetime")

	flags.StringVar(&cfg.smtp.host, "smtp-host", ec.SMTPHost, "SMTP host")
	flags.IntVar(&cfg.smtp.port, "smtp-port", ec.SMTPPort, "SMTP port")
	flags.StringVar(&cfg.smtp.username, "smtp-username", ec.SMTPUsername, "SMTP username")
	flags.StringVar(&cfg.smtp.password, "smtp-password", ec.SMTPPassword, "SMTP password")
	flags.StringVar(&cfg.smtp.sender, "smtp-sender", ec.SMTPSender, "SMTP sender")

	cfg.cors.trustedOrigins = ec.CORSTrustedOrigins
	flags.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(val string) error {
		cfg.cors.trustedOrigins = strings.Fields(val)
		return nil
	})

	if err := flags.Parse(args); err != nil {
		return cfg, err
	}

	switch cfg.db.driver {
	case driverPostgres, driverSQLite:
	default:
		return cfg, fmt.Errorf("invalid db driver %q", cfg.db.driver)
	}
	if cfg.db.dsn == "" {
		return cfg, errors.New("database DSN must be provided")
	}
	if cfg.jwt.ttl <= 0 {
		return cfg, fmt.Errorf("invalid jwt ttl %s", cfg.jwt.ttl)
	}

	if cfg.jwt.secret == "" {
		if cfg.env == "production" {
			return cfg, errors.New("jwt secret must be provided in production")
		}
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return cfg, err
		}
		cfg.jwt.secret = string(secret)
		log.Println("no jwt secret configured, using a random one; tokens will not survive a restart")
	}

	return cfg, nil
}
