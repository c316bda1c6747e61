package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/microscopium/signup/internal/signup/service"
)

const (
	defaultEmailSubject = "Your image server login details"
	defaultEmailBody    = "Your login details for the image server are:\n\n" +
		"username: {username}\n" +
		"password: {password}\n"
)

type Config struct {
	ServerHost   string // Required: hostname of the image data server
	ServerPort   int    // Optional: admin API port (default: 4064)
	ServerSecure bool   // Optional: use TLS for the admin API (default: true)

	AdminUsername string // Required: admin account used for provisioning
	AdminPassword string // Required: admin account password

	GroupName      string // Required: group for new accounts, may contain time layout tokens
	GroupPerms     string // Optional: permissions for a created group (default: rw----)
	GroupTemplated bool   // Optional: expand time layout tokens in GroupName (default: false)

	EmailEnabled bool   // Optional: email credentials instead of showing them (default: false)
	EmailSubject string // Optional: credential email subject
	EmailBody    string // Optional: credential email body, {username}/{password} placeholders

	HelpMessage string // Optional: extra HTML shown under the signup form

	DatabaseFile         string        // Optional: SQLite file for the nonce store (default: in-memory)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired nonce sweep interval (default: 1h)
	NonceTTL             time.Duration // How long an unsubmitted form stays valid (default: 1h)
}

func LoadConfig() Config {
	return Config{
		ServerHost:   os.Getenv("SIGNUP_SERVER_HOST"),
		ServerPort:   getEnvIntOrDefault("SIGNUP_SERVER_PORT", 4064),
		ServerSecure: getEnvBoolOrDefault("SIGNUP_SERVER_SECURE", true),

		AdminUsername: os.Getenv("SIGNUP_ADMIN_USERNAME"),
		AdminPassword: os.Getenv("SIGNUP_ADMIN_PASSWORD"),

		GroupName:      os.Getenv("SIGNUP_GROUP_NAME"),
		GroupPerms:     getEnvOrDefault("SIGNUP_GROUP_PERMS", "rw----"),
		GroupTemplated: getEnvBoolOrDefault("SIGNUP_GROUP_NAME_TEMPLATETIME", false),

		EmailEnabled: getEnvBoolOrDefault("SIGNUP_EMAIL_ENABLED", false),
		EmailSubject: getEnvOrDefault("SIGNUP_EMAIL_SUBJECT", defaultEmailSubject),
		EmailBody:    getEnvOrDefault("SIGNUP_EMAIL_BODY", defaultEmailBody),

		HelpMessage: os.Getenv("SIGNUP_HELP_MESSAGE"),

		DatabaseFile:         getEnvOrDefault("SIGNUP_DATABASE_FILE", ":memory:"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		NonceTTL:             getEnvDurationOrDefault("SIGNUP_NONCE_TTL", service.DefaultNonceTTL),
	}
}

// Validate rejects configurations the service cannot start with. The
// admin credentials and group name have no sensible defaults.
func (c Config) Validate() error {
	if c.ServerHost == "" {
		return errors.New("SIGNUP_SERVER_HOST must be set")
	}
	if c.AdminUsername == "" {
		return errors.New("SIGNUP_ADMIN_USERNAME must be set")
	}
	if c.AdminPassword == "" {
		return errors.New("SIGNUP_ADMIN_PASSWORD must be set")
	}
	if c.GroupName == "" {
		return errors.New("SIGNUP_GROUP_NAME must be set")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
