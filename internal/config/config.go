package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Everything is read from the environment so the same image runs in the
// cluster and in docker-compose. A local .env file is loaded first when
// present and never overrides variables that are already set.

const devJWTSecret = "yuraqwasi-dev-secret"

type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBMaxConns int    `mapstructure:"DB_MAX_CONNS"`

	ServerPort string `mapstructure:"SERVER_PORT"`
	IsLocalDev bool   `mapstructure:"IS_LOCAL_DEV"`

	AWSRegion             string `mapstructure:"AWS_REGION"`
	AWSEndpoint           string `mapstructure:"AWS_ENDPOINT"`
	AttendanceSQSQueueURL string `mapstructure:"ATTENDANCE_SQS_QUEUE_URL"`
	EmailSender           string `mapstructure:"EMAIL_SENDER"`

	JWTSecret  string        `mapstructure:"JWT_SECRET"`
	JWTTTL     time.Duration `mapstructure:"JWT_TTL"`
	BcryptCost int           `mapstructure:"BCRYPT_COST"`

	RecaptchaSecret string `mapstructure:"RECAPTCHA_SECRET"`
	RecaptchaURL    string `mapstructure:"RECAPTCHA_URL"`

	GeocoderURL       string `mapstructure:"GEOCODER_URL"`
	GeocoderUserAgent string `mapstructure:"GEOCODER_USER_AGENT"`

	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	OTLPEndpoint       string   `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	LoginMaxFailures int           `mapstructure:"LOGIN_MAX_FAILURES"`
	LoginLockout     time.Duration `mapstructure:"LOGIN_LOCKOUT"`

	ReportTimezone string `mapstructure:"REPORT_TIMEZONE"`

	AdminName     string `mapstructure:"ADMIN_NAME"`
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

// LoadConfig reads configuration from an optional .env file and environment variables.
func LoadConfig() (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "attendance_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("SERVER_PORT", "4000")
	v.SetDefault("IS_LOCAL_DEV", true)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("ATTENDANCE_SQS_QUEUE_URL", "http://localstack:4566/000000000000/attendance-queue")
	v.SetDefault("EMAIL_SENDER", "asistencias@yuraqwasi.pe")
	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_TTL", "8h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("RECAPTCHA_SECRET", "")
	v.SetDefault("RECAPTCHA_URL", "https://www.google.com/recaptcha/api/siteverify")
	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_USER_AGENT", "yuraqwasi-attendance/1.0")
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("LOGIN_MAX_FAILURES", 3)
	v.SetDefault("LOGIN_LOCKOUT", "5m")
	v.SetDefault("REPORT_TIMEZONE", "America/Lima")
	v.SetDefault("ADMIN_NAME", "Administrador")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("config: unmarshal: %w", err)
	}
	err = config.Validate()
	return
}

// Validate rejects settings the services cannot start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if !c.IsLocalDev && c.JWTSecret == devJWTSecret {
		return errors.New("config: JWT_SECRET must be changed outside local development")
	}
	if c.JWTTTL <= 0 {
		return errors.New("config: JWT_TTL must be positive")
	}
	if c.LoginMaxFailures <= 0 || c.LoginLockout <= 0 {
		return errors.New("config: LOGIN_MAX_FAILURES and LOGIN_LOCKOUT must be positive")
	}
	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		return fmt.Errorf("config: REPORT_TIMEZONE: %w", err)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("config: ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// DSN returns the postgres connection URL for pgx.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// Location returns the time zone reports are rendered in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
