package core

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env             string        `mapstructure:"env"`
		Debug           bool          `mapstructure:"debug"`
		TestMode        bool          `mapstructure:"test_mode"`
		AppName         string        `mapstructure:"app_name"`
		SecretKey       string        `mapstructure:"secret_key"`
		FrontendBaseURL string        `mapstructure:"frontend_base_url"`
		UnsubTokenTTL   time.Duration `mapstructure:"unsub_token_ttl"`
		DefaultFrom     string        `mapstructure:"default_from_email"`
		RollbarToken    string        `mapstructure:"rollbar_token"`

		Server   ServerConfig   `mapstructure:"server"`
		Database DatabaseConfig `mapstructure:"db"`
		Email    EmailConfig    `mapstructure:"email"`
		SMS      SMSConfig      `mapstructure:"sms"`
		Batch    BatchConfig    `mapstructure:"batch"`
	}

	ServerConfig struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	}

	DatabaseConfig struct {
		Engine     string `mapstructure:"engine"`
		Host       string `mapstructure:"host"`
		Port       int    `mapstructure:"port"`
		Name       string `mapstructure:"name"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		DisableTLS bool   `mapstructure:"disable_tls"`
	}

	// SMTPConfig holds the credentials of one outbound mail route.
	SMTPConfig struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		UseTLS   bool   `mapstructure:"use_tls"`
	}

	EmailConfig struct {
		Default        SMTPConfig `mapstructure:"default"`
		Relay          SMTPConfig `mapstructure:"relay"`
		SendgridAPIKey string     `mapstructure:"sendgrid_api_key"`
	}

	SMSConfig struct {
		AccountSID string `mapstructure:"account_sid"`
		AuthToken  string `mapstructure:"auth_token"`
		From       string `mapstructure:"from"`
		APIBase    string `mapstructure:"api_base"`
	}

	BatchConfig struct {
		Size       int           `mapstructure:"size"`
		ChunkSize  int           `mapstructure:"chunk_size"`
		BatchDelay time.Duration `mapstructure:"delay"`
	}
)

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultFromEmail parses Config.DefaultFrom into a mail.Address; falls back
// to the raw string as address when it is not RFC 5322.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.DefaultFrom)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.DefaultFrom}
	}
	return *addr
}

// NewConfig loads configuration from defaults, an optional .env file and
// environment variables (env wins). Priority: env > .env > defaults.
func NewConfig() (*Config, error) {
	v := viper.New()

	// credential keys default empty so AutomaticEnv can bind them; viper only
	// unmarshals keys it knows about
	v.SetDefault("secret_key", "")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("email.default.host", "")
	v.SetDefault("email.default.username", "")
	v.SetDefault("email.default.password", "")
	v.SetDefault("email.relay.host", "")
	v.SetDefault("email.relay.username", "")
	v.SetDefault("email.relay.password", "")
	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("sms.account_sid", "")
	v.SetDefault("sms.auth_token", "")
	v.SetDefault("sms.from", "")

	v.SetDefault("env", "DEV")
	v.SetDefault("debug", true)
	v.SetDefault("test_mode", false)
	v.SetDefault("app_name", "DisciplineRift")
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("unsub_token_ttl", 30*24*time.Hour)
	v.SetDefault("default_from_email", "noreply@localhost")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", 20*time.Second)

	v.SetDefault("db.engine", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "disciplinerift")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.disable_tls", true)

	v.SetDefault("email.default.port", 587)
	v.SetDefault("email.default.use_tls", true)
	v.SetDefault("email.relay.port", 587)
	v.SetDefault("email.relay.use_tls", true)

	v.SetDefault("sms.api_base", "https://api.twilio.com/2010-04-01")

	v.SetDefault("batch.size", 50)
	v.SetDefault("batch.chunk_size", 10)
	v.SetDefault("batch.delay", 2*time.Second)

	// load .env if it exists (ignore if it does not)
	if dotEnvPath := filepath.Join("config", ".env"); fileExists(dotEnvPath) {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	}

	v.SetEnvPrefix("DR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// validate enforces startup-time fatal conditions; anything caught here must
// never surface as a per-call error later.
func (c *Config) validate() error {
	if len(c.SecretKey) < 32 {
		return errors.New("config: secret_key must be at least 32 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Batch.Size <= 0 || c.Batch.ChunkSize <= 0 {
		return errors.New("config: batch.size and batch.chunk_size must be positive")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
