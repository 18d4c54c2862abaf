package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"APP_ENV" env-default:"local"`
	Location string         `yaml:"location" env:"APP_LOCATION" env-default:"UTC"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	WebRTC   WebRTCConfig   `yaml:"webrtc"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Sessions SessionsConfig `yaml:"sessions"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Relay    RelayConfig    `yaml:"relay"`
	Kafka    KafkaConfig    `yaml:"kafka"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS"`
}

// DatabaseConfig selects the store. An empty DSN runs on the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER" env-default:"skillswap"`
}

type WebRTCConfig struct {
	STUNServers []string `yaml:"stun_servers"`
}

type LedgerConfig struct {
	PlatformFeeRate float64 `yaml:"platform_fee_rate" env:"PLATFORM_FEE_RATE" env-default:"0.1"`
	EscrowAccount   string  `yaml:"escrow_account" env:"ESCROW_ACCOUNT"`
	PlatformAccount string  `yaml:"platform_account" env:"PLATFORM_ACCOUNT"`
}

type SessionsConfig struct {
	JoinLeadTime time.Duration `yaml:"join_lead_time" env-default:"5m"`
	NoShowGrace  time.Duration `yaml:"no_show_grace" env-default:"30m"`
	OverrunGrace time.Duration `yaml:"overrun_grace" env-default:"15m"`
}

type SweeperConfig struct {
	Interval time.Duration `yaml:"interval" env-default:"1m"`
}

type RelayConfig struct {
	SendBuffer   int           `yaml:"send_buffer" env-default:"32"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
	PongTimeout  time.Duration `yaml:"pong_timeout" env-default:"60s"`
}

// KafkaConfig enables the Kafka notification sink when Brokers is set.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"skillswap.notifications"`
}

const (
	defaultEscrowAccount   = "00000000-0000-0000-0000-00000000e5c0"
	defaultPlatformAccount = "00000000-0000-0000-0000-0000000000fe"
)

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

// TimeLocation resolves Location, falling back to UTC.
func (c *Config) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if len(c.WebRTC.STUNServers) == 0 {
		c.WebRTC.STUNServers = []string{"stun:stun.l.google.com:19302"}
	}
	if c.Ledger.PlatformFeeRate < 0 || c.Ledger.PlatformFeeRate >= 1 {
		c.Ledger.PlatformFeeRate = 0.1
	}
	if c.Ledger.EscrowAccount == "" {
		c.Ledger.EscrowAccount = defaultEscrowAccount
	}
	if c.Ledger.PlatformAccount == "" {
		c.Ledger.PlatformAccount = defaultPlatformAccount
	}
	if c.Sweeper.Interval <= 0 {
		c.Sweeper.Interval = time.Minute
	}
	if c.Relay.SendBuffer <= 0 {
		c.Relay.SendBuffer = 32
	}
	if c.Relay.WriteTimeout <= 0 {
		c.Relay.WriteTimeout = 10 * time.Second
	}
	if c.Relay.PongTimeout <= 0 {
		c.Relay.PongTimeout = 60 * time.Second
	}
}
