package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"brickfolio/listing-portal/listing-portal-backend/internal/ledger/stellar"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Auth       AuthConfig       `json:"auth"`
	Platform   PlatformConfig   `json:"platform"`
	Stellar    StellarConfig    `json:"stellar"`
	Logging    LoggingConfig    `json:"logging"`
	Monitoring MonitoringConfig `json:"monitoring"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// AuthConfig holds token-minting settings.
type AuthConfig struct {
	JWTSecret string        `json:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// PlatformConfig seeds the in-memory ledgers at startup.
type PlatformConfig struct {
	AdminAddress       string `json:"admin_address"`
	FundingTokenName   string `json:"funding_token_name"`
	FundingTokenSymbol string `json:"funding_token_symbol"`
	FundingTokenSupply uint64 `json:"funding_token_supply"`
}

// StellarConfig controls the optional on-chain issuance mirror.
type StellarConfig struct {
	Enabled bool           `json:"enabled"`
	Client  stellar.Config `json:"client"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// MonitoringConfig
type MonitoringConfig struct {
	SnapshotCron string `json:"snapshot_cron"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    os.Getenv("USER"),
			DBName:  "brickfolio_portal",
			SSLMode: "disable",
		},
		Auth: AuthConfig{
			JWTSecret: "dev-secret",
			TokenTTL:  24 * time.Hour,
		},
		Platform: PlatformConfig{
			AdminAddress:       "0xadmin",
			FundingTokenName:   "Brickfolio Dollar",
			FundingTokenSymbol: "BUSD",
			FundingTokenSupply: 1_000_000_000_000,
		},
		Monitoring: MonitoringConfig{
			SnapshotCron: "@every 5m",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if admin := os.Getenv("PLATFORM_ADMIN_ADDRESS"); admin != "" {
		config.Platform.AdminAddress = admin
	}
	if key := os.Getenv("STELLAR_ISSUER_SECRET_KEY"); key != "" {
		config.Stellar.Client.IssuerSecretKey = key
		config.Stellar.Enabled = true
	}
	if horizon := os.Getenv("STELLAR_HORIZON_URL"); horizon != "" {
		config.Stellar.Client.HorizonURL = horizon
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
