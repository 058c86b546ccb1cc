package config

import (
	"fmt"
	"math"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Admin    AdminConfig
	Lottery  LotteryConfig
	Rewards  RewardsConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// MongoDBConfig holds MongoDB-specific configuration.
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration.
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// AdminConfig seeds the initial operator account when set.
type AdminConfig struct {
	Email    string
	Password string
}

// LotteryConfig holds the tunables of the pool and draw engine. The
// three distribution shares must sum to 1.0.
type LotteryConfig struct {
	TicketPrice      int
	DailyTicketLimit int
	DailyWinnerCount int
	WinnersShare     float64
	JackpotShare     float64
	PlatformFee      float64
}

// RewardsConfig is the point-award table.
type RewardsConfig struct {
	DailyLogin         int
	WeeklyStreak       int
	Referral           int
	FirstPurchase      int
	TicketPurchaseRate int // GEM per ticket unit
}

// Load loads configuration from config files and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; environment variables and defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Lottery.TicketPrice <= 0 {
		return fmt.Errorf("lottery.ticketprice must be positive, got %d", c.Lottery.TicketPrice)
	}
	if c.Lottery.DailyTicketLimit <= 0 {
		return fmt.Errorf("lottery.dailyticketlimit must be positive, got %d", c.Lottery.DailyTicketLimit)
	}
	if c.Lottery.DailyWinnerCount <= 0 {
		return fmt.Errorf("lottery.dailywinnercount must be positive, got %d", c.Lottery.DailyWinnerCount)
	}
	sum := c.Lottery.WinnersShare + c.Lottery.JackpotShare + c.Lottery.PlatformFee
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("lottery distribution shares must sum to 1.0, got %.4f", sum)
	}
	return nil
}

// setDefaults sets default values for configuration.
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedOrigins", []string{"http://localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "carvfi")
	viper.SetDefault("JWT.Secret", "change-me")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("LogLevel", "info")

	viper.SetDefault("Lottery.TicketPrice", 1000)
	viper.SetDefault("Lottery.DailyTicketLimit", 10)
	viper.SetDefault("Lottery.DailyWinnerCount", 5)
	viper.SetDefault("Lottery.WinnersShare", 0.60)
	viper.SetDefault("Lottery.JackpotShare", 0.30)
	viper.SetDefault("Lottery.PlatformFee", 0.10)

	viper.SetDefault("Rewards.DailyLogin", 10)
	viper.SetDefault("Rewards.WeeklyStreak", 50)
	viper.SetDefault("Rewards.Referral", 200)
	viper.SetDefault("Rewards.FirstPurchase", 500)
	viper.SetDefault("Rewards.TicketPurchaseRate", 100)
}

// Default returns a config populated with the built-in defaults, used by
// tests that need the reward table without reading any files.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "4000"},
		JWT:     JWTConfig{Secret: "test-secret", ExpiresIn: 3600},
		Lottery: LotteryConfig{TicketPrice: 1000, DailyTicketLimit: 10, DailyWinnerCount: 5, WinnersShare: 0.60, JackpotShare: 0.30, PlatformFee: 0.10},
		Rewards: RewardsConfig{DailyLogin: 10, WeeklyStreak: 50, Referral: 200, FirstPurchase: 500, TicketPurchaseRate: 100},
	}
}
