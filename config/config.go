package config

import (
	"log"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	MongoDB   MongoDBConfig   `mapstructure:"mongodb"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // seconds
	Issuer string `mapstructure:"issuer"`
}

type AuthConfig struct {
	// Bcrypt hash of the API key exchanged for a JWT. Empty disables auth.
	APIKeyHash string `mapstructure:"api_key_hash"`
}

type MongoDBConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	Timeout     int    `mapstructure:"timeout"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type ScannerConfig struct {
	DiscoveryWorkers int    `mapstructure:"discovery_workers"`
	PortWorkers      int    `mapstructure:"port_workers"`
	ProbeTimeout     int    `mapstructure:"probe_timeout"` // seconds
	Ports            []int  `mapstructure:"ports"`
	ServicesFile     string `mapstructure:"services_file"`
	ExportDir        string `mapstructure:"export_dir"`
	CacheTTL         int    `mapstructure:"cache_ttl"` // seconds
}

type SchedulerConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Cron    string   `mapstructure:"cron"`
	Targets []string `mapstructure:"targets"`
	Mode    string   `mapstructure:"mode"`
}

var (
	cfg  *Config
	once sync.Once
)

func LoadConfig(path string) *Config {
	once.Do(func() {
		viper.SetConfigFile(path)
		viper.SetConfigType("yaml")

		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("Failed to read config file: %v", err)
		}

		cfg = &Config{}
		if err := viper.Unmarshal(cfg); err != nil {
			log.Fatalf("Failed to unmarshal config: %v", err)
		}
	})

	return cfg
}

func GetConfig() *Config {
	if cfg == nil {
		log.Fatal("Config not loaded. Call LoadConfig first.")
	}
	return cfg
}
