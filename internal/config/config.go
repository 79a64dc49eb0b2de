package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-yaml/yaml"

	"github.com/nesafe/yatri"
)

type Config struct {
	Issuer Issuer `yaml:"issuer"`
	Server Server `yaml:"server"`
}

type Issuer struct {
	Network       string `yaml:"network"`       // label reported in digital ids
	IDPrefix      string `yaml:"idPrefix"`      // e.g. NE
	VerifyBaseURL string `yaml:"verifyBaseUrl"` // public base for credential verify links
	ConfirmDelay  string `yaml:"confirmDelay"`  // simulated ledger confirmation, e.g. 2s
	IssueTimeout  string `yaml:"issueTimeout"`  // upper bound on a single issuance

	// ---
	ConfirmDelayDuration time.Duration
	IssueTimeoutDuration time.Duration
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}
	if config.Issuer.Network == "" {
		config.Issuer.Network = "Polygon"
	}
	if config.Issuer.IDPrefix == "" {
		config.Issuer.IDPrefix = yatri.DefaultIDPrefix
	}

	config.Issuer.ConfirmDelayDuration, err = parseDuration(config.Issuer.ConfirmDelay, 2*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid confirmDelay: %v", err)
	}
	config.Issuer.IssueTimeoutDuration, err = parseDuration(config.Issuer.IssueTimeout, 5*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid issueTimeout: %v", err)
	}

	return config, nil
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}
