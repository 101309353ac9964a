package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Scraper struct {
		FetchTimeoutSeconds int     `yaml:"fetch_timeout_seconds" json:"fetch_timeout_seconds"`
		UserAgent           string  `yaml:"user_agent" json:"user_agent"`
		PoliteDelaySeconds  int     `yaml:"polite_delay_seconds" json:"polite_delay_seconds"`
		StaleAfterDays      int     `yaml:"stale_after_days" json:"stale_after_days"`
		HostReqPerSec       float64 `yaml:"host_req_per_sec" json:"host_req_per_sec"`
		HostBurst           int     `yaml:"host_burst" json:"host_burst"`
	} `yaml:"scraper" json:"scraper"`

	Scheduler struct {
		TickMinutes         int    `yaml:"tick_minutes" json:"tick_minutes"`
		InactivitySweepCron string `yaml:"inactivity_sweep_cron" json:"inactivity_sweep_cron"`
		DuplicateSweepCron  string `yaml:"duplicate_sweep_cron" json:"duplicate_sweep_cron"`
	} `yaml:"scheduler" json:"scheduler"`

	Secrets struct {
		TokenAccount string `yaml:"token_account" json:"token_account"`
	} `yaml:"secrets" json:"secrets"`
}

func Default() Config {
	var cfg Config
	cfg.App.Port = 38471
	cfg.App.DataDir = "."
	cfg.Scraper.FetchTimeoutSeconds = 30
	cfg.Scraper.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	cfg.Scraper.PoliteDelaySeconds = 5
	cfg.Scraper.StaleAfterDays = 30
	cfg.Scraper.HostReqPerSec = 1
	cfg.Scraper.HostBurst = 1
	cfg.Scheduler.TickMinutes = 30
	cfg.Scheduler.InactivitySweepCron = "0 3 * * *"
	cfg.Scheduler.DuplicateSweepCron = "0 4 * * SUN"
	cfg.Secrets.TokenAccount = "admin"
	return cfg
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scraper.FetchTimeoutSeconds) * time.Second
}

func (c Config) PoliteDelay() time.Duration {
	return time.Duration(c.Scraper.PoliteDelaySeconds) * time.Second
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Scheduler.TickMinutes) * time.Minute
}

func (c Config) StaleAfter() time.Duration {
	return time.Duration(c.Scraper.StaleAfterDays) * 24 * time.Hour
}
