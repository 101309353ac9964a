package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills gaps with defaults and checks the rest.
// The returned config is the one that should be saved/applied.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation
	def := Default()

	if strings.TrimSpace(out.Scraper.UserAgent) == "" {
		out.Scraper.UserAgent = def.Scraper.UserAgent
	}
	if out.Scraper.HostReqPerSec <= 0 {
		out.Scraper.HostReqPerSec = def.Scraper.HostReqPerSec
	}
	if out.Scraper.HostBurst <= 0 {
		out.Scraper.HostBurst = def.Scraper.HostBurst
	}
	if strings.TrimSpace(out.Secrets.TokenAccount) == "" {
		out.Secrets.TokenAccount = def.Secrets.TokenAccount
	}

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Scraper.FetchTimeoutSeconds <= 0 {
		res.addErr("scraper.fetch_timeout_seconds must be > 0")
	}
	if out.Scraper.PoliteDelaySeconds < 0 {
		res.addErr("scraper.polite_delay_seconds must be >= 0")
	} else if out.Scraper.PoliteDelaySeconds == 0 {
		res.addWarn("scraper.polite_delay_seconds is 0; sources will be hit back to back")
	}
	if out.Scraper.StaleAfterDays <= 0 {
		res.addErr("scraper.stale_after_days must be > 0")
	}

	if out.Scheduler.TickMinutes <= 0 {
		res.addErr("scheduler.tick_minutes must be > 0")
	} else if out.Scheduler.TickMinutes < 5 {
		res.addWarn("scheduler.tick_minutes is very low (%d); due checks this frequent rarely help", out.Scheduler.TickMinutes)
	}

	checkCron := func(name, spec string) {
		if strings.TrimSpace(spec) == "" {
			res.addErr("%s is required", name)
			return
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			res.addErr("%s is not a valid cron spec: %v", name, err)
		}
	}
	checkCron("scheduler.inactivity_sweep_cron", out.Scheduler.InactivitySweepCron)
	checkCron("scheduler.duplicate_sweep_cron", out.Scheduler.DuplicateSweepCron)

	return out, res
}
