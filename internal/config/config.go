// Package config loads the server settings from the environment and the
// calendar options from a YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Runtime holds the process settings, read from PLANBOARD_* variables.
type Runtime struct {
	Port        string
	DBPath      string
	LogLevel    string
	LogFormat   string
	BaseURL     string
	Calendar    string
	OptionsFile string
	Locale      string
	TimeZone    string
	RefreshCron string
	// WriteLimit caps drag and drop and options writes per client and
	// minute. 0 disables it.
	WriteLimit int
	// Origins lists the hosts allowed to open the live refresh socket from
	// another origin.
	Origins []string
}

func Load() (Runtime, error) {
	v := viper.New()
	v.SetEnvPrefix("PLANBOARD")
	v.AutomaticEnv()

	for _, key := range []string{"port", "db_path", "log_level", "log_format", "base_url", "calendar",
		"options_file", "locale", "timezone", "refresh_cron", "write_limit", "origins"} {
		_ = v.BindEnv(key)
	}

	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "planboard.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("base_url", "")
	v.SetDefault("calendar", "planboard")
	v.SetDefault("options_file", "planboard.yaml")
	v.SetDefault("locale", "cs")
	v.SetDefault("timezone", "Europe/Prague")
	v.SetDefault("refresh_cron", "*/15 * * * *")
	v.SetDefault("write_limit", 60)
	v.SetDefault("origins", "")

	rt := Runtime{
		Port:        strings.TrimSpace(v.GetString("port")),
		DBPath:      strings.TrimSpace(v.GetString("db_path")),
		LogLevel:    strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat:   strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
		BaseURL:     strings.TrimRight(strings.TrimSpace(v.GetString("base_url")), "/"),
		Calendar:    strings.TrimSpace(v.GetString("calendar")),
		OptionsFile: strings.TrimSpace(v.GetString("options_file")),
		Locale:      strings.TrimSpace(v.GetString("locale")),
		TimeZone:    strings.TrimSpace(v.GetString("timezone")),
		RefreshCron: strings.TrimSpace(v.GetString("refresh_cron")),
		WriteLimit:  v.GetInt("write_limit"),
	}
	for _, o := range strings.Split(v.GetString("origins"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			rt.Origins = append(rt.Origins, o)
		}
	}

	if rt.Calendar == "" {
		return Runtime{}, fmt.Errorf("PLANBOARD_CALENDAR must not be empty")
	}
	if rt.DBPath == "" {
		return Runtime{}, fmt.Errorf("PLANBOARD_DB_PATH must not be empty")
	}
	if rt.WriteLimit < 0 {
		return Runtime{}, fmt.Errorf("PLANBOARD_WRITE_LIMIT must not be negative, got %d", rt.WriteLimit)
	}
	switch rt.LogFormat {
	case "text", "json":
	default:
		return Runtime{}, fmt.Errorf("PLANBOARD_LOG_FORMAT must be text or json, got %q", rt.LogFormat)
	}
	return rt, nil
}
