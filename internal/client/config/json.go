package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/notex/internal/flagx"
	"github.com/dmitrijs2005/notex/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	ServerURL           string         `json:"server_url"`
	ProbePath           string         `json:"probe_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	ProbeTimeout        timex.Duration `json:"probe_timeout"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	CachePath           string         `json:"cache_path"`
	LogLevel            string         `json:"log_level"`
	LogFormat           string         `json:"log_format"`
}

// parseJson overlays cfg with the JSON file named by -c/-config in args.
// Keys missing from the file keep their current values.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	jc := JsonConfig{
		ServerURL:           cfg.ServerURL,
		ProbePath:           cfg.ProbePath,
		OnlineCheckInterval: timex.Duration{Duration: cfg.OnlineCheckInterval},
		ProbeTimeout:        timex.Duration{Duration: cfg.ProbeTimeout},
		RequestTimeout:      timex.Duration{Duration: cfg.RequestTimeout},
		CachePath:           cfg.CachePath,
		LogLevel:            cfg.LogLevel,
		LogFormat:           cfg.LogFormat,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	cfg.ServerURL = jc.ServerURL
	cfg.ProbePath = jc.ProbePath
	cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	cfg.ProbeTimeout = jc.ProbeTimeout.Duration
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	cfg.CachePath = jc.CachePath
	cfg.LogLevel = jc.LogLevel
	cfg.LogFormat = jc.LogFormat
	return nil
}
