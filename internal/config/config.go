package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	EndpointBase  string        // metadata service root, e.g. http://localhost:5002/api
	Targets       []string      // probed in this order
	ProbeDelay    time.Duration // pause between probes
	TrailingDelay bool          // also pause after the last probe
	HTTPTimeout   time.Duration // 0 leaves the transport default
	RetryAttempts int           // 1 = single attempt
	RetryBackoff  time.Duration
	Precheck      bool // GET {base}/health before probing
	AutoRun       bool
	Verbose       bool
	NoColor       bool
	ReportPath    string // JSON report file; empty disables

	LogDir      string
	Addr        string // API bind address
	DatabaseURL string // empty means in-memory store

	PublicAPIKeys  []string
	AdminAPIKeys   []string
	PublicRPM      int
	PublicBurst    int
	AdminRPM       int
	AdminBurst     int
	AllowedOrigins []string

	RunInterval     time.Duration // 0 disables the scheduler
	SlackWebhook    string
	AlertOnRecovery bool
	AlertCooldown   time.Duration
	AlertPoll       time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

// DefaultTargets are the URLs the metadata service is expected to handle.
var DefaultTargets = []string{
	"https://x.com/gdb",
	"https://www.reddit.com/r/RCB/comments/1kwuj95/we_kohlified_into_qualifier1/",
	"https://www.youtube.com/watch?v=xgmTC0YqCho",
	"https://github.com/Paranjayy/my-notes-public",
	"https://paranjayy.github.io/my-notes-public/Markdown-Tips-and-Tricks",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint_base", "http://localhost:5002/api")
	v.SetDefault("targets", DefaultTargets)
	v.SetDefault("probe_delay_ms", "1000")
	v.SetDefault("probe_trailing_delay", false)
	v.SetDefault("http_timeout_ms", "0")
	v.SetDefault("retry_attempts", "1")
	v.SetDefault("retry_backoff_ms", "300")
	v.SetDefault("probe_precheck", true)
	v.SetDefault("probe_auto_run", false)
	v.SetDefault("probe_verbose", false)
	v.SetDefault("no_color", false)
	v.SetDefault("report_path", "")

	v.SetDefault("log_dir", "logs")
	v.SetDefault("api_addr", "127.0.0.1:8080")
	v.SetDefault("database_url", "")

	v.SetDefault("public_api_keys", "")
	v.SetDefault("admin_api_keys", "")
	v.SetDefault("public_rpm", "120")
	v.SetDefault("public_burst", "60")
	v.SetDefault("admin_rpm", "30")
	v.SetDefault("admin_burst", "10")
	v.SetDefault("allowed_origins", "")

	v.SetDefault("run_interval_ms", "0")
	v.SetDefault("slack_webhook_url", "")
	v.SetDefault("alert_on_recovery", true)
	v.SetDefault("alert_cooldown_ms", "600000")
	v.SetDefault("alert_poll_ms", "30000")

	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "metaprobe-runs")
}

// Flags declares the command-line overrides shared by the binaries.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("endpoint", "", "metadata service base URL")
	fs.StringSlice("target", nil, "URL to probe (repeatable)")
	fs.Bool("run", false, "start the probe run")
	fs.BoolP("verbose", "v", false, "print description, domain and markdown link")
	fs.Bool("no-color", false, "disable coloured output")
	fs.String("report", "", "write a JSON report to this path")
	fs.Bool("no-precheck", false, "skip the health check")
	fs.String("config", "", "config file (yaml)")
	return fs
}

var flagKeys = map[string]string{
	"endpoint": "endpoint_base",
	"target":   "targets",
	"run":      "probe_auto_run",
	"verbose":  "probe_verbose",
	"no-color": "no_color",
	"report":   "report_path",
}

// Load merges defaults, an optional yaml file, the environment and flags
// (highest precedence). fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	path := v.GetString("config_file")
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Changed {
			path = f.Value.String()
		}
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("metaprobe")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		EndpointBase:  strings.TrimSpace(v.GetString("endpoint_base")),
		Targets:       list(v, "targets"),
		ProbeDelay:    millis(v, "probe_delay_ms", time.Second, true),
		TrailingDelay: v.GetBool("probe_trailing_delay"),
		HTTPTimeout:   millis(v, "http_timeout_ms", 0, true),
		RetryAttempts: positive(v, "retry_attempts", 1),
		RetryBackoff:  millis(v, "retry_backoff_ms", 300*time.Millisecond, true),
		Precheck:      v.GetBool("probe_precheck"),
		AutoRun:       v.GetBool("probe_auto_run"),
		Verbose:       v.GetBool("probe_verbose"),
		NoColor:       v.GetBool("no_color"),
		ReportPath:    strings.TrimSpace(v.GetString("report_path")),

		LogDir:      v.GetString("log_dir"),
		Addr:        v.GetString("api_addr"),
		DatabaseURL: v.GetString("database_url"),

		PublicAPIKeys:  list(v, "public_api_keys"),
		AdminAPIKeys:   list(v, "admin_api_keys"),
		PublicRPM:      positive(v, "public_rpm", 120),
		PublicBurst:    positive(v, "public_burst", 60),
		AdminRPM:       positive(v, "admin_rpm", 30),
		AdminBurst:     positive(v, "admin_burst", 10),
		AllowedOrigins: list(v, "allowed_origins"),

		RunInterval:     millis(v, "run_interval_ms", 0, true),
		SlackWebhook:    v.GetString("slack_webhook_url"),
		AlertOnRecovery: v.GetBool("alert_on_recovery"),
		AlertCooldown:   millis(v, "alert_cooldown_ms", 10*time.Minute, true),
		AlertPoll:       millis(v, "alert_poll_ms", 30*time.Second, false),

		KafkaBrokers: list(v, "kafka_brokers"),
		KafkaTopic:   v.GetString("kafka_topic"),
	}
	if fs != nil {
		if f := fs.Lookup("no-precheck"); f != nil && f.Changed && f.Value.String() == "true" {
			cfg.Precheck = false
		}
	}
	return cfg, nil
}

// millis reads a millisecond count; unparsable or negative values (and 0
// when allowZero is false) fall back to def.
func millis(v *viper.Viper, key string, def time.Duration, allowZero bool) time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil || ms < 0 || (ms == 0 && !allowZero) {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func positive(v *viper.Viper, key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// list accepts either a comma-separated string (env) or a yaml sequence.
func list(v *viper.Viper, key string) []string {
	var raw []string
	if s, ok := v.Get(key).(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
