package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/soderasen-au/go-common/util"
	"gopkg.in/yaml.v3"

	"github.com/soderasen-au/go-sheetmerge/artifact"
	"github.com/soderasen-au/go-sheetmerge/layout"
	"github.com/soderasen-au/go-sheetmerge/report"
	"github.com/soderasen-au/go-sheetmerge/session"
)

const (
	ENV_HOST   = "SHEETMERGE_HOST"
	ENV_PORT   = "SHEETMERGE_PORT"
	ENV_OUTPUT = "SHEETMERGE_OUTPUT"

	DEFAULT_HOST          = "127.0.0.1"
	DEFAULT_PORT          = 8501
	DEFAULT_BODY_LIMIT_MB = 200
	DEFAULT_SESSION_TTL   = 120
	DEFAULT_LINK_TTL      = 60
	DEFAULT_LOG_FOLDER    = "logs"
	DEFAULT_AUDIT_FILE    = "audit.csv"
	DEFAULT_LOGO_PATH     = "path/logo.jpg"
)

type SystemConfig struct {
	LogFolder    string `json:"log_folder" yaml:"log_folder" toml:"log_folder"`
	OutputFolder string `json:"output_folder" yaml:"output_folder" toml:"output_folder"`
	AuditFile    string `json:"audit_file" yaml:"audit_file" toml:"audit_file"`
	Debug        bool   `json:"debug" yaml:"debug" toml:"debug"`
}

type ServerConfig struct {
	Host             string `json:"host" yaml:"host" toml:"host"`
	Port             int    `json:"port" yaml:"port" toml:"port"`
	BodyLimitMB      int    `json:"body_limit_mb" yaml:"body_limit_mb" toml:"body_limit_mb"`
	SessionTTLMinute int    `json:"session_ttl_minutes" yaml:"session_ttl_minutes" toml:"session_ttl_minutes"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c ServerConfig) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

func (c ServerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinute) * time.Minute
}

type ReportConfig struct {
	LogoPath string              `json:"logo_path" yaml:"logo_path" toml:"logo_path"`
	Colors   report.HeaderColors `json:"colors" yaml:"colors" toml:"colors"`
	Layout   layout.Options      `json:"layout" yaml:"layout" toml:"layout"`
	Defaults report.Params       `json:"defaults" yaml:"defaults" toml:"defaults"`
}

func (c ReportConfig) PdfConfig() report.PdfConfig {
	return report.PdfConfig{LogoPath: c.LogoPath, Colors: c.Colors, Options: c.Layout}
}

type SessionConfig struct {
	FilterColumn string `json:"filter_column" yaml:"filter_column" toml:"filter_column"`
}

type ArtifactsConfig struct {
	SigningKey     string `json:"signing_key" yaml:"signing_key" toml:"signing_key"`
	LinkTTLMinutes int    `json:"link_ttl_minutes" yaml:"link_ttl_minutes" toml:"link_ttl_minutes"`
	BaseURL        string `json:"base_url" yaml:"base_url" toml:"base_url"`
}

func (c ArtifactsConfig) LinkTTL() time.Duration {
	return time.Duration(c.LinkTTLMinutes) * time.Minute
}

type Config struct {
	System    SystemConfig    `json:"system" yaml:"system" toml:"system"`
	Server    ServerConfig    `json:"server" yaml:"server" toml:"server"`
	Report    ReportConfig    `json:"report" yaml:"report" toml:"report"`
	Session   SessionConfig   `json:"session" yaml:"session" toml:"session"`
	Artifacts ArtifactsConfig `json:"artifacts" yaml:"artifacts" toml:"artifacts"`
}

func Defaults() *Config {
	c := &Config{}
	c.MaybeDefault()
	return c
}

// MaybeDefault fills every unset value.
func (c *Config) MaybeDefault() {
	if c.System.LogFolder == "" {
		c.System.LogFolder = DEFAULT_LOG_FOLDER
	}
	if c.System.OutputFolder == "" {
		c.System.OutputFolder = artifact.DEFAULT_ROOT
	}
	if c.System.AuditFile == "" {
		c.System.AuditFile = filepath.Join(c.System.LogFolder, DEFAULT_AUDIT_FILE)
	}
	if c.Server.Host == "" {
		c.Server.Host = DEFAULT_HOST
	}
	if c.Server.Port == 0 {
		c.Server.Port = DEFAULT_PORT
	}
	if c.Server.BodyLimitMB == 0 {
		c.Server.BodyLimitMB = DEFAULT_BODY_LIMIT_MB
	}
	if c.Server.SessionTTLMinute == 0 {
		c.Server.SessionTTLMinute = DEFAULT_SESSION_TTL
	}
	if c.Report.LogoPath == "" {
		c.Report.LogoPath = DEFAULT_LOGO_PATH
	}
	colors := report.DefaultHeaderColors()
	if c.Report.Colors.Fill == "" {
		c.Report.Colors.Fill = colors.Fill
	}
	if c.Report.Colors.Dark == "" {
		c.Report.Colors.Dark = colors.Dark
	}
	c.Report.Layout.MaybeDefault()
	if c.Report.Defaults.Confidential == "" {
		c.Report.Defaults.Confidential = report.DEFAULT_CONFIDENTIAL
	}
	c.Report.Defaults.MaybeDefault(report.DefaultParams())
	if c.Session.FilterColumn == "" {
		c.Session.FilterColumn = session.DEFAULT_FILTER_COLUMN
	}
	if c.Artifacts.LinkTTLMinutes == 0 {
		c.Artifacts.LinkTTLMinutes = DEFAULT_LINK_TTL
	}
}

// ApplyEnv overrides host, port and output folder from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) *util.Result {
	if v, ok := lookup(ENV_HOST); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup(ENV_PORT); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return util.Error(ENV_PORT, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(ENV_OUTPUT); ok && v != "" {
		c.System.OutputFolder = v
	}
	return nil
}

func (c *Config) Validate() *util.Result {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return util.MsgError("Validate", fmt.Sprintf("invalid port %d", c.Server.Port))
	}
	if c.Server.BodyLimitMB < 1 {
		return util.MsgError("Validate", "body_limit_mb must be positive")
	}
	if c.Server.SessionTTLMinute < 1 || c.Artifacts.LinkTTLMinutes < 1 {
		return util.MsgError("Validate", "ttl values must be positive")
	}
	d := c.Report.Defaults
	if d.RowsPerPage < 1 || d.FontSize < report.MIN_FONT_SIZE {
		return util.MsgError("Validate", "report defaults: rows_per_page must be >= 1 and font_size >= 0.1")
	}
	for _, color := range []string{c.Report.Colors.Fill, c.Report.Colors.Dark} {
		if _, res := report.NewARGBFromColor(color); res != nil {
			return res.With("Validate")
		}
	}
	return nil
}

// Load reads a yaml or toml file, chosen by extension. An empty path gives
// the defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, *util.Result) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, util.Error("ReadFile", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err = yaml.Unmarshal(data, c); err != nil {
				return nil, util.Error("yaml.Unmarshal", err)
			}
		case ".toml":
			if _, err = toml.Decode(string(data), c); err != nil {
				return nil, util.Error("toml.Decode", err)
			}
		default:
			return nil, util.MsgError("Load", fmt.Sprintf("unsupported config file type '%s'", filepath.Ext(path)))
		}
	}

	if res := c.ApplyEnv(os.LookupEnv); res != nil {
		return nil, res.With("ApplyEnv")
	}
	c.MaybeDefault()
	if res := c.Validate(); res != nil {
		return nil, res
	}
	return c, nil
}
