// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package config defines the server's configuration surface, loaded via
// github.com/USA-RedDragon/configulator from a config file, environment
// variables, and CLI flags (in that order of increasing precedence).
package config

import "fmt"

// Config is the root configuration object. configulator.New[Config]()
// populates it from defaults, a config file (-c/--config), and flags.
type Config struct {
	Server      Server              `yaml:"server"`
	Redis       Redis               `yaml:"redis"`
	Database    Database            `yaml:"database"`
	Propagation Propagation         `yaml:"hf_propagation"`
	Channels    []ChannelSeed       `yaml:"channels"`
	ACL         []ACLSeed           `yaml:"acl"`
	Metadata    []MetadataFieldSeed `yaml:"metadata_fields"`
	Metrics     Metrics             `yaml:"metrics"`
	PProf       PProf               `yaml:"pprof"`
	Admin       Admin               `yaml:"admin"`
	SMTP        SMTP                `yaml:"smtp"`
	LogLevel    LogLevel            `yaml:"log_level" default:"info"`
	StatsDir    string              `yaml:"stats_dir" default:"./user-stats"`
	DatabaseDSN string              `yaml:"-"` // overrides Database's DSN when non-empty; no command-line flag sets it
}

// Server holds the connection-layer defaults described in spec §6.
type Server struct {
	ListenAddress string `yaml:"listen_address" default:""`
	ControlPort   int    `yaml:"port" default:"64738"`
	VoicePort     int    `yaml:"voice_port" default:"0"` // 0 = same as ControlPort
	Timeout       int    `yaml:"timeout" default:"30"`
	MaxUsers      int    `yaml:"users" default:"100"`
	Bandwidth     int    `yaml:"bandwidth" default:"72000"`
	WelcomeText   string `yaml:"welcometext" default:"Welcome to IonoVox"`
	AutoRegister  bool   `yaml:"autoregister" default:"true"`

	// BreachCheckAPIKey, when set, enables screening registration
	// passwords against the HaveIBeenPwned breach corpus.
	BreachCheckAPIKey string `yaml:"breach_check_api_key" default:""`

	// TLSCertFile/TLSKeyFile name a PEM certificate and key the control
	// listener terminates TLS with (spec §4.1: "terminate encrypted
	// control connections"). When either is empty the server generates an
	// ephemeral self-signed certificate at startup instead.
	TLSCertFile string `yaml:"tls_cert_file" default:""`
	TLSKeyFile  string `yaml:"tls_key_file" default:""`
}

// EffectiveVoicePort returns VoicePort if set, else ControlPort (UDP bound
// to the same port as TCP by default, per spec §6).
func (s Server) EffectiveVoicePort() int {
	if s.VoicePort == 0 {
		return s.ControlPort
	}
	return s.VoicePort
}

// Redis configures the backing store used for pubsub.PubSub when Enabled;
// otherwise it falls back to an in-process implementation.
type Redis struct {
	Enabled  bool   `yaml:"enabled" default:"false"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password" default:""`
}

func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DatabaseDriver enumerates the supported SQL backends for the external
// store (spec §4.5).
type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
)

// Addr returns the "host:port" form of the database address, used by
// drivers that build their own connection string.
func (d Database) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

type Database struct {
	Driver   DatabaseDriver `yaml:"driver" default:"sqlite"`
	Host     string         `yaml:"host" default:""`
	Port     int            `yaml:"port" default:"0"`
	Database string         `yaml:"database" default:"ionovox.db"`
	Username string         `yaml:"username" default:""`
	Password string         `yaml:"password" default:""`
}

// Propagation is a direct translation of spec.md §6 [hf_propagation].
type Propagation struct {
	Enabled         bool `yaml:"enabled" default:"true"`
	UseExternalData bool `yaml:"use_external_data" default:"false"`
	UseDXViewData   bool `yaml:"use_dxview_data" default:"false"`
	UseSWPCData     bool `yaml:"use_swpc_data" default:"false"`
	SolarFluxIndex  int  `yaml:"solar_flux_index" default:"120"`
	KIndex          int  `yaml:"k_index" default:"2"`
	AutoSeason      bool `yaml:"auto_season" default:"true"`
	Season          int  `yaml:"season" default:"0"`
	UpdateInterval  int  `yaml:"update_interval" default:"15"` // minutes
}

// ChannelSeed is one [channels]/[channel_description]/[channel_links] entry.
type ChannelSeed struct {
	ID          uint     `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	ParentID    uint     `yaml:"parent_id"`
	Links       []uint   `yaml:"links"`
	Position    int      `yaml:"position"`
	Bands       []string `yaml:"bands"`
}

// ACLSeed is one `[acl]` line: "<channel>=<principal>:±perm,...".
type ACLSeed struct {
	ChannelID uint   `yaml:"channel_id"`
	Principal string `yaml:"principal"`
	Allow     string `yaml:"allow"`
	Deny      string `yaml:"deny"`
}

// MetadataFieldSeed is one `[metadata_fields]` tag -> type entry.
type MetadataFieldSeed struct {
	Tag  string `yaml:"tag"`
	Type string `yaml:"type"`
}

type Metrics struct {
	Enabled      bool   `yaml:"enabled" default:"true"`
	BindAddress  string `yaml:"bind_address" default:"0.0.0.0"`
	Port         int    `yaml:"port" default:"9100"`
	OTLPEndpoint string `yaml:"otlp_endpoint" default:""`
}

type PProf struct {
	Enabled     bool   `yaml:"enabled" default:"false"`
	BindAddress string `yaml:"bind_address" default:"127.0.0.1"`
	Port        int    `yaml:"port" default:"6060"`
}

// Admin configures the small control-plane HTTP API (channel tree, roster,
// bans, propagation snapshot, stats upload landing, admin websocket push).
type Admin struct {
	Enabled     bool   `yaml:"enabled" default:"false"`
	BindAddress string `yaml:"bind_address" default:"127.0.0.1"`
	Port        int    `yaml:"port" default:"8080"`
	// Secret signs the admin API's session cookies. Required whenever
	// Enabled is true.
	Secret string `yaml:"secret" default:""`
}

type SMTPAuthMethod string

const (
	SMTPAuthMethodPlain SMTPAuthMethod = "plain"
	SMTPAuthMethodLogin SMTPAuthMethod = "login"
	SMTPAuthMethodNone  SMTPAuthMethod = "none"
)

type SMTPTLS string

const (
	SMTPTLSNone     SMTPTLS = "none"
	SMTPTLSStartTLS SMTPTLS = "starttls"
	SMTPTLSImplicit SMTPTLS = "implicit"
)

type SMTP struct {
	Enabled    bool           `yaml:"enabled" default:"false"`
	Host       string         `yaml:"host" default:""`
	Port       int            `yaml:"port" default:"587"`
	AuthMethod SMTPAuthMethod `yaml:"auth_method" default:"none"`
	TLS        SMTPTLS        `yaml:"tls" default:"starttls"`
	From       string         `yaml:"from" default:""`
	Username   string         `yaml:"username" default:""`
	Password   string         `yaml:"password" default:""`
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
