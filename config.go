package irc

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the resolved, validated set of connection and runtime settings
// loaded from a JSON document. Field names mirror the dotted config keys
// the framework has always used.
type Config struct {
	Nick     string
	User     string
	RealName string

	Host       string
	Port       int
	UseSSL     bool
	Password   string
	BindAddr   string

	Channels []string
	Modes    string

	NickServ         bool
	NickServPassword string

	WorkersSize int

	Extensions         []string
	ExtensionBlacklist []string

	// HandshakeDelaySeconds is an optional pause between PASS/NICK/USER
	// lines, in case a network is sensitive to them arriving back to
	// back. Zero (the default) preserves the original's behavior of
	// sending all three immediately.
	HandshakeDelaySeconds int
}

// requiredKeys are the dotted paths LoadConfig insists are present.
var requiredKeys = []string{
	"identity.nick",
	"identity.user",
	"server.host",
	"server.port",
}

// LoadConfig reads a JSON configuration document from path using viper and
// validates that the required keys are present, returning a ConfigError
// listing anything missing.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("server.use_ssl", false)
	v.SetDefault("workers_size", defaultWorkers)
	v.SetDefault("nickserv", false)
	v.SetDefault("modes", "+wpsC")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("irc: reading config %s: %w", path, err)
	}

	var missing []string
	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, MissingKeys: missing}
	}

	cfg := &Config{
		Nick:                  v.GetString("identity.nick"),
		User:                  v.GetString("identity.user"),
		RealName:              v.GetString("identity.real_name"),
		Host:                  v.GetString("server.host"),
		Port:                  v.GetInt("server.port"),
		UseSSL:                v.GetBool("server.use_ssl"),
		Password:              v.GetString("server.password"),
		BindAddr:              v.GetString("bind_addr"),
		Channels:              v.GetStringSlice("channels"),
		Modes:                 v.GetString("modes"),
		NickServ:              v.GetBool("nickserv"),
		NickServPassword:      v.GetString("nickserv_password"),
		WorkersSize:           v.GetInt("workers_size"),
		Extensions:            v.GetStringSlice("extension"),
		ExtensionBlacklist:    v.GetStringSlice("extension_blacklist"),
		HandshakeDelaySeconds: v.GetInt("handshake_delay"),
	}
	return cfg, nil
}

// Addr returns the "host:port" form used by NetWorker.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ConfigError reports missing required configuration keys. It is always
// fatal: the program cannot reasonably guess defaults for identity or
// server connection settings.
type ConfigError struct {
	Path        string
	MissingKeys []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("irc: config %s missing required keys: %v", e.Path, e.MissingKeys)
}
