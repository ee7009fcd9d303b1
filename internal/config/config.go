package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	ListenAddr   string        `yaml:"listen_addr"`
	LogLevel     string        `yaml:"log_level"`
	LogJSON      bool          `yaml:"log_json"`
	DefaultRelay string        `yaml:"default_relay"`
	ExtraRelays  []string      `yaml:"extra_relays"`
	QueryTimeout time.Duration `yaml:"query_timeout"` // per relay query/publish deadline
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	JwtTTL       time.Duration `yaml:"jwt_ttl"`
	StorePath    string        `yaml:"store_path"` // sqlite file for sessions and preferences
	MaxItemChars int           `yaml:"max_item_chars"`
	TemplateDir  string        `yaml:"template_dir"`
	StaticDir    string        `yaml:"static_dir"`
}

type Private struct {
	JwtKey      string `yaml:"jwt_key"`
	StoreSecret string `yaml:"store_secret"` // seals secret keys at rest
}

// implementing service config interfaces

func (s *Config) JwtKey() string {
	return s.private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

func (s *Config) StoreSecret() string {
	return s.private.StoreSecret
}

// Relays returns the configured bootstrap relay set, default first.
// The live AdminConfig event can extend this at runtime.
func (s *Config) Relays() []string {
	if s.Public.DefaultRelay == "" {
		return s.Public.ExtraRelays
	}
	return append([]string{s.Public.DefaultRelay}, s.Public.ExtraRelays...)
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)

	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.applyDefaults()
	return cfg
}

func (s *Config) applyDefaults() {
	if s.Public.ListenAddr == "" {
		s.Public.ListenAddr = ":8080"
	}
	if s.Public.QueryTimeout == 0 {
		s.Public.QueryTimeout = 5 * time.Second
	}
	if s.Public.CacheTTL == 0 {
		s.Public.CacheTTL = 30 * time.Second
	}
	if s.Public.JwtTTL == 0 {
		s.Public.JwtTTL = 30 * 24 * time.Hour
	}
	if s.Public.MaxItemChars == 0 {
		s.Public.MaxItemChars = 2000
	}
	if s.Public.StorePath == "" {
		s.Public.StorePath = "kep.db"
	}
	if s.Public.TemplateDir == "" {
		s.Public.TemplateDir = "web/templates"
	}
	if s.Public.StaticDir == "" {
		s.Public.StaticDir = "web/static"
	}
}
