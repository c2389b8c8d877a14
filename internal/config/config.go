package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

// Storage backends.
const (
	StorageMemory    = "memory"
	StorageRTDB      = "rtdb"
	StorageFirestore = "firestore"
	StorageSQLite    = "sqlite"
)

// LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

type Config struct {
	Mode Mode `yaml:"mode"`

	Port string `yaml:"port"`

	StorageBackend string        `yaml:"storage_backend"` // memory, rtdb, firestore or sqlite
	RTDBURL        string        `yaml:"rtdb_url"`
	RTDBAuth       string        `yaml:"rtdb_auth"`
	StoreTimeout   time.Duration `yaml:"store_timeout"` // 0 = no timeout
	SQLitePath     string        `yaml:"sqlite_path"`
	StateFile      string        `yaml:"state_file"`

	GCPProjectID string `yaml:"gcp_project"`
	GCPLocation  string `yaml:"gcp_location"`

	LLMProvider   string `yaml:"llm_provider"` // gemini, openai or mock
	UseMockLLM    bool   `yaml:"use_mock_llm"` // true = use mock even on GCP
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	ModelName     string `yaml:"model_name"`
	TTSModel      string `yaml:"tts_model"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`

	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
	logLevel string
}

// fileConfig is the YAML file layout; the log level stays a string there.
type fileConfig struct {
	Config   `yaml:",inline"`
	LogLevel string `yaml:"log_level"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	dir := stateDir()
	return &Config{
		Mode:           ModeLocal,
		Port:           "8080",
		StorageBackend: StorageMemory,
		RTDBURL:        "http://localhost:9000",
		SQLitePath:     filepath.Join(dir, "englishmaster.db"),
		StateFile:      filepath.Join(dir, "state.yaml"),
		GCPLocation:    "us-central1",
		LLMProvider:    ProviderGemini,
		ModelName:      "gemini-2.5-flash",
		TTSModel:       "gemini-2.5-flash-preview-tts",
		OpenAIModel:    "gpt-4o-mini",
		LogFile:        filepath.Join(os.TempDir(), "englishmaster.log"),
		LogLevel:       slog.LevelInfo,
		logLevel:       "INFO",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

// Load builds the config from defaults, the optional YAML file and then
// ENGLISHMASTER_* env vars. Env wins over the file.
func Load() (*Config, error) {
	cfg := Defaults()

	path := getEnv("ENGLISHMASTER_CONFIG", "")
	explicit := path != ""
	if !explicit {
		path = filepath.Join(stateDir(), "config.yaml")
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	fc := fileConfig{Config: *c}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	*c = fc.Config

	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	return nil
}

func (c *Config) applyEnv() error {
	if getEnv("ENGLISHMASTER_MODE", string(c.Mode)) == string(ModeGCP) {
		c.Mode = ModeGCP
	} else {
		c.Mode = ModeLocal
	}

	c.Port = getEnv("ENGLISHMASTER_PORT", getEnv("PORT", c.Port))

	c.StorageBackend = strings.ToLower(getEnv("ENGLISHMASTER_STORAGE_BACKEND", c.StorageBackend))
	c.RTDBURL = getEnv("ENGLISHMASTER_RTDB_URL", c.RTDBURL)
	c.RTDBAuth = getEnv("ENGLISHMASTER_RTDB_AUTH", c.RTDBAuth)
	c.SQLitePath = getEnv("ENGLISHMASTER_SQLITE_PATH", c.SQLitePath)
	c.StateFile = getEnv("ENGLISHMASTER_STATE_FILE", c.StateFile)
	if v := os.Getenv("ENGLISHMASTER_STORE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ENGLISHMASTER_STORE_TIMEOUT %q: %w", v, err)
		}
		c.StoreTimeout = d
	}

	c.GCPProjectID = getEnv("ENGLISHMASTER_GCP_PROJECT", c.GCPProjectID)
	c.GCPLocation = getEnv("ENGLISHMASTER_GCP_LOCATION", c.GCPLocation)

	c.LLMProvider = strings.ToLower(getEnv("ENGLISHMASTER_LLM_PROVIDER", c.LLMProvider))
	c.GeminiAPIKey = getEnv("ENGLISHMASTER_GEMINI_API_KEY", getEnv("GEMINI_API_KEY", c.GeminiAPIKey))
	c.ModelName = getEnv("ENGLISHMASTER_MODEL_NAME", c.ModelName)
	c.TTSModel = getEnv("ENGLISHMASTER_TTS_MODEL", c.TTSModel)
	c.OpenAIAPIKey = getEnv("ENGLISHMASTER_OPENAI_API_KEY", getEnv("OPENAI_API_KEY", c.OpenAIAPIKey))
	c.OpenAIBaseURL = getEnv("ENGLISHMASTER_OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIModel = getEnv("ENGLISHMASTER_OPENAI_MODEL", c.OpenAIModel)
	// Local mode without credentials falls back to the mock, like dev setups expect.
	c.UseMockLLM = getBoolEnv("ENGLISHMASTER_USE_MOCK_LLM",
		c.UseMockLLM || (c.Mode == ModeLocal && !c.hasLLMCredentials()))

	c.LogFile = getEnv("ENGLISHMASTER_LOG_FILE", c.LogFile)
	c.logLevel = getEnv("ENGLISHMASTER_LOG_LEVEL", c.logLevel)
	c.LogLevel = parseLogLevel(c.logLevel)

	if c.UseMockLLM {
		c.LLMProvider = ProviderMock
	}
	return nil
}

// Validate checks the settings each backend needs.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageSQLite:
	case StorageRTDB:
		if c.RTDBURL == "" {
			return fmt.Errorf("ENGLISHMASTER_RTDB_URL must be set for the rtdb backend")
		}
	case StorageFirestore:
		if c.GCPProjectID == "" {
			return fmt.Errorf("ENGLISHMASTER_GCP_PROJECT must be set for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	switch c.LLMProvider {
	case ProviderMock:
	case ProviderGemini:
		if c.GeminiAPIKey == "" && c.GCPProjectID == "" {
			return fmt.Errorf("gemini needs ENGLISHMASTER_GEMINI_API_KEY or ENGLISHMASTER_GCP_PROJECT")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("ENGLISHMASTER_OPENAI_API_KEY must be set for the openai provider")
		}
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLMProvider)
	}

	// Minimal validation in GCP mode
	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		return fmt.Errorf("ENGLISHMASTER_GCP_PROJECT must be set in gcp mode")
	}
	return nil
}

func (c *Config) hasLLMCredentials() bool {
	switch c.LLMProvider {
	case ProviderGemini:
		return c.GeminiAPIKey != "" || c.GCPProjectID != ""
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	case ProviderMock:
		return false
	default:
		return true
	}
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "englishmaster")
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
