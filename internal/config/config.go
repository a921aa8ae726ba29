package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

type fileConfig struct {
	OpenRouterBaseURL  string              `yaml:"openrouter_base_url"`
	GeminiBaseURL      string              `yaml:"gemini_base_url"`
	GeminiModel        string              `yaml:"gemini_model"`
	GeminiPrefillModel string              `yaml:"gemini_prefill_model"`
	Presets            map[string][]string `yaml:"presets"`
	DefaultPreset      string              `yaml:"default_preset"`
	NumTurns           *int                `yaml:"num_turns"`
	Topic              string              `yaml:"topic"`
	VoteMode           string              `yaml:"vote_mode"`
	Judge              string              `yaml:"judge"`
	HumanVotes         *bool               `yaml:"human_votes"`
	ExcludeHumanVote   *bool               `yaml:"exclude_human_vote"`
	ExcludeSentinels   *bool               `yaml:"exclude_sentinels"`
	ExcludeSelfVotes   *bool               `yaml:"exclude_self_votes"`
	ExcludeHumanTarget *bool               `yaml:"exclude_human_target"`
	ShuffleOrder       *bool               `yaml:"shuffle_order"`
	LabelPrefix        string              `yaml:"label_prefix"`
	PromptsDir         string              `yaml:"prompts_dir"`
	StoragePath        string              `yaml:"storage_path"`
	RequestTimeout     string              `yaml:"request_timeout"`
	LLMMaxRetries      *int                `yaml:"llm_max_retries"`
	MaxTokens          int                 `yaml:"max_tokens"`
	LogLevel           string              `yaml:"log_level"`
	LogFormat          string              `yaml:"log_format"`
	HTTPAddr           string              `yaml:"http_addr"`
}

type Config struct {
	OpenRouterAPIKey   string
	OpenRouterBaseURL  string
	GeminiAPIKey       string
	GeminiBaseURL      string
	GeminiModel        string
	GeminiPrefillModel string
	Presets            map[string][]string
	DefaultPreset      string
	NumTurns           int
	Topic              string
	VoteMode           string
	Judge              string
	HumanVotes         bool
	ExcludeHumanVote   bool
	ExcludeSentinels   bool
	ExcludeSelfVotes   bool
	ExcludeHumanTarget bool
	ShuffleOrder       bool
	LabelPrefix        string
	PromptsDir         string
	StoragePath        string
	RequestTimeout     time.Duration
	LLMMaxRetries      int
	MaxTokens          int
	LogLevel           string
	LogFormat          string
	HTTPAddr           string
}

// Load reads defaults, then the YAML file at configPath if it exists, then .env
// and the process environment.
func Load(configPath string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	cfg := defaultConfig()
	if strings.TrimSpace(configPath) != "" {
		if err := applyYAMLConfig(&cfg, configPath); err != nil {
			return Config{}, err
		}
	}
	applyEnvOverrides(&cfg)
	if err := normalizeAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultConfig() Config {
	cwd, _ := os.Getwd()
	return Config{
		OpenRouterBaseURL:  "https://openrouter.ai/api/v1",
		GeminiBaseURL:      "https://generativelanguage.googleapis.com",
		GeminiModel:        "gemini-3-flash-preview",
		GeminiPrefillModel: "gemini-3-pro-preview",
		DefaultPreset:      "cheap",
		NumTurns:           3,
		VoteMode:           "peer",
		Judge:              "gemini-prefill",
		LabelPrefix:        "Actor",
		StoragePath:        filepath.Join(cwd, "data", "imitgame.db"),
		RequestTimeout:     180 * time.Second,
		LLMMaxRetries:      2,
		MaxTokens:          512,
		LogLevel:           "info",
		LogFormat:          "console",
		HTTPAddr:           ":8090",
	}
}

func applyYAMLConfig(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse yaml config: %w", err)
	}
	setString(&cfg.OpenRouterBaseURL, fc.OpenRouterBaseURL)
	setString(&cfg.GeminiBaseURL, fc.GeminiBaseURL)
	setString(&cfg.GeminiModel, fc.GeminiModel)
	setString(&cfg.GeminiPrefillModel, fc.GeminiPrefillModel)
	if len(fc.Presets) > 0 {
		cfg.Presets = make(map[string][]string, len(fc.Presets))
		for name, specs := range fc.Presets {
			cfg.Presets[name] = append([]string(nil), specs...)
		}
	}
	setString(&cfg.DefaultPreset, fc.DefaultPreset)
	if fc.NumTurns != nil {
		cfg.NumTurns = *fc.NumTurns
	}
	setString(&cfg.Topic, fc.Topic)
	setString(&cfg.VoteMode, fc.VoteMode)
	setString(&cfg.Judge, fc.Judge)
	setBool(&cfg.HumanVotes, fc.HumanVotes)
	setBool(&cfg.ExcludeHumanVote, fc.ExcludeHumanVote)
	setBool(&cfg.ExcludeSentinels, fc.ExcludeSentinels)
	setBool(&cfg.ExcludeSelfVotes, fc.ExcludeSelfVotes)
	setBool(&cfg.ExcludeHumanTarget, fc.ExcludeHumanTarget)
	setBool(&cfg.ShuffleOrder, fc.ShuffleOrder)
	setString(&cfg.LabelPrefix, fc.LabelPrefix)
	setString(&cfg.PromptsDir, fc.PromptsDir)
	setString(&cfg.StoragePath, fc.StoragePath)
	if v := strings.TrimSpace(fc.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid request_timeout in yaml: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if fc.LLMMaxRetries != nil {
		cfg.LLMMaxRetries = *fc.LLMMaxRetries
	}
	if fc.MaxTokens > 0 {
		cfg.MaxTokens = fc.MaxTokens
	}
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.OpenRouterAPIKey, os.Getenv("OPENROUTER_API_KEY"))
	setString(&cfg.OpenRouterBaseURL, os.Getenv("OPENROUTER_BASE_URL"))
	setString(&cfg.GeminiAPIKey, os.Getenv("GEMINI_API_KEY"))
	setString(&cfg.GeminiAPIKey, os.Getenv("GOOGLE_API_KEY"))
	setString(&cfg.GeminiBaseURL, os.Getenv("GEMINI_BASE_URL"))
	if v := strings.TrimSpace(os.Getenv("IMITGAME_NUM_TURNS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.NumTurns = n
		}
	}
	setString(&cfg.VoteMode, os.Getenv("IMITGAME_VOTE_MODE"))
	setString(&cfg.StoragePath, os.Getenv("IMITGAME_STORAGE_PATH"))
	setString(&cfg.LogLevel, os.Getenv("IMITGAME_LOG_LEVEL"))
	setString(&cfg.LogFormat, os.Getenv("IMITGAME_LOG_FORMAT"))
	setString(&cfg.HTTPAddr, os.Getenv("IMITGAME_HTTP_ADDR"))
	if v := strings.TrimSpace(strings.ToLower(os.Getenv("IMITGAME_SHUFFLE"))); v != "" {
		cfg.ShuffleOrder = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("LLM_MAX_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.LLMMaxRetries = n
		}
	}
}

func normalizeAndValidate(cfg *Config) error {
	if cfg.NumTurns < 0 {
		return fmt.Errorf("num_turns must not be negative, got %d", cfg.NumTurns)
	}
	cfg.VoteMode = strings.ToLower(strings.TrimSpace(cfg.VoteMode))
	switch cfg.VoteMode {
	case "":
		cfg.VoteMode = "peer"
	case "peer", "judge":
	default:
		return fmt.Errorf("vote_mode must be peer or judge, got %q", cfg.VoteMode)
	}
	if cfg.VoteMode == "judge" && strings.TrimSpace(cfg.Judge) == "" {
		return errors.New("judge is required when vote_mode=judge")
	}
	for name, specs := range cfg.Presets {
		specs = normalizeStringList(specs)
		if len(specs) == 0 {
			return fmt.Errorf("preset %q has no models", name)
		}
		cfg.Presets[name] = specs
	}
	if strings.TrimSpace(cfg.LabelPrefix) == "" {
		cfg.LabelPrefix = "Actor"
	}
	cfg.LabelPrefix = strings.TrimSpace(cfg.LabelPrefix)

	if strings.TrimSpace(cfg.StoragePath) == "" {
		cwd, _ := os.Getwd()
		cfg.StoragePath = filepath.Join(cwd, "data", "imitgame.db")
	}
	absStorage, err := filepath.Abs(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("resolve storage_path: %w", err)
	}
	cfg.StoragePath = absStorage
	if v := strings.TrimSpace(cfg.PromptsDir); v != "" {
		abs, err := filepath.Abs(v)
		if err != nil {
			return fmt.Errorf("resolve prompts_dir: %w", err)
		}
		cfg.PromptsDir = abs
	}

	if cfg.LLMMaxRetries < 0 {
		cfg.LLMMaxRetries = 0
	}
	if cfg.LLMMaxRetries > 6 {
		cfg.LLMMaxRetries = 6
	}
	if cfg.RequestTimeout < 0 {
		cfg.RequestTimeout = 0
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch cfg.LogFormat {
	case "", "console":
		cfg.LogFormat = "console"
	case "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", cfg.LogFormat)
	}
	return nil
}

// EnsureStorageDir creates the directory holding the history database.
func (c Config) EnsureStorageDir() error {
	if err := os.MkdirAll(filepath.Dir(c.StoragePath), 0o755); err != nil {
		return fmt.Errorf("ensure storage dir: %w", err)
	}
	return nil
}

// loadDotEnv sets variables from path that are not already in the environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func truthy(v string) bool {
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func normalizeStringList(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, item := range in {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		// "human" may only appear once in a preset; model ids may repeat.
		if item == "human" {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
		}
		out = append(out, item)
	}
	return out
}
