package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Server holds HTTP listener settings.
type Server struct {
	Addr          string `toml:"addr"`
	UploadLimitMB int    `toml:"upload_limit_mb"`
}

// Transcription holds recognition engine settings. ModelSize and Device are
// the defaults used when a request leaves them empty.
type Transcription struct {
	Provider     string `toml:"provider"`
	ModelSize    string `toml:"model_size"`
	Device       string `toml:"device"`
	ComputeType  string `toml:"compute_type"`
	CPUThreads   int    `toml:"cpu_threads"`
	Language     string `toml:"language"`
	Python       string `toml:"python"`
	Preprocess   bool   `toml:"preprocess"`
	OpenAIAPIKey string `toml:"openai_api_key"`
	GeminiAPIKey string `toml:"gemini_api_key"`
}

// Paths holds filesystem locations.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	TempDir    string `toml:"temp_dir"`
	PerJobDirs bool   `toml:"per_job_dirs"`
}

// Config is the full runtime configuration.
type Config struct {
	Server        Server        `toml:"server"`
	Transcription Transcription `toml:"transcription"`
	Paths         Paths         `toml:"paths"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Server: Server{
			Addr:          "127.0.0.1:5000",
			UploadLimitMB: 2048,
		},
		Transcription: Transcription{
			Provider:    "faster-whisper",
			ModelSize:   "medium",
			Device:      "cpu",
			ComputeType: "int8",
			CPUThreads:  8,
			Python:      "python3",
		},
		Paths: Paths{
			OutputDir: "output",
		},
	}
}

// env files read before the environment overrides are applied
var envFiles = []string{".env", "vidscribe.env"}

// Load builds the configuration from defaults, the optional TOML file at
// path, .env files and VIDSCRIBE_* environment variables, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load env file %s: %w", envFile, err)
			}
		}
	}

	if path == "" {
		path = os.Getenv("VIDSCRIBE_CONFIG")
	}
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	setString("VIDSCRIBE_ADDR", &c.Server.Addr)
	setString("VIDSCRIBE_PROVIDER", &c.Transcription.Provider)
	setString("VIDSCRIBE_MODEL_SIZE", &c.Transcription.ModelSize)
	setString("VIDSCRIBE_DEVICE", &c.Transcription.Device)
	setString("VIDSCRIBE_COMPUTE_TYPE", &c.Transcription.ComputeType)
	setString("VIDSCRIBE_LANGUAGE", &c.Transcription.Language)
	setString("VIDSCRIBE_PYTHON", &c.Transcription.Python)
	setString("VIDSCRIBE_OUTPUT_DIR", &c.Paths.OutputDir)
	setString("VIDSCRIBE_TEMP_DIR", &c.Paths.TempDir)

	if c.Transcription.OpenAIAPIKey == "" {
		setString("OPENAI_API_KEY", &c.Transcription.OpenAIAPIKey)
	}
	if c.Transcription.GeminiAPIKey == "" {
		setString("GEMINI_API_KEY", &c.Transcription.GeminiAPIKey)
	}

	if v := strings.TrimSpace(os.Getenv("VIDSCRIBE_CPU_THREADS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VIDSCRIBE_CPU_THREADS: %w", err)
		}
		c.Transcription.CPUThreads = n
	}
	if v := strings.TrimSpace(os.Getenv("VIDSCRIBE_PREPROCESS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("VIDSCRIBE_PREPROCESS: %w", err)
		}
		c.Transcription.Preprocess = b
	}
	return nil
}

func (c *Config) normalize() {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	c.Transcription.Device = strings.ToLower(strings.TrimSpace(c.Transcription.Device))
	c.Transcription.ModelSize = strings.TrimSpace(c.Transcription.ModelSize)
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = "output"
	}
	if c.Transcription.Python == "" {
		c.Transcription.Python = "python3"
	}
}

// Encode renders the configuration as TOML with secrets masked.
func (c Config) Encode() ([]byte, error) {
	masked := c
	if masked.Transcription.OpenAIAPIKey != "" {
		masked.Transcription.OpenAIAPIKey = "***"
	}
	if masked.Transcription.GeminiAPIKey != "" {
		masked.Transcription.GeminiAPIKey = "***"
	}
	return toml.Marshal(masked)
}
