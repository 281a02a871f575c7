package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	FramesPerBuffer int
	FetchTimeout    time.Duration
	BundleDirs      []string
	ListenAddr      string
	LogLevel        string
	LogJSON         bool

	TTS TTSConfig
}

type TTSConfig struct {
	ApiKey   string
	FolderID string
	Voice    string
}

// Enabled reports whether enough credentials are present to reach the
// synthesis service.
func (c TTSConfig) Enabled() bool {
	return c.ApiKey != "" && c.FolderID != ""
}

// LoadConfig reads the given .env files (".env" when none are given) and
// overlays the process environment on top. A missing default .env is fine.
func LoadConfig(files ...string) (*Config, error) {
	explicit := len(files) > 0
	if !explicit {
		files = []string{".env"}
	}

	vars := map[string]string{}
	for _, f := range files {
		read, err := godotenv.Read(f)
		if err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		for k, v := range read {
			vars[k] = v
		}
	}

	env := func(key, fallback string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		if v, ok := vars[key]; ok {
			return v
		}
		return fallback
	}

	cfg := &Config{
		ListenAddr: env("CHIME_LISTEN_ADDR", ":8080"),
		LogLevel:   env("CHIME_LOG_LEVEL", "info"),
		TTS: TTSConfig{
			ApiKey:   env("TTS_API_KEY", ""),
			FolderID: env("TTS_FOLDER_ID", ""),
			Voice:    env("TTS_VOICE", "marina"),
		},
	}

	frames, err := strconv.Atoi(env("CHIME_FRAMES_PER_BUFFER", "1024"))
	if err != nil || frames <= 0 {
		return nil, fmt.Errorf("invalid CHIME_FRAMES_PER_BUFFER: %q", env("CHIME_FRAMES_PER_BUFFER", ""))
	}
	cfg.FramesPerBuffer = frames

	if cfg.FetchTimeout, err = time.ParseDuration(env("CHIME_FETCH_TIMEOUT", "0s")); err != nil {
		return nil, fmt.Errorf("invalid CHIME_FETCH_TIMEOUT: %w", err)
	}

	if cfg.LogJSON, err = strconv.ParseBool(env("CHIME_LOG_JSON", "false")); err != nil {
		return nil, fmt.Errorf("invalid CHIME_LOG_JSON: %w", err)
	}

	if dirs := env("CHIME_BUNDLE_DIRS", ""); dirs != "" {
		cfg.BundleDirs = filepath.SplitList(dirs)
	}

	return cfg, nil
}
