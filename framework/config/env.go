package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrEnvNotValid is returned when FEISHU_* variables cannot be parsed.
var ErrEnvNotValid = errors.New("config: environment variables not valid")

// Env holds the settings that can be provided through the environment.
type Env struct {
	AppID             string  `env:"FEISHU_APP_ID"`
	AppSecret         string  `env:"FEISHU_APP_SECRET"`
	Debug             bool    `env:"FEISHU_DEBUG" envDefault:"false"`
	LogFile           string  `env:"FEISHU_LOG_FILE"`
	LogLevel          string  `env:"FEISHU_LOG_LEVEL" envDefault:"warning"`
	HTTPTimeout       float64 `env:"FEISHU_HTTP_TIMEOUT" envDefault:"5"`
	BaseURI           string  `env:"FEISHU_BASE_URI"`
	VerificationToken string  `env:"FEISHU_VERIFICATION_TOKEN"`
}

// Items converts e into a raw configuration blob.
func (e Env) Items() map[string]any {
	httpItems := map[string]any{"timeout": e.HTTPTimeout}
	if e.BaseURI != "" {
		httpItems["base_uri"] = e.BaseURI
	}

	logItems := map[string]any{"level": e.LogLevel}
	if e.LogFile != "" {
		logItems["file"] = e.LogFile
	}

	return map[string]any{
		"app_id":     e.AppID,
		"app_secret": e.AppSecret,
		"debug":      e.Debug,
		"log":        logItems,
		"http":       httpItems,
		"event": map[string]any{
			"verification_token": e.VerificationToken,
		},
	}
}

// FromEnv loads .env files (missing files are ignored) and builds a
// Repository from the FEISHU_* environment variables.
//
//	cfg, err := config.FromEnv()            // reads ./.env if present
//	cfg, err := config.FromEnv("prod.env")
func FromEnv(envFiles ...string) (*Repository, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	vars, err := env.ParseAs[Env]()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEnvNotValid, err.Error())
	}
	return New(vars.Items())
}
