package cmd

import (
	"errors"
	"fmt"
	"maps"

	"github.com/spf13/viper"

	"github.com/km-arc/go-feishu/framework/app"
	"github.com/km-arc/go-feishu/framework/config"
)

var errMissingArgument = errors.New("missing required argument")

// rawConfig reads the configuration blob from the --config file through
// viper, or from the environment.
func (f *flags) rawConfig() (map[string]any, error) {
	var raw map[string]any
	if f.configPath != "" {
		v := viper.New()
		v.SetConfigFile(f.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", f.configPath, err)
		}
		raw = v.AllSettings()
	} else {
		cfg, err := config.FromEnv(f.envFiles...)
		if err != nil {
			return nil, err
		}
		raw = cfg.All()
	}

	if f.logFile != "" {
		logItems, _ := raw["log"].(map[string]any)
		logItems = maps.Clone(logItems)
		if logItems == nil {
			logItems = make(map[string]any)
		}
		if file, _ := logItems["file"].(string); file == "" {
			logItems["file"] = f.logFile
		}
		raw["log"] = logItems
	}
	return raw, nil
}

// application builds the Application the command runs against.
func (f *flags) application(opts ...app.Option) (*app.Application, error) {
	raw, err := f.rawConfig()
	if err != nil {
		return nil, err
	}
	return app.New(raw, opts...)
}
