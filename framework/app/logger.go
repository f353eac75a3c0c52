package app

import (
	"os"

	"github.com/spf13/cast"

	"github.com/km-arc/go-feishu/framework/config"
	"github.com/km-arc/go-feishu/framework/log"
)

// TestModeEnv marks a test run. When truthy, the file handler is selected
// even in debug mode.
const TestModeEnv = "FEISHU_TEST_MODE"

// initializeLogger installs the process-wide logger unless one is already set.
func initializeLogger(cfg *config.Repository) error {
	_, err := log.InitOnce(func() (*log.Logger, error) {
		return buildLogger(cfg)
	})
	return err
}

// buildLogger picks the first matching handler:
//
//  1. not debugging, or in test mode: a file handler at log.file
//  2. log.handler is a log.Handler: that handler
//  3. log.file is set: a file handler
//  4. otherwise no handler
func buildLogger(cfg *config.Repository) (*log.Logger, error) {
	logger := log.New("")

	if !cfg.Bool("debug") || testMode() {
		h, err := fileHandler(cfg)
		if err != nil {
			return nil, err
		}
		logger.PushHandler(h)
		return logger, nil
	}

	if h, ok := cfg.Get("log.handler").(log.Handler); ok {
		logger.PushHandler(h)
		return logger, nil
	}

	if cfg.String("log.file") != "" {
		h, err := fileHandler(cfg)
		if err != nil {
			return nil, err
		}
		logger.PushHandler(h)
	}
	return logger, nil
}

func fileHandler(cfg *config.Repository) (*log.StreamHandler, error) {
	return log.NewStreamHandler(
		cfg.String("log.file"),
		log.ParseLevel(cfg.Get("log.level")),
		os.FileMode(cfg.Int("log.permission")),
		log.WithJSONFormat(cfg.String("log.format") == "json"),
	)
}

func testMode() bool {
	return cast.ToBool(os.Getenv(TestModeEnv))
}
