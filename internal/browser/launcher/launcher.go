// Package launcher picks the browser driver named in the configuration.
package launcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/cdp"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/pwdriver"
	"github.com/xkilldash9x/sauce-e2e/internal/browser/rodriver"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

// New starts the driver selected by cfg.Browser.Driver.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (browser.Launcher, error) {
	logger = logger.Named("browser")
	logger.Debug("Selecting browser driver.", zap.String("driver", cfg.Browser.Driver))

	switch cfg.Browser.Driver {
	case config.DriverChromedp, "":
		l, err := cdp.New(ctx, cfg.Browser, logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.DriverRod:
		l, err := rodriver.New(ctx, cfg.Browser, logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.DriverPlaywright:
		l, err := pwdriver.New(ctx, cfg.Browser, logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	return nil, fmt.Errorf("unknown browser driver %q", cfg.Browser.Driver)
}
