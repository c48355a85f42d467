// Package sandbox serves a Teamwork-compatible fake API from a JSON fixture.
package sandbox

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"teamwork-invoicer/src/pkg/config"
)

type Config struct {
	Address             string  `json:"address,omitempty"`
	Port                int     `json:"port,omitempty"`
	APIKey              string  `json:"apikey,omitempty"`
	MiddlewareRateLimit float64 `json:"middleware_rate_limit,omitempty"`
	MiddlewareBurst     int     `json:"middleware_burst,omitempty"`
	FirstInvoiceID      int     `json:"first_invoice_id,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Address:             "127.0.0.1",
		Port:                8402,
		APIKey:              "sandbox",
		MiddlewareRateLimit: 20,
		MiddlewareBurst:     50,
		FirstInvoiceID:      9001,
	}
}

/*
InitializeConfig fills every missing value of local with the default one.

If local is nil the defaults are used as they are.
*/
func InitializeConfig(local *Config) (cfg Config) {
	if local == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "sandbox", "not provided", "default sandbox config")
		return DefaultValueConfig()
	}

	cfg = *local
	tl.ApplyDefaults(&cfg, DefaultValueConfig(), func(field string, defVal any) {
		tl.Log(
			tl.Detailed, palette.Purple,
			"%s field is %s in %s configuration. Using default value: %v",
			field, "missing", "sandbox", tl.PrettyForStderr(defVal),
		)
	})

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "sandbox", "provided", "local sandbox config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s sandbox configuration", config.GetPackageName()), cfg)
	return cfg
}

func (c Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}
