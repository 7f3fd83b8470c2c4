package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Runtime is the layered runtime configuration of the batch tool.
// Precedence: flags (applied by main) > env > config file > defaults.
type Runtime struct {
	DSN          string `mapstructure:"dsn"`
	Table        string `mapstructure:"table"`
	CSVPath      string `mapstructure:"csv"`
	SinkPath     string `mapstructure:"sink"`
	TaxonomyFile string `mapstructure:"taxonomy_file"`

	// Now is the observation timestamp as "2006-01-02"; empty means
	// midnight UTC of the current day at startup.
	Now string `mapstructure:"now"`

	OldClientThresholdDays int  `mapstructure:"old_client_threshold_days"`
	Verbose                bool `mapstructure:"verbose"`
}

// Load reads configuration from defaults, an optional YAML file, and
// CLIENTFEATURES_* environment variables.
func Load(cfgFile string) (*Runtime, error) {
	v := viper.New()
	v.SetEnvPrefix("CLIENTFEATURES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can bind it.
	v.SetDefault("dsn", "")
	v.SetDefault("table", "OrderLineItems")
	v.SetDefault("csv", "")
	v.SetDefault("sink", "")
	v.SetDefault("taxonomy_file", "")
	v.SetDefault("now", "")
	v.SetDefault("old_client_threshold_days", 90)
	v.SetDefault("verbose", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var r Runtime
	if err := v.Unmarshal(&r); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if r.OldClientThresholdDays < 0 {
		return nil, fmt.Errorf("old_client_threshold_days must not be negative")
	}
	return &r, nil
}
