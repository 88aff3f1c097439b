package registration

import (
	"time"

	"github.com/flockbusiness/flock-push-bridge/pkg/notification"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DefaultChannelName  = "com.flockbusiness/notifications"
	DefaultMaxAttempts  = 3
	DefaultRetryDelay   = 2 * time.Second
	DefaultFetchTimeout = 10 * time.Second
)

type Config struct {
	ChannelName  string        `mapstructure:"channel-name"`
	MaxAttempts  int           `mapstructure:"max-attempts"`
	RetryDelay   time.Duration `mapstructure:"retry-delay"`
	FetchTimeout time.Duration `mapstructure:"fetch-timeout"`
	BannerMinOS  int           `mapstructure:"presentation-banner-min-os"`
}

func DefaultConfig() *Config {
	return &Config{
		ChannelName:  DefaultChannelName,
		MaxAttempts:  DefaultMaxAttempts,
		RetryDelay:   DefaultRetryDelay,
		FetchTimeout: DefaultFetchTimeout,
		BannerMinOS:  notification.DefaultBannerMinOS,
	}
}

func NewConfig(src *viper.Viper) (*Config, error) {

	c := DefaultConfig()
	if src != nil {
		if err := src.Unmarshal(c); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {

	if len(c.ChannelName) == 0 {
		return errors.New("invalid `channel-name`")
	} else if c.MaxAttempts < 1 {
		return errors.Errorf("invalid `max-attempts`: %d", c.MaxAttempts)
	} else if c.RetryDelay < 0 {
		return errors.Errorf("invalid `retry-delay`: %s", c.RetryDelay)
	}

	return nil
}
