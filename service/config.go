package service

import (
	"github.com/flockbusiness/flock-push-bridge/pkg/messaging/iid"
	"github.com/flockbusiness/flock-push-bridge/pkg/registration"
	"github.com/flockbusiness/flock-push-bridge/pkg/verify"
	"github.com/spf13/viper"
)

type Config struct {
	AdminPort    string               `mapstructure:"http-port"`
	Registration *registration.Config `mapstructure:"-"`
	IID          *iid.Config          `mapstructure:"-"`
	Verify       *verify.Config       `mapstructure:"-"`
	Host         *HostConfig          `mapstructure:"-"`
}

// HostConfig drives the simulated OS of the development host.
type HostConfig struct {
	Authorize         bool   `mapstructure:"authorize"`
	AuthorizeError    string `mapstructure:"authorize-error"`
	DeviceToken       string `mapstructure:"device-token"`
	RegistrationError string `mapstructure:"registration-error"`
	FailFetches       int    `mapstructure:"fail-fetches"`
	OSVersion         int    `mapstructure:"os-version"`
}

func NewConfig(src *viper.Viper) (*Config, error) {

	c := &Config{}
	err := src.Unmarshal(c)
	if err != nil {
		return nil, err
	}

	if len(c.AdminPort) == 0 {
		c.AdminPort = "8011"
	}

	c.Registration, err = registration.NewConfig(src.Sub("registration"))
	if err != nil {
		return nil, err
	}

	if sub := src.Sub("iid"); sub != nil {
		c.IID, err = iid.NewConfig(sub)
		if err != nil {
			return nil, err
		}
	}

	if sub := src.Sub("verify"); sub != nil {
		c.Verify, err = verify.NewConfig(sub)
		if err != nil {
			return nil, err
		}
	}

	c.Host, err = newHostConfig(src.Sub("host"))
	if err != nil {
		return nil, err
	}

	return c, nil
}

func newHostConfig(src *viper.Viper) (*HostConfig, error) {

	c := &HostConfig{
		Authorize: true,
		OSVersion: 17,
	}

	if src == nil {
		return c, nil
	}

	if err := src.Unmarshal(c); err != nil {
		return nil, err
	}

	return c, nil
}
