package iid

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	// Path to the service-account.json of the Firebase project
	ServiceAccount string `mapstructure:"service-account"`

	Application string `mapstructure:"application"`
	Sandbox     bool   `mapstructure:"sandbox"`

	// Attempts per fetch while the server answers 500 or 503
	Retries  int           `mapstructure:"retries"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Endpoint string        `mapstructure:"endpoint"`
}

func NewConfig(src *viper.Viper) (*Config, error) {

	c := &Config{}
	if err := src.Unmarshal(c); err != nil {
		return nil, err
	}

	if len(c.Application) == 0 {
		return nil, errors.New("invalid `application`")
	}

	if _, err := os.Stat(c.ServiceAccount); err != nil {
		return nil, errors.Wrap(err, "iid: service-account")
	}

	return c, nil
}
