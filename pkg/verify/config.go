package verify

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	ServerKey string `mapstructure:"server-key"`
	Endpoint  string `mapstructure:"endpoint"`
}

func NewConfig(src *viper.Viper) (*Config, error) {

	c := &Config{}
	if err := src.Unmarshal(c); err != nil {
		return nil, err
	}

	if len(c.ServerKey) == 0 {
		return nil, errors.New("invalid `server-key`")
	}

	return c, nil
}
