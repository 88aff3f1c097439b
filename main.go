package main

import (
	"log"
	"os"

	"github.com/flockbusiness/flock-push-bridge/service"
	"github.com/jessevdk/go-flags"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var opts struct {
	ConfigLocation string `short:"c" long:"config" description:"Config file location" required:"true"`
	Debug          bool   `short:"d" long:"debug" description:"Debug logging"`
}

func main() {

	if _, err := flags.ParseArgs(&opts, os.Args); err != nil {
		log.Fatal("failed to parse arguments:", err)
	}

	logger, err := newLogger(opts.Debug)
	if err != nil {
		log.Fatal("failed to create logger:", err)
	}
	defer func() { _ = logger.Sync() }()

	v := viper.New()
	v.SetConfigFile(opts.ConfigLocation)
	if err := v.ReadInConfig(); err != nil {
		log.Fatal("failed to parse config:", err)
	}

	svc, err := service.New(v, logger)
	if err != nil {
		log.Fatal("failed to create service:", err)
	}

	if err := svc.Run(); err != nil {
		log.Println("close service", err)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	return cfg.Build()
}
