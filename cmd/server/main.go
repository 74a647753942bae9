package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ValerySidorin/mockrobot"
	"github.com/ValerySidorin/mockrobot/config"
	"github.com/ValerySidorin/mockrobot/internal/log"
	"github.com/jessevdk/go-flags"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var conf config.ServerConfig
	if _, err := flags.NewParser(&conf, flags.Default).Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logger, closer, err := log.New(conf.Log.Parse(), os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	logger.Info("log level set to: " + log.ParseLevel(conf.Log.Level).String())

	serverConf, err := conf.Parse()
	if err != nil {
		logger.Error(fmt.Errorf("parse server conf: %w", err).Error())
		os.Exit(1)
	}

	server := mockrobot.NewServer(serverConf, mockrobot.WithLogger(logger))
	if err := server.ListenAndServe(ctx); err != nil {
		logger.Error(fmt.Errorf("listen and serve: %w", err).Error())
	}
}
