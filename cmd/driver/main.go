package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/ValerySidorin/mockrobot"
	"github.com/ValerySidorin/mockrobot/config"
	"github.com/ValerySidorin/mockrobot/internal/log"
	"github.com/ValerySidorin/mockrobot/internal/web"
	"github.com/jessevdk/go-flags"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var conf config.DriverConfig
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

	driverConf, err := conf.Parse()
	if err != nil {
		logger.Error(fmt.Errorf("parse driver conf: %w", err).Error())
		os.Exit(1)
	}
	driverConf.Logger = logger

	driver, err := mockrobot.NewDriver(driverConf)
	if err != nil {
		logger.Error(fmt.Errorf("new driver: %w", err).Error())
		os.Exit(1)
	}
	defer driver.Close()

	if conf.Connect != "" {
		host, port, err := net.SplitHostPort(conf.Connect)
		if err != nil {
			logger.Error(fmt.Errorf("parse connect addr: %w", err).Error())
			os.Exit(1)
		}
		err = driver.Connect(ctx, host, port)
		logger.Info(mockrobot.ResultString(mockrobot.MsgConnected, err))
	}

	panel := web.NewServer(driver, web.Config{
		RefreshInterval: conf.RefreshInterval,
		Logger:          logger,
	})
	if err := panel.ListenAndServe(ctx, conf.Listen); err != nil {
		logger.Error(fmt.Errorf("listen and serve: %w", err).Error())
	}
}
