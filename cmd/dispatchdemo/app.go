// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package main

import (
	"io"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"
)

// demoConfig is populated from flags, falling back to the environment, which
// may be seeded from a .env file in the working directory.
type demoConfig struct {
	capacity     int
	tickInterval time.Duration
	schedules    int
	delay        time.Duration
	cancelEvery  int
	calls        int
	maxBlob      int
	logLevel     string
}

func (x *demoConfig) flags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:        "capacity, c",
			Usage:       "bound on both the call queue and the schedule table",
			EnvVar:      "DISPATCH_CAPACITY",
			Value:       64,
			Destination: &x.capacity,
		},
		cli.DurationFlag{
			Name:        "tick-interval",
			Usage:       "period of the schedule tick",
			EnvVar:      "DISPATCH_TICK_INTERVAL",
			Value:       time.Second,
			Destination: &x.tickInterval,
		},
		cli.IntFlag{
			Name:        "schedules, s",
			Usage:       "number of tagged schedules to create",
			EnvVar:      "DISPATCH_SCHEDULES",
			Value:       16,
			Destination: &x.schedules,
		},
		cli.DurationFlag{
			Name:        "delay, d",
			Usage:       "delay of each schedule",
			EnvVar:      "DISPATCH_DELAY",
			Value:       100 * time.Millisecond,
			Destination: &x.delay,
		},
		cli.IntFlag{
			Name:        "cancel-every",
			Usage:       "cancel every nth schedule tag (0 cancels none)",
			EnvVar:      "DISPATCH_CANCEL_EVERY",
			Value:       4,
			Destination: &x.cancelEvery,
		},
		cli.IntFlag{
			Name:        "calls, n",
			Usage:       "number of immediate calls to post",
			EnvVar:      "DISPATCH_CALLS",
			Value:       16,
			Destination: &x.calls,
		},
		cli.IntFlag{
			Name:        "max-blob",
			Usage:       "blob budget in bytes (0 is unlimited)",
			EnvVar:      "DISPATCH_MAX_BLOB",
			Destination: &x.maxBlob,
		},
		cli.StringFlag{
			Name:        "log-level, l",
			Usage:       "one of emerg, alert, crit, err, warning, notice, info, debug, trace, disabled",
			EnvVar:      "DISPATCH_LOG_LEVEL",
			Value:       "info",
			Destination: &x.logLevel,
		},
	}
}

func execute(args []string, stderr io.Writer) error {
	// a missing .env is fine
	_ = godotenv.Load()

	var cfg demoConfig

	app := cli.App{
		Name:      "dispatchdemo",
		HelpName:  "dispatchdemo",
		Usage:     "exercise a single-worker callback dispatcher",
		UsageText: "dispatchdemo <command> [arguments...]",
		Version:   version,
		Writer:    stderr,
		ErrWriter: stderr,
		Commands: []cli.Command{
			{
				Name:    "run",
				Aliases: []string{"r"},
				Usage:   "post calls and schedules, then log the dispatcher stats",
				Flags:   cfg.flags(),
				Action: func(ctx *cli.Context) error {
					logger, err := newLogger(stderr, cfg.logLevel)
					if err != nil {
						return err
					}
					_, err = runDemo(cfg, logger)
					return err
				},
			},
		},
	}

	return app.Run(args)
}
