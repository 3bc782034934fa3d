package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/brutella/hap"
	"github.com/brutella/hap/log"

	"github.com/urfave/cli/v2"

	remoaircon "github.com/kmaehashi/homebridge-nature-remo-cloud-aircon"
	"github.com/kmaehashi/homebridge-nature-remo-cloud-aircon/remo"
)

func main() {
	var dir, file string
	var debug bool

	app := cli.App{
		Name:  "nature remo aircon homekit bridge",
		Usage: "server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Value:       "/var/db/HomeKitBridges/RemoAircon",
				Usage:       "configuration directory",
				Destination: &dir,
			},
			&cli.StringFlag{
				Name:        "config",
				Value:       "remo.json",
				Usage:       "configuration file",
				Destination: &file,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Value:       false,
				Usage:       "enable debug",
				Destination: &debug,
			},
		},
		Action: func(c *cli.Context) error {
			if debug {
				log.Debug.Enable()
			}

			fulldir, err := filepath.Abs(dir)
			if err != nil {
				log.Info.Panic("unable to get config directory", dir)
			}
			conf, err := remoaircon.LoadConfig(filepath.Join(fulldir, file))
			if err != nil {
				log.Info.Panic(err.Error())
			}

			client := remo.NewClient(conf.AccessToken)
			aircon := remoaircon.NewAircon(client, conf)

			ctx, cancel := context.WithCancel(context.Background())

			// prime the cache before HomeKit starts answering gets
			aircon.Refresh(ctx)

			s, err := hap.NewServer(hap.NewFsStore(fulldir), aircon.A)
			if err != nil {
				log.Info.Panic(err)
			}
			s.Pin = conf.Pin

			go func(ctx context.Context) {
				ticker := time.NewTicker(conf.RefreshEvery())
				defer ticker.Stop()

				for {
					select {
					case <-ticker.C:
						aircon.Refresh(ctx)
					case <-ctx.Done():
						return
					}
				}
			}(ctx)

			go func(ctx context.Context) {
				s.ListenAndServe(ctx)
			}(ctx)

			sigch := make(chan os.Signal, 3)
			signal.Notify(sigch, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP, os.Interrupt)

			sig := <-sigch

			log.Info.Printf("shutdown requested by signal: %s", sig)
			cancel()

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Info.Panic(err)
	}
}
