package remoaircon

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/brutella/hap/log"
)

type Config struct {
	Name        string // accessory name shown in HomeKit
	Pin         string // HomeKit setup pin
	AccessToken string // Nature API access token
	ApplianceID string // optional; auto-discovered when empty
	// RefreshInterval is a Go duration string, default one minute
	RefreshInterval string
	// SkipCommandRequestIfNoChanges suppresses writes that would change
	// nothing; enabled unless set to false
	SkipCommandRequestIfNoChanges *bool
}

func LoadConfig(filename string) (*Config, error) {
	conf := Config{
		Name: "Air Conditioner",
		Pin:  "00102003",
	}

	confFile, err := os.Open(filename)
	if err != nil {
		log.Info.Printf("unable to open config %s", filename)
		return nil, err
	}
	defer confFile.Close()

	raw, err := io.ReadAll(confFile)
	if err != nil {
		log.Info.Printf("unable to read config %s", filename)
		return nil, err
	}

	if err := json.Unmarshal(raw, &conf); err != nil {
		log.Info.Printf("unable to parse config %s: %s", filename, err.Error())
		return nil, err
	}

	if conf.AccessToken == "" {
		return nil, errors.New("config: AccessToken is required")
	}

	return &conf, nil
}

// RefreshEvery is the polling period for the refresh cycle.
func (c *Config) RefreshEvery() time.Duration {
	if c.RefreshInterval == "" {
		return time.Minute
	}
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d <= 0 {
		log.Info.Printf("bad RefreshInterval %q: using 1m", c.RefreshInterval)
		return time.Minute
	}
	return d
}

func (c *Config) skipUnchanged() bool {
	return c.SkipCommandRequestIfNoChanges == nil || *c.SkipCommandRequestIfNoChanges
}
