package remoaircon

import (
	"errors"
	"sync"

	"github.com/kmaehashi/homebridge-nature-remo-cloud-aircon/remo"
)

// ErrNoSettings means the cloud has not yet reported a settings snapshot
// for the appliance, so there is nothing to answer a get with.
var ErrNoSettings = errors.New("no cached aircon settings")

// cache holds the last known appliance record and sensor reading. Both
// are only ever replaced with data that came from the cloud; the record
// is swapped wholesale on each successful fetch or write.
type cache struct {
	mu      sync.Mutex
	record  *remo.Appliance
	reading *remo.SensorValue
}

func (c *cache) replaceRecord(app *remo.Appliance) {
	c.mu.Lock()
	c.record = app
	c.mu.Unlock()
}

// replaceSettings swaps only the settings portion of the record, as a
// settings write response carries no capability descriptor.
func (c *cache) replaceSettings(s *remo.AirConParams) {
	c.mu.Lock()
	if c.record != nil {
		c.record.Settings = s
	}
	c.mu.Unlock()
}

func (c *cache) setReading(v remo.SensorValue) {
	c.mu.Lock()
	c.reading = &v
	c.mu.Unlock()
}

func (c *cache) getRecord() *remo.Appliance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}

func (c *cache) settings() *remo.AirConParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record == nil {
		return nil
	}
	return c.record.Settings
}

func (c *cache) getReading() *remo.SensorValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reading
}
