package remoaircon

import (
	"context"

	"github.com/brutella/hap/log"

	"github.com/kmaehashi/homebridge-nature-remo-cloud-aircon/remo"
)

// Refresh runs one synchronization cycle: fetch the appliance list,
// resolve the managed appliance, then fetch the sensor reading for its
// Remo unit. Every failure is logged and absorbed; the previous cached
// state stays in place until the next tick succeeds.
func (a *Aircon) Refresh(ctx context.Context) {
	apps, err := a.client.ListAppliances(ctx)
	if err != nil {
		log.Info.Printf("[%s] appliance fetch failed: %s", a.name, err.Error())
		return
	}

	app, err := a.resolveAppliance(apps)
	if err != nil {
		log.Info.Printf("[%s] %s", a.name, err.Error())
		return
	}

	a.cache.replaceRecord(app)
	a.announceBounds(app)
	a.publish()

	devs, err := a.client.ListDevices(ctx)
	if err != nil {
		log.Info.Printf("[%s] device fetch failed: %s", a.name, err.Error())
		return
	}

	reading, ok := temperatureReading(devs, app.Device.ID)
	if !ok {
		log.Info.Printf("[%s] no temperature reading for device %s", a.name, app.Device.ID)
		return
	}
	a.cache.setReading(reading)
	a.publish()
}

// announceBounds publishes the settable temperature range derived from
// the capability descriptor. HomeKit reads the bounds once at pairing,
// so they are set on the first successful resolution only.
func (a *Aircon) announceBounds(app *remo.Appliance) {
	a.mu.Lock()
	if a.announced {
		a.mu.Unlock()
		return
	}
	a.announced = true
	a.mu.Unlock()

	b := temperatureBounds(app.AirCon)
	tt := a.Thermostat.TargetTemperature
	tt.SetMinValue(b.Min)
	tt.SetMaxValue(b.Max)
	tt.SetStepValue(b.Step)
	log.Info.Printf("[%s] target temperature range %v-%v step %v", a.name, b.Min, b.Max, b.Step)
}

func temperatureReading(devs []remo.Device, deviceID string) (remo.SensorValue, bool) {
	for _, d := range devs {
		if d.ID != deviceID {
			continue
		}
		v, ok := d.NewestEvents[remo.SensorTemperature]
		return v, ok
	}
	return remo.SensorValue{}, false
}
