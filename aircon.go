package remoaircon

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/log"
	"github.com/brutella/hap/service"

	"github.com/kmaehashi/homebridge-nature-remo-cloud-aircon/remo"
)

// ErrDisplayUnitFixed is returned for attempts to change the display
// unit; the unit is whatever the appliance descriptor reports.
var ErrDisplayUnitFixed = errors.New("changing the temperature display unit is not supported")

// fetcher is the slice of the cloud client the accessory needs. The
// concrete implementation is remo.Client.
type fetcher interface {
	ListAppliances(ctx context.Context) ([]remo.Appliance, error)
	ListDevices(ctx context.Context) ([]remo.Device, error)
	UpdateAirconSettings(ctx context.Context, applianceID string, params map[string]string) (*remo.AirConParams, error)
}

// Aircon bridges one Nature Remo air conditioner to a HomeKit
// thermostat. All mutable state is per-instance; nothing is shared at
// package level.
type Aircon struct {
	*accessory.A

	Thermostat *service.Thermostat

	client  fetcher
	cache   *cache
	pending *coalescer
	name    string

	mu          sync.Mutex
	applianceID string
	announced   bool

	// onSettled, when set, runs after each published snapshot
	onSettled func()
}

func NewAircon(client fetcher, conf *Config) *Aircon {
	a := Aircon{
		client:      client,
		cache:       &cache{},
		name:        conf.Name,
		applianceID: conf.ApplianceID,
	}

	info := accessory.Info{
		Name:         conf.Name,
		SerialNumber: conf.ApplianceID,
		Manufacturer: "Nature",
		Model:        "Remo",
	}
	a.A = accessory.New(info, accessory.TypeThermostat)

	a.Thermostat = service.NewThermostat()
	a.AddS(a.Thermostat.S)

	a.pending = newCoalescer(settleDelay, conf.skipUnchanged(), a.cache.settings, a.sendSettings)

	a.Thermostat.TargetHeatingCoolingState.OnValueRemoteUpdate(func(state int) {
		log.Info.Printf("[%s] setting target state to %d from handler", a.name, state)
		if err := a.SetTargetState(state); err != nil {
			log.Info.Println(err.Error())
		}
	})

	a.Thermostat.TargetTemperature.OnValueRemoteUpdate(func(temp float64) {
		log.Info.Printf("[%s] setting target temperature to %.1f from handler", a.name, temp)
		if err := a.SetTargetTemperature(temp); err != nil {
			log.Info.Println(err.Error())
		}
	})

	a.Thermostat.TemperatureDisplayUnits.OnValueRemoteUpdate(func(unit int) {
		log.Info.Println(ErrDisplayUnitFixed.Error())
		a.Thermostat.TemperatureDisplayUnits.SetValue(displayUnits(a.cache.getRecord()))
	})

	return &a
}

// OnSettled registers fn to run after each settled snapshot has been
// published to HomeKit. Register before the first Refresh; there is one
// observer per accessory instance.
func (a *Aircon) OnSettled(fn func()) {
	a.onSettled = fn
}

// CurrentState projects the cached settings onto the HomeKit
// heating/cooling state.
func (a *Aircon) CurrentState() (int, error) {
	return heatingCoolingState(a.cache.settings())
}

// CurrentTemperature returns the last sensor reading for the appliance's
// Remo unit.
func (a *Aircon) CurrentTemperature() (float64, error) {
	reading := a.cache.getReading()
	if reading == nil {
		return 0, ErrNoSettings
	}
	return reading.Val, nil
}

// TargetTemperature returns the cached settings temperature.
func (a *Aircon) TargetTemperature() (float64, error) {
	settings := a.cache.settings()
	if settings == nil {
		return 0, ErrNoSettings
	}
	v, err := strconv.ParseFloat(settings.Temp, 64)
	if err != nil {
		return 0, ErrNoSettings
	}
	return v, nil
}

// DisplayUnits returns the unit the appliance descriptor reports.
func (a *Aircon) DisplayUnits() (int, error) {
	return displayUnits(a.cache.getRecord()), nil
}

// SetTargetState requests a mode change; the write is coalesced with any
// other set-requests arriving within the settle window.
func (a *Aircon) SetTargetState(state int) error {
	params, err := paramsForTargetState(state, a.cache.getRecord())
	if err != nil {
		return err
	}
	return a.pending.requestChange(params)
}

// SetTargetTemperature requests a temperature change, clamped to the
// announced bounds.
func (a *Aircon) SetTargetTemperature(temp float64) error {
	if ac := a.recordAirCon(); ac != nil {
		b := temperatureBounds(ac)
		if temp < b.Min {
			temp = b.Min
		}
		if temp > b.Max {
			temp = b.Max
		}
	}
	return a.pending.requestChange(map[string]string{"temperature": formatTemp(temp)})
}

// SetDisplayUnits always fails; the unit is fixed by the appliance.
func (a *Aircon) SetDisplayUnits(unit int) error {
	return ErrDisplayUnitFixed
}

func (a *Aircon) recordAirCon() *remo.AirCon {
	record := a.cache.getRecord()
	if record == nil {
		return nil
	}
	return record.AirCon
}

// sendSettings is the coalescer's dispatch target: one write carrying
// the merged parameter set. On success the cached settings are replaced
// with what the cloud applied and the new snapshot is published; on
// failure the cache is left untouched.
func (a *Aircon) sendSettings(params map[string]string) error {
	id := a.pinnedID()
	if id == "" {
		return ErrNoAppliance
	}

	log.Debug.Printf("[%s] aircon_settings %v", a.name, params)
	updated, err := a.client.UpdateAirconSettings(context.Background(), id, params)
	if err != nil {
		log.Info.Printf("[%s] settings write failed: %s", a.name, err.Error())
		return err
	}

	a.cache.replaceSettings(updated)
	a.publish()
	return nil
}

// publish announces the latest consistent snapshot to HomeKit, touching
// only the characteristics whose value actually changed.
func (a *Aircon) publish() {
	settings := a.cache.settings()

	if state, err := heatingCoolingState(settings); err == nil {
		if a.Thermostat.TargetHeatingCoolingState.Value() != state {
			a.Thermostat.TargetHeatingCoolingState.SetValue(state)
		}
		// the current-state characteristic has no auto value; in auto the
		// unit decides, so the published current state is left alone
		if state != characteristic.TargetHeatingCoolingStateAuto &&
			a.Thermostat.CurrentHeatingCoolingState.Value() != state {
			a.Thermostat.CurrentHeatingCoolingState.SetValue(state)
		}
	} else if !errors.Is(err, ErrNoSettings) {
		log.Info.Printf("[%s] %s", a.name, err.Error())
	}

	if settings != nil {
		if temp, err := strconv.ParseFloat(settings.Temp, 64); err == nil {
			if a.Thermostat.TargetTemperature.Value() != temp {
				a.Thermostat.TargetTemperature.SetValue(temp)
			}
		}
	}

	if reading := a.cache.getReading(); reading != nil {
		if a.Thermostat.CurrentTemperature.Value() != reading.Val {
			a.Thermostat.CurrentTemperature.SetValue(reading.Val)
		}
	}

	if unit := displayUnits(a.cache.getRecord()); a.Thermostat.TemperatureDisplayUnits.Value() != unit {
		a.Thermostat.TemperatureDisplayUnits.SetValue(unit)
	}

	if a.onSettled != nil {
		a.onSettled()
	}
}
