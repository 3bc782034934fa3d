package remoaircon

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/brutella/hap/characteristic"
	"github.com/stretchr/testify/require"

	"github.com/kmaehashi/homebridge-nature-remo-cloud-aircon/remo"
)

// fakeCloud implements the fetcher interface in memory.
type fakeCloud struct {
	mu sync.Mutex

	appliances    []remo.Appliance
	devices       []remo.Device
	appliancesErr error
	devicesErr    error

	updates   []map[string]string
	updated   *remo.AirConParams
	updateErr error
}

func (f *fakeCloud) ListAppliances(ctx context.Context) ([]remo.Appliance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appliancesErr != nil {
		return nil, f.appliancesErr
	}
	return f.appliances, nil
}

func (f *fakeCloud) ListDevices(ctx context.Context) ([]remo.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.devicesErr != nil {
		return nil, f.devicesErr
	}
	return f.devices, nil
}

func (f *fakeCloud) UpdateAirconSettings(ctx context.Context, applianceID string, params map[string]string) (*remo.AirConParams, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, params)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updated, nil
}

func testDevices() []remo.Device {
	return []remo.Device{{
		DeviceCore: remo.DeviceCore{ID: "device-1", Name: "Remo"},
		NewestEvents: map[string]remo.SensorValue{
			remo.SensorTemperature: {Val: 23.4},
		},
	}}
}

func TestRefreshHappyPath(t *testing.T) {
	fake := &fakeCloud{appliances: testAppliances(), devices: testDevices()}
	a := NewAircon(fake, &Config{Name: "Test AC"})

	var settled int
	a.OnSettled(func() { settled++ })

	a.Refresh(context.Background())

	require.Equal(t, "B", a.pinnedID())
	require.NotNil(t, a.cache.getRecord())
	require.Equal(t, 2, settled, "one notification per cache mutation")

	state, err := a.CurrentState()
	require.NoError(t, err)
	require.Equal(t, characteristic.CurrentHeatingCoolingStateCool, state)

	temp, err := a.CurrentTemperature()
	require.NoError(t, err)
	require.Equal(t, 23.4, temp)

	target, err := a.TargetTemperature()
	require.NoError(t, err)
	require.Equal(t, 26.0, target)

	require.Equal(t, 23.4, a.Thermostat.CurrentTemperature.Value())
	require.Equal(t, 26.0, a.Thermostat.TargetTemperature.Value())
	require.Equal(t, characteristic.CurrentHeatingCoolingStateCool, a.Thermostat.CurrentHeatingCoolingState.Value())
}

func TestRefreshApplianceFetchFailure(t *testing.T) {
	fake := &fakeCloud{appliancesErr: errors.New("transport down")}
	a := NewAircon(fake, &Config{Name: "Test AC"})

	var settled int
	a.OnSettled(func() { settled++ })

	a.Refresh(context.Background())

	require.Nil(t, a.cache.getRecord())
	require.Zero(t, settled)
	_, err := a.CurrentState()
	require.ErrorIs(t, err, ErrNoSettings)
}

func TestRefreshResolutionFailureKeepsStaleRecord(t *testing.T) {
	fake := &fakeCloud{appliances: testAppliances(), devices: testDevices()}
	a := NewAircon(fake, &Config{Name: "Test AC"})
	a.Refresh(context.Background())
	require.Equal(t, "B", a.pinnedID())

	// the pinned appliance disappears from the cloud list
	fake.mu.Lock()
	fake.appliances = []remo.Appliance{{ID: "A", Type: "IR"}}
	fake.mu.Unlock()

	a.Refresh(context.Background())

	record := a.cache.getRecord()
	require.NotNil(t, record, "a failed resolution keeps the stale record")
	require.Equal(t, "B", record.ID)
}

func TestRefreshSensorFailureKeepsPreviousReading(t *testing.T) {
	fake := &fakeCloud{appliances: testAppliances(), devices: testDevices()}
	a := NewAircon(fake, &Config{Name: "Test AC"})
	a.Refresh(context.Background())

	fake.mu.Lock()
	fake.devicesErr = errors.New("transport down")
	fake.mu.Unlock()

	var settled int
	a.OnSettled(func() { settled++ })
	a.Refresh(context.Background())

	temp, err := a.CurrentTemperature()
	require.NoError(t, err)
	require.Equal(t, 23.4, temp)
	require.Equal(t, 1, settled, "only the record mutation was published")
}

func TestRefreshAnnouncesBoundsOnce(t *testing.T) {
	apps := testAppliances()
	apps[1].AirCon.Range = remo.AirConRange{Modes: map[string]remo.AirConRangeMode{
		"cool": {Temp: []string{"20", "22", "24"}},
		"warm": {Temp: []string{"24", "26"}},
	}}
	fake := &fakeCloud{appliances: apps, devices: testDevices()}
	a := NewAircon(fake, &Config{Name: "Test AC"})

	a.Refresh(context.Background())
	require.True(t, a.announced)
	require.Equal(t, 20.0, a.Thermostat.TargetTemperature.MinValue())
	require.Equal(t, 26.0, a.Thermostat.TargetTemperature.MaxValue())
	require.Equal(t, 2.0, a.Thermostat.TargetTemperature.StepValue())

	// a later descriptor change does not re-announce
	fake.mu.Lock()
	fake.appliances[1].AirCon.Range.Modes["cool"] = remo.AirConRangeMode{Temp: []string{"10"}}
	fake.mu.Unlock()
	a.Refresh(context.Background())
	require.Equal(t, 20.0, a.Thermostat.TargetTemperature.MinValue())
}

func TestRefreshMissingSensorForDevice(t *testing.T) {
	fake := &fakeCloud{
		appliances: testAppliances(),
		devices: []remo.Device{{
			DeviceCore:   remo.DeviceCore{ID: "other-device"},
			NewestEvents: map[string]remo.SensorValue{remo.SensorTemperature: {Val: 99}},
		}},
	}
	a := NewAircon(fake, &Config{Name: "Test AC"})
	a.Refresh(context.Background())

	_, err := a.CurrentTemperature()
	require.ErrorIs(t, err, ErrNoSettings)
}
