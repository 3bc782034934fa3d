package remoaircon

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/brutella/hap/characteristic"

	"github.com/kmaehashi/homebridge-nature-remo-cloud-aircon/remo"
)

// fallback bounds when the capability descriptor lists no usable
// temperatures
const (
	defaultMinTemp  = 10.0
	defaultMaxTemp  = 122.0
	defaultTempStep = 1.0
)

// heatingCoolingState projects a settings snapshot onto the HomeKit
// heating/cooling state. A non-empty button means the unit is powered
// off regardless of mode.
func heatingCoolingState(s *remo.AirConParams) (int, error) {
	if s == nil {
		return 0, ErrNoSettings
	}
	if s.Button != "" {
		return characteristic.CurrentHeatingCoolingStateOff, nil
	}
	switch s.Mode {
	case remo.ModeWarm:
		return characteristic.CurrentHeatingCoolingStateHeat, nil
	case remo.ModeCool:
		return characteristic.CurrentHeatingCoolingStateCool, nil
	case remo.ModeAuto:
		return characteristic.TargetHeatingCoolingStateAuto, nil
	}
	return 0, fmt.Errorf("unmapped operation mode %q", s.Mode)
}

// paramsForTargetState builds the set-request parameters for a HomeKit
// target state. Requesting auto on a unit whose descriptor does not
// list it falls back to the last known mode instead of forwarding an
// unsupported value.
func paramsForTargetState(target int, record *remo.Appliance) (map[string]string, error) {
	switch target {
	case characteristic.TargetHeatingCoolingStateOff:
		return map[string]string{"button": remo.ButtonPowerOff}, nil
	case characteristic.TargetHeatingCoolingStateHeat:
		return map[string]string{"button": "", "operation_mode": remo.ModeWarm}, nil
	case characteristic.TargetHeatingCoolingStateCool:
		return map[string]string{"button": "", "operation_mode": remo.ModeCool}, nil
	case characteristic.TargetHeatingCoolingStateAuto:
		mode := remo.ModeAuto
		if !supportsMode(record, remo.ModeAuto) {
			if record == nil || record.Settings == nil {
				return nil, ErrNoSettings
			}
			mode = record.Settings.Mode
		}
		return map[string]string{"button": "", "operation_mode": mode}, nil
	}
	return nil, fmt.Errorf("unmapped target state %d", target)
}

func supportsMode(record *remo.Appliance, mode string) bool {
	if record == nil || record.AirCon == nil {
		return false
	}
	_, ok := record.AirCon.Range.Modes[mode]
	return ok
}

type temperatureRange struct {
	Min  float64
	Max  float64
	Step float64
}

// temperatureBounds derives the settable range from the union of the
// numeric temperatures listed under the cool and warm capability
// entries. Step is the smallest positive gap between distinct values.
func temperatureBounds(ac *remo.AirCon) temperatureRange {
	fallback := temperatureRange{Min: defaultMinTemp, Max: defaultMaxTemp, Step: defaultTempStep}
	if ac == nil {
		return fallback
	}

	seen := make(map[float64]bool)
	for _, mode := range []string{remo.ModeCool, remo.ModeWarm} {
		rm, ok := ac.Range.Modes[mode]
		if !ok {
			continue
		}
		for _, raw := range rm.Temp {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			seen[v] = true
		}
	}
	if len(seen) == 0 {
		return fallback
	}

	temps := make([]float64, 0, len(seen))
	for v := range seen {
		temps = append(temps, v)
	}
	sort.Float64s(temps)

	r := temperatureRange{Min: temps[0], Max: temps[len(temps)-1], Step: defaultTempStep}
	for i := 1; i < len(temps); i++ {
		if gap := temps[i] - temps[i-1]; i == 1 || gap < r.Step {
			r.Step = gap
		}
	}
	return r
}

// displayUnits maps the descriptor's temperature unit onto the HomeKit
// display-unit value, defaulting to celsius.
func displayUnits(record *remo.Appliance) int {
	if record != nil && record.AirCon != nil && record.AirCon.TempUnit == "f" {
		return characteristic.TemperatureDisplayUnitsFahrenheit
	}
	return characteristic.TemperatureDisplayUnitsCelsius
}

// formatTemp renders a temperature the way the cloud expects: the
// shortest decimal form, no trailing zeros.
func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
