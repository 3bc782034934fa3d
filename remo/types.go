package remo

import "time"

// Appliance is one entry of GET /1/appliances. An entry controls an
// air conditioner only when AirCon is non-nil.
type Appliance struct {
	ID       string        `json:"id"`
	Device   DeviceCore    `json:"device"`
	Model    *Model        `json:"model"`
	Type     string        `json:"type"`
	Nickname string        `json:"nickname"`
	Settings *AirConParams `json:"settings"`
	AirCon   *AirCon       `json:"aircon"`
}

// AirConParams is the settings snapshot the cloud reports for an air
// conditioner, and also the response body of a settings write.
type AirConParams struct {
	Temp   string `json:"temp"`
	Mode   string `json:"mode"`
	Vol    string `json:"vol"`
	Dir    string `json:"dir"`
	Button string `json:"button"`
}

// AirCon is the capability descriptor: which modes the unit supports
// and which values each mode accepts.
type AirCon struct {
	Range    AirConRange `json:"range"`
	TempUnit string      `json:"tempUnit"`
}

type AirConRange struct {
	Modes        map[string]AirConRangeMode `json:"modes"`
	FixedButtons []string                   `json:"fixedButtons"`
}

type AirConRangeMode struct {
	Temp []string `json:"temp"`
	Vol  []string `json:"vol"`
	Dir  []string `json:"dir"`
}

type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeviceCore identifies the Remo unit an appliance is paired with.
type DeviceCore struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`
}

// Device is one entry of GET /1/devices; NewestEvents carries the most
// recent sensor readings keyed by sensor type ("te" is temperature).
type Device struct {
	DeviceCore
	NewestEvents map[string]SensorValue `json:"newest_events"`
}

type SensorValue struct {
	Val       float64   `json:"val"`
	CreatedAt time.Time `json:"created_at"`
}

// SensorTemperature is the newest_events key for the temperature sensor.
const SensorTemperature = "te"

// Operation modes as the cloud names them.
const (
	ModeWarm = "warm"
	ModeCool = "cool"
	ModeAuto = "auto"
)

// ButtonPowerOff turns the unit off; the empty button keeps it on.
const ButtonPowerOff = "power-off"
