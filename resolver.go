package remoaircon

import (
	"errors"
	"fmt"

	"github.com/brutella/hap/log"

	"github.com/kmaehashi/homebridge-nature-remo-cloud-aircon/remo"
)

// ErrNoAppliance means no entry in the cloud's appliance list matched;
// the refresh cycle logs it and keeps whatever record it already has.
var ErrNoAppliance = errors.New("no matching air conditioner")

// resolveAppliance picks the single appliance this accessory manages out
// of the full cloud list. With a configured identifier it matches by id;
// without one it takes the first entry that controls an air conditioner
// and pins that entry's id for every later refresh.
func (a *Aircon) resolveAppliance(apps []remo.Appliance) (*remo.Appliance, error) {
	a.mu.Lock()
	id := a.applianceID
	a.mu.Unlock()

	if id != "" {
		for i := range apps {
			if apps[i].ID == id {
				return &apps[i], nil
			}
		}
		return nil, fmt.Errorf("%w: id %s", ErrNoAppliance, id)
	}

	for i := range apps {
		if apps[i].AirCon == nil {
			continue
		}
		a.mu.Lock()
		a.applianceID = apps[i].ID
		a.mu.Unlock()
		log.Info.Printf("[%s] using air conditioner %s (%s)", a.name, apps[i].ID, apps[i].Nickname)
		return &apps[i], nil
	}

	return nil, ErrNoAppliance
}

func (a *Aircon) pinnedID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applianceID
}
