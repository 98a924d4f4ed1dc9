// Package env derives per-host identity for controller refs.
package env

import "github.com/denisbrodbeck/machineid"

// MachineID returns the host's stable unique ID. A host without one
// cannot register controllers, so failure panics.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil {
		panic(err)
	}
	return id
}
