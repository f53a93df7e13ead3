//go:build !linux

package mpris

import "errors"

// dialSessionBus always fails: MPRIS is a freedesktop interface
func dialSessionBus() (BusConn, error) {
	return nil, errors.New("MPRIS is only supported on Linux systems")
}
