//go:build linux

package mpris

import "github.com/godbus/dbus/v5"

// dialSessionBus opens a private connection to the session bus
func dialSessionBus() (BusConn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return conn, nil
}
