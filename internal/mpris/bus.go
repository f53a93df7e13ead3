package mpris

import (
	"github.com/godbus/dbus/v5"
)

// BusConn defines the D-Bus operations the server needs.
// *dbus.Conn satisfies it; the abstraction lets tests mock the bus.
//
//go:generate mockgen -destination=mocks/bus_mock.go -package=mocks github.com/genricoloni/tunedeck/internal/mpris BusConn
type BusConn interface {
	// RequestName claims a well-known name on the bus
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)

	// Export publishes the exported methods of v under path and iface
	Export(v any, path dbus.ObjectPath, iface string) error

	// Emit sends a signal from path
	Emit(path dbus.ObjectPath, name string, values ...any) error

	// Close closes the connection, dropping every owned name
	Close() error
}
