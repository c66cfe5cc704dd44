package notify

import (
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	pkgerrors "github.com/pkg/errors"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = "/org/freedesktop/Notifications"

	urgencyNormal   = byte(1)
	urgencyCritical = byte(2)
)

// DBus shows notifications through the freedesktop notification service on
// the session bus.
type DBus struct {
	AppName string

	mu   sync.Mutex
	conn *dbus.Conn
}

func (d *DBus) connect() (*dbus.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil && d.conn.Connected() {
		return d.conn, nil
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to connect to session bus")
	}
	d.conn = conn
	return conn, nil
}

// Hints returns the notification hints for an alert with timeout.
func Hints(timeout time.Duration) map[string]dbus.Variant {
	urgency := urgencyNormal
	if timeout == TimeoutNever {
		urgency = urgencyCritical
	}
	return map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgency),
	}
}

func (d *DBus) Send(text, icon string, timeout time.Duration) error {
	conn, err := d.connect()
	if err != nil {
		return err
	}

	// Notify returns as soon as the server has queued the notification.
	call := conn.Object(notificationsName, notificationsPath).Call(
		notificationsName+".Notify", 0,
		d.AppName,
		uint32(0),
		icon,
		d.AppName,
		text,
		[]string{},
		Hints(timeout),
		int32(timeout.Milliseconds()),
	)
	if call.Err != nil {
		return pkgerrors.Wrapf(call.Err, "failed to send notification")
	}

	return nil
}

// Close releases the session bus connection.
func (d *DBus) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}
