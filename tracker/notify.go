package tracker

import (
	"github.com/godbus/dbus/v5"
)

// Notifier shows a desktop alert. Fire-and-forget: a failure is logged by
// the caller and never aborts the tick.
type Notifier interface {
	Show(summary, body string) error
}

const (
	notifyService = "org.freedesktop.Notifications"
	notifyPath    = "/org/freedesktop/Notifications"
	notifyMethod  = "org.freedesktop.Notifications.Notify"
)

// DBusNotifier talks to the desktop notification daemon over the session
// bus.
type DBusNotifier struct {
	conn *dbus.Conn
}

func NewDBusNotifier() (*DBusNotifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &DBusNotifier{conn: conn}, nil
}

func (n *DBusNotifier) Show(summary, body string) error {
	obj := n.conn.Object(notifyService, dbus.ObjectPath(notifyPath))
	// Notify(app_name, replaces_id, app_icon, summary, body, actions,
	// hints, expire_timeout). Expiry -1 leaves the duration to the server.
	call := obj.Call(notifyMethod, 0,
		"sub-returns", uint32(0), "dialog-information",
		summary, body,
		[]string{}, map[string]dbus.Variant{}, int32(-1))
	return call.Err
}

func (n *DBusNotifier) Close() error {
	if n == nil || n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
