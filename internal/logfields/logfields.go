// Package logfields defines canonical log field name constants and slog
// attr helpers to avoid drift across packages.
package logfields

import "log/slog"

const (
	KeyRegistry   = "registry"
	KeySnapshotID = "snapshot_id"
	KeySubject    = "subject"
	KeyPath       = "path"
	KeyListen     = "listen"
	KeyInterval   = "interval"
	KeyLevel      = "level"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Registry(name string) slog.Attr   { return slog.String(KeyRegistry, name) }
func SnapshotID(id string) slog.Attr   { return slog.String(KeySnapshotID, id) }
func Subject(s string) slog.Attr       { return slog.String(KeySubject, s) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Listen(addr string) slog.Attr     { return slog.String(KeyListen, addr) }
func Interval(i string) slog.Attr      { return slog.String(KeyInterval, i) }
func Level(l string) slog.Attr         { return slog.String(KeyLevel, l) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
