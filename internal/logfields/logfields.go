// Package logfields holds canonical slog attribute keys so log output stays consistent across packages.
package logfields

import "log/slog"

const (
	KeySource     = "source"
	KeyURLPath    = "url_path"
	KeyLogical    = "logical_path"
	KeyMediaType  = "media_type"
	KeyMode       = "mode"
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyPath       = "path"
	KeyLayout     = "layout"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyAddr       = "addr"
	KeyError      = "error"
)

func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func URLPath(p string) slog.Attr      { return slog.String(KeyURLPath, p) }
func Logical(p string) slog.Attr      { return slog.String(KeyLogical, p) }
func MediaType(mt string) slog.Attr   { return slog.String(KeyMediaType, mt) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Layout(name string) slog.Attr    { return slog.String(KeyLayout, name) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }

// Error returns an error attribute; nil renders as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
