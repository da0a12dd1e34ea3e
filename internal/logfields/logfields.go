package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPlugin     = "plugin"
	KeyHook       = "hook"
	KeyPhase      = "phase"
	KeyStage      = "stage"
	KeyAction     = "action"
	KeyNodeID     = "node_id"
	KeyNodeType   = "node_type"
	KeyPage       = "page"
	KeyPath       = "path"
	KeyName       = "name"
	KeyURL        = "url"
	KeyAddr       = "addr"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Hook(name string) slog.Attr      { return slog.String(KeyHook, name) }
func Phase(name string) slog.Attr     { return slog.String(KeyPhase, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Action(kind string) slog.Attr    { return slog.String(KeyAction, kind) }
func NodeID(id string) slog.Attr      { return slog.String(KeyNodeID, id) }
func NodeType(t string) slog.Attr     { return slog.String(KeyNodeType, t) }
func Page(path string) slog.Attr      { return slog.String(KeyPage, path) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
