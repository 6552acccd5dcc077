package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyRepo       = "repository"
	KeySite       = "site"
	KeySpace      = "space"
	KeyTitle      = "title"
	KeyPath       = "path"
	KeySection    = "section"
	KeyPageID     = "page_id"
	KeyParentID   = "parent_id"
	KeyOperation  = "operation"
	KeyLevel      = "level"
	KeyCount      = "count"
	KeyAttempt    = "attempt"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Site(s string) slog.Attr         { return slog.String(KeySite, s) }
func Space(s string) slog.Attr        { return slog.String(KeySpace, s) }
func Title(t string) slog.Attr        { return slog.String(KeyTitle, t) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func PageID(id string) slog.Attr      { return slog.String(KeyPageID, id) }
func ParentID(id string) slog.Attr    { return slog.String(KeyParentID, id) }
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func Level(section string) slog.Attr  { return slog.String(KeyLevel, section) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
