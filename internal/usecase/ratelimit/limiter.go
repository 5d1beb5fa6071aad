package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// Window sizes for the three rolling counters.
const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
	dayWindow    = 24 * time.Hour
)

// Limits are per-window admission limits for one provider.
// A zero field means that window is unlimited.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// DefaultLimits apply to providers with no configured limits.
var DefaultLimits = Limits{PerMinute: 10, PerHour: 100, PerDay: 1000}

// Unlimited marks a window with no configured limit in a Remaining
// snapshot, so callers can tell "no budget to count" from "budget spent".
const Unlimited = -1

// Remaining is a read-only snapshot of the budget left per window.
// Windows with no configured limit report Unlimited.
type Remaining struct {
	Minute int
	Hour   int
	Day    int
}

type window struct {
	count   int
	resetAt time.Time
}

type usage struct {
	minute window
	hour   window
	day    window
}

// Limiter tracks per-(caller, provider) request counts over minute, hour and
// day windows and admits or rejects call attempts. It never returns errors:
// unknown callers and providers are lazily initialized with defaults.
//
// Window rollover policy: when a window's resetAt has passed, the count is
// zeroed and resetAt advances by one window size from now (not from the
// stale resetAt), so an idle key does not accumulate drift.
type Limiter struct {
	mu       sync.Mutex
	limits   map[string]Limits
	fallback Limits
	usage    map[string]*usage
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Limiter with the given per-provider limits. Providers absent
// from the map fall back to DefaultLimits.
func New(limits map[string]Limits, logger *slog.Logger) *Limiter {
	if limits == nil {
		limits = make(map[string]Limits)
	}
	return &Limiter{
		limits:   limits,
		fallback: DefaultLimits,
		usage:    make(map[string]*usage),
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the time source. For tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// SetFallback replaces the limits applied to providers absent from the
// per-provider table.
func (l *Limiter) SetFallback(limits Limits) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fallback = limits
}

// Allow reports whether a call for (callerID, provider) is admitted, and if
// so consumes one slot from all three windows. Check-then-increment is a
// single atomic step: two concurrent calls cannot both claim the last slot.
func (l *Limiter) Allow(callerID, provider string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	limits := l.limitsFor(provider)
	u := l.usageFor(callerID, provider, now)

	rollover(&u.minute, now, minuteWindow)
	rollover(&u.hour, now, hourWindow)
	rollover(&u.day, now, dayWindow)

	if exceeded(u.minute, limits.PerMinute) ||
		exceeded(u.hour, limits.PerHour) ||
		exceeded(u.day, limits.PerDay) {
		l.logger.Warn("rate limit exceeded",
			"caller", callerID,
			"provider", provider,
			"retry_in", u.minute.resetAt.Sub(now).Round(time.Second),
		)
		return false
	}

	u.minute.count++
	u.hour.count++
	u.day.count++
	return true
}

// Peek reports the remaining budget per window without consuming a slot,
// for user-facing "requests remaining" messaging.
func (l *Limiter) Peek(callerID, provider string) Remaining {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	limits := l.limitsFor(provider)

	u, ok := l.usage[callerID+":"+provider]
	if !ok {
		return Remaining{
			Minute: budget(limits.PerMinute),
			Hour:   budget(limits.PerHour),
			Day:    budget(limits.PerDay),
		}
	}

	return Remaining{
		Minute: left(u.minute, limits.PerMinute, now),
		Hour:   left(u.hour, limits.PerHour, now),
		Day:    left(u.day, limits.PerDay, now),
	}
}

func (l *Limiter) limitsFor(provider string) Limits {
	if lim, ok := l.limits[provider]; ok {
		return lim
	}
	return l.fallback
}

func (l *Limiter) usageFor(callerID, provider string, now time.Time) *usage {
	key := callerID + ":" + provider
	u, ok := l.usage[key]
	if !ok {
		u = &usage{
			minute: window{resetAt: now.Add(minuteWindow)},
			hour:   window{resetAt: now.Add(hourWindow)},
			day:    window{resetAt: now.Add(dayWindow)},
		}
		l.usage[key] = u
	}
	return u
}

func rollover(w *window, now time.Time, size time.Duration) {
	if now.After(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(size)
	}
}

// exceeded reports whether the window is at its limit. Zero limit = unlimited.
func exceeded(w window, limit int) bool {
	return limit > 0 && w.count >= limit
}

func left(w window, limit int, now time.Time) int {
	if limit <= 0 {
		return Unlimited
	}
	if now.After(w.resetAt) {
		return limit
	}
	if r := limit - w.count; r > 0 {
		return r
	}
	return 0
}

// budget maps a configured limit to its untouched Remaining value.
func budget(limit int) int {
	if limit <= 0 {
		return Unlimited
	}
	return limit
}
