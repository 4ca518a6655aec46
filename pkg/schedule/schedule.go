package schedule

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule computes the next run time for a recurring maintenance pass.
type Schedule interface {
	Next(from time.Time) time.Time
}

// Option configures a Daily or Weekly schedule.
type Option func(*jitterOpts)

type jitterOpts struct {
	jitter time.Duration
}

// WithJitter spreads a fleet of processes constructing the same Daily or
// Weekly schedule across up to d of wall-clock time: each Schedule draws
// its own fixed offset in [0, d) once, at construction, rather than
// re-randomizing on every Next call, so GC across a worker fleet doesn't
// all land on the same minute and hammer the datastore at once while a
// single process's own firings stay evenly spaced.
func WithJitter(d time.Duration) Option {
	return func(o *jitterOpts) { o.jitter = d }
}

func resolveJitter(opts []Option) time.Duration {
	var o jitterOpts
	for _, opt := range opts {
		opt(&o)
	}
	if o.jitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(o.jitter)))
}

// everySchedule runs at fixed intervals.
type everySchedule struct {
	interval time.Duration
}

// Every creates a schedule that runs every d.
func Every(d time.Duration) Schedule {
	return &everySchedule{interval: d}
}

func (s *everySchedule) Next(from time.Time) time.Time {
	return from.Add(s.interval)
}

// dailySchedule runs at a specific time each day, offset by a fixed
// per-instance jitter.
type dailySchedule struct {
	hour   int
	minute int
	loc    *time.Location
	jitter time.Duration
}

// Daily creates a schedule that runs at hour:minute UTC each day. With
// WithJitter, each constructed Daily schedule fires at hour:minute plus
// its own fixed random offset rather than exactly on the minute.
func Daily(hour, minute int, opts ...Option) Schedule {
	return &dailySchedule{hour: hour, minute: minute, loc: time.UTC, jitter: resolveJitter(opts)}
}

func (s *dailySchedule) Next(from time.Time) time.Time {
	from = from.In(s.loc)
	next := time.Date(from.Year(), from.Month(), from.Day(), s.hour, s.minute, 0, 0, s.loc).Add(s.jitter)
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// weeklySchedule runs at a specific day and time each week, offset by a
// fixed per-instance jitter.
type weeklySchedule struct {
	day    time.Weekday
	hour   int
	minute int
	loc    *time.Location
	jitter time.Duration
}

// Weekly creates a schedule that runs at a specific weekday/hour/minute
// UTC, optionally jittered the same way Daily is.
func Weekly(day time.Weekday, hour, minute int, opts ...Option) Schedule {
	return &weeklySchedule{day: day, hour: hour, minute: minute, loc: time.UTC, jitter: resolveJitter(opts)}
}

func (s *weeklySchedule) Next(from time.Time) time.Time {
	from = from.In(s.loc)

	daysUntil := int(s.day - from.Weekday())
	if daysUntil < 0 {
		daysUntil += 7
	}

	next := time.Date(from.Year(), from.Month(), from.Day()+daysUntil, s.hour, s.minute, 0, 0, s.loc).Add(s.jitter)
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// cronSchedule wraps a cron expression.
type cronSchedule struct {
	schedule cron.Schedule
}

// Cron creates a schedule from a standard 5-field cron expression.
func Cron(expr string) Schedule {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		panic("schedule: invalid cron expression: " + err.Error())
	}
	return &cronSchedule{schedule: schedule}
}

func (s *cronSchedule) Next(from time.Time) time.Time {
	return s.schedule.Next(from)
}

// Run blocks, calling fn every time sched.Next elapses, until ctx is
// cancelled. Each firing is computed fresh from the previous firing's
// timestamp rather than a fixed ticker, so Daily/Weekly/Cron schedules
// stay aligned to wall-clock boundaries instead of drifting.
func Run(ctx context.Context, sched Schedule, fn func(context.Context)) {
	now := time.Now()
	for {
		next := sched.Next(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case now = <-timer.C:
			fn(ctx)
		}
	}
}
