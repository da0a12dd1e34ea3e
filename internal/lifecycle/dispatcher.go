package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitewright/internal/action"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
)

// Lifecycle event types appended to the journal. They mirror the
// eventstore constants; duplicated so this package stays storage-free.
const (
	hookInvokedEvent = "hook.invoked"
	hookFailedEvent  = "hook.failed"
)

// InvokeError attributes a hook failure to the plugin that raised it.
type InvokeError struct {
	Plugin string
	Hook   HookName
	Err    error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("plugin %s failed during %s: %v", e.Plugin, e.Hook, e.Err)
}

func (e *InvokeError) Unwrap() error { return e.Err }

// Recorder is the metrics surface the dispatcher needs. Satisfied by
// metrics.Recorder.
type Recorder interface {
	ObserveHookDuration(hook, plugin string, d time.Duration)
	IncHookResult(hook, result string)
}

// Dispatcher runs a hook across all registrations sequentially in load
// order. Load order is significant: later-loaded plugins observe the
// effects of earlier ones.
type Dispatcher struct {
	reg     *Registry
	rec     Recorder
	journal action.Journal
	log     *slog.Logger
	buildID string
}

// NewDispatcher creates a dispatcher. rec and journal may be nil.
func NewDispatcher(reg *Registry, rec Recorder, journal action.Journal, log *slog.Logger, buildID string) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{reg: reg, rec: rec, journal: journal, log: log, buildID: buildID}
}

// Invoke is called once per registration with the stored implementation.
type Invoke func(ctx context.Context, reg Registration) error

// Run invokes every registration of a structural hook in load order,
// aborting on the first error. The failing plugin is identified in the
// returned InvokeError.
func (d *Dispatcher) Run(ctx context.Context, name HookName, invoke Invoke) error {
	regs, err := d.reg.Lookup(name)
	if err != nil {
		return err
	}

	for _, reg := range regs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.runOne(ctx, reg, invoke); err != nil {
			return err
		}
	}
	return nil
}

// RunWhere invokes registrations of a structural hook that pass the keep
// filter, in load order, aborting on the first error. Filtered-out
// registrations are not invoked, timed, or journaled; this backs the
// shouldOnCreateNode prefilter.
func (d *Dispatcher) RunWhere(ctx context.Context, name HookName, keep func(Registration) bool, invoke Invoke) error {
	regs, err := d.reg.Lookup(name)
	if err != nil {
		return err
	}

	for _, reg := range regs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if keep != nil && !keep(reg) {
			continue
		}
		if err := d.runOne(ctx, reg, invoke); err != nil {
			return err
		}
	}
	return nil
}

// RunNotify invokes every registration of a notification hook in load
// order, logging failures and continuing so every plugin gets its turn.
// When any plugin failed, the joined errors are returned afterwards and the
// stage fails.
func (d *Dispatcher) RunNotify(ctx context.Context, name HookName, invoke Invoke) error {
	regs, err := d.reg.Lookup(name)
	if err != nil {
		return err
	}

	var errs []error
	for _, reg := range regs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := d.runOne(ctx, reg, invoke); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runOne times and journals a single invocation.
func (d *Dispatcher) runOne(ctx context.Context, reg Registration, invoke Invoke) error {
	t0 := time.Now()
	err := invoke(ctx, reg)
	dur := time.Since(t0)

	if d.rec != nil {
		d.rec.ObserveHookDuration(string(reg.Hook), reg.Owner, dur)
	}

	if err != nil {
		if d.rec != nil {
			d.rec.IncHookResult(string(reg.Hook), "error")
		}
		d.appendEvent(ctx, hookFailedEvent, reg, dur, err)
		d.log.Error("Hook failed",
			logfields.Hook(string(reg.Hook)),
			logfields.Plugin(reg.Owner),
			logfields.DurationMS(float64(dur.Milliseconds())),
			logfields.Error(err))
		return &InvokeError{Plugin: reg.Owner, Hook: reg.Hook, Err: err}
	}

	if d.rec != nil {
		d.rec.IncHookResult(string(reg.Hook), "success")
	}
	d.appendEvent(ctx, hookInvokedEvent, reg, dur, nil)
	d.log.Debug("Hook invoked",
		logfields.Hook(string(reg.Hook)),
		logfields.Plugin(reg.Owner),
		logfields.DurationMS(float64(dur.Milliseconds())))
	return nil
}

func (d *Dispatcher) appendEvent(ctx context.Context, eventType string, reg Registration, dur time.Duration, hookErr error) {
	if d.journal == nil {
		return
	}

	payload := map[string]any{
		"hook":        string(reg.Hook),
		"plugin":      reg.Owner,
		"duration_ms": dur.Milliseconds(),
	}
	if hookErr != nil {
		payload["error"] = hookErr.Error()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	// Journal failures must never fail a build; the journal is observability.
	if err := d.journal.Append(ctx, d.buildID, eventType, data, nil); err != nil {
		d.log.Warn("Failed to journal hook event", logfields.Error(err))
	}
}
