package deferred

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"

	"deleteafter/internal/exitcodes"
	"deleteafter/internal/fsops"
	"deleteafter/internal/logging"
)

// Sleeper blocks for d or until ctx is done
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper waits on a real timer
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Observer receives every finished Result (history, metrics)
type Observer interface {
	Observe(res Result) error
}

// Runner performs one deferred deletion per call
type Runner struct {
	fs           fsops.Deleter
	sleeper      Sleeper
	logger       *logging.Logger
	observers    []Observer
	defaultDelay time.Duration
	measure      bool
	sizer        func(path string) int64
	now          func() time.Time
	newID        func() string
}

// NewRunner creates a Runner on the real filesystem and a real timer.
// A nil logger discards everything.
func NewRunner(logger *logging.Logger, defaultDelay time.Duration) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{
		fs:           fsops.OSDeleter{},
		sleeper:      TimerSleeper{},
		logger:       logger,
		defaultDelay: defaultDelay,
		sizer:        fsops.TreeSize,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// SetDeleter replaces the filesystem layer
func (r *Runner) SetDeleter(d fsops.Deleter) {
	r.fs = d
}

// SetSleeper replaces the wait implementation
func (r *Runner) SetSleeper(s Sleeper) {
	r.sleeper = s
}

// SetSizer replaces how target size is measured
func (r *Runner) SetSizer(sizer func(path string) int64) {
	r.sizer = sizer
}

// SetMeasureSize enables recording the target's size before removal
func (r *Runner) SetMeasureSize(measure bool) {
	r.measure = measure
}

// AddObserver registers an Observer for finished results
func (r *Runner) AddObserver(o Observer) {
	r.observers = append(r.observers, o)
}

// Run executes one invocation from positional arguments and returns the exit code
func (r *Runner) Run(ctx context.Context, args []string) int {
	req, err := ParseArgs(args, r.defaultDelay)
	if err != nil {
		return exitcodes.Usage
	}
	if req.DelayDefaulted {
		r.logger.Debug("unparsable delay, using default", "value", args[1], "delay", req.Delay)
	}

	res := r.Execute(ctx, req)
	r.notify(res)

	if res.Status == StatusAborted {
		return exitcodes.Interrupted
	}
	return exitcodes.Success
}

// Execute checks, waits and deletes. It never returns an error; every
// failure ends up in the Result.
func (r *Runner) Execute(ctx context.Context, req Request) (res Result) {
	res = Result{
		RunID:          r.newID(),
		Target:         req.Target,
		Delay:          req.Delay,
		DelayDefaulted: req.DelayDefaulted,
		StartedAt:      r.now(),
	}
	defer func() {
		res.FinishedAt = r.now()
	}()

	if _, err := r.fs.Stat(req.Target); err != nil {
		res.Status = StatusNothingToDo
		res.ObjectType = ObjectMissing
		r.logger.Debug("target absent, nothing to do", "run_id", res.RunID, "target", req.Target)
		return res
	}

	r.logger.Debug("waiting before delete", "run_id", res.RunID, "target", req.Target, "delay", req.Delay)
	if err := r.sleeper.Sleep(ctx, req.Delay); err != nil {
		res.Status = StatusAborted
		res.Err = err
		r.logger.Info("wait interrupted, target left in place", "run_id", res.RunID, "target", req.Target, "error", err)
		return res
	}

	r.remove(&res)

	switch res.Status {
	case StatusIgnored:
		r.logger.Info("delete failed, ignoring", "run_id", res.RunID, "target", res.Target, "object", res.ObjectType, "error", res.Err)
	default:
		r.logger.Debug("delete finished", "run_id", res.RunID, "target", res.Target, "object", res.ObjectType, "status", res.Status)
	}
	return res
}

// remove deletes the target according to its type. Panics from the
// filesystem layer are contained like any other removal error.
func (r *Runner) remove(res *Result) {
	defer func() {
		if p := recover(); p != nil {
			res.Status = StatusIgnored
			res.Err = fmt.Errorf("panic during removal: %v", p)
		}
	}()

	res.ObjectType = r.classify(res.Target)
	if r.measure && (res.ObjectType == ObjectFile || res.ObjectType == ObjectDirectory) {
		res.Size = r.sizer(res.Target)
	}

	var err error
	switch res.ObjectType {
	case ObjectDirectory:
		err = r.fs.RemoveAll(res.Target)
	case ObjectFile:
		err = r.fs.Remove(res.Target)
	default:
		res.Status = StatusSkipped
		return
	}

	if err != nil {
		res.Status = StatusIgnored
		res.Err = err
		return
	}
	res.Status = StatusDeleted
}

// classify reports what removal applies to path. A symlink to a regular
// file is a file (the link is removed); a symlink to a directory is left alone.
func (r *Runner) classify(path string) string {
	info, err := r.fs.Lstat(path)
	if err != nil {
		return ObjectMissing
	}

	mode := info.Mode()
	if mode&fs.ModeSymlink != 0 {
		resolved, err := r.fs.Stat(path)
		if err != nil {
			return ObjectOther
		}
		switch {
		case resolved.IsDir():
			return ObjectSymlink
		case resolved.Mode().IsRegular():
			return ObjectFile
		}
		return ObjectOther
	}

	switch {
	case mode.IsDir():
		return ObjectDirectory
	case mode.IsRegular():
		return ObjectFile
	}
	return ObjectOther
}

func (r *Runner) notify(res Result) {
	for _, o := range r.observers {
		if err := o.Observe(res); err != nil {
			r.logger.Error("failed to record result", "run_id", res.RunID, "error", err)
		}
	}
}
