package enumerate

import (
	"context"
	"sync"

	"ytanalyzer/internal/youtube"
)

// DefaultProgressBuffer is the progress channel capacity used when none is
// given.
const DefaultProgressBuffer = 64

// Runner runs an Engine in the background with at most one operation in
// flight.
type Runner struct {
	engine *Engine
	buffer int

	mu     sync.Mutex
	active *Task
}

// NewRunner wraps engine. buffer sizes each task's progress channel.
func NewRunner(engine *Engine, buffer int) *Runner {
	if buffer <= 0 {
		buffer = DefaultProgressBuffer
	}
	return &Runner{engine: engine, buffer: buffer}
}

// Task is one background run. Progress events are delivered without ever
// blocking the run: when the consumer falls behind, events are dropped.
// The progress channel is closed before Done is closed.
type Task struct {
	progress chan Event
	done     chan struct{}
	cancel   context.CancelFunc

	result *Result
	err    error
}

// Progress returns the event stream.
func (t *Task) Progress() <-chan Event { return t.progress }

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel asks the task to stop at its next page boundary.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the task finishes and returns its outcome.
func (t *Task) Wait() (*Result, error) {
	<-t.done
	return t.result, t.err
}

// Busy reports whether an operation is in flight.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Start runs strategy in the background. It fails with ErrRunInProgress
// while another operation is in flight.
func (r *Runner) Start(ctx context.Context, strategy Strategy) (*Task, error) {
	return r.start(ctx, func(ctx context.Context) (*Result, error) {
		return r.engine.Run(ctx, strategy)
	})
}

// StartChannel analyzes channelURL and then runs strategy, in the
// background.
func (r *Runner) StartChannel(ctx context.Context, channelURL string, strategy Strategy) (*Task, error) {
	return r.start(ctx, func(ctx context.Context) (*Result, error) {
		if _, err := r.engine.Analyze(ctx, channelURL); err != nil {
			return nil, err
		}
		return r.engine.Run(ctx, strategy)
	})
}

// Analyze resolves a channel synchronously, under the same single-flight
// guard as Start.
func (r *Runner) Analyze(ctx context.Context, channelURL string) (*youtube.ChannelSummary, error) {
	r.mu.Lock()
	if r.active != nil {
		r.mu.Unlock()
		return nil, ErrRunInProgress
	}
	t := &Task{done: make(chan struct{})}
	r.active = t
	r.mu.Unlock()

	defer r.finish(t)
	return r.engine.Analyze(ctx, channelURL)
}

func (r *Runner) start(ctx context.Context, fn func(context.Context) (*Result, error)) (*Task, error) {
	r.mu.Lock()
	if r.active != nil {
		r.mu.Unlock()
		return nil, ErrRunInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		progress: make(chan Event, r.buffer),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	r.active = t
	r.mu.Unlock()

	var prev func(Event)
	prev = r.engine.swapObserver(func(ev Event) {
		if prev != nil {
			prev(ev)
		}
		select {
		case t.progress <- ev:
		default:
		}
	})

	go func() {
		defer cancel()
		t.result, t.err = fn(ctx)
		r.engine.swapObserver(prev)
		close(t.progress)
		r.finish(t)
	}()
	return t, nil
}

func (r *Runner) finish(t *Task) {
	r.mu.Lock()
	if r.active == t {
		r.active = nil
	}
	r.mu.Unlock()
	close(t.done)
}
