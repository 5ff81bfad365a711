package reveal

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay is the pause between revealed tokens.
const DefaultDelay = 30 * time.Millisecond

// FallbackAnswer is revealed when the backend returned an empty answer.
const FallbackAnswer = "No response received."

// Sink receives the growing revealed prefix after each step. done is
// true on the final call, which carries the complete text.
type Sink func(revealed string, done bool)

// Animator progressively reveals an already-complete answer one
// whitespace-delimited token at a time. This is simulated streaming:
// the full text is in memory before Start is called. At most one
// reveal runs at a time; starting a new one cancels the previous run,
// and Cancel guarantees no sink call is delivered after it returns.
type Animator struct {
	// startMu serializes Start/Cancel pairs so cancelling the previous
	// run and installing the next one is atomic; mu guards the fields.
	startMu   sync.Mutex
	mu        sync.Mutex
	delay     time.Duration
	logger    *zap.Logger
	stop      chan struct{}
	done      chan struct{}
	revealing bool
}

func New(delay time.Duration, logger *zap.Logger) *Animator {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Animator{delay: delay, logger: logger}
}

// Start begins revealing text, delivering prefixes to sink from a
// dedicated goroutine. The returned channel closes when the reveal
// ends, whether it completed or was cancelled.
func (a *Animator) Start(text string, sink Sink) <-chan struct{} {
	a.startMu.Lock()
	defer a.startMu.Unlock()
	a.cancel()

	a.mu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	a.stop = stop
	a.done = done
	a.revealing = true
	a.mu.Unlock()

	go a.run(text, sink, stop, done)
	return done
}

// Cancel stops the in-flight reveal, if any, and waits for its
// goroutine to exit. No sink calls are delivered after Cancel returns.
func (a *Animator) Cancel() {
	a.startMu.Lock()
	defer a.startMu.Unlock()
	a.cancel()
}

func (a *Animator) cancel() {
	a.mu.Lock()
	stop := a.stop
	done := a.done
	a.stop = nil
	a.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if done != nil {
		<-done
	}
}

// Revealing reports whether a reveal is in flight. While true, the
// orchestrator rejects new sends and session switches.
func (a *Animator) Revealing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.revealing
}

func (a *Animator) run(text string, sink Sink, stop, done chan struct{}) {
	defer func() {
		a.mu.Lock()
		if a.done == done {
			a.revealing = false
			a.stop = nil
			a.done = nil
		}
		a.mu.Unlock()
		close(done)
	}()

	if strings.TrimSpace(text) == "" {
		text = FallbackAnswer
	}
	// Split on single spaces rather than all whitespace so newlines
	// survive inside tokens and the final prefix reproduces the answer
	// exactly, markdown structure included.
	words := strings.Split(text, " ")
	a.logger.Debug("starting reveal", zap.Int("tokens", len(words)))

	for i := range words {
		select {
		case <-stop:
			a.logger.Debug("reveal cancelled", zap.Int("at", i), zap.Int("tokens", len(words)))
			return
		default:
		}

		sink(strings.Join(words[:i+1], " "), i == len(words)-1)

		if i == len(words)-1 {
			return
		}
		select {
		case <-stop:
			a.logger.Debug("reveal cancelled", zap.Int("at", i+1), zap.Int("tokens", len(words)))
			return
		case <-time.After(a.delay):
		}
	}
}
