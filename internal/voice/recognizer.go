// Package voice wraps a speech-to-text engine behind the single-utterance
// session the planner uses: start, one final transcript delivered to a
// callback, then inert until restarted.
package voice

import (
	"context"
	"errors"
	"log"
	"sync"
)

// Locale is fixed; recognition is not continuous and yields no interim
// results.
const Locale = "zh-CN"

var (
	// ErrUnsupported means no engine is available. Callers use Supported to
	// disable voice affordances up front; starting anyway gets this error.
	ErrUnsupported = errors.New("speech recognition is not supported")

	ErrAlreadyListening = errors.New("recognition session already running")
)

// Engine produces one final transcript per call. The iFlytek-backed engine
// and test engines both satisfy this.
type Engine interface {
	Transcribe(ctx context.Context, locale string) (string, error)
}

// Recognizer runs single-utterance sessions against an Engine. On a final
// transcript it invokes the callback and goes inert; on error it logs and
// goes inert with no automatic retry.
type Recognizer struct {
	engine   Engine
	onResult func(text string)

	mu        sync.Mutex
	listening bool
	cancel    context.CancelFunc
}

func NewRecognizer(engine Engine, onResult func(text string)) *Recognizer {
	return &Recognizer{engine: engine, onResult: onResult}
}

// Supported reports whether an engine is available at all.
func (r *Recognizer) Supported() bool {
	return r != nil && r.engine != nil
}

// Start begins one recognition session. The callback fires at most once, on
// the final transcript. Start returns once the session is launched.
func (r *Recognizer) Start(ctx context.Context) error {
	if !r.Supported() {
		return ErrUnsupported
	}

	r.mu.Lock()
	if r.listening {
		r.mu.Unlock()
		return ErrAlreadyListening
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	r.listening = true
	r.cancel = cancel
	r.mu.Unlock()

	go r.run(sessionCtx)
	return nil
}

// Stop aborts an in-flight session. The callback does not fire for an
// aborted session.
func (r *Recognizer) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.listening = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Listening reports whether a session is in flight.
func (r *Recognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

func (r *Recognizer) run(ctx context.Context) {
	text, err := r.engine.Transcribe(ctx, Locale)

	r.mu.Lock()
	wasListening := r.listening
	r.listening = false
	r.cancel = nil
	r.mu.Unlock()

	if !wasListening {
		return // aborted via Stop
	}
	if err != nil {
		log.Printf("voice: recognition failed: %v", err)
		return
	}
	if r.onResult != nil {
		r.onResult(text)
	}
}
