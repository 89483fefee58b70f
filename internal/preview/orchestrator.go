// Package preview runs the debounced detect and translate cycle behind one
// input box and keeps the committed history of a session.
package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tommyzki/tommyzki-translate/internal/debounce"
	"github.com/tommyzki/tommyzki-translate/internal/globaltime"
	"github.com/tommyzki/tommyzki-translate/internal/language"
	"github.com/tommyzki/tommyzki-translate/internal/translation"
)

var (
	ErrEmptyInput     = errors.New("input is empty")
	ErrBusy           = errors.New("a translation is already in progress")
	ErrClosed         = errors.New("session is closed")
	ErrNoticeNotFound = errors.New("notice not found")
)

const (
	DefaultQuietPeriod = time.Second
	DefaultCallTimeout = 2 * time.Minute
	DefaultNoticeTTL   = 6 * time.Second
	DefaultMaxNotices  = 5
)

// Options tunes an Orchestrator. Zero values use the defaults above.
type Options struct {
	QuietPeriod     time.Duration
	CallTimeout     time.Duration
	NoticeTTL       time.Duration
	MaxNotices      int
	DefaultLanguage language.Code
	Scheduler       debounce.Scheduler
	Now             func() time.Time
	NewID           func() string
}

func (o Options) withDefaults() Options {
	if o.QuietPeriod <= 0 {
		o.QuietPeriod = DefaultQuietPeriod
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.NoticeTTL <= 0 {
		o.NoticeTTL = DefaultNoticeTTL
	}
	if o.MaxNotices <= 0 {
		o.MaxNotices = DefaultMaxNotices
	}
	if !o.DefaultLanguage.Valid() {
		o.DefaultLanguage = language.Default
	}
	if o.Scheduler == nil {
		o.Scheduler = debounce.RealScheduler
	}
	if o.Now == nil {
		o.Now = globaltime.UTC
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// Orchestrator owns the input, live preview, detected language and history of
// one session.
//
// Every round-trip carries the generation it was started under. A result is
// applied only while that generation is still the latest and the input still
// equals the text that produced it; anything else is dropped on arrival.
type Orchestrator struct {
	detector   translation.Detector
	translator translation.Translator
	logger     zerolog.Logger
	opts       Options

	baseCtx   context.Context
	cancel    context.CancelFunc
	debouncer *debounce.Debouncer[string]

	mu          sync.Mutex
	closed      bool
	input       string
	state       State
	failed      bool
	detected    language.Code
	detectedFor string
	preview     *translation.Result
	previewFor  string
	generation  uint64
	committing  bool
	history     []HistoryEntry
	notices     []Notice
	version     uint64
	subscribers map[int]chan Snapshot
	nextSubID   int
}

func New(detector translation.Detector, translator translation.Translator, logger zerolog.Logger, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		detector:    detector,
		translator:  translator,
		logger:      logger,
		opts:        opts,
		baseCtx:     ctx,
		cancel:      cancel,
		subscribers: make(map[int]chan Snapshot),
	}
	o.debouncer = debounce.New(opts.QuietPeriod, o.startRoundTrip, opts.Scheduler)
	return o
}

// SetInput records the current text of the input box. Blank text resets the
// preview immediately; anything else schedules a round-trip after the quiet period.
func (o *Orchestrator) SetInput(text string) (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return Snapshot{}, ErrClosed
	}

	o.input = text
	if strings.TrimSpace(text) == "" {
		o.debouncer.Cancel()
		o.generation++
		o.resetPreviewLocked()
		o.state = StateIdle
		o.failed = false
		o.publishLocked()
		return o.snapshotLocked(), nil
	}

	o.debouncer.Call(text)
	o.publishLocked()
	return o.snapshotLocked(), nil
}

// Commit moves a translation of the current input into history and clears the
// input. A preview produced for exactly this text is reused; otherwise one more
// round-trip is made.
func (o *Orchestrator) Commit(ctx context.Context) (*HistoryEntry, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}

	text := o.input
	if strings.TrimSpace(text) == "" {
		o.addNoticeLocked(OperationValidation, "Nothing to save", "Type some text before saving a translation.")
		o.publishLocked()
		o.mu.Unlock()
		return nil, ErrEmptyInput
	}
	if o.committing || o.state.InFlight() {
		o.mu.Unlock()
		return nil, ErrBusy
	}

	o.debouncer.Cancel()
	o.generation++

	if o.state == StatePreviewReady && o.preview != nil && o.previewFor == text {
		entry := o.appendHistoryLocked(*o.preview)
		o.clearLocked()
		o.publishLocked()
		o.mu.Unlock()
		return &entry, nil
	}

	var hint language.Code
	if o.detectedFor == text {
		hint = o.detected
	}
	generation := o.generation
	o.committing = true
	o.publishLocked()
	o.mu.Unlock()

	callCtx, cancel := o.callContext(ctx)
	defer cancel()

	if hint == "" {
		hint = o.detect(callCtx, generation, text, OperationCommit)
	}
	result, err := o.translator.Translate(callCtx, translation.Request{Text: text, SourceHint: hint})
	if err == nil {
		err = result.Validate()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.committing = false
	if o.closed {
		return nil, ErrClosed
	}
	if err != nil {
		o.logger.Warn().
			Err(err).
			Str("operation", string(OperationCommit)).
			Uint64("generation", generation).
			Msg("commit translation failed")
		o.addNoticeLocked(OperationCommit, "Could not save translation", err.Error())
		if !o.state.InFlight() {
			o.failed = true
			o.state = StateError
		}
		o.publishLocked()
		return nil, fmt.Errorf("commit translation: %w", err)
	}

	entry := o.appendHistoryLocked(mergeResult(*result, text))
	if o.input == text {
		o.clearLocked()
	} else if !o.state.InFlight() {
		o.state = o.settledStateLocked()
	}
	o.publishLocked()
	return &entry, nil
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Subscribe returns a channel that always holds the latest snapshot. Slow
// readers skip intermediate snapshots. The returned func unsubscribes.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if o.closed {
		close(ch)
		return ch, func() {}
	}

	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = ch
	ch <- o.snapshotLocked()

	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if sub, ok := o.subscribers[id]; ok {
			delete(o.subscribers, id)
			close(sub)
		}
	}
}

// DismissNotice removes one notice.
func (o *Orchestrator) DismissNotice(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	for i, notice := range o.notices {
		if notice.ID == id {
			o.notices = append(o.notices[:i], o.notices[i+1:]...)
			o.publishLocked()
			return nil
		}
	}
	return ErrNoticeNotFound
}

// Close cancels pending and in-flight work and ends all subscriptions.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	o.debouncer.Cancel()
	o.cancel()
	for id, ch := range o.subscribers {
		delete(o.subscribers, id)
		close(ch)
	}
}

func (o *Orchestrator) startRoundTrip(text string) {
	o.mu.Lock()
	if o.closed || o.input != text {
		o.mu.Unlock()
		return
	}
	o.generation++
	generation := o.generation
	o.state = StateDetecting
	o.publishLocked()
	o.mu.Unlock()

	go o.roundTrip(generation, text)
}

func (o *Orchestrator) roundTrip(generation uint64, text string) {
	ctx, cancel := o.callContext(context.Background())
	defer cancel()

	code := o.detect(ctx, generation, text, OperationPreview)

	o.mu.Lock()
	if !o.currentLocked(generation, text) {
		o.discardLocked(generation, "detect")
		o.mu.Unlock()
		return
	}
	o.detected = code
	o.detectedFor = text
	o.state = StateTranslating
	o.publishLocked()
	o.mu.Unlock()

	result, err := o.translator.Translate(ctx, translation.Request{Text: text, SourceHint: code})
	if err == nil {
		err = result.Validate()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.currentLocked(generation, text) {
		o.discardLocked(generation, "translate")
		return
	}
	if err != nil {
		o.logger.Warn().
			Err(err).
			Str("operation", string(OperationPreview)).
			Uint64("generation", generation).
			Msg("preview translation failed")
		o.addNoticeLocked(OperationPreview, "Translation failed", err.Error())
		o.failed = true
		o.state = StateError
		o.publishLocked()
		return
	}

	merged := mergeResult(*result, text)
	o.preview = &merged
	o.previewFor = text
	o.detected = merged.Source.Code
	o.failed = false
	o.state = StatePreviewReady
	o.publishLocked()
}

// detect never fails: errors fall back to the default language and leave a notice.
func (o *Orchestrator) detect(ctx context.Context, generation uint64, text string, op Operation) language.Code {
	code, err := o.detector.Detect(ctx, text)
	if err == nil && code.Valid() {
		return code
	}
	if err == nil {
		err = fmt.Errorf("detector answered unsupported language %q", code)
	}

	fallback := o.opts.DefaultLanguage
	o.logger.Warn().
		Err(err).
		Str("operation", string(op)).
		Uint64("generation", generation).
		Str("fallback", fallback.String()).
		Msg("language detection failed")

	o.mu.Lock()
	if !o.closed && generation == o.generation {
		o.addNoticeLocked(OperationDetect, "Language detection failed",
			fmt.Sprintf("Continuing as %s: %v", fallback.Name(), err))
		o.publishLocked()
	}
	o.mu.Unlock()
	return fallback
}

func (o *Orchestrator) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, o.opts.CallTimeout)
	stop := context.AfterFunc(o.baseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (o *Orchestrator) currentLocked(generation uint64, text string) bool {
	return !o.closed && generation == o.generation && text == o.input
}

func (o *Orchestrator) discardLocked(generation uint64, step string) {
	o.logger.Debug().
		Uint64("generation", generation).
		Uint64("latest_generation", o.generation).
		Str("step", step).
		Msg("discarding stale response")

	// The input moved on but no newer round-trip has started yet.
	if !o.closed && generation == o.generation {
		o.state = o.settledStateLocked()
		o.publishLocked()
	}
}

func (o *Orchestrator) settledStateLocked() State {
	switch {
	case o.failed:
		return StateError
	case o.preview != nil:
		return StatePreviewReady
	default:
		return StateIdle
	}
}

func (o *Orchestrator) resetPreviewLocked() {
	o.preview = nil
	o.previewFor = ""
	o.detected = ""
	o.detectedFor = ""
}

func (o *Orchestrator) clearLocked() {
	o.input = ""
	o.generation++
	o.resetPreviewLocked()
	o.failed = false
	o.state = StateIdle
}

func (o *Orchestrator) appendHistoryLocked(result translation.Result) HistoryEntry {
	entry := HistoryEntry{
		ID:          o.opts.NewID(),
		Result:      result,
		CommittedAt: o.opts.Now(),
	}
	o.history = append(o.history, entry)
	return entry
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	o.pruneNoticesLocked()

	snap := Snapshot{
		Version:    o.version,
		Input:      o.input,
		State:      o.state,
		Detected:   o.detected,
		PreviewFor: o.previewFor,
		Loading:    o.state.InFlight() || o.committing,
		Committing: o.committing,
		CanCommit:  strings.TrimSpace(o.input) != "" && !o.committing && !o.state.InFlight(),
		History:    append([]HistoryEntry(nil), o.history...),
		Notices:    append([]Notice(nil), o.notices...),
	}
	if snap.History == nil {
		snap.History = []HistoryEntry{}
	}
	if snap.Notices == nil {
		snap.Notices = []Notice{}
	}
	if o.preview != nil {
		preview := *o.preview
		snap.Preview = &preview
	}
	return snap
}

func (o *Orchestrator) publishLocked() {
	o.version++
	if len(o.subscribers) == 0 {
		return
	}
	snap := o.snapshotLocked()
	for _, ch := range o.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
