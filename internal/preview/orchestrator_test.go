package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tommyzki/tommyzki-translate/internal/debounce"
	"github.com/tommyzki/tommyzki-translate/internal/language"
	"github.com/tommyzki/tommyzki-translate/internal/translation"
)

type fakeTimer struct{}

func (fakeTimer) Stop() bool { return true }

type fakeScheduler struct {
	mu    sync.Mutex
	tasks []func()
}

func (s *fakeScheduler) AfterFunc(_ time.Duration, f func()) debounce.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, f)
	return fakeTimer{}
}

// fireAll runs every scheduled task, including stopped ones.
func (s *fakeScheduler) fireAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	for _, task := range tasks {
		task()
	}
}

type stubDetector struct {
	mu    sync.Mutex
	calls []string
	code  language.Code
	err   error
	gates map[string]chan struct{}
}

func (d *stubDetector) Name() string { return "stub" }

func (d *stubDetector) Detect(ctx context.Context, text string) (language.Code, error) {
	d.mu.Lock()
	d.calls = append(d.calls, text)
	gate := d.gates[text]
	code, err := d.code, d.err
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if code == "" {
		code = language.English
	}
	return code, nil
}

func (d *stubDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type stubTranslator struct {
	mu       sync.Mutex
	requests []translation.Request
	err      error
	gates    map[string]chan struct{}
	results  map[string]translation.Result
}

func (s *stubTranslator) Translate(ctx context.Context, req translation.Request) (*translation.Result, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	gate := s.gates[req.Text]
	err := s.err
	result, ok := s.results[req.Text]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		source := req.SourceHint
		if source == "" {
			source = language.English
		}
		result = translation.Result{
			Source: translation.Source{Code: source, Name: source.Name()},
			EN:     "en:" + req.Text,
			ID:     "id:" + req.Text,
			JA:     translation.Japanese{Kanji: "ja:" + req.Text, Romaji: "romaji:" + req.Text},
		}
	}
	return &result, nil
}

func (s *stubTranslator) requestsSnapshot() []translation.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]translation.Request(nil), s.requests...)
}

func (s *stubTranslator) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	orchestrator *Orchestrator
	scheduler    *fakeScheduler
	detector     *stubDetector
	translator   *stubTranslator
	logs         *syncBuffer
	now          time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		scheduler:  &fakeScheduler{},
		detector:   &stubDetector{gates: map[string]chan struct{}{}},
		translator: &stubTranslator{gates: map[string]chan struct{}{}, results: map[string]translation.Result{}},
		logs:       &syncBuffer{},
		now:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	ids := 0
	logger := zerolog.New(h.logs).Level(zerolog.DebugLevel)
	h.orchestrator = New(h.detector, h.translator, logger, Options{
		QuietPeriod: 50 * time.Millisecond,
		CallTimeout: 5 * time.Second,
		NoticeTTL:   time.Hour,
		Scheduler:   h.scheduler,
		Now:         func() time.Time { return h.now },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	})
	t.Cleanup(h.orchestrator.Close)
	return h
}

func (h *harness) setInput(t *testing.T, text string) {
	t.Helper()
	if _, err := h.orchestrator.SetInput(text); err != nil {
		t.Fatalf("SetInput(%q) error = %v", text, err)
	}
}

func waitFor(t *testing.T, o *Orchestrator, what string, cond func(Snapshot) bool) Snapshot {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := o.Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; last snapshot state=%s input=%q preview_for=%q", what, snap.State, snap.Input, snap.PreviewFor)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func readyFor(text string) func(Snapshot) bool {
	return func(s Snapshot) bool {
		return s.State == StatePreviewReady && s.PreviewFor == text
	}
}

func TestBurstOfKeystrokesIssuesOneRoundTrip(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for _, text := range []string{"H", "He", "Hel", "Hell", "Hello"} {
		h.setInput(t, text)
	}
	if got := h.orchestrator.Snapshot().State; got != StateIdle {
		t.Fatalf("expected idle before the quiet period elapses, got %s", got)
	}

	h.scheduler.fireAll()
	snap := waitFor(t, h.orchestrator, "preview", readyFor("Hello"))

	if h.detector.callCount() != 1 {
		t.Fatalf("expected 1 detection, got %d (%v)", h.detector.callCount(), h.detector.calls)
	}
	requests := h.translator.requestsSnapshot()
	if len(requests) != 1 {
		t.Fatalf("expected 1 translation, got %d", len(requests))
	}
	if requests[0].Text != "Hello" || requests[0].SourceHint != language.English {
		t.Fatalf("unexpected translation request: %+v", requests[0])
	}
	if snap.Detected != language.English {
		t.Fatalf("expected detected en, got %q", snap.Detected)
	}
	if snap.Preview == nil || snap.Preview.EN != "Hello" {
		t.Fatalf("expected source field to carry the input, got %+v", snap.Preview)
	}
	if snap.Preview.ID != "id:Hello" {
		t.Fatalf("unexpected Indonesian preview: %q", snap.Preview.ID)
	}
	if !snap.CanCommit || snap.Loading {
		t.Fatalf("expected commit enabled and not loading, got can_commit=%v loading=%v", snap.CanCommit, snap.Loading)
	}
}

func TestRoundTripPassesThroughDetectingAndTranslating(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	detectGate := make(chan struct{})
	translateGate := make(chan struct{})
	h.detector.gates["Halo"] = detectGate
	h.translator.gates["Halo"] = translateGate
	h.detector.code = language.Indonesian

	h.setInput(t, "Halo")
	h.scheduler.fireAll()

	snap := waitFor(t, h.orchestrator, "detecting", func(s Snapshot) bool { return s.State == StateDetecting })
	if !snap.Loading || snap.CanCommit {
		t.Fatalf("expected loading without commit while detecting")
	}

	close(detectGate)
	snap = waitFor(t, h.orchestrator, "translating", func(s Snapshot) bool { return s.State == StateTranslating })
	if snap.Detected != language.Indonesian {
		t.Fatalf("expected detected id while translating, got %q", snap.Detected)
	}

	close(translateGate)
	waitFor(t, h.orchestrator, "preview", readyFor("Halo"))
}

func TestEmptyInputResetsWithoutCalls(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.setInput(t, "Hello")
	h.scheduler.fireAll()
	waitFor(t, h.orchestrator, "preview", readyFor("Hello"))

	h.setInput(t, "Hello again")
	h.setInput(t, "   ")
	h.scheduler.fireAll()

	snap := h.orchestrator.Snapshot()
	if snap.State != StateIdle {
		t.Fatalf("expected idle, got %s", snap.State)
	}
	if snap.Preview != nil || snap.PreviewFor != "" || snap.Detected != "" {
		t.Fatalf("expected preview and detection to be cleared, got %+v", snap)
	}
	if snap.CanCommit {
		t.Fatalf("expected commit to be disabled for blank input")
	}
	if h.detector.callCount() != 1 || len(h.translator.requestsSnapshot()) != 1 {
		t.Fatalf("expected no calls after clearing, got detect=%d translate=%d", h.detector.callCount(), len(h.translator.requestsSnapshot()))
	}
}

func TestStaleResponseDoesNotOverwriteNewerPreview(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	gateA := make(chan struct{})
	h.translator.gates["apple"] = gateA

	h.setInput(t, "apple")
	h.scheduler.fireAll()
	waitFor(t, h.orchestrator, "translating apple", func(s Snapshot) bool { return s.State == StateTranslating })

	h.setInput(t, "banana")
	h.scheduler.fireAll()
	waitFor(t, h.orchestrator, "preview for banana", readyFor("banana"))

	close(gateA)
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(h.logs.String(), "discarding stale response") {
		if time.Now().After(deadline) {
			t.Fatalf("expected the late response to be discarded; logs: %s", h.logs.String())
		}
		time.Sleep(2 * time.Millisecond)
	}

	snap := h.orchestrator.Snapshot()
	if snap.State != StatePreviewReady || snap.PreviewFor != "banana" {
		t.Fatalf("expected banana preview to survive, got state=%s preview_for=%q", snap.State, snap.PreviewFor)
	}
	if snap.Preview.ID != "id:banana" {
		t.Fatalf("expected banana translation, got %q", snap.Preview.ID)
	}
}

func TestResponseForEditedInputIsDiscarded(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	gate := make(chan struct{})
	h.translator.gates["cat"] = gate

	h.setInput(t, "cat")
	h.scheduler.fireAll()
	waitFor(t, h.orchestrator, "translating", func(s Snapshot) bool { return s.State == StateTranslating })

	// The edit is still inside its quiet period when the response lands.
	h.setInput(t, "cats")
	close(gate)

	snap := waitFor(t, h.orchestrator, "settled", func(s Snapshot) bool { return !s.State.InFlight() })
	if snap.Preview != nil {
		t.Fatalf("expected the response for %q to be dropped, got %+v", "cat", snap.Preview)
	}
	if snap.State != StateIdle {
		t.Fatalf("expected idle, got %s", snap.State)
	}

	h.scheduler.fireAll()
	waitFor(t, h.orchestrator, "preview for cats", readyFor("cats"))
}

func TestDetectionFailureFallsBackToDefault(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.detector.err = errors.New("model unavailable")

	h.setInput(t, "Selamat pagi")
	h.scheduler.fireAll()
	snap := waitFor(t, h.orchestrator, "preview", readyFor("Selamat pagi"))

	requests := h.translator.requestsSnapshot()
	if len(requests) != 1 || requests[0].SourceHint != language.Default {
		t.Fatalf("expected translation with default hint, got %+v", requests)
	}
	if len(snap.Notices) != 1 || snap.Notices[0].Operation != OperationDetect {
		t.Fatalf("expected one detect notice, got %+v", snap.Notices)
	}
}

func TestTranslationFailureKeepsLastGoodPreview(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.setInput(t, "Hello")
	h.scheduler.fireAll()
	waitFor(t, h.orchestrator, "preview", readyFor("Hello"))

	h.translator.setErr(errors.New("quota exceeded"))
	h.setInput(t, "Hello world")
	h.scheduler.fireAll()

	snap := waitFor(t, h.orchestrator, "error", func(s Snapshot) bool { return s.State == StateError })
	if snap.Preview == nil || snap.PreviewFor != "Hello" {
		t.Fatalf("expected previous preview to be retained, got %+v", snap.Preview)
	}
	if snap.Input != "Hello world" || !snap.CanCommit {
		t.Fatalf("expected input to stay editable, got input=%q can_commit=%v", snap.Input, snap.CanCommit)
	}
	if len(snap.Notices) != 1 || snap.Notices[0].Operation != OperationPreview {
		t.Fatalf("expected one preview notice, got %+v", snap.Notices)
	}
	if !strings.Contains(snap.Notices[0].Description, "quota exceeded") {
		t.Fatalf("expected notice to carry the error, got %q", snap.Notices[0].Description)
	}
}

func TestCommitReusesMatchingPreview(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.translator.results["Hello"] = translation.Result{
		Source: translation.Source{Code: language.English, Name: "English"},
		EN:     "Hello",
		ID:     "Halo",
		JA:     translation.Japanese{Kanji: "こんにちは", Romaji: "Konnichiwa"},
	}

	h.setInput(t, "Hello")
	h.scheduler.fireAll()
	preview := waitFor(t, h.orchestrator, "preview", readyFor("Hello")).Preview

	entry, err := h.orchestrator.Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if entry.Result != *preview {
		t.Fatalf("expected committed entry to equal the preview, got %+v", entry.Result)
	}
	if entry.CommittedAt != h.now {
		t.Fatalf("expected committed_at from the clock, got %s", entry.CommittedAt)
	}

	snap := h.orchestrator.Snapshot()
	if snap.Input != "" || snap.State != StateIdle || snap.Preview != nil {
		t.Fatalf("expected cleared idle state after commit, got %+v", snap)
	}
	if len(snap.History) != 1 || snap.History[0].Result.JA.Kanji != "こんにちは" {
		t.Fatalf("unexpected history: %+v", snap.History)
	}
	if got := len(h.translator.requestsSnapshot()); got != 1 {
		t.Fatalf("expected commit to reuse the preview, got %d translations", got)
	}
}

func TestCommitTranslatesWhenNoPreviewMatches(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.detector.code = language.Japanese
	h.setInput(t, "おはよう")

	entry, err := h.orchestrator.Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if h.detector.callCount() != 1 {
		t.Fatalf("expected commit to detect once, got %d", h.detector.callCount())
	}
	requests := h.translator.requestsSnapshot()
	if len(requests) != 1 || requests[0].SourceHint != language.Japanese {
		t.Fatalf("unexpected translation requests: %+v", requests)
	}
	if entry.Result.JA.Kanji != "おはよう" || entry.Result.JA.Romaji != "romaji:おはよう" {
		t.Fatalf("expected kanji to carry the input and romaji from the model, got %+v", entry.Result.JA)
	}

	// The pending debounce was cancelled by the commit.
	h.scheduler.fireAll()
	snap := h.orchestrator.Snapshot()
	if snap.Input != "" || len(snap.History) != 1 || snap.State != StateIdle {
		t.Fatalf("unexpected state after commit: %+v", snap)
	}
	if h.detector.callCount() != 1 {
		t.Fatalf("expected no round-trip after commit, got %d detections", h.detector.callCount())
	}
}

func TestCommitHistoryIsAppendOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for _, text := range []string{"one", "two", "three"} {
		h.setInput(t, text)
		if _, err := h.orchestrator.Commit(context.Background()); err != nil {
			t.Fatalf("Commit(%q) error = %v", text, err)
		}
	}

	history := h.orchestrator.Snapshot().History
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	for i, want := range []string{"one", "two", "three"} {
		if history[i].Result.EN != want {
			t.Fatalf("history[%d].en = %q, want %q", i, history[i].Result.EN, want)
		}
	}
	if history[0].ID == history[1].ID {
		t.Fatalf("expected unique entry ids")
	}
}

func TestCommitEmptyInputIsValidationNotice(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.setInput(t, "  ")

	if _, err := h.orchestrator.Commit(context.Background()); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	snap := h.orchestrator.Snapshot()
	if len(snap.History) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(snap.History))
	}
	if len(snap.Notices) != 1 || snap.Notices[0].Operation != OperationValidation {
		t.Fatalf("expected a validation notice, got %+v", snap.Notices)
	}
	if h.detector.callCount() != 0 || len(h.translator.requestsSnapshot()) != 0 {
		t.Fatalf("expected no collaborator calls")
	}
}

func TestCommitRejectedWhileRoundTripInFlight(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	gate := make(chan struct{})
	h.translator.gates["busy"] = gate

	h.setInput(t, "busy")
	h.scheduler.fireAll()
	waitFor(t, h.orchestrator, "translating", func(s Snapshot) bool { return s.State == StateTranslating })

	if _, err := h.orchestrator.Commit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(gate)
	waitFor(t, h.orchestrator, "preview", readyFor("busy"))
	if _, err := h.orchestrator.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() after round-trip error = %v", err)
	}
}

func TestCommitFailureKeepsInput(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.translator.setErr(errors.New("model offline"))
	h.setInput(t, "keep me")

	_, err := h.orchestrator.Commit(context.Background())
	if err == nil || !strings.Contains(err.Error(), "model offline") {
		t.Fatalf("expected commit error, got %v", err)
	}

	snap := h.orchestrator.Snapshot()
	if snap.Input != "keep me" || snap.State != StateError || snap.Committing {
		t.Fatalf("unexpected state after failed commit: %+v", snap)
	}
	if len(snap.History) != 0 {
		t.Fatalf("expected no history entry")
	}
	var ops []Operation
	for _, notice := range snap.Notices {
		ops = append(ops, notice.Operation)
	}
	if len(ops) != 1 || ops[0] != OperationCommit {
		t.Fatalf("expected one commit notice, got %v", ops)
	}
}

func TestCommitKeepsInputEditedMidCommit(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	gate := make(chan struct{})
	h.translator.gates["first"] = gate
	h.setInput(t, "first")

	done := make(chan error, 1)
	go func() {
		_, err := h.orchestrator.Commit(context.Background())
		done <- err
	}()
	waitFor(t, h.orchestrator, "committing", func(s Snapshot) bool { return s.Committing })

	h.setInput(t, "second")
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	snap := h.orchestrator.Snapshot()
	if snap.Input != "second" {
		t.Fatalf("expected newer input to be kept, got %q", snap.Input)
	}
	if len(snap.History) != 1 || snap.History[0].Result.EN != "first" {
		t.Fatalf("expected committed entry for the original text, got %+v", snap.History)
	}
}

func TestNoticesAreCappedDismissableAndExpire(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for i := 0; i < DefaultMaxNotices+2; i++ {
		if _, err := h.orchestrator.Commit(context.Background()); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("expected ErrEmptyInput, got %v", err)
		}
	}

	notices := h.orchestrator.Snapshot().Notices
	if len(notices) != DefaultMaxNotices {
		t.Fatalf("expected %d notices, got %d", DefaultMaxNotices, len(notices))
	}
	if notices[0].ID != "id-3" {
		t.Fatalf("expected the oldest notices to be dropped, first is %q", notices[0].ID)
	}

	if err := h.orchestrator.DismissNotice(notices[0].ID); err != nil {
		t.Fatalf("DismissNotice() error = %v", err)
	}
	if err := h.orchestrator.DismissNotice(notices[0].ID); !errors.Is(err, ErrNoticeNotFound) {
		t.Fatalf("expected ErrNoticeNotFound, got %v", err)
	}
	if got := len(h.orchestrator.Snapshot().Notices); got != DefaultMaxNotices-1 {
		t.Fatalf("expected %d notices after dismiss, got %d", DefaultMaxNotices-1, got)
	}
}

func TestNoticesExpireAfterTTL(t *testing.T) {
	t.Parallel()

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	o := New(&stubDetector{}, &stubTranslator{}, zerolog.Nop(), Options{
		NoticeTTL: time.Hour,
		Scheduler: &fakeScheduler{},
		Now:       now,
	})
	defer o.Close()

	if _, err := o.Commit(context.Background()); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if got := len(o.Snapshot().Notices); got != 1 {
		t.Fatalf("expected 1 notice, got %d", got)
	}

	mu.Lock()
	clock = clock.Add(time.Hour)
	mu.Unlock()
	if got := len(o.Snapshot().Notices); got != 0 {
		t.Fatalf("expected notice to expire, got %d", got)
	}
}

func TestSubscribeDeliversLatestSnapshot(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	updates, unsubscribe := h.orchestrator.Subscribe()

	first := <-updates
	if first.State != StateIdle {
		t.Fatalf("expected initial idle snapshot, got %s", first.State)
	}

	h.setInput(t, "a")
	h.setInput(t, "ab")
	h.setInput(t, "abc")

	latest := <-updates
	if latest.Input != "abc" {
		t.Fatalf("expected latest snapshot only, got input %q", latest.Input)
	}
	select {
	case extra := <-updates:
		t.Fatalf("expected no queued snapshots, got %+v", extra)
	default:
	}

	unsubscribe()
	if _, ok := <-updates; ok {
		t.Fatalf("expected channel to be closed after unsubscribe")
	}
	unsubscribe()
}

func TestClosedOrchestratorRejectsWork(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	updates, _ := h.orchestrator.Subscribe()
	<-updates

	h.orchestrator.Close()
	if _, ok := <-updates; ok {
		t.Fatalf("expected subscription to end on close")
	}
	if _, err := h.orchestrator.SetInput("hello"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from SetInput, got %v", err)
	}
	if _, err := h.orchestrator.Commit(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from Commit, got %v", err)
	}
	if err := h.orchestrator.DismissNotice("x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from DismissNotice, got %v", err)
	}
	h.orchestrator.Close()
}

func TestCloseCancelsInFlightCalls(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.detector.gates["slow"] = make(chan struct{})

	h.setInput(t, "slow")
	h.scheduler.fireAll()
	waitFor(t, h.orchestrator, "detecting", func(s Snapshot) bool { return s.State == StateDetecting })

	h.orchestrator.Close()
	// The detector returns on context cancellation; nothing is applied afterwards.
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(h.logs.String(), "discarding stale response") {
		if time.Now().After(deadline) {
			t.Fatalf("expected in-flight round-trip to be abandoned; logs: %s", h.logs.String())
		}
		time.Sleep(2 * time.Millisecond)
	}
	if got := len(h.translator.requestsSnapshot()); got != 0 {
		t.Fatalf("expected no translation after close, got %d", got)
	}
}
