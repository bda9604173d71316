package tui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smileynet/meshbrowse/internal/loading"
)

// --- isTTY ---

func TestIsTTY_NonFileWriter(t *testing.T) {
	var buf bytes.Buffer
	if isTTY(&buf) {
		t.Error("non-*os.File writer should not be a TTY")
	}
}

func TestIsTTY_RegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	if IsTerminal(f) {
		t.Error("regular file should not be a TTY")
	}
}

// --- Bridge ---

func TestBridge_SendDeliversEvent(t *testing.T) {
	b := NewBridge()

	go b.Send(ViewMsg{Path: "0.1", Mode: "grid"})

	got := <-b.Events()
	vm, ok := got.(ViewMsg)
	if !ok {
		t.Fatalf("expected ViewMsg, got %T", got)
	}
	if vm.Path != "0.1" {
		t.Errorf("path = %q, want %q", vm.Path, "0.1")
	}
}

func TestBridge_DoneSendsDoneAndCloses(t *testing.T) {
	b := NewBridge()

	go b.Done()

	got := <-b.Events()
	if _, ok := got.(DoneMsg); !ok {
		t.Fatalf("expected DoneMsg, got %T", got)
	}

	// Channel should be closed after Done.
	if _, open := <-b.Events(); open {
		t.Error("channel should be closed after Done")
	}
}

func TestBridge_ErrorSendsErrorAndCloses(t *testing.T) {
	b := NewBridge()

	go b.Error(errors.New("timed out"))

	got := <-b.Events()
	em, ok := got.(ErrorMsg)
	if !ok {
		t.Fatalf("expected ErrorMsg, got %T", got)
	}
	if em.Err.Error() != "timed out" {
		t.Errorf("error = %q, want %q", em.Err, "timed out")
	}
	if _, open := <-b.Events(); open {
		t.Error("channel should be closed after Error")
	}
}

// --- PlainDisplay ---

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC) }
}

func runPlain(t *testing.T, events ...DisplayEvent) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	d := &PlainDisplay{w: &buf, now: fixedClock()}

	ch := make(chan DisplayEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)

	err := d.Run(context.Background(), ch)
	return buf.String(), err
}

func TestPlainDisplay_RendersProgress(t *testing.T) {
	// Given: a grid view whose items finish one loaded and one failed
	out, err := runPlain(t,
		ViewMsg{Path: "2", Mode: "grid", Rows: 1, Cols: 2, Items: []string{"a.glb", "b.glb"}},
		ItemUpdateMsg{Index: 0, Status: ItemLoaded, Size: 2048},
		ItemUpdateMsg{Index: 1, Status: ItemFailed, Err: errors.New("404")},
		StatusMsg{Status: loading.StatusReady, Elapsed: 1500 * time.Millisecond},
		DoneMsg{},
	)

	// Then: each event is a timestamped line
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, want := range []string{
		"[15:04:05] 2 (grid 1x2), 2 item(s)",
		"[1/2] a.glb loaded (2.0 KiB)",
		"[2/2] b.glb failed: 404",
		"ready in 1.5s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPlainDisplay_LeafHeading(t *testing.T) {
	out, _ := runPlain(t, ViewMsg{Path: ".", Mode: "leaf", Items: []string{"solo.glb"}})
	if !strings.Contains(out, ". (leaf), 1 item(s)") {
		t.Errorf("output = %q, want leaf heading", out)
	}
}

func TestPlainDisplay_ReturnsReportedError(t *testing.T) {
	_, err := runPlain(t, ErrorMsg{Err: errors.New("gave up")})
	if err == nil || err.Error() != "gave up" {
		t.Errorf("Run() error = %v, want %q", err, "gave up")
	}
}

func TestPlainDisplay_HandlesContextCancellation(t *testing.T) {
	var buf bytes.Buffer
	d := &PlainDisplay{w: &buf, now: fixedClock()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Run(ctx, make(chan DisplayEvent))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

// --- NewDisplay ---

func TestNewDisplay_ForcePlainReturnsPlainDisplay(t *testing.T) {
	d := NewDisplay(DisplayOptions{Writer: os.Stdout, ForcePlain: true})
	if _, ok := d.(*PlainDisplay); !ok {
		t.Errorf("NewDisplay(ForcePlain) = %T, want *PlainDisplay", d)
	}
}

func TestNewDisplay_NonTTYReturnsPlainDisplay(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(DisplayOptions{Writer: &buf})
	if _, ok := d.(*PlainDisplay); !ok {
		t.Errorf("NewDisplay(buffer) = %T, want *PlainDisplay", d)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KiB"},
		{3 << 20, "3.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
