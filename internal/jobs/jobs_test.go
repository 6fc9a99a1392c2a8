package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/khanglvm/moodbrain/internal/brain"
)

type fakeUpdater struct {
	report brain.Report
	err    error
	runs   atomic.Int32
}

func (f *fakeUpdater) Run(ctx context.Context) (brain.Report, error) {
	f.runs.Add(1)
	return f.report, f.err
}

type fakeReloader struct {
	reloads atomic.Int32
	err     error
}

func (f *fakeReloader) Reload(ctx context.Context) error {
	f.reloads.Add(1)
	return f.err
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestParseRetrainMode(t *testing.T) {
	tests := []struct {
		in      string
		want    RetrainMode
		wantErr bool
	}{
		{"", RetrainManual, false},
		{"manual", RetrainManual, false},
		{" After-Update ", RetrainAfterUpdate, false},
		{"watch", RetrainWatch, false},
		{"always", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRetrainMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRetrainMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRetrainMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseSchedule(t *testing.T) {
	valid := []string{"15m", "1h30m", "0 3 * * *", "*/5 * * * *"}
	for _, spec := range valid {
		if _, err := parseSchedule(spec); err != nil {
			t.Errorf("parseSchedule(%q) failed: %v", spec, err)
		}
	}

	invalid := []string{"", "-5m", "0s", "every day", "0 3 * *"}
	for _, spec := range invalid {
		if _, err := parseSchedule(spec); err == nil {
			t.Errorf("parseSchedule(%q) expected error", spec)
		}
	}
}

func TestValidateSchedule(t *testing.T) {
	valid := []string{"15m", "0 3 * * *", "*/5 * * * 1-5"}
	for _, spec := range valid {
		if err := ValidateSchedule(spec); err != nil {
			t.Errorf("ValidateSchedule(%q) failed: %v", spec, err)
		}
	}

	// Five fields that do not parse as cron.
	invalid := []string{"a b c d e", "61 * * * *", "0 25 * * *", "* * * * 8x"}
	for _, spec := range invalid {
		if err := ValidateSchedule(spec); err == nil {
			t.Errorf("ValidateSchedule(%q) expected error", spec)
		}
	}
}

func TestRunOnce_AfterUpdateReloads(t *testing.T) {
	updater := &fakeUpdater{report: brain.Report{Accepted: 2}}
	reloader := &fakeReloader{}
	s, err := NewScheduler(updater, reloader, RetrainAfterUpdate, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if reloader.reloads.Load() != 1 {
		t.Errorf("expected 1 reload, got %d", reloader.reloads.Load())
	}

	updater.report = brain.Report{Duplicates: 3}
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if reloader.reloads.Load() != 1 {
		t.Error("expected no reload when nothing was accepted")
	}
}

func TestRunOnce_ManualNeverReloads(t *testing.T) {
	reloader := &fakeReloader{}
	s, err := NewScheduler(&fakeUpdater{report: brain.Report{Accepted: 5}}, reloader, RetrainManual, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if reloader.reloads.Load() != 0 {
		t.Error("manual mode must not reload")
	}
}

func TestRunOnce_UpdateFailureSkipsReload(t *testing.T) {
	updateErr := &brain.UpdateError{Stage: "save", Err: errors.New("disk full")}
	reloader := &fakeReloader{}
	s, _ := NewScheduler(&fakeUpdater{err: updateErr}, reloader, RetrainAfterUpdate, nil)

	if _, err := s.RunOnce(context.Background()); !errors.Is(err, updateErr) {
		t.Errorf("expected update error, got %v", err)
	}
	if reloader.reloads.Load() != 0 {
		t.Error("failed update must not reload")
	}
}

func TestNewScheduler_AfterUpdateNeedsReloader(t *testing.T) {
	if _, err := NewScheduler(&fakeUpdater{}, nil, RetrainAfterUpdate, nil); err == nil {
		t.Error("expected error without reloader")
	}
}

func TestScheduler_RunsUpdates(t *testing.T) {
	updater := &fakeUpdater{}
	s, err := NewScheduler(updater, nil, RetrainManual, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ScheduleUpdate("50ms"); err != nil {
		t.Fatal(err)
	}

	s.Start()
	ok := waitFor(t, 2*time.Second, func() bool { return updater.runs.Load() >= 2 })
	if err := s.Shutdown(); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
	if !ok {
		t.Errorf("expected at least 2 scheduled runs, got %d", updater.runs.Load())
	}
}

func TestCorpusWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	reloader := &fakeReloader{}
	w := NewCorpusWatcher(path, reloader, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if reloader.reloads.Load() != 0 {
		t.Error("reload triggered by unrelated file")
	}

	// Several quick writes collapse into one reload.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`[{"text":"a","label":"sad"}]`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if !waitFor(t, 2*time.Second, func() bool { return reloader.reloads.Load() >= 1 }) {
		t.Fatal("expected reload after corpus write")
	}
	time.Sleep(100 * time.Millisecond)
	if n := reloader.reloads.Load(); n != 1 {
		t.Errorf("expected debounced single reload, got %d", n)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned error: %v", err)
	}
}

func TestCorpusWatcher_MissingDirectory(t *testing.T) {
	w := NewCorpusWatcher(filepath.Join(t.TempDir(), "missing", "corpus.json"), &fakeReloader{}, 0, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}
