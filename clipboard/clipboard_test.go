package clipboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JuniFruit/CopyXross/entities"
)

func TestMemoryEmptyRead(t *testing.T) {
	cp := NewMemory()
	if _, err := cp.Read(); !errors.Is(err, entities.ErrClipboardEmpty) {
		t.Errorf("Expected ErrClipboardEmpty, got %v", err)
	}
}

func TestMemoryWriteRead(t *testing.T) {
	cp := NewMemory()
	if err := cp.Write(entities.Content{Kind: entities.ContentKindText, Data: []byte("pasted")}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	content, err := cp.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(content.Data) != "pasted" {
		t.Errorf("Content mismatch: got %q", content.Data)
	}
}

func TestMemoryClear(t *testing.T) {
	cp := NewMemory()
	cp.Write(entities.Content{Kind: entities.ContentKindText, Data: []byte("gone soon")})
	cp.Clear()
	if _, err := cp.Read(); !errors.Is(err, entities.ErrClipboardEmpty) {
		t.Errorf("Expected ErrClipboardEmpty after Clear, got %v", err)
	}
}

// recordingSink records every state change pushed by the watcher.
type recordingSink struct {
	mutex  sync.Mutex
	sets   []entities.Content
	clears int
}

func (rs *recordingSink) Set(content entities.Content) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	rs.sets = append(rs.sets, content)
}

func (rs *recordingSink) Clear() {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	rs.clears++
}

func (rs *recordingSink) snapshot() ([]entities.Content, int) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	return append([]entities.Content{}, rs.sets...), rs.clears
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestWatchPushesChanges(t *testing.T) {
	cp := NewMemory()
	cp.Write(entities.Content{Kind: entities.ContentKindText, Data: []byte("initial")})
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(cp, sink, ctx)

	// The watcher polls once immediately on startup
	waitFor(t, 3*time.Second, func() bool {
		sets, _ := sink.snapshot()
		return len(sets) == 1
	})

	cp.Write(entities.Content{Kind: entities.ContentKindText, Data: []byte("changed")})
	waitFor(t, 3*time.Second, func() bool {
		sets, _ := sink.snapshot()
		return len(sets) == 2 && string(sets[1].Data) == "changed"
	})

	cp.Clear()
	waitFor(t, 3*time.Second, func() bool {
		_, clears := sink.snapshot()
		return clears == 1
	})
}

// A change of kind or filename with identical bytes is still a change and
// must be pushed, the watcher compares the whole descriptor.
func TestWatchDetectsKindChange(t *testing.T) {
	cp := NewMemory()
	cp.Write(entities.Content{Kind: entities.ContentKindText, Data: []byte("same bytes")})
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(cp, sink, ctx)

	waitFor(t, 3*time.Second, func() bool {
		sets, _ := sink.snapshot()
		return len(sets) == 1
	})

	// Same payload, different kind and filename
	cp.Write(entities.Content{Kind: entities.ContentKindFile, Data: []byte("same bytes"), Filename: "same.bin"})
	waitFor(t, 3*time.Second, func() bool {
		sets, _ := sink.snapshot()
		return len(sets) == 2 && sets[1].Kind == entities.ContentKindFile && sets[1].Filename == "same.bin"
	})
}

// Identical content must not be pushed twice, the watcher compares
// descriptors between polls.
func TestWatchDeduplicates(t *testing.T) {
	cp := NewMemory()
	cp.Write(entities.Content{Kind: entities.ContentKindText, Data: []byte("steady")})
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(cp, sink, ctx)

	waitFor(t, 3*time.Second, func() bool {
		sets, _ := sink.snapshot()
		return len(sets) == 1
	})
	// Let a couple more poll cycles pass
	time.Sleep(2500 * time.Millisecond)
	sets, _ := sink.snapshot()
	if len(sets) != 1 {
		t.Errorf("Expected unchanged content to be pushed once, got %d pushes", len(sets))
	}
}
