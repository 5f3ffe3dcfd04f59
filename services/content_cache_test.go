package services

import (
	"crypto/sha256"
	"testing"

	"github.com/JuniFruit/CopyXross/entities"
)

func TestContentCacheEmpty(t *testing.T) {
	cache := NewContentCache()
	if _, present := cache.Descriptor(); present {
		t.Error("Expected empty cache to report no descriptor")
	}
	if _, _, present := cache.Snapshot(); present {
		t.Error("Expected empty cache to report no snapshot")
	}
}

func TestContentCacheSetAndSnapshot(t *testing.T) {
	cache := NewContentCache()
	data := []byte("copied text")
	cache.Set(entities.Content{Kind: entities.ContentKindText, Data: data})

	content, descriptor, present := cache.Snapshot()
	if !present {
		t.Fatal("Expected content to be present after Set")
	}
	if string(content.Data) != "copied text" {
		t.Errorf("Content mismatch: got %q", content.Data)
	}
	if descriptor.ByteSize != int64(len(data)) {
		t.Errorf("ByteSize mismatch: got %d, want %d", descriptor.ByteSize, len(data))
	}
	if descriptor.Checksum != sha256.Sum256(data) {
		t.Error("Checksum does not match content")
	}
	if !descriptor.Matches(content.Data) {
		t.Error("Expected descriptor to match its own content")
	}
}

func TestContentCacheSetReplaces(t *testing.T) {
	cache := NewContentCache()
	cache.Set(entities.Content{Kind: entities.ContentKindText, Data: []byte("first")})
	cache.Set(entities.Content{Kind: entities.ContentKindFile, Data: []byte("second"), Filename: "f.bin"})

	content, descriptor, _ := cache.Snapshot()
	if content.Kind != entities.ContentKindFile || string(content.Data) != "second" {
		t.Errorf("Expected latest content, got %+v", content)
	}
	if descriptor.Filename != "f.bin" {
		t.Errorf("Expected descriptor recomputed for latest content, got %+v", descriptor)
	}
}

func TestContentCacheClear(t *testing.T) {
	cache := NewContentCache()
	cache.Set(entities.Content{Kind: entities.ContentKindText, Data: []byte("something")})
	cache.Clear()

	if _, present := cache.Descriptor(); present {
		t.Error("Expected no descriptor after Clear")
	}
}
