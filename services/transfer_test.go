package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JuniFruit/CopyXross/entities"
	"github.com/JuniFruit/CopyXross/protocol"
)

// startTestTransferServer runs the connection handler behind a real TCP
// listener on the loopback interface and returns its address.
func startTestTransferServer(t *testing.T, cache *ContentCache, coordinator *SessionCoordinator) string {
	t.Helper()
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("Failed to start test listener: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for {
			conn, err := listener.AcceptTCP()
			if err != nil {
				return
			}
			go handleTransferConn(conn, cache, coordinator, ctx)
		}
	}()
	t.Cleanup(func() {
		cancel()
		listener.Close()
	})
	return listener.Addr().String()
}

func registryWithPeer(id string, addr string, advertised *entities.ContentDescriptor) *PeerRegistry {
	registry := NewPeerRegistry()
	registry.Upsert(entities.PeerInfo{
		ID:          id,
		DisplayName: id,
		Addr:        addr,
		LastSeen:    time.Now(),
		Advertised:  advertised,
	})
	return registry
}

func TestPullHappyPath(t *testing.T) {
	serverCache := NewContentCache()
	serverCache.Set(entities.Content{Kind: entities.ContentKindText, Data: []byte("hello world")})
	serverCoordinator := NewSessionCoordinator()
	addr := startTestTransferServer(t, serverCache, serverCoordinator)

	registry := registryWithPeer("peer-server", addr, nil)
	client := NewTransferClient("peer-client", registry, NewSessionCoordinator())

	content, err := client.Pull(context.Background(), "peer-server")
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if string(content.Data) != "hello world" {
		t.Errorf("Content mismatch: got %q", content.Data)
	}
	if content.Kind != entities.ContentKindText {
		t.Errorf("Kind mismatch: got %v", content.Kind)
	}
	if serverCoordinator.ActiveCount() != 0 {
		t.Errorf("Expected server sessions to be released, %d still active", serverCoordinator.ActiveCount())
	}
}

func TestPullNoContent(t *testing.T) {
	serverCache := NewContentCache()
	serverCoordinator := NewSessionCoordinator()
	addr := startTestTransferServer(t, serverCache, serverCoordinator)

	registry := registryWithPeer("peer-server", addr, nil)
	client := NewTransferClient("peer-client", registry, NewSessionCoordinator())

	_, err := client.Pull(context.Background(), "peer-server")
	if !errors.Is(err, entities.ErrContentUnavailable) {
		t.Errorf("Expected ErrContentUnavailable, got %v", err)
	}
}

func TestPullUnknownPeer(t *testing.T) {
	client := NewTransferClient("peer-client", NewPeerRegistry(), NewSessionCoordinator())
	_, err := client.Pull(context.Background(), "peer-ghost")
	if !errors.Is(err, entities.ErrUnknownPeer) {
		t.Errorf("Expected ErrUnknownPeer, got %v", err)
	}
	// An expired or never-seen peer surfaces as unreachable to callers
	if !errors.Is(err, entities.ErrPeerUnreachable) {
		t.Errorf("Expected ErrUnknownPeer to match ErrPeerUnreachable, got %v", err)
	}
}

func TestPullPeerUnreachable(t *testing.T) {
	// Grab a loopback port and close it so nothing is listening there
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	registry := registryWithPeer("peer-gone", addr, nil)
	coordinator := NewSessionCoordinator()
	client := NewTransferClient("peer-client", registry, coordinator)

	_, err = client.Pull(context.Background(), "peer-gone")
	if !errors.Is(err, entities.ErrPeerUnreachable) {
		t.Errorf("Expected ErrPeerUnreachable, got %v", err)
	}
	if coordinator.ActiveCount() != 0 {
		t.Errorf("Expected session to be released after failure, %d still active", coordinator.ActiveCount())
	}
}

func TestPullBusyWhileOutboundActive(t *testing.T) {
	registry := registryWithPeer("peer-server", "127.0.0.1:1", nil)
	coordinator := NewSessionCoordinator()
	client := NewTransferClient("peer-client", registry, coordinator)

	// Occupy the outbound slot for this peer
	session, err := coordinator.Begin(entities.SessionOutbound, "peer-server")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer coordinator.Finish(session, entities.SessionComplete)

	_, err = client.Pull(context.Background(), "peer-server")
	if !errors.Is(err, entities.ErrBusy) {
		t.Errorf("Expected ErrBusy while outbound session is active, got %v", err)
	}
}

func TestPullRejectedWhileServerBusy(t *testing.T) {
	serverCache := NewContentCache()
	serverCache.Set(entities.Content{Kind: entities.ContentKindText, Data: []byte("occupied")})
	serverCoordinator := NewSessionCoordinator()
	addr := startTestTransferServer(t, serverCache, serverCoordinator)

	// The server already has an inbound session with this requester
	session, err := serverCoordinator.Begin(entities.SessionInbound, "peer-client")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer serverCoordinator.Finish(session, entities.SessionComplete)

	registry := registryWithPeer("peer-server", addr, nil)
	client := NewTransferClient("peer-client", registry, NewSessionCoordinator())

	_, err = client.Pull(context.Background(), "peer-server")
	if !errors.Is(err, entities.ErrBusy) {
		t.Errorf("Expected ErrBusy from busy server, got %v", err)
	}
}

// The server serves one requester per slot but distinct requesters are
// handled concurrently.
func TestPullConcurrentDistinctRequesters(t *testing.T) {
	serverCache := NewContentCache()
	serverCache.Set(entities.Content{Kind: entities.ContentKindText, Data: []byte("shared")})
	serverCoordinator := NewSessionCoordinator()
	addr := startTestTransferServer(t, serverCache, serverCoordinator)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, selfId := range []string{"peer-one", "peer-two"} {
		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()
			registry := registryWithPeer("peer-server", addr, nil)
			client := NewTransferClient(id, registry, NewSessionCoordinator())
			content, err := client.Pull(context.Background(), "peer-server")
			if err == nil && string(content.Data) != "shared" {
				err = errors.New("content mismatch")
			}
			results[idx] = err
		}(i, selfId)
	}
	wg.Wait()
	for i, err := range results {
		if err != nil {
			t.Errorf("Requester %d failed: %v", i, err)
		}
	}
}

// startMisbehavingServer accepts connections and always streams bytes that
// do not match the descriptor it sends. Returns the address and a counter
// of accepted connections.
func startMisbehavingServer(t *testing.T) (string, *int32) {
	t.Helper()
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("Failed to start test listener: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	var attempts int32
	declared := []byte("what was promised")
	served := []byte("something else!!!") // same length, different checksum
	descriptorChunk, err := protocol.EncodeDescriptorChunk(entities.ContentDescriptor{
		Kind:     entities.ContentKindText,
		ByteSize: int64(len(declared)),
		Checksum: sha256.Sum256(declared),
	})
	if err != nil {
		t.Fatalf("EncodeDescriptorChunk failed: %v", err)
	}
	go func() {
		for {
			conn, err := listener.AcceptTCP()
			if err != nil {
				return
			}
			atomic.AddInt32(&attempts, 1)
			go func(c *net.TCPConn) {
				defer c.Close()
				if _, err := protocol.ReadMessageFrom(c, 1024); err != nil {
					return
				}
				c.Write([]byte{protocol.StatusOK})
				c.Write(descriptorChunk)
				c.Write(served)
			}(conn)
		}
	}()
	return listener.Addr().String(), &attempts
}

// A responder whose content never matches its descriptor gets exactly one
// retry, then the mismatch is surfaced.
func TestPullChecksumMismatchAfterRetry(t *testing.T) {
	addr, attempts := startMisbehavingServer(t)
	registry := registryWithPeer("peer-liar", addr, nil)
	coordinator := NewSessionCoordinator()
	client := NewTransferClient("peer-client", registry, coordinator)

	_, err := client.Pull(context.Background(), "peer-liar")
	if !errors.Is(err, entities.ErrChecksumMismatch) {
		t.Fatalf("Expected ErrChecksumMismatch, got %v", err)
	}
	if got := atomic.LoadInt32(attempts); got != 2 {
		t.Errorf("Expected exactly 2 pull attempts, got %d", got)
	}
	if coordinator.ActiveCount() != 0 {
		t.Errorf("Expected session to be released after mismatch, %d still active", coordinator.ActiveCount())
	}
}

// When the advertised descriptor no longer matches what the peer serves
// (the clipboard changed after the announcement), the client pulls again
// and accepts the fresh content.
func TestPullStaleAdvertisement(t *testing.T) {
	serverCache := NewContentCache()
	serverCache.Set(entities.Content{Kind: entities.ContentKindText, Data: []byte("fresh content")})
	serverCoordinator := NewSessionCoordinator()
	addr := startTestTransferServer(t, serverCache, serverCoordinator)

	// Advertisement still describes the old clipboard content
	staleData := []byte("old content")
	stale := entities.ContentDescriptor{
		Kind:     entities.ContentKindText,
		ByteSize: int64(len(staleData)),
		Checksum: sha256.Sum256(staleData),
	}
	registry := registryWithPeer("peer-server", addr, &stale)
	clientCoordinator := NewSessionCoordinator()
	client := NewTransferClient("peer-client", registry, clientCoordinator)

	content, err := client.Pull(context.Background(), "peer-server")
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if string(content.Data) != "fresh content" {
		t.Errorf("Expected fresh content after retry, got %q", content.Data)
	}
	if clientCoordinator.ActiveCount() != 0 {
		t.Errorf("Expected single session spanning both attempts to be released, %d active", clientCoordinator.ActiveCount())
	}
}
