package services

import (
	"net"
	"testing"

	"github.com/JuniFruit/CopyXross/entities"
	"github.com/JuniFruit/CopyXross/protocol"
)

func announcementDatagram(t *testing.T, peerId string, name string, port uint16, descriptor *entities.ContentDescriptor) []byte {
	t.Helper()
	data, err := protocol.Compose(&protocol.Announcement{
		PeerID:       peerId,
		DisplayName:  name,
		TransferPort: port,
		Descriptor:   descriptor,
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	return data
}

func TestHandleDatagramAnnouncement(t *testing.T) {
	registry := NewPeerRegistry()
	remote := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 42), Port: 53300}
	datagram := announcementDatagram(t, "peer-remote", "Remote Host", 53301, nil)

	handleDatagram(datagram, remote, "peer-self", registry)

	info, found := registry.Get("peer-remote")
	if !found {
		t.Fatal("Expected announcement to register the peer")
	}
	if info.Addr != "192.168.1.42:53301" {
		t.Errorf("Expected transfer address from source IP and announced port, got %q", info.Addr)
	}
	if info.DisplayName != "Remote Host" {
		t.Errorf("DisplayName mismatch: got %q", info.DisplayName)
	}
}

// Our own announcements loop back through the multicast group and must
// not create a registry entry.
func TestHandleDatagramIgnoresSelf(t *testing.T) {
	registry := NewPeerRegistry()
	remote := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 53300}
	datagram := announcementDatagram(t, "peer-self", "Me", 53301, nil)

	handleDatagram(datagram, remote, "peer-self", registry)

	if registry.Count() != 0 {
		t.Error("Expected own announcement to be ignored")
	}
}

func TestHandleDatagramGoodbye(t *testing.T) {
	registry := NewPeerRegistry()
	remote := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 42), Port: 53300}
	handleDatagram(announcementDatagram(t, "peer-remote", "Remote", 53301, nil), remote, "peer-self", registry)

	goodbye, err := protocol.Compose(&protocol.Goodbye{PeerID: "peer-remote"})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	handleDatagram(goodbye, remote, "peer-self", registry)

	if _, found := registry.Get("peer-remote"); found {
		t.Error("Expected goodbye to remove the peer")
	}
}

func TestHandleDatagramMalformedIgnored(t *testing.T) {
	registry := NewPeerRegistry()
	remote := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 42), Port: 53300}

	handleDatagram([]byte("random noise, not a protocol message"), remote, "peer-self", registry)

	if registry.Count() != 0 {
		t.Error("Expected malformed datagram to be dropped")
	}
}

// An announcement updates the stored address when the peer moves, the
// address always reflects the latest announcement's source.
func TestHandleDatagramAddressFollowsSource(t *testing.T) {
	registry := NewPeerRegistry()
	handleDatagram(
		announcementDatagram(t, "peer-remote", "Remote", 53301, nil),
		&net.UDPAddr{IP: net.IPv4(192, 168, 1, 42), Port: 53300},
		"peer-self", registry,
	)
	handleDatagram(
		announcementDatagram(t, "peer-remote", "Remote", 53301, nil),
		&net.UDPAddr{IP: net.IPv4(192, 168, 1, 99), Port: 53300},
		"peer-self", registry,
	)

	info, _ := registry.Get("peer-remote")
	if info.Addr != "192.168.1.99:53301" {
		t.Errorf("Expected address from latest announcement, got %q", info.Addr)
	}
}

func TestHandleDatagramAdvertisedDescriptor(t *testing.T) {
	registry := NewPeerRegistry()
	remote := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 42), Port: 53300}
	descriptor := &entities.ContentDescriptor{Kind: entities.ContentKindText, ByteSize: 11}

	handleDatagram(announcementDatagram(t, "peer-remote", "Remote", 53301, descriptor), remote, "peer-self", registry)
	info, _ := registry.Get("peer-remote")
	if info.Advertised == nil || info.Advertised.ByteSize != 11 {
		t.Errorf("Expected advertised descriptor to be stored, got %+v", info.Advertised)
	}

	// A later announcement without a descriptor clears the advertisement
	handleDatagram(announcementDatagram(t, "peer-remote", "Remote", 53301, nil), remote, "peer-self", registry)
	info, _ = registry.Get("peer-remote")
	if info.Advertised != nil {
		t.Error("Expected advertisement to be cleared by descriptor-less announcement")
	}
}
