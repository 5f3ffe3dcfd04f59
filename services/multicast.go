package services

// 组播连接建立的公共逻辑

import (
	"fmt"
	"net"

	"github.com/JuniFruit/CopyXross/entities"
	"github.com/JuniFruit/CopyXross/utils"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// groupUDPAddr 把组播地址和端口解析为 UDP 地址
func groupUDPAddr(mcAddr string, mcPort string) (*net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(mcAddr, mcPort))
	if err != nil {
		return nil, fmt.Errorf("Error resolving multicast address: %w", err)
	}
	return addr, nil
}

// joinMulticastGroup 绑定发现端口并加入组播组，用于发现监听
//
// 直接用 net.ListenMulticastUDP 在部分平台收不到 UDP 包，
// 只能先以 REUSEADDR 绑定 0.0.0.0:port，再加入组播组
//
// networkType: "udp4" 或 "udp6"
// mcAddr: 组播组地址
// mcPort: 发现端口
// outboundInterface: 出站网络接口
func joinMulticastGroup(networkType string, mcAddr string, mcPort string, outboundInterface *net.Interface) (*entities.MulticastConn, error) {
	group := &net.UDPAddr{IP: net.ParseIP(mcAddr)}
	switch networkType {
	case "udp6":
		pc6, err := utils.ListenPacketWithREUSEADDR("udp6", "[::]:"+mcPort)
		if err != nil {
			return nil, fmt.Errorf("%w: creating UDP6 packet connection: %w", entities.ErrNetworkUnavailable, err)
		}
		p6 := ipv6.NewPacketConn(pc6)
		if err := p6.JoinGroup(outboundInterface, group); err != nil {
			pc6.Close()
			return nil, fmt.Errorf("%w: joining IPv6 multicast group: %w", entities.ErrNetworkUnavailable, err)
		}
		return &entities.MulticastConn{IPv6Conn: p6}, nil
	default:
		pc4, err := utils.ListenPacketWithREUSEADDR("udp4", ":"+mcPort)
		if err != nil {
			return nil, fmt.Errorf("%w: creating UDP4 packet connection: %w", entities.ErrNetworkUnavailable, err)
		}
		p4 := ipv4.NewPacketConn(pc4)
		if err := p4.JoinGroup(outboundInterface, group); err != nil {
			pc4.Close()
			return nil, fmt.Errorf("%w: joining IPv4 multicast group: %w", entities.ErrNetworkUnavailable, err)
		}
		return &entities.MulticastConn{IPv4Conn: p4}, nil
	}
}

// openMulticastSender 创建一个用于向组播组发送数据报的连接
//
// 绑定任意本地端口，并把组播出站接口固定到出站网卡
func openMulticastSender(networkType string, outboundInterface *net.Interface) (*entities.MulticastConn, error) {
	switch networkType {
	case "udp6":
		pc6, err := net.ListenPacket("udp6", "[::]:0")
		if err != nil {
			return nil, fmt.Errorf("%w: creating UDP6 sender connection: %w", entities.ErrNetworkUnavailable, err)
		}
		p6 := ipv6.NewPacketConn(pc6)
		if err := p6.SetMulticastInterface(outboundInterface); err != nil {
			pc6.Close()
			return nil, fmt.Errorf("%w: setting IPv6 multicast interface: %w", entities.ErrNetworkUnavailable, err)
		}
		return &entities.MulticastConn{IPv6Conn: p6}, nil
	default:
		pc4, err := net.ListenPacket("udp4", ":0")
		if err != nil {
			return nil, fmt.Errorf("%w: creating UDP4 sender connection: %w", entities.ErrNetworkUnavailable, err)
		}
		p4 := ipv4.NewPacketConn(pc4)
		if err := p4.SetMulticastInterface(outboundInterface); err != nil {
			pc4.Close()
			return nil, fmt.Errorf("%w: setting IPv4 multicast interface: %w", entities.ErrNetworkUnavailable, err)
		}
		return &entities.MulticastConn{IPv4Conn: p4}, nil
	}
}

// discoveryNetworkType 根据组播地址决定网络类型
func discoveryNetworkType(mcAddr string) (string, error) {
	isIpv6, err := utils.IsIpv6(mcAddr)
	if err != nil {
		return "", err
	}
	if isIpv6 {
		return "udp6", nil
	}
	return "udp4", nil
}
