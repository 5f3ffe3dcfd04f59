package entities

// 网络处理相关实体

import (
	"net"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// MulticastConn 封装了 IPv4 和 IPv6 的组播数据包连接
//
// 两个字段只会有一个非 nil，取决于发现地址的协议族
type MulticastConn struct {
	IPv4Conn *ipv4.PacketConn
	IPv6Conn *ipv6.PacketConn
}

// ReadFrom 从连接中读取一个数据报
func (mc *MulticastConn) ReadFrom(b []byte) (n int, addr net.Addr, err error) {
	if mc.IPv4Conn != nil {
		n, _, addr, err := mc.IPv4Conn.ReadFrom(b)
		return n, addr, err
	}
	if mc.IPv6Conn != nil {
		n, _, addr, err := mc.IPv6Conn.ReadFrom(b)
		return n, addr, err
	}
	return 0, nil, net.ErrClosed
}

// WriteTo 向目标地址发送一个数据报
func (mc *MulticastConn) WriteTo(b []byte, dst net.Addr) (int, error) {
	if mc.IPv4Conn != nil {
		return mc.IPv4Conn.WriteTo(b, nil, dst)
	}
	if mc.IPv6Conn != nil {
		return mc.IPv6Conn.WriteTo(b, nil, dst)
	}
	return 0, net.ErrClosed
}

// SetReadDeadline 设置读取超时时刻
func (mc *MulticastConn) SetReadDeadline(t time.Time) error {
	if mc.IPv4Conn != nil {
		if err := mc.IPv4Conn.SetReadDeadline(t); err != nil {
			return err
		}
	}
	if mc.IPv6Conn != nil {
		if err := mc.IPv6Conn.SetReadDeadline(t); err != nil {
			return err
		}
	}
	return nil
}

// Close 关闭连接
func (mc *MulticastConn) Close() error {
	if mc.IPv4Conn != nil {
		if err := mc.IPv4Conn.Close(); err != nil {
			return err
		}
	}
	if mc.IPv6Conn != nil {
		if err := mc.IPv6Conn.Close(); err != nil {
			return err
		}
	}
	return nil
}
