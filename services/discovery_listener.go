package services

// 发现监听模块
//
// 加入发现组播组，接收对端的存在通告并更新注册表。
// 通告无序、可能丢失或重复，注册表更新是幂等的所以重复无害。
// 畸形数据报只记录日志后丢弃，绝不导致进程退出

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/JuniFruit/CopyXross/configs"
	"github.com/JuniFruit/CopyXross/entities"
	"github.com/JuniFruit/CopyXross/protocol"
)

// RunDiscoveryListener 启动发现监听协程
//
// selfId: 本机的对端标识符，用于丢弃自己发出的通告
// mcAddr: 组播组地址
// mcPort: 发现端口
// outboundInterface: 出站网络接口
// registry: 对端注册表
// sigCtx: 中断信号上下文，用于优雅关闭监听
// errChan: 传递致命异常的通道
func RunDiscoveryListener(selfId string, mcAddr string, mcPort string, outboundInterface *net.Interface, registry *PeerRegistry, sigCtx context.Context, errChan chan<- error) {
	networkType, err := discoveryNetworkType(mcAddr)
	if err != nil {
		errChan <- fmt.Errorf("Error resolving discovery network type: %w", err)
		return
	}
	// for 循环保持监听，绑定失败时定时重试而不是终止进程
	for {
		exit, err := func() (bool, error) {
			conn, err := joinMulticastGroup(networkType, mcAddr, mcPort, outboundInterface)
			if err != nil {
				return false, err
			}
			// 通知中断监听协程退出的管道
			listenerDone := make(chan struct{})
			// 资源释放
			defer func() {
				close(listenerDone)
				conn.Close()
			}()
			// 中断信号监听协程
			go func() {
				select {
				case <-sigCtx.Done():
					// 接到退出信号，关闭连接，终止监听
					conn.Close()
				case <-listenerDone:
					// 退出协程
					return
				}
			}()
			slog.Info("Joined discovery multicast group", "address", mcAddr, "port", mcPort)
			buf := make([]byte, configs.MulticastReadBufferSize)
			for {
				// 设置超时时间防止阻塞过久
				if err := conn.SetReadDeadline(time.Now().Add(configs.MulticastReadTimeout * time.Second)); err != nil {
					return false, fmt.Errorf("Error setting read deadline: %w", err)
				}
				// UDP 中一次会读取整个数据报，直接 ReadFrom 即可
				n, remoteAddr, err := conn.ReadFrom(buf)
				if err != nil {
					if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
						// 读取超时罢了，继续等待
						continue
					}
					// 如果是被中断，退出
					if sigCtx.Err() != nil {
						slog.Debug("Discovery listener exiting gracefully")
						return true, nil
					}
					// 否则重启监听
					return false, err
				}
				handleDatagram(buf[:n], remoteAddr, selfId, registry)
			}
		}()
		if exit {
			if err != nil {
				errChan <- err
			}
			return
		}
		slog.Info("Restarting discovery listener", "previousError", err, "interval", configs.MulticastListenRetryInterval)
		select {
		case <-sigCtx.Done():
			return
		case <-time.After(configs.MulticastListenRetryInterval * time.Second):
		}
	}
}

// handleDatagram 解析并处理一个发现数据报
func handleDatagram(datagram []byte, remoteAddr net.Addr, selfId string, registry *PeerRegistry) {
	msg, err := protocol.Parse(datagram)
	if err != nil {
		// 畸形数据报，丢弃
		slog.Debug("Failed to parse discovery datagram, ignored", "from", remoteAddr.String(), "error", err)
		return
	}
	udpAddr, ok := remoteAddr.(*net.UDPAddr)
	if !ok {
		slog.Debug("Discovery datagram from non-UDP address, ignored", "from", remoteAddr.String())
		return
	}
	switch m := msg.(type) {
	case *protocol.Announcement:
		// 丢弃自己发出的通告
		if m.PeerID == selfId {
			return
		}
		info := entities.PeerInfo{
			ID:          m.PeerID,
			DisplayName: m.DisplayName,
			// 地址总是反映最近一次通告的来源
			Addr:       net.JoinHostPort(udpAddr.IP.String(), strconv.Itoa(int(m.TransferPort))),
			LastSeen:   time.Now(),
			Advertised: m.Descriptor,
		}
		if _, known := registry.Get(m.PeerID); !known {
			slog.Info("Discovered new peer", "peerId", m.PeerID, "name", m.DisplayName, "addr", info.Addr)
		}
		registry.Upsert(info)
	case *protocol.Goodbye:
		if m.PeerID == selfId {
			return
		}
		if registry.Remove(m.PeerID) {
			slog.Info("Peer said goodbye, removed from registry", "peerId", m.PeerID)
		}
	default:
		// 其他已知消息不应出现在发现通道上
		slog.Debug("Unexpected message on discovery channel, ignored", "from", remoteAddr.String())
	}
}
