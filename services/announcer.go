package services

// 存在通告模块
//
// 按固定间隔向发现组播组广播本机身份、传输端口和当前剪贴板描述。
// 传输是无连接尽力而为的，单个数据报丢失会在下个周期自愈。
// 退出时发送下线告别数据报，让对端立即移除本机

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/JuniFruit/CopyXross/configs"
	"github.com/JuniFruit/CopyXross/entities"
	"github.com/JuniFruit/CopyXross/protocol"
)

// 连续发送失败达到该次数后重建发送套接字
const announceMaxConsecutiveFailures = 3

// RunAnnouncer 启动存在通告协程
//
// peerId: 本机的对端标识符
// displayName: 本机展示名称
// transferPort: 传输服务监听端口
// mcAddr: 组播组地址
// mcPort: 发现端口
// outboundInterface: 出站网络接口
// cache: 本地剪贴板内容缓存
// sigCtx: 中断信号上下文，用于优雅退出
// errChan: 传递致命异常的通道
func RunAnnouncer(peerId string, displayName string, transferPort uint16, mcAddr string, mcPort string, outboundInterface *net.Interface, cache *ContentCache, sigCtx context.Context, errChan chan<- error) {
	networkType, err := discoveryNetworkType(mcAddr)
	if err != nil {
		errChan <- fmt.Errorf("Error resolving discovery network type: %w", err)
		return
	}
	group, err := groupUDPAddr(mcAddr, mcPort)
	if err != nil {
		errChan <- err
		return
	}
	// for 循环在套接字失效时重建，网卡彻底丢失也只会定时重试而不是终止进程
	for {
		exit := func() bool {
			conn, err := openMulticastSender(networkType, outboundInterface)
			if err != nil {
				slog.Warn("Failed to open announce socket, will retry", "error", err)
				return false
			}
			// 通知中断监听协程退出的管道
			announcerDone := make(chan struct{})
			defer func() {
				close(announcerDone)
				conn.Close()
			}()
			// 中断信号监听协程
			go func() {
				select {
				case <-sigCtx.Done():
					conn.Close()
				case <-announcerDone:
					// 退出协程
					return
				}
			}()
			slog.Info("Announcer started", "group", group.String(), "interval", configs.GetAnnounceInterval())
			ticker := time.NewTicker(time.Duration(configs.GetAnnounceInterval()) * time.Second)
			defer ticker.Stop()
			consecutiveFailures := 0
			// 启动后立刻通告一次，不等第一个周期
			for {
				if err := sendAnnouncement(conn, group, peerId, displayName, transferPort, cache); err != nil {
					if sigCtx.Err() != nil {
						sendGoodbye(conn, group, peerId)
						slog.Debug("Announcer exiting gracefully")
						return true
					}
					consecutiveFailures++
					slog.Debug("Failed to send announcement", "error", err, "consecutiveFailures", consecutiveFailures)
					if consecutiveFailures >= announceMaxConsecutiveFailures {
						// 套接字可能已经失效，重建
						return false
					}
				} else {
					consecutiveFailures = 0
				}
				select {
				case <-sigCtx.Done():
					// 尽力而为地发送下线告别
					sendGoodbye(conn, group, peerId)
					slog.Debug("Announcer exiting gracefully")
					return true
				case <-ticker.C:
				}
			}
		}()
		if exit {
			return
		}
		slog.Info("Restarting announcer", "interval", configs.AnnounceRebindInterval)
		select {
		case <-sigCtx.Done():
			return
		case <-time.After(configs.AnnounceRebindInterval * time.Second):
		}
	}
}

// sendAnnouncement 组装并发送一个存在通告数据报
func sendAnnouncement(conn *entities.MulticastConn, group *net.UDPAddr, peerId string, displayName string, transferPort uint16, cache *ContentCache) error {
	ann := &protocol.Announcement{
		PeerID:       peerId,
		DisplayName:  displayName,
		TransferPort: transferPort,
	}
	if descriptor, ok := cache.Descriptor(); ok {
		ann.Descriptor = &descriptor
	}
	datagram, err := protocol.Compose(ann)
	if err != nil {
		return fmt.Errorf("composing announcement: %w", err)
	}
	if _, err := conn.WriteTo(datagram, group); err != nil {
		return fmt.Errorf("sending announcement: %w", err)
	}
	return nil
}

// sendGoodbye 尽力而为地发送一个下线告别数据报，失败只记录日志
func sendGoodbye(conn *entities.MulticastConn, group *net.UDPAddr, peerId string) {
	datagram, err := protocol.Compose(&protocol.Goodbye{PeerID: peerId})
	if err != nil {
		slog.Debug("Failed to compose goodbye datagram", "error", err)
		return
	}
	if _, err := conn.WriteTo(datagram, group); err != nil {
		slog.Debug("Failed to send goodbye datagram", "error", err)
	}
}
