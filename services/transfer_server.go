package services

// 传输服务模块
//
// 通过 TCP 接受对端的拉取请求，把本机缓存的剪贴板内容按当前快照
// 流式发回。每个连接由独立协程处理，服务某个对端时不会阻塞其他
// 对端的请求

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/JuniFruit/CopyXross/configs"
	"github.com/JuniFruit/CopyXross/entities"
	"github.com/JuniFruit/CopyXross/protocol"
	"github.com/JuniFruit/CopyXross/utils"
)

// RunTransferServer 启动传输服务协程
//
// servPort: 监听的服务端口
// cache: 本地剪贴板内容缓存
// coordinator: 会话协调器
// sigCtx: 中断信号上下文，用于优雅关闭服务
// errChan: 传递致命异常的通道
func RunTransferServer(servPort string, cache *ContentCache, coordinator *SessionCoordinator, sigCtx context.Context, errChan chan<- error) {
	port, err := strconv.Atoi(servPort)
	if err != nil {
		errChan <- fmt.Errorf("Invalid transfer port: %w", err)
		return
	}
	for {
		exit, err := func() (bool, error) {
			// 启动 TCP 服务
			tcpListener, tcpErr := net.ListenTCP("tcp", &net.TCPAddr{
				Port: port,
			})
			if tcpErr != nil {
				return false, fmt.Errorf("%w: binding transfer port %d: %w", entities.ErrNetworkUnavailable, port, tcpErr)
			}
			// 用于通知中断监听协程退出的管道
			listenerDone := make(chan struct{})
			// 资源释放
			defer func() {
				close(listenerDone)
				tcpListener.Close()
			}()
			// 中断信号监听协程
			go func() {
				select {
				case <-sigCtx.Done():
					// 接到退出信号，关闭监听器，终止服务
					tcpListener.Close()
				case <-listenerDone:
					// 退出协程
					return
				}
			}()
			slog.Info("Transfer server listening", "port", servPort)
			// 接受连接
			for {
				tcpListener.SetDeadline(time.Now().Add(configs.TCPAcceptTimeout * time.Second))
				conn, err := tcpListener.AcceptTCP()
				if err != nil {
					if sigCtx.Err() != nil {
						// 收到中断信号，优雅退出
						slog.Debug("Transfer server exiting gracefully")
						return true, nil
					}
					if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
						continue
					}
					continue
				}
				// 每个连接独立处理
				go handleTransferConn(conn, cache, coordinator, sigCtx)
			}
		}()
		if exit {
			if err != nil {
				errChan <- err
			}
			return
		}
		slog.Info("Restarting transfer server", "previousError", err, "interval", configs.TCPServerRestartInterval)
		select {
		case <-sigCtx.Done():
			return
		case <-time.After(configs.TCPServerRestartInterval * time.Second):
		}
	}
}

// handleTransferConn 处理单个拉取请求连接
//
// 必须在有界时间内给出响应: 要么发送描述块加恰好 ByteSize 字节的内容，
// 要么发送单字节拒绝码。会话和连接在任何路径上都会被确定性释放
func handleTransferConn(conn *net.TCPConn, cache *ContentCache, coordinator *SessionCoordinator, sigCtx context.Context) {
	// 用来向中断信号监听协程发送退出信号的管道
	handlerDone := make(chan struct{})
	defer func() {
		close(handlerDone)
		conn.Close()
	}()
	// 监听中断信号
	go func() {
		select {
		case <-sigCtx.Done():
			conn.Close()
		case <-handlerDone:
			// 退出协程
			return
		}
	}()
	remoteAddr := conn.RemoteAddr().String()
	// 读取请求
	conn.SetReadDeadline(time.Now().Add(configs.TransferRequestReadTimeout * time.Second))
	msg, err := protocol.ReadMessageFrom(conn, configs.TransferRequestMaxSize)
	if err != nil {
		// 畸形请求，断开连接，绝不让监听服务崩溃
		slog.Debug("Failed to read transfer request, dropping connection", "remoteAddr", remoteAddr, "error", err)
		return
	}
	req, ok := msg.(*protocol.PullRequest)
	if !ok {
		slog.Debug("Unexpected message on transfer connection, dropping", "remoteAddr", remoteAddr)
		return
	}
	slog.Debug("Received pull request", "remoteAddr", remoteAddr, "peerId", req.PeerID, "seq", req.Seq)
	// 同一请求方同时只允许一个入站会话
	session, err := coordinator.Begin(entities.SessionInbound, req.PeerID)
	if err != nil {
		if errors.Is(err, entities.ErrBusy) {
			slog.Info("Rejecting pull request, session already active", "peerId", req.PeerID)
			writeStatus(conn, protocol.StatusBusy)
			return
		}
		writeStatus(conn, protocol.StatusError)
		return
	}
	coordinator.Advance(session, entities.SessionServing)
	// 按当前快照发送，描述记录总是与实际发送的字节一致，
	// 即使剪贴板在通告之后发生了变化 (请求方校验摘要后可以重新拉取)
	content, descriptor, present := cache.Snapshot()
	if !present {
		writeStatus(conn, protocol.StatusNoContent)
		coordinator.Finish(session, entities.SessionRejected)
		slog.Info("Rejected pull request, no content available", "peerId", req.PeerID)
		return
	}
	descriptorChunk, err := protocol.EncodeDescriptorChunk(descriptor)
	if err != nil {
		writeStatus(conn, protocol.StatusError)
		coordinator.Finish(session, entities.SessionFailed)
		slog.Warn("Failed to encode content descriptor", "error", err)
		return
	}
	conn.SetWriteDeadline(time.Now().Add(configs.TCPSocketWriteTimeout * time.Second))
	if err := writeStatus(conn, protocol.StatusOK); err != nil {
		coordinator.Finish(session, entities.SessionFailed)
		return
	}
	if err := utils.WriteAllBytes(conn, descriptorChunk); err != nil {
		coordinator.Finish(session, entities.SessionFailed)
		slog.Debug("Failed to send content descriptor", "remoteAddr", remoteAddr, "error", err)
		return
	}
	coordinator.Advance(session, entities.SessionStreaming)
	// 发送恰好 ByteSize 字节的内容。请求方中途断开时写入会出错，
	// 这里干净地中止并把会话释放为 Failed，不泄漏资源
	conn.SetWriteDeadline(time.Now().Add(configs.TCPSocketWriteTimeout * time.Second))
	if err := utils.WriteAllBytes(conn, content.Data); err != nil {
		coordinator.Finish(session, entities.SessionFailed)
		slog.Debug("Failed to stream content, peer may have disconnected", "remoteAddr", remoteAddr, "error", err)
		return
	}
	coordinator.Finish(session, entities.SessionComplete)
	slog.Info("Served clipboard content", "peerId", req.PeerID, "kind", descriptor.Kind.String(), "bytes", descriptor.ByteSize)
}

// writeStatus 写入单字节响应状态码
func writeStatus(conn net.Conn, status byte) error {
	return utils.WriteAllBytes(conn, []byte{status})
}
