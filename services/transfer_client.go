package services

// 拉取客户端模块
//
// 向指定对端发起 TCP 连接，拉取其剪贴板内容并校验摘要。
// 对端通告的描述可能已经过期 (剪贴板在通告后被改写)，这种情况下
// 会自动重拉一次，按重拉响应自带的描述校验

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/JuniFruit/CopyXross/configs"
	"github.com/JuniFruit/CopyXross/entities"
	"github.com/JuniFruit/CopyXross/protocol"
	"github.com/JuniFruit/CopyXross/utils"
)

// TransferClient 剪贴板内容拉取客户端
type TransferClient struct {
	// 本机对端 ID，放进请求中供对端做会话限流
	selfId string
	// 对端注册表，用于解析对端地址
	registry *PeerRegistry
	// 会话协调器
	coordinator *SessionCoordinator
	// 请求序号计数器
	seq atomic.Uint64
}

// NewTransferClient 创建拉取客户端
func NewTransferClient(selfId string, registry *PeerRegistry, coordinator *SessionCoordinator) *TransferClient {
	return &TransferClient{
		selfId:      selfId,
		registry:    registry,
		coordinator: coordinator,
	}
}

// Pull 从指定对端拉取剪贴板内容
//
// 摘要校验失败时最多重拉一次，整个流程 (含重拉) 共用一个出站会话。
// 同一对端已有未结束的出站会话时返回 ErrBusy
func (tc *TransferClient) Pull(ctx context.Context, peerId string) (entities.Content, error) {
	peer, found := tc.registry.Get(peerId)
	if !found {
		return entities.Content{}, fmt.Errorf("%w: %s", entities.ErrUnknownPeer, peerId)
	}
	session, err := tc.coordinator.Begin(entities.SessionOutbound, peerId)
	if err != nil {
		return entities.Content{}, err
	}
	tc.coordinator.Advance(session, entities.SessionRequesting)
	content, descriptor, err := tc.pullOnce(ctx, session, peer)
	if err != nil {
		tc.finishFailed(session, err)
		return entities.Content{}, err
	}
	// 响应描述与对端先前通告的不一致，说明通告已过期，内容可能
	// 刚刚被改写，重拉一次拿最新内容
	staleAdvert := peer.Advertised != nil && peer.Advertised.Checksum != descriptor.Checksum
	if !descriptor.Matches(content.Data) || staleAdvert {
		if staleAdvert {
			slog.Debug("Advertised descriptor out of date, pulling again", "peerId", peerId)
		} else {
			slog.Warn("Checksum mismatch on pulled content, pulling again", "peerId", peerId)
		}
		content, descriptor, err = tc.pullOnce(ctx, session, peer)
		if err != nil {
			tc.finishFailed(session, err)
			return entities.Content{}, err
		}
		if !descriptor.Matches(content.Data) {
			err = fmt.Errorf("%w: content from peer %s does not match its descriptor", entities.ErrChecksumMismatch, peerId)
			tc.coordinator.Finish(session, entities.SessionFailed)
			return entities.Content{}, err
		}
	}
	tc.coordinator.Finish(session, entities.SessionComplete)
	slog.Info("Pulled clipboard content", "peerId", peerId, "kind", content.Kind.String(), "bytes", descriptor.ByteSize)
	return content, nil
}

// finishFailed 按错误类型把会话迁入对应终态
func (tc *TransferClient) finishFailed(session *entities.Session, err error) {
	if errors.Is(err, entities.ErrBusy) || errors.Is(err, entities.ErrContentUnavailable) {
		tc.coordinator.Finish(session, entities.SessionRejected)
		return
	}
	tc.coordinator.Finish(session, entities.SessionFailed)
}

// pullOnce 执行一次完整的拉取往返
func (tc *TransferClient) pullOnce(ctx context.Context, session *entities.Session, peer entities.PeerInfo) (entities.Content, entities.ContentDescriptor, error) {
	timeout := time.Duration(configs.GetPullTimeout()) * time.Second
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", peer.Addr)
	if err != nil {
		return entities.Content{}, entities.ContentDescriptor{}, fmt.Errorf("%w: dialing %s (%s): %w", entities.ErrPeerUnreachable, peer.ID, peer.Addr, err)
	}
	defer conn.Close()
	// 整个往返共用一个截止时间
	conn.SetDeadline(time.Now().Add(timeout))
	request, err := protocol.Compose(&protocol.PullRequest{
		PeerID: tc.selfId,
		Seq:    tc.seq.Add(1),
	})
	if err != nil {
		return entities.Content{}, entities.ContentDescriptor{}, err
	}
	if err := utils.WriteAllBytes(conn, request); err != nil {
		return entities.Content{}, entities.ContentDescriptor{}, fmt.Errorf("%w: sending pull request to %s: %w", entities.ErrPeerUnreachable, peer.ID, err)
	}
	// 读取单字节状态码
	statusBuf := make([]byte, 1)
	if _, err := io.ReadFull(conn, statusBuf); err != nil {
		return entities.Content{}, entities.ContentDescriptor{}, fmt.Errorf("%w: reading response from %s: %w", entities.ErrPeerUnreachable, peer.ID, err)
	}
	switch statusBuf[0] {
	case protocol.StatusOK:
		// 继续读取描述块和内容
	case protocol.StatusNoContent:
		return entities.Content{}, entities.ContentDescriptor{}, fmt.Errorf("%w: peer %s has no content", entities.ErrContentUnavailable, peer.ID)
	case protocol.StatusBusy:
		return entities.Content{}, entities.ContentDescriptor{}, fmt.Errorf("%w: peer %s is serving another session", entities.ErrBusy, peer.ID)
	case protocol.StatusError:
		return entities.Content{}, entities.ContentDescriptor{}, fmt.Errorf("%w: peer %s reported an internal error", entities.ErrContentUnavailable, peer.ID)
	default:
		return entities.Content{}, entities.ContentDescriptor{}, fmt.Errorf("%w: unknown response status 0x%02x from %s", entities.ErrProtocolError, statusBuf[0], peer.ID)
	}
	descriptor, err := protocol.ReadDescriptorChunkFrom(conn)
	if err != nil {
		return entities.Content{}, entities.ContentDescriptor{}, err
	}
	if descriptor.ByteSize < 0 || descriptor.ByteSize > configs.TransferPayloadMaxSize {
		return entities.Content{}, entities.ContentDescriptor{}, fmt.Errorf("%w: declared content size %d out of range", entities.ErrProtocolError, descriptor.ByteSize)
	}
	tc.coordinator.Advance(session, entities.SessionStreaming)
	// 读取恰好 ByteSize 字节的内容
	data := make([]byte, descriptor.ByteSize)
	if _, err := io.ReadFull(conn, data); err != nil {
		return entities.Content{}, entities.ContentDescriptor{}, fmt.Errorf("%w: streaming content from %s: %w", entities.ErrPeerUnreachable, peer.ID, err)
	}
	content := entities.Content{
		Kind:     descriptor.Kind,
		Data:     data,
		Filename: descriptor.Filename,
	}
	return content, descriptor, nil
}
