package services

// 同步核心模块
//
// 面向上层界面的门面: 枚举当前可见的对端，按用户指令从对端
// 拉取内容写入本机剪贴板。拉取在后台协程中执行，结果通过
// 回调通知，不阻塞调用方

import (
	"context"
	"log/slog"
	"sync"

	"github.com/JuniFruit/CopyXross/clipboard"
	"github.com/JuniFruit/CopyXross/entities"
)

// PasteResultCallback 拉取结果回调
type PasteResultCallback func(peerId string, err error)

// SyncCore 剪贴板同步核心
type SyncCore struct {
	registry  *PeerRegistry
	client    *TransferClient
	clipboard clipboard.Clipboard
	mutex     sync.Mutex
	// 拉取结果回调，可为空
	onPasteResult PasteResultCallback
}

// NewSyncCore 创建同步核心
func NewSyncCore(registry *PeerRegistry, client *TransferClient, cp clipboard.Clipboard) *SyncCore {
	return &SyncCore{
		registry:  registry,
		client:    client,
		clipboard: cp,
	}
}

// SetOnPasteResult 设置拉取结果回调
func (sc *SyncCore) SetOnPasteResult(callback PasteResultCallback) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	sc.onPasteResult = callback
}

// ListPeers 列出当前存活的对端，按 ID 升序
func (sc *SyncCore) ListPeers() []entities.PeerStatus {
	peers := sc.registry.List()
	statuses := make([]entities.PeerStatus, 0, len(peers))
	for _, peer := range peers {
		statuses = append(statuses, entities.PeerStatus{
			ID:          peer.ID,
			DisplayName: peer.DisplayName,
			HasContent:  peer.Advertised != nil,
		})
	}
	return statuses
}

// RequestPaste 从指定对端拉取内容并写入本机剪贴板
//
// 立即返回，拉取在后台协程中执行，结果通过回调通知
func (sc *SyncCore) RequestPaste(peerId string) {
	go func() {
		content, err := sc.client.Pull(context.Background(), peerId)
		if err == nil {
			err = sc.clipboard.Write(content)
			if err != nil {
				slog.Warn("Failed to write pulled content to clipboard", "peerId", peerId, "error", err)
			}
		}
		sc.mutex.Lock()
		callback := sc.onPasteResult
		sc.mutex.Unlock()
		if callback != nil {
			callback(peerId, err)
		}
	}()
}
