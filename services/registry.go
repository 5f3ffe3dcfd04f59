package services

// 对端注册表模块
//
// 维护 对端 ID -> 最近已知地址 / 最近通告时刻 的映射，
// 发现监听协程在收到通告时更新，清扫定时器按存活窗口驱逐过期条目

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/JuniFruit/CopyXross/configs"
	"github.com/JuniFruit/CopyXross/entities"
)

// PeerRegistry 管理所有已知对端
//
// 所有读写都经过互斥锁串行化；List 返回快照副本，迭代不会阻塞并发的通告更新
type PeerRegistry struct {
	// 控制对 peers 的并发访问
	mutex sync.Mutex
	peers map[string]entities.PeerInfo
}

// NewPeerRegistry 创建一个新的对端注册表
func NewPeerRegistry() *PeerRegistry {
	return &PeerRegistry{
		peers: make(map[string]entities.PeerInfo),
	}
}

// Upsert 添加或更新一个对端条目
//
// 幂等操作，重复通告无害；地址、描述和最近通告时刻都以最新一次为准
func (pr *PeerRegistry) Upsert(info entities.PeerInfo) {
	pr.mutex.Lock()
	defer pr.mutex.Unlock()
	pr.peers[info.ID] = info
}

// Remove 从注册表中移除一个对端，返回该对端是否存在
func (pr *PeerRegistry) Remove(id string) bool {
	pr.mutex.Lock()
	defer pr.mutex.Unlock()
	_, exists := pr.peers[id]
	if exists {
		delete(pr.peers, id)
	}
	return exists
}

// Get 根据 ID 查找对端条目
func (pr *PeerRegistry) Get(id string) (entities.PeerInfo, bool) {
	pr.mutex.Lock()
	defer pr.mutex.Unlock()
	info, ok := pr.peers[id]
	return info, ok
}

// List 返回所有对端条目的快照，按 ID 升序排序保证顺序稳定
func (pr *PeerRegistry) List() []entities.PeerInfo {
	pr.mutex.Lock()
	defer pr.mutex.Unlock()
	peers := make([]entities.PeerInfo, 0, len(pr.peers))
	for _, info := range pr.peers {
		peers = append(peers, info)
	}
	sort.Slice(peers, func(i, j int) bool {
		return peers[i].ID < peers[j].ID
	})
	return peers
}

// Count 返回当前已知对端数量
func (pr *PeerRegistry) Count() int {
	pr.mutex.Lock()
	defer pr.mutex.Unlock()
	return len(pr.peers)
}

// Sweep 驱逐最近通告时刻早于 now-ttl 的对端条目，返回被驱逐的对端 ID
func (pr *PeerRegistry) Sweep(now time.Time, ttl time.Duration) []string {
	pr.mutex.Lock()
	defer pr.mutex.Unlock()
	threshold := now.Add(-ttl)
	evicted := []string{}
	for id, info := range pr.peers {
		if info.LastSeen.Before(threshold) {
			delete(pr.peers, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// RunRegistrySweeper 定时清扫过期的对端条目，直到收到退出信号
//
// 清扫定时器独立于通告流量运行
//
// registry: 对端注册表
// sigCtx: 中断信号上下文
func RunRegistrySweeper(registry *PeerRegistry, sigCtx context.Context) {
	ticker := time.NewTicker(time.Duration(configs.GetAnnounceInterval()) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-sigCtx.Done():
			slog.Debug("Registry sweeper exiting gracefully")
			return
		case now := <-ticker.C:
			ttl := time.Duration(configs.GetPeerLivenessTTL()) * time.Second
			evicted := registry.Sweep(now, ttl)
			for _, id := range evicted {
				slog.Info("Peer expired, removed from registry", "peerId", id, "ttl", ttl)
			}
		}
	}
}
