package services

// 会话协调器模块
//
// 以 (方向, 对端) 为键串行化传输: 同一键上同时最多只有一个
// 未到终态的会话，新请求在旧会话未结束时直接拒绝 (不排队)，
// 以限制在途内容缓冲区数量并避免对本地剪贴板的交错写入

import (
	"sync"
	"time"

	"github.com/JuniFruit/CopyXross/entities"
)

// sessionKey 标识一个会话槽位
type sessionKey struct {
	direction entities.SessionDirection
	peer      string
}

// SessionCoordinator 管理所有在途传输会话
type SessionCoordinator struct {
	// 控制对 active 的并发访问
	mutex sync.Mutex
	// 未到终态的会话，按 (方向, 对端) 索引
	active map[sessionKey]*entities.Session
}

// NewSessionCoordinator 创建一个新的会话协调器
func NewSessionCoordinator() *SessionCoordinator {
	return &SessionCoordinator{
		active: make(map[sessionKey]*entities.Session),
	}
}

// Begin 为给定 (方向, 对端) 开启一个新会话
//
// 如果该键上已有未到终态的会话，返回 entities.ErrBusy。
// 旧会话到达终态后，同一键上总是可以开启全新的会话
func (sc *SessionCoordinator) Begin(direction entities.SessionDirection, peer string) (*entities.Session, error) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	key := sessionKey{direction: direction, peer: peer}
	if _, exists := sc.active[key]; exists {
		return nil, entities.ErrBusy
	}
	session := &entities.Session{
		Peer:      peer,
		Direction: direction,
		State:     entities.SessionIdle,
		StartedAt: time.Now(),
	}
	sc.active[key] = session
	return session, nil
}

// Advance 把会话迁移到一个非终态
func (sc *SessionCoordinator) Advance(session *entities.Session, state entities.SessionState) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	if session.State.Terminal() {
		// 终态的会话不会再变化
		return
	}
	session.State = state
}

// Finish 把会话迁移到终态并释放其槽位
//
// 无论成功或失败路径都必须调用，保证会话资源确定性释放
func (sc *SessionCoordinator) Finish(session *entities.Session, state entities.SessionState) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	if session.State.Terminal() {
		return
	}
	session.State = state
	key := sessionKey{direction: session.Direction, peer: session.Peer}
	// 只释放自己占用的槽位
	if sc.active[key] == session {
		delete(sc.active, key)
	}
}

// ActiveCount 返回当前未到终态的会话数量
func (sc *SessionCoordinator) ActiveCount() int {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	return len(sc.active)
}
