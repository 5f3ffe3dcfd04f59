package entities

// 传输会话相关实体

import "time"

// SessionDirection 表示会话的方向
type SessionDirection byte

const (
	// SessionOutbound 本机发起的拉取 (本机是接收方)
	SessionOutbound SessionDirection = iota
	// SessionInbound 对端发起的拉取 (本机是发送方)
	SessionInbound
)

// String 返回会话方向的可读名称
func (sd SessionDirection) String() string {
	if sd == SessionOutbound {
		return "outbound"
	}
	return "inbound"
}

// SessionState 表示会话状态机中的一个状态
type SessionState byte

const (
	// SessionIdle 初始状态
	SessionIdle SessionState = iota
	// SessionRequesting 出站会话已发出请求，等待响应
	SessionRequesting
	// SessionServing 入站会话已接受请求，准备发送
	SessionServing
	// SessionStreaming 内容字节正在传输
	SessionStreaming
	// SessionComplete 终态: 传输成功
	SessionComplete
	// SessionFailed 终态: 传输失败
	SessionFailed
	// SessionRejected 终态: 请求被拒绝
	SessionRejected
)

// String 返回会话状态的可读名称
func (ss SessionState) String() string {
	switch ss {
	case SessionIdle:
		return "idle"
	case SessionRequesting:
		return "requesting"
	case SessionServing:
		return "serving"
	case SessionStreaming:
		return "streaming"
	case SessionComplete:
		return "complete"
	case SessionFailed:
		return "failed"
	case SessionRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal 判断状态是否为终态，终态的会话不会再被复用
func (ss SessionState) Terminal() bool {
	return ss == SessionComplete || ss == SessionFailed || ss == SessionRejected
}

// Session 表示一对对端之间一次在途传输的有界生命周期
//
// 由会话协调器独占持有，同一 (方向, 对端) 同时最多只有一个未到终态的会话
type Session struct {
	// 对端 ID
	Peer string
	// 会话方向
	Direction SessionDirection
	// 当前状态，只能由协调器迁移
	State SessionState
	// 会话创建时刻
	StartedAt time.Time
}
