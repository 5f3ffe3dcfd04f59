package entities

// 对端相关实体

import "time"

// PeerInfo 存储一个已知对端的信息
//
// 由对端注册表独占持有，只在收到发现通告时更新
type PeerInfo struct {
	// 对端的唯一标识符，主机名加上启动时生成的随机实例后缀
	ID string
	// 对端的展示名称 (通常为主机名)
	DisplayName string
	// 对端传输服务的地址，host:port 形式，总是反映最近一次通告
	Addr string
	// 最近一次收到通告的时刻
	LastSeen time.Time
	// 最近一次通告的剪贴板内容描述，nil 表示对端当前没有可拉取的内容
	Advertised *ContentDescriptor
}

// PeerStatus 是提供给 UI / 菜单层的对端条目
type PeerStatus struct {
	ID          string
	DisplayName string
	HasContent  bool
}
