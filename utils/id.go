package utils

// 节点标识相关的工具函数

import (
	"os"
	"strings"

	"github.com/google/uuid"
)

// NewPeerID 生成本实例的对端标识符
//
// 格式为 主机名-随机实例后缀。后缀在每次启动时重新生成，
// 因此同一台机器重启后会作为新的对端出现，标识符不跨重启持久化
func NewPeerID(hostname string) string {
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return hostname + "-" + nonce
}

// GetHostname 获取本机主机名，获取失败时返回兜底名称
func GetHostname() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "copyxross-peer"
	}
	return hostname
}
