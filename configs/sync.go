package configs

// 发现与传输机制相关的可调配置

var (
	// 定时组播本机存在信息的时间间隔，单位为秒
	announceInterval = 2
	// 对端存活窗口，超过该时间没有收到通告的对端会被清出注册表，单位为秒
	peerLivenessTTL = announceInterval * 3
	// 拉取对端剪贴板内容的超时时间，单位为秒
	pullTimeout = 10
	// 本地剪贴板轮询间隔，单位为秒
	clipboardPollInterval = 1
)

// SetAnnounceInterval 设置定时组播本机存在信息的时间间隔，单位为秒
//
// 同时会保证对端存活窗口至少为通告间隔的 3 倍
func SetAnnounceInterval(seconds int) {
	announceInterval = seconds
	peerLivenessTTL = max(peerLivenessTTL, seconds*3)
}

// GetAnnounceInterval 获取定时组播本机存在信息的时间间隔，单位为秒
func GetAnnounceInterval() int {
	return announceInterval
}

// SetPeerLivenessTTL 设置对端存活窗口，单位为秒
func SetPeerLivenessTTL(seconds int) {
	peerLivenessTTL = seconds
}

// GetPeerLivenessTTL 获取对端存活窗口，单位为秒
func GetPeerLivenessTTL() int {
	return peerLivenessTTL
}

// SetPullTimeout 设置拉取对端剪贴板内容的超时时间，单位为秒
func SetPullTimeout(seconds int) {
	pullTimeout = seconds
}

// GetPullTimeout 获取拉取对端剪贴板内容的超时时间，单位为秒
func GetPullTimeout() int {
	return pullTimeout
}

// SetClipboardPollInterval 设置本地剪贴板轮询间隔，单位为秒
func SetClipboardPollInterval(seconds int) {
	clipboardPollInterval = seconds
}

// GetClipboardPollInterval 获取本地剪贴板轮询间隔，单位为秒
func GetClipboardPollInterval() int {
	return clipboardPollInterval
}
