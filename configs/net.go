package configs

// 网络处理相关常量

const (
	// CopyXross 默认的 IPv4 组播发现地址
	DefaultMulticastIPv4 = "239.255.255.250"
	// 默认的发现 (组播) 端口
	DefaultDiscoveryPort = "53300"
	// 默认的传输服务 (TCP) 端口
	DefaultTransferPort = "53301"
	// 组播数据读取时字节缓冲区大小，一个发现数据报远小于该大小
	MulticastReadBufferSize = 4096 // 4 KiB
	// 组播数据读取超时时间
	MulticastReadTimeout = 15 // 秒
	// 重试监听组播的间隔时间
	MulticastListenRetryInterval = 3 // 秒
	// 重试发送发现数据报的套接字重建间隔
	AnnounceRebindInterval = 3 // 秒
	// TCP 连接等待超时时间
	TCPAcceptTimeout = 30 // 秒
	// TCP 服务重启间隔时间
	TCPServerRestartInterval = 3 // 秒
	// 传输请求读取的最大字节数，请求只含对端 ID 和序号，不会很大
	TransferRequestMaxSize = 1024 // 1 KiB
	// 单次传输的最大内容字节数
	TransferPayloadMaxSize = 1 * 1024 * 1024 * 1024 // 1 GiB
	// 读取传输请求的超时时间
	TransferRequestReadTimeout = 10 // 秒
	// 写入 TCP 数据的超时时间
	TCPSocketWriteTimeout = 30 // 秒
)
