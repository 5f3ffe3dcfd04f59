package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/JuniFruit/CopyXross/clipboard"
	"github.com/JuniFruit/CopyXross/configs"
	"github.com/JuniFruit/CopyXross/services"
	"github.com/JuniFruit/CopyXross/utils"
	"github.com/joho/godotenv"
)

const AppVersion = "1.0.0"

func main() {
	// 中断信号处理
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// 获得进程可执行文件目录，切换到该目录，确保如日志的相对路径能正常解析
	executableDir, err := utils.GetExactExecutableDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable directory: %v\n", err)
		return
	}
	// ------------ 先读取配置
	// .env 文件不存在时忽略，环境变量仍然有效
	godotenv.Load()
	multicastAddr := os.Getenv("CPX_MULTICAST_ADDR") // 发现组播地址
	discoveryPort := os.Getenv("CPX_DISCOVERY_PORT") // 发现组播端口
	transferPort := os.Getenv("CPX_TRANSFER_PORT")   // TCP 传输服务端口
	displayName := os.Getenv("CPX_DISPLAY_NAME")     // 展示给其他对端的名称
	logDebugFlag := os.Getenv("CPX_LOG_DEBUG")       // 是否启用调试日志, 1 为启用
	logDebug := false
	if logDebugFlag == "1" {
		logDebug = true
	}
	announceIntervalStr := os.Getenv("CPX_ANNOUNCE_INTERVAL")      // 组播通告间隔
	peerTTLStr := os.Getenv("CPX_PEER_TTL")                        // 对端存活 TTL
	pullTimeoutStr := os.Getenv("CPX_PULL_TIMEOUT")                // 拉取超时
	clipboardPollStr := os.Getenv("CPX_CLIPBOARD_POLL_INTERVAL")   // 剪贴板轮询间隔
	logFilePath := os.Getenv("CPX_LOG_FILE_PATH")                  // 日志文件路径
	logFileMaxSize := os.Getenv("CPX_LOG_FILE_MAX_SIZE")           // 日志文件滚动大小
	logFileMaxHistorical := os.Getenv("CPX_LOG_FILE_MAX_HISTORICAL") // 历史日志文件数量
	workingDir := os.Getenv("CPX_WORK_DIR")

	// 尝试从命令行读取配置
	flag.StringVar(&multicastAddr, "mc-addr", multicastAddr, "Multicast discovery address")
	flag.StringVar(&discoveryPort, "discovery-port", discoveryPort, "Multicast discovery port")
	flag.StringVar(&transferPort, "transfer-port", transferPort, "TCP transfer service port")
	flag.StringVar(&displayName, "name", displayName, "Display name shown to other peers (default to hostname)")
	flag.BoolVar(&logDebug, "debug", logDebug, "Enable debug logging")
	flag.StringVar(&announceIntervalStr, "announce-interval", announceIntervalStr, "The interval in seconds for multicasting presence announcements")
	flag.StringVar(&peerTTLStr, "peer-ttl", peerTTLStr, "Time in seconds before a silent peer is evicted (at least 3x the announce interval)")
	flag.StringVar(&pullTimeoutStr, "pull-timeout", pullTimeoutStr, "Timeout in seconds for a single clipboard pull round trip")
	flag.StringVar(&clipboardPollStr, "clipboard-poll-interval", clipboardPollStr, "The interval in seconds for polling the local clipboard")
	flag.StringVar(&logFilePath, "log-file", logFilePath, "Log file path")
	flag.StringVar(&logFileMaxSize, "log-file-max-size", logFileMaxSize, "Log file max size in Bytes before rotation")
	flag.StringVar(&logFileMaxHistorical, "log-file-max-historical", logFileMaxHistorical, "Max number of historical log files to keep")
	flag.StringVar(&workingDir, "work-dir", workingDir, "Working directory (default to executable's directory)")
	// 一次性拉取模式: 从指定对端拉取一次内容后退出
	var pasteFrom string
	flag.StringVar(&pasteFrom, "paste-from", "", "Pull clipboard content from the given peer ID once, print it and exit")
	// 开机自启选项
	var autoStart string
	flag.StringVar(&autoStart, "autostart", "", "Set auto start on system boot, options: 'enable', 'disable'")

	flag.Parse()

	// ------------ 切换工作目录
	if workingDir == "" {
		workingDir = executableDir
	}
	err = os.Chdir(workingDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to change working directory to %s: %v\n", workingDir, err)
		return
	}

	// ------------ 初始化全局日志记录器
	// 日志相关配置
	if logFilePath != "" {
		configs.SetLogFilePath(logFilePath)
	}
	if logFileMaxSize != "" {
		size, err := strconv.ParseInt(logFileMaxSize, 10, 64)
		if err != nil || size <= 0 {
			fmt.Fprintf(os.Stderr, "Invalid log file max size, should be a positive integer: %v\n", err)
			return
		}
		configs.SetLogMaxSizeBytes(size)
	}
	if logFileMaxHistorical != "" {
		count, err := strconv.ParseInt(logFileMaxHistorical, 10, 32)
		if err != nil || count < 0 {
			fmt.Fprintf(os.Stderr, "Invalid log file max historical count, should be a non-negative integer: %v\n", err)
			return
		}
		configs.SetLogMaxHistoricalFiles(int(count))
	}
	// 日志级别
	logLevel := slog.LevelInfo
	if logDebug {
		logLevel = slog.LevelDebug
	}
	// 日志文件写入器
	logFileWriter, err := utils.NewLogWriter(configs.GetLogFilePath(), configs.GetLogMaxSizeBytes(), configs.GetLogMaxHistoricalFiles())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up log file writer: %v\n", err)
		return
	}
	// 同时写入 STDOUT 和日志文件
	logger := slog.New(slog.NewTextHandler(
		io.MultiWriter(logFileWriter, os.Stdout),
		&slog.HandlerOptions{
			Level: logLevel,
		},
	))
	slog.SetDefault(logger)

	// ----------- 输出版本信息和工作目录
	slog.Info("CopyXross starting...", "version", AppVersion)
	slog.Info("Working directory", "dir", workingDir)

	// ------------ 开机自启设置
	switch autoStart {
	case "enable":
		err := utils.SetAutoStart(true)
		if err != nil {
			slog.Error("Failed to enable autostart", "error", err)
			return
		}
		// 启动后直接退出
		slog.Info("Autostart enabled successfully")
		return
	case "disable":
		err := utils.SetAutoStart(false)
		if err != nil {
			slog.Error("Failed to disable autostart", "error", err)
			return
		}
		// 启动后直接退出
		slog.Info("Autostart disabled successfully")
		return
	case "":
		// 没有传入就正常启动后续服务
	default:
		slog.Error("Invalid value for autostart option, should be 'enable', 'disable' or empty", "input", autoStart)
		return
	}

	// ------------ 配置默认值以及配置检查
	if announceIntervalStr != "" {
		announceInterval, err := strconv.ParseInt(announceIntervalStr, 10, 32)
		if err != nil || announceInterval <= 0 {
			slog.Error("Invalid time interval for 'announce-interval', should be a positive integer", "input", announceIntervalStr, "error", err)
			return
		}
		configs.SetAnnounceInterval(int(announceInterval))
	}
	slog.Debug("Announce interval (seconds)", "interval", configs.GetAnnounceInterval())

	if peerTTLStr != "" {
		peerTTL, err := strconv.ParseInt(peerTTLStr, 10, 32)
		if err != nil || peerTTL <= 0 {
			slog.Error("Invalid time for 'peer-ttl', should be a positive integer", "input", peerTTLStr, "error", err)
			return
		}
		configs.SetPeerLivenessTTL(int(peerTTL))
	}
	slog.Debug("Peer liveness TTL (seconds)", "ttl", configs.GetPeerLivenessTTL())

	if pullTimeoutStr != "" {
		pullTimeout, err := strconv.ParseInt(pullTimeoutStr, 10, 32)
		if err != nil || pullTimeout <= 0 {
			slog.Error("Invalid time for 'pull-timeout', should be a positive integer", "input", pullTimeoutStr, "error", err)
			return
		}
		configs.SetPullTimeout(int(pullTimeout))
	}
	slog.Debug("Pull timeout (seconds)", "timeout", configs.GetPullTimeout())

	if clipboardPollStr != "" {
		clipboardPoll, err := strconv.ParseInt(clipboardPollStr, 10, 32)
		if err != nil || clipboardPoll <= 0 {
			slog.Error("Invalid time interval for 'clipboard-poll-interval', should be a positive integer", "input", clipboardPollStr, "error", err)
			return
		}
		configs.SetClipboardPollInterval(int(clipboardPoll))
	}
	slog.Debug("Clipboard poll interval (seconds)", "interval", configs.GetClipboardPollInterval())

	if multicastAddr == "" {
		multicastAddr = configs.DefaultMulticastIPv4
		slog.Debug("Multicast address not provided, using default value: " + multicastAddr)
	}

	if discoveryPort == "" {
		discoveryPort = configs.DefaultDiscoveryPort
		slog.Debug("Discovery port not provided, using default value: " + discoveryPort)
	}

	if transferPort == "" {
		transferPort = configs.DefaultTransferPort
		slog.Debug("Transfer port not provided, using default value: " + transferPort)
	}
	transferPortNum, err := strconv.ParseUint(transferPort, 10, 16)
	if err != nil || transferPortNum == 0 {
		slog.Error("Invalid transfer port, should be an integer in 1-65535", "input", transferPort, "error", err)
		return
	}

	if displayName == "" {
		displayName = utils.GetHostname()
		slog.Debug("Display name not provided, using hostname", "name", displayName)
	}

	// 获得首选出站 IP 地址
	selfIp, err := utils.GetOutboundIP()
	if err != nil {
		slog.Error("Error getting outbound IP address", "error", err)
		return
	}
	// 获得相应的网络接口
	outBoundInterface, err := utils.GetInterfaceByIP(selfIp)
	if err != nil {
		slog.Error("Error getting outbound network interface", "error", err)
		return
	}
	if outBoundInterface == nil {
		slog.Error("No network interface found for IP address", "ip", selfIp.String())
		return
	}

	slog.Info("Outbound IP address", "ip", selfIp.String())
	slog.Info("Using network interface", "interface", outBoundInterface.Name)

	// ------------ 为本机生成唯一的对端标识符
	peerId := utils.NewPeerID(utils.GetHostname())
	slog.Info("Peer ID", "peerId", peerId)

	// ------------ 组装各模块
	registry := services.NewPeerRegistry()
	cache := services.NewContentCache()
	coordinator := services.NewSessionCoordinator()
	client := services.NewTransferClient(peerId, registry, coordinator)
	localClipboard := clipboard.NewMemory()
	core := services.NewSyncCore(registry, client, localClipboard)

	// 出现严重异常时的通知通道
	errChan := make(chan error)
	// 一次性拉取模式的结果通道
	pasteResultChan := make(chan error, 1)
	core.SetOnPasteResult(func(fromPeerId string, err error) {
		if err != nil {
			slog.Error("Paste from peer failed", "peerId", fromPeerId, "error", err)
		} else {
			slog.Info("Paste from peer succeeded", "peerId", fromPeerId)
		}
		if pasteFrom != "" {
			pasteResultChan <- err
		}
	})

	// ------------ 启动各服务协程
	go services.RunDiscoveryListener(peerId, multicastAddr, discoveryPort, outBoundInterface, registry, sigCtx, errChan)
	go services.RunAnnouncer(peerId, displayName, uint16(transferPortNum), multicastAddr, discoveryPort, outBoundInterface, cache, sigCtx, errChan)
	go services.RunTransferServer(transferPort, cache, coordinator, sigCtx, errChan)
	go services.RunRegistrySweeper(registry, sigCtx)
	go clipboard.Watch(localClipboard, cache, sigCtx)

	if pasteFrom != "" {
		// 等待目标对端出现在注册表中后发起拉取
		go func() {
			deadline := time.Now().Add(time.Duration(configs.GetPeerLivenessTTL()) * time.Second)
			for {
				if _, found := registry.Get(pasteFrom); found {
					core.RequestPaste(pasteFrom)
					return
				}
				if time.Now().After(deadline) {
					slog.Error("Peer not discovered in time", "peerId", pasteFrom)
					pasteResultChan <- fmt.Errorf("peer %s not discovered", pasteFrom)
					return
				}
				select {
				case <-sigCtx.Done():
					return
				case <-time.After(500 * time.Millisecond):
				}
			}
		}()
	}

	// 周期性输出当前可见的对端
	peerReportTicker := time.NewTicker(time.Duration(configs.GetPeerLivenessTTL()) * time.Second)
	defer peerReportTicker.Stop()

	for {
		select {
		case err := <-errChan:
			panic(fmt.Sprintf("Exited with error: %v", err))
		case err := <-pasteResultChan:
			// 一次性拉取模式: 输出结果后退出
			if err == nil {
				if content, readErr := localClipboard.Read(); readErr == nil {
					os.Stdout.Write(content.Data)
					fmt.Println()
				}
			}
			logFileWriter.Close()
			return
		case <-peerReportTicker.C:
			peers := core.ListPeers()
			slog.Info("Known peers", "count", len(peers))
			for _, peer := range peers {
				slog.Info("Peer", "peerId", peer.ID, "name", peer.DisplayName, "hasContent", peer.HasContent)
			}
		case <-sigCtx.Done():
			slog.Info("Shutting down gracefully...")
			// 等待一会儿以确保所有 goroutine 都能退出
			time.Sleep(2 * time.Second)
			logFileWriter.Close()
			return
		}
	}

}
