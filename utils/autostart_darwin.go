//go:build darwin

package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// launchAgentFormat 是 LaunchAgent plist 的模板
const launchAgentFormat = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>com.junifruit.copyxross</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`

// launchAgentFileName 是 LaunchAgent 文件名
const launchAgentFileName = "com.junifruit.copyxross.plist"

// SetAutoStart 在 macOS 系统上设置开机自启
//
// 通过用户级 LaunchAgent 实现，文件放在 ~/Library/LaunchAgents 下
//
// enable: 是否启用自启动
func SetAutoStart(enable bool) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("Unable to get user home directory: %w", err)
	}
	agentDir := filepath.Join(homeDir, "Library", "LaunchAgents")
	agentPath := filepath.Join(agentDir, launchAgentFileName)
	if enable {
		if err := os.MkdirAll(agentDir, 0755); err != nil {
			return fmt.Errorf("Unable to create LaunchAgents directory: %w", err)
		}
		exePath, err := GetExactExecutablePath()
		if err != nil {
			return fmt.Errorf("Unable to get executable path: %w", err)
		}
		plistContent := fmt.Sprintf(launchAgentFormat, exePath)
		if err := os.WriteFile(agentPath, []byte(plistContent), 0644); err != nil {
			return fmt.Errorf("Unable to write LaunchAgent plist: %w", err)
		}
	} else {
		// 删除 plist 文件（如果存在）
		if _, err := os.Stat(agentPath); err == nil {
			if err := os.Remove(agentPath); err != nil {
				return fmt.Errorf("Unable to remove LaunchAgent plist: %w", err)
			}
		}
	}
	return nil
}
