package utils

// 日志相关工具

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/JuniFruit/CopyXross/entities"
)

// rotatedLogFilePattern 用于匹配轮转日志文件名
const rotatedLogFilePattern = `^(.+?)_rotated\.(\d+)\.log$`

// rotatedLogFileFormat 为轮转日志文件名格式
const rotatedLogFileFormat = "%s_rotated.%d.log"

// rotatedLogFileRegex 是用于匹配轮转日志文件名的正则表达式
var rotatedLogFileRegex = regexp.MustCompile(rotatedLogFilePattern)

// LogWriter 是简单的日志写入器，支持按大小轮转
type LogWriter struct {
	filePath          string
	fileName          string
	fileDir           string
	maxSize           int64 // 以字节为单位的最大文件大小
	maxHistoricalLogs int   // 最大历史日志文件数量
	file              *os.File
	currSize          int64 // 当前日志文件已写入的字节数
	closed            bool
}

// NewLogWriter 创建一个新的 LogWriter 实例
func NewLogWriter(filePath string, maxSize int64, maxHistoricalLogs int) (*LogWriter, error) {
	fileDir := filepath.Dir(filePath)
	// 创建必要目录
	if err := os.MkdirAll(fileDir, 0755); err != nil {
		return nil, fmt.Errorf("Failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("Failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("Failed to get log file info: %w", err)
	}
	return &LogWriter{
		filePath:          filePath,
		fileName:          filepath.Base(filePath),
		fileDir:           fileDir,
		maxSize:           maxSize,
		maxHistoricalLogs: maxHistoricalLogs,
		file:              file,
		currSize:          info.Size(),
	}, nil
}

// collectRotatedLogs 收集日志目录下所有轮转日志文件名，按 ID 升序排序
func (lw *LogWriter) collectRotatedLogs() ([]entities.RotatedLogFileName, error) {
	files, err := os.ReadDir(lw.fileDir)
	if err != nil {
		return nil, fmt.Errorf("Failed to read log directory: %w", err)
	}
	rotated := []entities.RotatedLogFileName{}
	for _, file := range files {
		submatches := rotatedLogFileRegex.FindStringSubmatch(file.Name())
		if len(submatches) != 3 {
			continue
		}
		logId, parseErr := strconv.ParseInt(submatches[2], 10, 32)
		if parseErr != nil {
			continue
		}
		rotated = append(rotated, entities.RotatedLogFileName{
			FullName: file.Name(),
			LogId:    int(logId),
			BaseName: submatches[1],
		})
	}
	sort.Slice(rotated, func(i, j int) bool {
		return rotated[i].LogId < rotated[j].LogId
	})
	return rotated, nil
}

// rotateLogs 执行日志轮转，将当前日志文件重命名为轮转文件，并控制历史日志文件数量
func (lw *LogWriter) rotateLogs() error {
	// 关闭当前日志文件
	lw.file.Close()
	rotated, err := lw.collectRotatedLogs()
	if err != nil {
		return err
	}
	// 如果超过最大历史日志文件数量，删除最旧的文件
	numRotated := len(rotated)
	if numRotated >= lw.maxHistoricalLogs {
		// +1 是算上了当前的日志文件
		numOverflow := numRotated + 1 - lw.maxHistoricalLogs
		for i := numRotated - numOverflow; i < numRotated; i++ {
			toDelete := filepath.Join(lw.fileDir, rotated[i].FullName)
			if err := os.Remove(toDelete); err != nil {
				return fmt.Errorf("Failed to delete old log file '%s': %w", toDelete, err)
			}
		}
		rotated = rotated[:numRotated-numOverflow]
	}
	// 依次重命名现有的历史日志文件，ID 加 1
	for i := len(rotated) - 1; i >= 0; i-- {
		oldPath := filepath.Join(lw.fileDir, rotated[i].FullName)
		newName := fmt.Sprintf(rotatedLogFileFormat, rotated[i].BaseName, rotated[i].LogId+1)
		newPath := filepath.Join(lw.fileDir, newName)
		if err := os.Rename(oldPath, newPath); err != nil {
			return fmt.Errorf("Failed to rename log file '%s' to '%s': %w", oldPath, newPath, err)
		}
	}
	// 重命名当前日志文件为轮转文件，ID 为 1
	rotatedName := fmt.Sprintf(rotatedLogFileFormat, GetBaseNameWithoutExt(lw.fileName), 1)
	rotatedPath := filepath.Join(lw.fileDir, rotatedName)
	if err := os.Rename(lw.filePath, rotatedPath); err != nil {
		return fmt.Errorf("Failed to rotate current log file to '%s': %w", rotatedPath, err)
	}
	// 重新打开一个新的日志文件
	lw.file, err = os.OpenFile(lw.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("Failed to open new log file: %w", err)
	}
	lw.currSize = 0
	return nil
}

// Write 写入日志数据，并在达到最大文件大小时进行轮转，实现了 io.Writer 接口
func (lw *LogWriter) Write(p []byte) (n int, err error) {
	if lw.closed {
		return 0, errors.New("LogWriter is closed")
	}
	if lw.file == nil {
		return 0, errors.New("Log file is not open")
	}
	// 如果写入后超过最大大小，则先进行轮转
	if lw.currSize+int64(len(p)) > lw.maxSize {
		if err := lw.rotateLogs(); err != nil {
			return 0, fmt.Errorf("Failed to rotate logs: %w", err)
		}
	}
	n, err = lw.file.Write(p)
	lw.currSize += int64(n)
	return n, err
}

// Close 关闭日志写入器以及相关文件资源
func (lw *LogWriter) Close() error {
	if lw.file == nil {
		return errors.New("Log file is not open")
	}
	if lw.closed {
		return nil
	}
	if err := lw.file.Close(); err != nil {
		return err
	}
	lw.closed = true
	return nil
}
