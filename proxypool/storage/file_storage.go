package storage

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"liuproxy_keepalive/internal/shared/logger"
)

// FileStorage 实现了 Storage 接口，使用每行一个代理的纯文本文件进行持久化。
type FileStorage struct {
	filePath string
	mu       sync.Mutex
}

// NewFileStorage 创建一个新的 FileStorage 实例。
func NewFileStorage(filePath string) *FileStorage {
	return &FileStorage{
		filePath: filePath,
	}
}

// Load 按文件顺序读取所有非空行。文件不存在时返回空列表。
func (fs *FileStorage) Load() ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := fs.readLocked()
	if err != nil {
		return nil, err
	}
	l := logger.WithComponent("ProxyPool/Storage")
	l.Debug().Str("path", fs.filePath).Int("count", len(entries)).Msg("Loaded proxies from file.")
	return entries, nil
}

// Save 用 entries 覆盖整个文件。
func (fs *FileStorage) Save(entries []string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.writeLocked(entries); err != nil {
		return err
	}
	l := logger.WithComponent("ProxyPool/Storage")
	l.Info().Str("path", fs.filePath).Int("count", len(entries)).Msg("Saved proxies to file.")
	return nil
}

// Remove 在同一把锁内完成读-改-写，保证并发删除不会互相覆盖。
func (fs *FileStorage) Remove(entry string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := fs.readLocked()
	if err != nil {
		return false, err
	}

	kept := make([]string, 0, len(entries))
	removed := false
	for _, e := range entries {
		if e == entry {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return false, nil
	}
	return true, fs.writeLocked(kept)
}

func (fs *FileStorage) readLocked() ([]string, error) {
	file, err := os.Open(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	defer file.Close()

	entries := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// writeLocked 先写临时文件再 rename，避免进程中途退出留下半截文件。
func (fs *FileStorage) writeLocked(entries []string) error {
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.filePath), ".proxies-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, fs.filePath)
}
