package api

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"sync"
	"time"
)

type exportDownload struct {
	filePath    string
	filename    string
	contentType string
	expiresAt   time.Time
}

// exportDownloadStore 一次性下载令牌
type exportDownloadStore struct {
	mu    sync.Mutex
	items map[string]exportDownload
}

func newExportDownloadStore() *exportDownloadStore {
	return &exportDownloadStore{items: make(map[string]exportDownload)}
}

func (s *exportDownloadStore) put(item exportDownload, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	token = newRandomToken(24)
	item.expiresAt = time.Now().Add(ttl)
	s.items[token] = item
	return token
}

func (s *exportDownloadStore) take(token string) (exportDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	v, ok := s.items[token]
	if ok {
		delete(s.items, token)
	}
	return v, ok
}

// purgeExpiredLocked 过期令牌连同未被下载的导出文件一起清理
func (s *exportDownloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
			if v.filePath != "" {
				_ = os.Remove(v.filePath)
			}
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
