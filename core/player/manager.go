package player

import (
	"sync"

	"github.com/shriram-30/SpotifyClone/logger"
)

// Manager 按用户ID管理播放会话，会话在首次访问时创建
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	factory  MediaFactory
	settings Settings
	opts     []QueueOption
}

// NewManager 创建会话管理器
func NewManager(factory MediaFactory, settings Settings, opts ...QueueOption) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		factory:  factory,
		settings: settings,
		opts:     opts,
	}
}

// Session 获取或创建用户的会话
func (m *Manager) Session(userID int64) *Session {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s = NewSession(m.factory(), m.settings, m.opts...)
	m.sessions[userID] = s
	logger.Info("创建播放会话", logger.Int64("userId", userID))
	return s
}

// Lookup 获取已存在的会话
func (m *Manager) Lookup(userID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Remove 关闭并移除用户的会话
func (m *Manager) Remove(userID int64) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.Close()
		s.closeSubscribers()
	}
}

// UpdateSettings 热更新所有会话的参数
func (m *Manager) UpdateSettings(settings Settings) {
	m.mu.Lock()
	m.settings = settings
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.UpdateSettings(settings)
	}
	logger.Info("播放参数已更新",
		logger.Duration("restartThreshold", settings.RestartThreshold),
		logger.Int("defaultVolume", settings.DefaultVolume),
		logger.Duration("readyTimeout", settings.ReadyTimeout),
		logger.Int("sessions", len(sessions)))
}

// Count 当前会话数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll 关闭全部会话并释放媒体句柄
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[int64]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		s.closeSubscribers()
	}
}
