package server

import (
	"time"

	"github.com/shriram-30/SpotifyClone/core/auth"
	"github.com/shriram-30/SpotifyClone/core/catalog"
	"github.com/shriram-30/SpotifyClone/core/player"
	"github.com/shriram-30/SpotifyClone/core/search"
	"github.com/shriram-30/SpotifyClone/repository"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	users          repository.UserRepository
	catalog        *catalog.Service
	players        *player.Manager
	tokens         *auth.TokenIssuer
	searchDebounce time.Duration
}

// NewAPIHandler 创建API处理器
func NewAPIHandler(
	users repository.UserRepository,
	catalogSvc *catalog.Service,
	players *player.Manager,
	tokens *auth.TokenIssuer,
	searchDebounce time.Duration,
) *APIHandler {
	if searchDebounce <= 0 {
		searchDebounce = search.DefaultDebounce
	}
	return &APIHandler{
		users:          users,
		catalog:        catalogSvc,
		players:        players,
		tokens:         tokens,
		searchDebounce: searchDebounce,
	}
}
