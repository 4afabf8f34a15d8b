package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/shriram-30/SpotifyClone/config"
	"github.com/shriram-30/SpotifyClone/core/audio"
	"github.com/shriram-30/SpotifyClone/core/auth"
	"github.com/shriram-30/SpotifyClone/core/player"
	"github.com/shriram-30/SpotifyClone/db"
	"github.com/shriram-30/SpotifyClone/logger"
	"github.com/shriram-30/SpotifyClone/repository"
)

// NewRouter 注册全部路由
func NewRouter(h *APIHandler, clientURL string) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware(clientURL))
	router.Use(loggingMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, http.StatusOK, envelope{"status": "ok"})
	}).Methods(http.MethodGet)

	// 用户认证
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)

	// 热门歌曲与专辑
	music := router.PathPrefix("/api/music").Subrouter()
	music.HandleFunc("/trending-songs", h.TrendingSongsHandler).Methods(http.MethodGet)
	music.HandleFunc("/tracks", h.TracksByNameHandler).Methods(http.MethodGet)
	music.HandleFunc("/tracks/{id:[0-9]+}", h.TrackHandler).Methods(http.MethodGet)
	music.HandleFunc("/albums", h.AlbumsHandler).Methods(http.MethodGet)
	music.HandleFunc("/albums", h.AuthMiddleware(h.CreateAlbumHandler)).Methods(http.MethodPost)
	music.HandleFunc("/albums/{id:[0-9]+}", h.AlbumHandler).Methods(http.MethodGet)

	// 艺人，name 路由需在 {id} 之前注册
	artists := router.PathPrefix("/api/artists").Subrouter()
	artists.HandleFunc("", h.ListArtistsHandler).Methods(http.MethodGet)
	artists.HandleFunc("", h.CreateArtistHandler).Methods(http.MethodPost)
	artists.HandleFunc("/name/{name}", h.ArtistByNameHandler).Methods(http.MethodGet)
	artists.HandleFunc("/{id:[0-9]+}", h.GetArtistHandler).Methods(http.MethodGet)
	artists.HandleFunc("/{id:[0-9]+}", h.UpdateArtistHandler).Methods(http.MethodPut)
	artists.HandleFunc("/{id:[0-9]+}", h.DeleteArtistHandler).Methods(http.MethodDelete)
	artists.HandleFunc("/{name}/songs", h.ArtistSongsHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/search", h.SearchHandler).Methods(http.MethodGet)

	// 播放器，需要登录
	pl := router.PathPrefix("/api/player").Subrouter()
	pl.HandleFunc("", h.AuthMiddleware(h.PlayerStateHandler)).Methods(http.MethodGet)
	for path, handler := range map[string]http.HandlerFunc{
		"/queue":    h.LoadQueueHandler,
		"/play":     h.PlayHandler,
		"/toggle":   h.TogglePlayHandler,
		"/next":     h.NextHandler,
		"/previous": h.PreviousHandler,
		"/seek":     h.SeekHandler,
		"/volume":   h.VolumeHandler,
		"/mute":     h.MuteHandler,
		"/shuffle":  h.ShuffleHandler,
		"/close":    h.ClosePlayerHandler,
	} {
		pl.HandleFunc(path, h.AuthMiddleware(handler)).Methods(http.MethodPost)
	}

	router.HandleFunc("/ws/player", h.AuthMiddleware(h.PlayerWebSocketHandler)).Methods(http.MethodGet)

	// 预检请求由 corsMiddleware 直接应答
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return router
}

// Start 初始化依赖并启动 HTTP 服务，收到退出信号后优雅关闭
func Start(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	catalogSvc, cleanup, err := OpenCatalog(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var mediaOpts []audio.Option
	if !cfg.Player.ProbeMedia {
		mediaOpts = append(mediaOpts, audio.WithoutProbe())
	}
	if hosts := cfg.AllowedMediaHosts(); len(hosts) > 0 {
		mediaOpts = append(mediaOpts, audio.WithAllowedHosts(hosts...))
	}
	players := player.NewManager(audio.Factory(mediaOpts...), playerSettings(cfg.Player))
	defer players.CloseAll()

	// .env 变化时热更新播放参数
	if watcher, err := config.Watch(".env", func(ps config.PlayerSettings) {
		players.UpdateSettings(playerSettings(ps))
	}, func(err error) {
		logger.Warn("重新加载播放参数失败", logger.ErrorField(err))
	}); err != nil {
		logger.Warn("无法监听 .env", logger.ErrorField(err))
	} else {
		defer watcher.Close()
	}

	handler := NewAPIHandler(
		repository.NewGormUserRepository(db.GormDB),
		catalogSvc,
		players,
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		cfg.SearchDebounce,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(handler, cfg.ClientURL),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func playerSettings(ps config.PlayerSettings) player.Settings {
	return player.Settings{
		RestartThreshold: ps.RestartThreshold,
		DefaultVolume:    ps.DefaultVolume,
		ReadyTimeout:     ps.ReadyTimeout,
	}
}
