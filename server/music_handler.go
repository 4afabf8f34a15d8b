package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shriram-30/SpotifyClone/core/catalog"
	"github.com/shriram-30/SpotifyClone/logger"
	"github.com/shriram-30/SpotifyClone/model"
	"github.com/shriram-30/SpotifyClone/repository"
)

// TrendingSongsHandler 热门榜
func (h *APIHandler) TrendingSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.TrendingSongs(r.Context())
	if err != nil {
		logger.Error("[Trending] 获取热门歌曲失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch trending songs")
		return
	}
	writeOK(w, http.StatusOK, envelope{"count": len(songs), "data": nonNil(songs)})
}

// TracksByNameHandler 按歌名查找热门歌曲
func (h *APIHandler) TracksByNameHandler(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name query is required")
		return
	}
	songs, err := h.catalog.TrendingByName(r.Context(), name)
	if err != nil {
		logger.Error("[Tracks] 按歌名查找失败", logger.String("name", name), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch track by name")
		return
	}
	writeOK(w, http.StatusOK, envelope{"count": len(songs), "data": nonNil(songs)})
}

// TrackHandler 单首热门歌曲
func (h *APIHandler) TrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid track id")
		return
	}
	song, err := h.catalog.TrendingSong(r.Context(), id)
	if err != nil {
		h.catalogError(w, "[Tracks]", err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"data": song})
}

// AlbumsHandler 全部专辑
func (h *APIHandler) AlbumsHandler(w http.ResponseWriter, r *http.Request) {
	albums, err := h.catalog.Albums(r.Context())
	if err != nil {
		logger.Error("[Albums] 获取专辑失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch albums")
		return
	}
	writeOK(w, http.StatusOK, envelope{"count": len(albums), "data": nonNil(albums)})
}

// AlbumHandler 单张专辑
func (h *APIHandler) AlbumHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid album id")
		return
	}
	album, err := h.catalog.Album(r.Context(), id)
	if err != nil {
		h.catalogError(w, "[Album]", err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"data": album})
}

// CreateAlbumHandler 创建专辑
func (h *APIHandler) CreateAlbumHandler(w http.ResponseWriter, r *http.Request) {
	var album model.Album
	if err := decodeJSON(r, &album); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	album.ID = 0
	if err := h.catalog.CreateAlbum(r.Context(), &album); err != nil {
		h.catalogError(w, "[Album]", err)
		return
	}
	writeOK(w, http.StatusCreated, envelope{"data": album})
}

// catalogError 把目录层的错误映射为状态码
func (h *APIHandler) catalogError(w http.ResponseWriter, tag string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, repository.ErrDuplicateArtist):
		writeError(w, http.StatusBadRequest, repository.ErrDuplicateArtist.Error())
	case errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error(tag+" 目录操作失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

// nonNil 让空列表序列化为 [] 而不是 null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
