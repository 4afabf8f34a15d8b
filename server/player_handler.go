package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shriram-30/SpotifyClone/core/player"
	"github.com/shriram-30/SpotifyClone/logger"
	"github.com/shriram-30/SpotifyClone/model"
)

// 队列来源
const (
	queueSourceAlbum    = "album"
	queueSourceArtist   = "artist"
	queueSourceTrending = "trending"
)

// QueueRequest 加载一个集合到队列并播放 startIndex
type QueueRequest struct {
	Source     string `json:"source"`
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	StartIndex int    `json:"startIndex"`
}

// PlayRequest 播放指定歌曲（只按 track.id 在队列或目录中查找），或播放队列中第 index 首
type PlayRequest struct {
	Track *model.Track `json:"track"`
	Index *int         `json:"index"`
}

type seekRequest struct {
	Seconds float64 `json:"seconds"`
}

type volumeRequest struct {
	Percent int `json:"percent"`
}

// session 取当前用户的会话
func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) (*player.Session, int64, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, 0, false
	}
	return h.players.Session(userID), userID, true
}

// playbackContext 会话比请求活得久，播放请求不随客户端断开而取消
func playbackContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// respondPlayer 把播放操作的结果映射为响应。播放失败不是致命错误，
// 状态中会带上 error 字段
func (h *APIHandler) respondPlayer(w http.ResponseWriter, s *player.Session, userID int64, err error) {
	switch {
	case err == nil, errors.Is(err, player.ErrPlaybackFailed), errors.Is(err, player.ErrSuperseded):
		writeOK(w, http.StatusOK, envelope{"state": s.State()})
	case errors.Is(err, player.ErrNotPlayable):
		writeError(w, http.StatusUnprocessableEntity, "Track has no playable audio")
	case errors.Is(err, player.ErrInvalidIndex):
		writeError(w, http.StatusBadRequest, "Invalid queue index")
	default:
		logger.Error("[Player] 操作失败", logger.Int64("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Player error")
	}
}

// PlayerStateHandler 当前状态和队列
func (h *APIHandler) PlayerStateHandler(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	q := s.Queue()
	writeOK(w, http.StatusOK, envelope{
		"state": s.State(),
		"queue": envelope{
			"items":    nonNil(q.Items()),
			"cursor":   q.Cursor(),
			"shuffled": q.Shuffled(),
		},
	})
}

// LoadQueueHandler 加载专辑、艺人或热门榜并播放
func (h *APIHandler) LoadQueueHandler(w http.ResponseWriter, r *http.Request) {
	s, userID, ok := h.session(w, r)
	if !ok {
		return
	}
	var req QueueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		tracks []model.Track
		err    error
	)
	switch strings.ToLower(req.Source) {
	case queueSourceAlbum:
		tracks, err = h.catalog.AlbumTracks(r.Context(), req.ID)
	case queueSourceArtist:
		tracks, err = h.catalog.ArtistTracks(r.Context(), req.Name)
	case queueSourceTrending:
		tracks, err = h.catalog.TrendingTracks(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "source must be album, artist or trending")
		return
	}
	if err != nil {
		h.catalogError(w, "[Player]", err)
		return
	}
	if len(tracks) == 0 {
		writeError(w, http.StatusNotFound, "No tracks found")
		return
	}

	err = s.LoadQueue(playbackContext(r), tracks, req.StartIndex)
	h.respondPlayer(w, s, userID, err)
}

// PlayHandler 播放指定歌曲或队列中的某一首
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	s, userID, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PlayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var err error
	switch {
	case req.Track != nil:
		// 只播放队列或目录里的歌曲，请求体里的 audioUrl 不可信
		t, lookupErr := h.lookupTrack(r.Context(), s, req.Track.ID)
		if lookupErr != nil {
			h.catalogError(w, "[Player]", lookupErr)
			return
		}
		err = s.PlayTrack(playbackContext(r), t)
	case req.Index != nil:
		err = s.PlayIndex(playbackContext(r), *req.Index)
	default:
		writeError(w, http.StatusBadRequest, "track or index is required")
		return
	}
	h.respondPlayer(w, s, userID, err)
}

// lookupTrack 先在当前队列中按ID查找，找不到再查目录
func (h *APIHandler) lookupTrack(ctx context.Context, s *player.Session, id string) (model.Track, error) {
	q := s.Queue()
	if i := q.IndexOf(id); i >= 0 {
		if items := q.Items(); i < len(items) && items[i].ID == id {
			return items[i], nil
		}
	}
	return h.catalog.Track(ctx, id)
}

func (h *APIHandler) TogglePlayHandler(w http.ResponseWriter, r *http.Request) {
	s, userID, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondPlayer(w, s, userID, s.TogglePlayPause(playbackContext(r)))
}

func (h *APIHandler) NextHandler(w http.ResponseWriter, r *http.Request) {
	s, userID, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondPlayer(w, s, userID, s.Next(playbackContext(r)))
}

func (h *APIHandler) PreviousHandler(w http.ResponseWriter, r *http.Request) {
	s, userID, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondPlayer(w, s, userID, s.Previous(playbackContext(r)))
}

func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	s, userID, ok := h.session(w, r)
	if !ok {
		return
	}
	var req seekRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.Seek(req.Seconds)
	h.respondPlayer(w, s, userID, nil)
}

func (h *APIHandler) VolumeHandler(w http.ResponseWriter, r *http.Request) {
	s, userID, ok := h.session(w, r)
	if !ok {
		return
	}
	var req volumeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.SetVolume(req.Percent)
	h.respondPlayer(w, s, userID, nil)
}

func (h *APIHandler) MuteHandler(w http.ResponseWriter, r *http.Request) {
	s, userID, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ToggleMute()
	h.respondPlayer(w, s, userID, nil)
}

func (h *APIHandler) ShuffleHandler(w http.ResponseWriter, r *http.Request) {
	s, userID, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ToggleShuffle()
	h.respondPlayer(w, s, userID, nil)
}

// ClosePlayerHandler 停止播放，队列保留
func (h *APIHandler) ClosePlayerHandler(w http.ResponseWriter, r *http.Request) {
	s, userID, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Close()
	h.respondPlayer(w, s, userID, nil)
}
