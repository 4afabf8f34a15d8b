package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shriram-30/SpotifyClone/model"
	"github.com/shriram-30/SpotifyClone/repository"
)

// ListArtistsHandler 分页列出艺人 ?page=&limit=&search=
func (h *APIHandler) ListArtistsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Artists(r.Context(),
		r.URL.Query().Get("search"),
		queryInt(r, "page", 1),
		queryInt(r, "limit", 20))
	if err != nil {
		h.catalogError(w, "[Artists]", err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"count":   len(page.Artists),
		"total":   page.Total,
		"page":    page.Page,
		"pages":   page.Pages,
		"artists": page.Artists,
	})
}

func (h *APIHandler) GetArtistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid artist id")
		return
	}
	artist, err := h.catalog.Artist(r.Context(), id)
	if err != nil {
		h.catalogError(w, "[Artist]", err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"artist": artist})
}

// ArtistByNameHandler 名字完全匹配（不区分大小写）
func (h *APIHandler) ArtistByNameHandler(w http.ResponseWriter, r *http.Request) {
	artist, err := h.catalog.ArtistByName(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.catalogError(w, "[Artist]", err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"artist": artist})
}

// ArtistSongsHandler 艺人的专辑歌曲和热门歌曲
func (h *APIHandler) ArtistSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.ArtistSongs(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.catalogError(w, "[ArtistSongs]", err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"count": len(songs), "songs": nonNil(songs)})
}

func (h *APIHandler) CreateArtistHandler(w http.ResponseWriter, r *http.Request) {
	var artist model.Artist
	if err := decodeJSON(r, &artist); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	artist.ID = 0
	if err := h.catalog.CreateArtist(r.Context(), &artist); err != nil {
		h.catalogError(w, "[Artist]", err)
		return
	}
	writeOK(w, http.StatusCreated, envelope{"artist": artist})
}

// UpdateArtistHandler 部分更新，请求体中的 _id 被忽略
func (h *APIHandler) UpdateArtistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid artist id")
		return
	}
	var body struct {
		repository.ArtistPatch
		SocialLinks *struct {
			Instagram *string `json:"instagram"`
			YouTube   *string `json:"youtube"`
		} `json:"sociallinks"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	patch := body.ArtistPatch
	if body.SocialLinks != nil {
		if body.SocialLinks.Instagram != nil {
			patch.Instagram = body.SocialLinks.Instagram
		}
		if body.SocialLinks.YouTube != nil {
			patch.YouTube = body.SocialLinks.YouTube
		}
	}

	artist, err := h.catalog.UpdateArtist(r.Context(), id, patch)
	if err != nil {
		h.catalogError(w, "[Artist]", err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"artist": artist})
}

func (h *APIHandler) DeleteArtistHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid artist id")
		return
	}
	artist, err := h.catalog.DeleteArtist(r.Context(), id)
	if err != nil {
		h.catalogError(w, "[Artist]", err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"message": "Artist deleted successfully", "artist": artist})
}
