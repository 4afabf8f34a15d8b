package server

import (
	"net/http"

	"github.com/shriram-30/SpotifyClone/logger"
)

// SearchHandler 立即执行一次排序搜索 ?q=
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	result, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		// 搜索失败时返回空结果，与防抖搜索的处理一致
		logger.Warn("[Search] 搜索失败", logger.String("query", query), logger.ErrorField(err))
	}
	writeOK(w, http.StatusOK, envelope{"query": query, "data": result})
}
