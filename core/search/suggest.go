package search

import (
	"strings"

	"github.com/agext/levenshtein"
)

// SuggestThreshold 相似度低于该值时不给出建议
const SuggestThreshold = 0.6

// Suggest 在 names 中找与查询最相近的名字，用于"你是不是要找"。
// 没有足够相近的名字时返回空字符串
func Suggest(query string, names []string) string {
	q := foldText(query)
	if q == "" {
		return ""
	}
	best, bestScore := "", 0.0
	for _, name := range names {
		n := foldText(name)
		if n == "" || n == q {
			continue
		}
		score := levenshtein.Similarity(q, n, nil)
		// 名字较长时比较同长度的前缀，便于输入不完整的情况
		if rn, rq := []rune(n), []rune(q); len(rn) > len(rq) {
			if prefix := levenshtein.Similarity(q, string(rn[:len(rq)]), nil); prefix > score {
				score = prefix
			}
		}
		if score > bestScore {
			best, bestScore = strings.TrimSpace(name), score
		}
	}
	if bestScore < SuggestThreshold {
		return ""
	}
	return best
}
