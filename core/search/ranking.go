package search

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/shriram-30/SpotifyClone/model"
)

// 每类结果的上限
const (
	MaxSongs   = 8
	MaxAlbums  = 6
	MaxArtists = 6
)

// 字段权重
const (
	songTitleWeight   = 1.5
	songArtistWeight  = 0.7
	songAlbumWeight   = 0.5
	albumNameWeight   = 1.5
	albumArtistWeight = 0.5
	artistNameWeight  = 2.0
)

// AlbumCandidate 待排序的专辑
type AlbumCandidate struct {
	ID       string `json:"_id"`
	Name     string `json:"albumname"`
	Artist   string `json:"artist"`
	Year     string `json:"year,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// ArtistCandidate 待排序的艺人
type ArtistCandidate struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Img  string `json:"img,omitempty"`
}

// Candidates 一次查询的全部候选
type Candidates struct {
	Songs   []model.Track
	Albums  []AlbumCandidate
	Artists []ArtistCandidate
}

// SongResult 带分数的歌曲
type SongResult struct {
	model.Track
	Score float64 `json:"_score"`
}

// AlbumResult 带分数的专辑
type AlbumResult struct {
	AlbumCandidate
	Score float64 `json:"_score"`
}

// ArtistResult 带分数的艺人
type ArtistResult struct {
	ArtistCandidate
	Score float64 `json:"_score"`
}

// Result 三类结果，各自按分数降序
type Result struct {
	Songs      []SongResult   `json:"songs"`
	Albums     []AlbumResult  `json:"albums"`
	Artists    []ArtistResult `json:"artists"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// Empty 三类结果是否都为空
func (r Result) Empty() bool {
	return len(r.Songs) == 0 && len(r.Albums) == 0 && len(r.Artists) == 0
}

// EmptyResult 空结果，序列化为 [] 而不是 null
func EmptyResult() Result {
	return Result{
		Songs:   []SongResult{},
		Albums:  []AlbumResult{},
		Artists: []ArtistResult{},
	}
}

// Terms 小写、去首尾空白后按空白拆分
func Terms(query string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(query)))
}

// Score 对每个词：完全相等 +100，前缀 +10，包含 +1
func Score(text string, terms []string) float64 {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0
	}
	var total float64
	for _, term := range terms {
		switch {
		case text == term:
			total += 100
		case strings.HasPrefix(text, term):
			total += 10
		case strings.Contains(text, term):
			total += 1
		}
	}
	return total
}

// Search 对候选打分、去重、过滤、排序并截断。查询没有有效词时直接返回空结果
func Search(query string, c Candidates) Result {
	terms := Terms(query)
	if len(terms) == 0 {
		return EmptyResult()
	}
	return Result{
		Songs:   rankSongs(terms, c.Songs),
		Albums:  rankAlbums(terms, c.Albums),
		Artists: rankArtists(terms, c.Artists),
	}
}

func rankSongs(terms []string, songs []model.Track) []SongResult {
	scored := make([]SongResult, 0, len(songs))
	for _, t := range songs {
		s := songTitleWeight*Score(t.Title, terms) +
			songArtistWeight*Score(model.PrimaryArtist(t.ArtistName), terms) +
			songAlbumWeight*Score(t.AlbumName, terms)
		scored = append(scored, SongResult{Track: t, Score: s})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	out := make([]SongResult, 0, MaxSongs)
	seen := make(map[string]struct{}, len(scored))
	for _, r := range scored {
		if r.Score <= 0 {
			break
		}
		key := dedupeKey(r.Track)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
		if len(out) == MaxSongs {
			break
		}
	}
	return out
}

// dedupeKey 有ID时以ID为准，否则用规范化后的 标题|专辑名
func dedupeKey(t model.Track) string {
	if t.ID != "" {
		return "id:" + t.ID
	}
	return "text:" + foldText(t.Title) + "|" + foldText(t.AlbumName)
}

func rankAlbums(terms []string, albums []AlbumCandidate) []AlbumResult {
	scored := make([]AlbumResult, 0, len(albums))
	for _, a := range albums {
		s := albumNameWeight*Score(a.Name, terms) + albumArtistWeight*Score(a.Artist, terms)
		if s > 0 {
			scored = append(scored, AlbumResult{AlbumCandidate: a, Score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > MaxAlbums {
		scored = scored[:MaxAlbums]
	}
	return scored
}

func rankArtists(terms []string, artists []ArtistCandidate) []ArtistResult {
	scored := make([]ArtistResult, 0, len(artists))
	for _, a := range artists {
		s := artistNameWeight * Score(a.Name, terms)
		if s > 0 {
			scored = append(scored, ArtistResult{ArtistCandidate: a, Score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > MaxArtists {
		scored = scored[:MaxArtists]
	}
	return scored
}

// foldText 小写、去掉变音符号、合并空白
func foldText(s string) string {
	t := norm.NFD.String(strings.ToLower(s))
	out := make([]rune, 0, len(t))
	for _, r := range t {
		if unicode.IsMark(r) {
			continue
		}
		out = append(out, r)
	}
	return strings.Join(strings.Fields(string(out)), " ")
}
