package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/shriram-30/SpotifyClone/cache"
	"github.com/shriram-30/SpotifyClone/core/search"
	"github.com/shriram-30/SpotifyClone/logger"
	"github.com/shriram-30/SpotifyClone/model"
	"github.com/shriram-30/SpotifyClone/repository"
)

// 搜索时每类候选最多取多少条
const (
	candidateSongLimit   = 100
	candidateAlbumLimit  = 50
	candidateArtistLimit = 50
)

// ErrInvalidInput 请求参数不完整
var ErrInvalidInput = errors.New("invalid input")

// MediaResolver 把存储中的媒体引用转换为可播放的地址
type MediaResolver interface {
	ResolveURL(ctx context.Context, raw string) (string, error)
}

// ArtistPage 艺人分页结果
type ArtistPage struct {
	Artists []model.Artist
	Total   int64
	Page    int
	Limit   int
	Pages   int
}

// Service 目录服务：组合仓库、缓存与媒体地址解析，向 HTTP 层和播放器提供数据
type Service struct {
	albums   repository.AlbumRepository
	artists  repository.ArtistRepository
	trending repository.TrendingRepository
	cache    *cache.CatalogCache
	media    MediaResolver
}

// NewService 创建目录服务。cache 与 media 可以为 nil
func NewService(albums repository.AlbumRepository, artists repository.ArtistRepository,
	trending repository.TrendingRepository, c *cache.CatalogCache, media MediaResolver) *Service {
	if c == nil {
		c = cache.NewCatalogCache(nil, 0)
	}
	return &Service{
		albums:   albums,
		artists:  artists,
		trending: trending,
		cache:    c,
		media:    media,
	}
}

// ========== 热门歌曲 ==========

// TrendingSongs 热门榜
func (s *Service) TrendingSongs(ctx context.Context) ([]model.TrendingSong, error) {
	limit := repository.DefaultTrendingLimit
	return cache.Remember(ctx, s.cache, cache.TrendingKey(limit), func(ctx context.Context) ([]model.TrendingSong, error) {
		return s.trending.List(ctx, limit)
	})
}

// TrendingByName 按歌名精确查找
func (s *Service) TrendingByName(ctx context.Context, name string) ([]model.TrendingSong, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: song name is required", ErrInvalidInput)
	}
	return s.trending.FindBySongName(ctx, name)
}

// TrendingSong 单首热门歌曲
func (s *Service) TrendingSong(ctx context.Context, id int64) (*model.TrendingSong, error) {
	return s.trending.GetByID(ctx, id)
}

// CreateTrending 添加热门歌曲，歌名为空时使用标题
func (s *Service) CreateTrending(ctx context.Context, song *model.TrendingSong) error {
	song.Heading = strings.TrimSpace(song.Heading)
	if song.Heading == "" {
		return fmt.Errorf("%w: heading is required", ErrInvalidInput)
	}
	if strings.TrimSpace(song.SongName) == "" {
		song.SongName = song.Heading
	}
	if strings.TrimSpace(song.Music) == "" {
		song.Music = "#"
	}
	if !validMediaSource(song.Music) {
		return fmt.Errorf("%w: unsupported media url %q", ErrInvalidInput, song.Music)
	}
	if err := s.trending.Create(ctx, song); err != nil {
		return err
	}
	s.invalidate(ctx, cache.TrendingKey(repository.DefaultTrendingLimit))
	return nil
}

// TrendingTracks 热门榜转为播放队列
func (s *Service) TrendingTracks(ctx context.Context) ([]model.Track, error) {
	songs, err := s.TrendingSongs(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolveTracks(ctx, lo.Map(songs, func(t model.TrendingSong, _ int) model.Track {
		return model.TrackFromTrending(t)
	})), nil
}

// ========== 专辑 ==========

// Albums 全部专辑，最新的在前
func (s *Service) Albums(ctx context.Context) ([]model.Album, error) {
	albums, err := cache.Remember(ctx, s.cache, cache.AlbumsKey(), s.albums.List)
	if err != nil {
		return nil, err
	}
	for i := range albums {
		albums[i] = withDefaults(albums[i])
	}
	return albums, nil
}

// Album 单张专辑，歌曲已补齐默认值
func (s *Service) Album(ctx context.Context, id int64) (*model.Album, error) {
	album, err := cache.Remember(ctx, s.cache, cache.AlbumKey(id), func(ctx context.Context) (*model.Album, error) {
		return s.albums.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	a := withDefaults(*album)
	return &a, nil
}

func withDefaults(album model.Album) model.Album {
	songs := make([]model.AlbumSong, len(album.Songs))
	for i, song := range album.Songs {
		songs[i] = model.WithSongDefaults(album, song)
	}
	album.Songs = songs
	return album
}

// CreateAlbum 创建专辑
func (s *Service) CreateAlbum(ctx context.Context, album *model.Album) error {
	album.AlbumName = strings.TrimSpace(album.AlbumName)
	album.Artist = strings.TrimSpace(album.Artist)
	if album.AlbumName == "" || album.Artist == "" {
		return fmt.Errorf("%w: album name and artist are required", ErrInvalidInput)
	}
	for i := range album.Songs {
		if strings.TrimSpace(album.Songs[i].URL) == "" {
			album.Songs[i].URL = "#"
		}
		if !validMediaSource(album.Songs[i].URL) {
			return fmt.Errorf("%w: unsupported media url %q", ErrInvalidInput, album.Songs[i].URL)
		}
	}
	if err := s.albums.Create(ctx, album); err != nil {
		return err
	}
	s.invalidate(ctx, cache.AlbumsKey())
	return nil
}

// AlbumTracks 专辑转为播放队列
func (s *Service) AlbumTracks(ctx context.Context, id int64) ([]model.Track, error) {
	album, err := s.Album(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolveTracks(ctx, model.AlbumTracks(*album)), nil
}

// ========== 艺人 ==========

// Artists 分页查询
func (s *Service) Artists(ctx context.Context, q string, page, limit int) (ArtistPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	artists, total, err := s.artists.List(ctx, q, page, limit)
	if err != nil {
		return ArtistPage{}, err
	}
	if artists == nil {
		artists = []model.Artist{}
	}
	return ArtistPage{
		Artists: artists,
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func (s *Service) Artist(ctx context.Context, id int64) (*model.Artist, error) {
	return s.artists.GetByID(ctx, id)
}

func (s *Service) ArtistByName(ctx context.Context, name string) (*model.Artist, error) {
	return s.artists.GetByName(ctx, name)
}

// CreateArtist 创建艺人，重名返回 repository.ErrDuplicateArtist
func (s *Service) CreateArtist(ctx context.Context, artist *model.Artist) error {
	if strings.TrimSpace(artist.Name) == "" {
		return fmt.Errorf("%w: artist name is required", ErrInvalidInput)
	}
	if err := s.artists.Create(ctx, artist); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) UpdateArtist(ctx context.Context, id int64, patch repository.ArtistPatch) (*model.Artist, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: artist name must not be empty", ErrInvalidInput)
	}
	artist, err := s.artists.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return artist, nil
}

func (s *Service) DeleteArtist(ctx context.Context, id int64) (*model.Artist, error) {
	artist, err := s.artists.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return artist, nil
}

// ArtistSongs 聚合艺人的专辑歌曲和热门歌曲
func (s *Service) ArtistSongs(ctx context.Context, name string) ([]model.ArtistSong, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: artist name is required", ErrInvalidInput)
	}
	return cache.Remember(ctx, s.cache, cache.ArtistSongsKey(name), func(ctx context.Context) ([]model.ArtistSong, error) {
		hits, err := s.albums.SongsByArtist(ctx, name)
		if err != nil {
			return nil, err
		}
		trending, err := s.trending.ByArtist(ctx, name)
		if err != nil {
			return nil, err
		}

		songs := make([]model.ArtistSong, 0, len(hits)+len(trending))
		for _, h := range hits {
			song := model.WithSongDefaults(h.Album, h.Song)
			songs = append(songs, model.ArtistSong{
				ID:        song.SongID,
				Title:     song.Title,
				Artists:   song.Artists,
				Duration:  song.Duration,
				URL:       song.URL,
				CanvasURL: song.CanvasURL,
				Album: model.ArtistSongAlbum{
					ID:       h.Album.ID,
					Name:     h.Album.AlbumName,
					ImageURL: h.Album.ImageURL,
					Artist:   h.Album.Artist,
				},
				Type: model.ArtistSongFromAlbum,
			})
		}
		for _, t := range trending {
			track := model.TrackFromTrending(t)
			songs = append(songs, model.ArtistSong{
				ID:      track.ID,
				Title:   track.Title,
				Artists: t.Subheading,
				URL:     t.Music,
				Album:   model.ArtistSongAlbum{ImageURL: t.ImgSrc},
				Type:    model.ArtistSongFromTrending,
			})
		}
		return songs, nil
	})
}

// ArtistTracks 艺人歌曲转为播放队列
func (s *Service) ArtistTracks(ctx context.Context, name string) ([]model.Track, error) {
	songs, err := s.ArtistSongs(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.resolveTracks(ctx, lo.Map(songs, func(a model.ArtistSong, _ int) model.Track {
		return model.TrackFromArtistSong(a)
	})), nil
}

// Track 按歌曲ID取可播放的 Track：trending-N 为热门歌曲，其余为专辑歌曲ID
func (s *Service) Track(ctx context.Context, id string) (model.Track, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Track{}, fmt.Errorf("%w: track id is required", ErrInvalidInput)
	}

	var track model.Track
	if n, ok := model.ParseTrendingTrackID(id); ok {
		song, err := s.trending.GetByID(ctx, n)
		if err != nil {
			return model.Track{}, err
		}
		track = model.TrackFromTrending(*song)
	} else {
		hit, err := s.albums.SongByID(ctx, id)
		if err != nil {
			return model.Track{}, err
		}
		track = model.TrackFromAlbumSong(hit.Album, hit.Song)
	}
	return s.resolveTracks(ctx, []model.Track{track})[0], nil
}

// ========== 搜索 ==========

// Candidates 按关键词从各表取候选，实现 search.CandidateSource
func (s *Service) Candidates(ctx context.Context, query string) (search.Candidates, error) {
	terms := search.Terms(query)
	if len(terms) == 0 {
		return search.Candidates{}, nil
	}
	cands, err := cache.Remember(ctx, s.cache, cache.CandidatesKey(query), func(ctx context.Context) (search.Candidates, error) {
		return s.loadCandidates(ctx, terms)
	})
	if err != nil {
		return search.Candidates{}, err
	}
	cands.Songs = s.resolveTracks(ctx, cands.Songs)
	return cands, nil
}

func (s *Service) loadCandidates(ctx context.Context, terms []string) (search.Candidates, error) {
	var c search.Candidates

	trending, err := s.trending.Search(ctx, terms, candidateSongLimit)
	if err != nil {
		return c, err
	}
	hits, err := s.albums.SearchSongs(ctx, terms, candidateSongLimit)
	if err != nil {
		return c, err
	}
	albums, err := s.albums.Search(ctx, terms, candidateAlbumLimit)
	if err != nil {
		return c, err
	}
	artists, err := s.artists.Search(ctx, terms, candidateArtistLimit)
	if err != nil {
		return c, err
	}

	c.Songs = make([]model.Track, 0, len(trending)+len(hits))
	for _, t := range trending {
		c.Songs = append(c.Songs, model.TrackFromTrending(t))
	}
	for _, h := range hits {
		c.Songs = append(c.Songs, model.TrackFromAlbumSong(h.Album, h.Song))
	}
	c.Albums = lo.Map(albums, func(a model.Album, _ int) search.AlbumCandidate {
		return search.AlbumCandidate{
			ID:       strconv.FormatInt(a.ID, 10),
			Name:     a.AlbumName,
			Artist:   a.Artist,
			Year:     a.Year,
			ImageURL: a.ImageURL,
		}
	})
	c.Artists = lo.Map(artists, func(a model.Artist, _ int) search.ArtistCandidate {
		return search.ArtistCandidate{
			ID:   strconv.FormatInt(a.ID, 10),
			Name: a.Name,
			Img:  a.Img,
		}
	})
	return c, nil
}

// Suggest 在艺人名和专辑名中找相近的名字，实现 search.Suggester
func (s *Service) Suggest(ctx context.Context, query string) (string, error) {
	artistNames, err := s.artists.Names(ctx)
	if err != nil {
		return "", err
	}
	albumNames, err := s.albums.Names(ctx)
	if err != nil {
		return "", err
	}
	return search.Suggest(query, lo.Uniq(append(artistNames, albumNames...))), nil
}

// Search 立即执行一次排序搜索
func (s *Service) Search(ctx context.Context, query string) (search.Result, error) {
	return search.Query(ctx, s, query)
}

// ========== 内部 ==========

// validMediaSource 音频地址只能是 "#"、http(s)、minio:// 或存储桶内的对象键
func validMediaSource(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "#" {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "":
		return u.Host == ""
	case "http", "https":
		return u.Host != ""
	case "minio":
		return true
	default:
		return false
	}
}

// resolveTracks 解析音频地址，失败的歌曲变为不可播放
func (s *Service) resolveTracks(ctx context.Context, tracks []model.Track) []model.Track {
	if s.media == nil {
		return tracks
	}
	for i := range tracks {
		if tracks[i].AudioURL == "" {
			continue
		}
		u, err := s.media.ResolveURL(ctx, tracks[i].AudioURL)
		if err != nil {
			logger.Warn("解析媒体地址失败",
				logger.String("trackId", tracks[i].ID),
				logger.ErrorField(err))
			tracks[i].AudioURL = ""
			continue
		}
		tracks[i].AudioURL = u
		if tracks[i].CanvasVideoURL != "" {
			if c, err := s.media.ResolveURL(ctx, tracks[i].CanvasVideoURL); err == nil {
				tracks[i].CanvasVideoURL = c
			}
		}
	}
	return tracks
}

// invalidate 目录变化后清理缓存，搜索候选和艺人歌曲总是一起清理
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		logger.Warn("清理缓存失败", logger.ErrorField(err))
	}
	for _, prefix := range []string{"candidates:", "artist-songs:"} {
		if err := s.cache.InvalidatePrefix(ctx, prefix); err != nil {
			logger.Warn("清理缓存失败", logger.String("prefix", prefix), logger.ErrorField(err))
		}
	}
}
