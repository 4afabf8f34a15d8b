package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shriram-30/SpotifyClone/model"
)

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"love", "story"}, Terms("  Love   STORY "))
	assert.Empty(t, Terms(""))
	assert.Empty(t, Terms(" \t\n "))
}

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		terms []string
		want  float64
	}{
		{"exact", "Love", []string{"love"}, 100},
		{"prefix", "Lovely", []string{"love"}, 10},
		{"contains", "I'm in Love", []string{"love"}, 1},
		{"miss", "Hukum", []string{"love"}, 0},
		{"multi term", "Love Story", []string{"love", "story"}, 11},
		{"empty text", "", []string{"love"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.text, tt.terms))
		})
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	res := Search("   ", Candidates{
		Songs: []model.Track{{ID: "1", Title: "Love"}},
	})
	assert.NotNil(t, res.Songs)
	assert.Empty(t, res.Songs)
	assert.Empty(t, res.Albums)
	assert.Empty(t, res.Artists)
	assert.True(t, res.Empty())
}

func TestSearchSongOrdering(t *testing.T) {
	res := Search("love", Candidates{Songs: []model.Track{
		{ID: "artist-match", Title: "Something", ArtistName: "Courtney Love"},
		{ID: "contains", Title: "I'm in Love"},
		{ID: "exact", Title: "Love"},
		{ID: "none", Title: "Hukum", ArtistName: "Anirudh"},
	}})

	require.Len(t, res.Songs, 3, "zero scores are filtered out")
	assert.Equal(t, "exact", res.Songs[0].ID)
	assert.Equal(t, 150.0, res.Songs[0].Score)
	assert.Equal(t, "contains", res.Songs[1].ID)
	assert.Equal(t, 1.5, res.Songs[1].Score)
	assert.Equal(t, "artist-match", res.Songs[2].ID)
	assert.InDelta(t, 0.7, res.Songs[2].Score, 1e-9)
}

func TestSearchSongCompositeUsesPrimaryArtistAndAlbum(t *testing.T) {
	res := Search("arijit", Candidates{Songs: []model.Track{
		{ID: "featured", Title: "Song A", ArtistName: "Pritam, Arijit"},
		{ID: "primary", Title: "Song B", ArtistName: "Arijit, Pritam"},
		{ID: "album", Title: "Song C", AlbumName: "Arijit Hits"},
	}})

	require.Len(t, res.Songs, 2)
	assert.Equal(t, "primary", res.Songs[0].ID)
	assert.InDelta(t, 70.0, res.Songs[0].Score, 1e-9)
	assert.Equal(t, "album", res.Songs[1].ID)
	assert.InDelta(t, 5.0, res.Songs[1].Score, 1e-9)
}

func TestSearchSongCap(t *testing.T) {
	songs := make([]model.Track, 20)
	for i := range songs {
		songs[i] = model.Track{ID: fmt.Sprintf("s%d", i), Title: fmt.Sprintf("love song %d", i)}
	}
	songs[13].Title = "Love"

	res := Search("love", Candidates{Songs: songs})
	require.Len(t, res.Songs, MaxSongs)
	assert.Equal(t, "s13", res.Songs[0].ID)
	for i := 1; i < len(res.Songs); i++ {
		assert.GreaterOrEqual(t, res.Songs[i-1].Score, res.Songs[i].Score)
	}
	// 同分时保持候选顺序
	assert.Equal(t, "s0", res.Songs[1].ID)
	assert.Equal(t, "s1", res.Songs[2].ID)
}

func TestSearchSongDedupe(t *testing.T) {
	res := Search("cafe", Candidates{Songs: []model.Track{
		{ID: "a", Title: "Cafe"},
		{ID: "a", Title: "Cafe (dup id)"},
		{Title: "Cafe", AlbumName: "Café Paris"},
		{Title: "cafe ", AlbumName: "cafe paris"},
		{Title: "Cafe", AlbumName: "Berlin"},
	}})

	ids := make([]string, 0, len(res.Songs))
	for _, s := range res.Songs {
		ids = append(ids, s.ID+"/"+s.AlbumName)
	}
	// 相同ID只保留分数最高的一条；无ID时按规范化的标题和专辑去重
	assert.Equal(t, []string{"/cafe paris", "a/", "/Berlin"}, ids)
}

func TestSearchAlbumsAndArtists(t *testing.T) {
	albums := make([]AlbumCandidate, 0, 10)
	for i := 0; i < 10; i++ {
		albums = append(albums, AlbumCandidate{ID: fmt.Sprintf("al%d", i), Name: fmt.Sprintf("Jailer %d", i), Artist: "Anirudh"})
	}
	albums = append(albums, AlbumCandidate{ID: "by-artist", Name: "Leo", Artist: "Jailer Band"})

	res := Search("jailer", Candidates{
		Albums: albums,
		Artists: []ArtistCandidate{
			{ID: "x", Name: "Jailer"},
			{ID: "y", Name: "The Jailer Crew"},
			{ID: "z", Name: "Anirudh"},
		},
	})

	require.Len(t, res.Albums, MaxAlbums)
	assert.Equal(t, "al0", res.Albums[0].ID)
	assert.Equal(t, 15.0, res.Albums[0].Score)

	require.Len(t, res.Artists, 2)
	assert.Equal(t, "x", res.Artists[0].ID)
	assert.Equal(t, 200.0, res.Artists[0].Score)
	assert.Equal(t, 2.0, res.Artists[1].Score)
}

func TestSuggest(t *testing.T) {
	names := []string{"Anirudh Ravichander", "A.R. Rahman", "Shreya Ghoshal"}
	assert.Equal(t, "Anirudh Ravichander", Suggest("anirud", names))
	assert.Equal(t, "Shreya Ghoshal", Suggest("shreya goshal", names))
	assert.Empty(t, Suggest("zzzzqqq", names))
	assert.Empty(t, Suggest("", names))
}
