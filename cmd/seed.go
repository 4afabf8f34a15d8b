package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shriram-30/SpotifyClone/core/catalog"
	"github.com/shriram-30/SpotifyClone/logger"
	"github.com/shriram-30/SpotifyClone/model"
	"github.com/shriram-30/SpotifyClone/repository"
	"github.com/shriram-30/SpotifyClone/server"
)

// seedFile 种子数据格式，字段与 API 的 JSON 一致
type seedFile struct {
	Albums   []model.Album        `json:"albums"`
	Artists  []model.Artist       `json:"artists"`
	Trending []model.TrendingSong `json:"trending"`
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.json>",
	Short: "导入专辑、艺人和热门歌曲",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var file seedFile
		if err := json.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("解析种子文件失败: %w", err)
		}

		svc, cleanup, err := server.OpenCatalog(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		albums, artists, trending, err := seed(cmd.Context(), svc, file)
		if err != nil {
			return err
		}
		fmt.Printf("导入完成: %d 张专辑, %d 位艺人, %d 首热门歌曲\n", albums, artists, trending)
		return nil
	},
}

func seed(ctx context.Context, svc *catalog.Service, file seedFile) (albums, artists, trending int, err error) {
	for i := range file.Albums {
		album := file.Albums[i]
		album.ID = 0
		if err := svc.CreateAlbum(ctx, &album); err != nil {
			return albums, artists, trending, fmt.Errorf("专辑 %q: %w", album.AlbumName, err)
		}
		albums++
	}
	for i := range file.Artists {
		artist := file.Artists[i]
		artist.ID = 0
		if err := svc.CreateArtist(ctx, &artist); err != nil {
			if errors.Is(err, repository.ErrDuplicateArtist) {
				logger.Warn("艺人已存在，跳过", logger.String("name", artist.Name))
				continue
			}
			return albums, artists, trending, fmt.Errorf("艺人 %q: %w", artist.Name, err)
		}
		artists++
	}
	for i := range file.Trending {
		song := file.Trending[i]
		song.ID = 0
		if err := svc.CreateTrending(ctx, &song); err != nil {
			return albums, artists, trending, fmt.Errorf("热门歌曲 %q: %w", song.Heading, err)
		}
		trending++
	}
	return albums, artists, trending, nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
