package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/shriram-30/SpotifyClone/core/search"
	"github.com/shriram-30/SpotifyClone/server"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "在目录中搜索歌曲、专辑和艺人",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := server.OpenCatalog(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		query := strings.Join(args, " ")
		res, err := svc.Search(cmd.Context(), query)
		if err != nil {
			return err
		}
		printResult(query, res)
		return nil
	},
}

func printResult(query string, res search.Result) {
	if res.Empty() {
		fmt.Printf("没有找到 %q 的结果\n", query)
		if res.Suggestion != "" {
			fmt.Printf("你是不是要找: %s\n", res.Suggestion)
		}
		return
	}

	songs := newTable("Songs", table.Row{"Score", "Title", "Artist", "Album", "Playable"})
	for _, s := range res.Songs {
		songs.AppendRow(table.Row{s.Score, s.Title, s.ArtistName, s.AlbumName, s.Playable()})
	}
	songs.Render()

	albums := newTable("Albums", table.Row{"Score", "Name", "Artist", "Year"})
	for _, a := range res.Albums {
		albums.AppendRow(table.Row{a.Score, a.Name, a.Artist, a.Year})
	}
	albums.Render()

	artists := newTable("Artists", table.Row{"Score", "Name"})
	for _, a := range res.Artists {
		artists.AppendRow(table.Row{a.Score, a.Name})
	}
	artists.Render()
}

func newTable(title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(header)
	return t
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
