package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/shriram-30/SpotifyClone/storage"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO媒体存储管理",
	Long:  `列出存储桶中的媒体文件，或上传本地音频并输出可写入专辑/热门歌曲的引用。`,
}

var minioLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "列出存储桶中的文件",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewMediaStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}
		objects, err := store.List(cmd.Context(), minioPrefix)
		if err != nil {
			return fmt.Errorf("列出文件失败: %w", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.SetTitle(fmt.Sprintf("%s/%s", store.Bucket(), minioPrefix))
		t.AppendHeader(table.Row{"Key", "Size", "Type", "Last Modified"})
		var total int64
		for _, obj := range objects {
			total += obj.Size
			t.AppendRow(table.Row{obj.Key, storage.FormatSize(obj.Size), obj.ContentType, obj.LastModified.Format("2006-01-02 15:04:05")})
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d objects", len(objects)), storage.FormatSize(total), "", ""})
		t.Render()
		return nil
	},
}

var minioUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "上传音频文件",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewMediaStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}

		ref, err := store.UploadAudio(cmd.Context(), filepath.Base(args[0]), f, info.Size())
		if err != nil {
			return fmt.Errorf("上传失败: %w", err)
		}
		url, err := store.ResolveURL(cmd.Context(), ref.String())
		if err != nil {
			return fmt.Errorf("生成预签名地址失败: %w", err)
		}

		fmt.Printf("引用: %s\n", ref)
		fmt.Printf("大小: %s\n", storage.FormatSize(info.Size()))
		fmt.Printf("预签名地址 (%s): %s\n", cfg.MediaURLTTL, url)
		return nil
	},
}

func init() {
	minioLsCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "对象前缀")
	minioCmd.AddCommand(minioLsCmd, minioUploadCmd)
	rootCmd.AddCommand(minioCmd)
}
