package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shriram-30/SpotifyClone/cache"
	"github.com/shriram-30/SpotifyClone/logger"
)

var redisFlush bool

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功并进行基本读写，--flush 清空目录缓存。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			return fmt.Errorf("无法连接到Redis: %w", err)
		}
		defer func() {
			if err := cache.CloseRedis(); err != nil {
				logger.Warn("关闭Redis连接时发生错误", logger.ErrorField(err))
			}
		}()
		fmt.Println("Redis连接成功！")

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := cache.TestRedis(ctx); err != nil {
			return fmt.Errorf("Redis操作测试失败: %w", err)
		}
		fmt.Println("Redis基本操作测试成功！")

		if redisFlush {
			c := cache.NewCatalogCache(cache.RedisClient, cfg.CatalogCacheTTL)
			if err := c.InvalidatePrefix(ctx, ""); err != nil {
				return fmt.Errorf("清空目录缓存失败: %w", err)
			}
			fmt.Println("目录缓存已清空")
		}
		return nil
	},
}

func init() {
	redisCmd.Flags().BoolVar(&redisFlush, "flush", false, "清空目录缓存")
	rootCmd.AddCommand(redisCmd)
}
