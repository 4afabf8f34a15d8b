package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shriram-30/SpotifyClone/server"
)

var serverAddr string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 HTTP 服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serverAddr != "" {
			cfg.HTTPAddr = serverAddr
		}
		return server.Start(cfg)
	},
}

func init() {
	serverCmd.Flags().StringVar(&serverAddr, "addr", "", "监听地址，覆盖 HTTP_ADDR")
	rootCmd.AddCommand(serverCmd)
}
