// Package cmd 提供 graph-loadtest CLI 的命令实现
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yqhp/graph-loadtest/pkg/logger"
)

const (
	// Version 是当前版本号
	Version = "0.1.0"
	// Banner 是版本输出使用的 ASCII 艺术
	Banner = `
   ( )---( )    graph-loadtest %s
    \     /
     ( ) ( )
`
)

// globalOptions 是所有子命令共享的 flags
type globalOptions struct {
	debug   bool
	logFile string
}

// NewRootCmd 创建根命令及全部子命令
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "graph-loadtest",
		Short: "图数据库并发事务压测工具",
		Long: `graph-loadtest 按配置把一组命名的 Cypher 查询重复执行若干次，
每次调用都在独立的会话和显式事务中运行，并把每次调用的耗时写入 CSV 报告。
支持顺序执行和固定大小工作池的并发执行。`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "启用调试日志")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "日志文件路径 (覆盖配置)")

	// 禁用默认的 completion 命令
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(fmt.Sprintf(Banner, Version) + "\n")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute 执行根命令
func Execute() {
	err := NewRootCmd().Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本信息",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "graph-loadtest version %s\n", Version)
		},
	}
}
