package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"yqhp/graph-loadtest/internal/config"
	"yqhp/graph-loadtest/internal/expander"
)

func newValidateCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config.yml]",
		Short: "校验配置文件，不连接数据库",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := config.DefaultConfigPath
			if len(args) > 0 {
				configPath = args[0]
			}

			cfg, err := loadConfig(configPath, global, map[string]string{})
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			tasks, err := cfg.Tasks()
			if err != nil {
				return err
			}

			invocations := expander.Expand(tasks, cfg.TimesToRun, cfg.InvocationOrder())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "配置有效: %s\n", configPath)
			for _, task := range tasks {
				fmt.Fprintf(out, "  %-24s %-8s %d statement(s)\n", task.Name, task.Kind, task.Statements.Len())
			}
			fmt.Fprintf(out, "共 %d 个查询，%d 次调用 (order=%s, parallel=%t, workers=%d)\n",
				len(tasks), len(invocations), cfg.InvocationOrder(), cfg.Parallel, cfg.Workers)
			return nil
		},
	}
}
