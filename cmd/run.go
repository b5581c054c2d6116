package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"yqhp/graph-loadtest/internal/config"
	"yqhp/graph-loadtest/internal/reporter/file"
	"yqhp/graph-loadtest/internal/runner"
	"yqhp/graph-loadtest/pkg/logger"
)

// runOptions 是 run 命令的 flags
type runOptions struct {
	parallel bool
	workers  int
	order    string
	times    int
	timeout  string
	outJSON  string
	quiet    bool
	noColor  bool
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [config.yml] [report.csv]",
		Short: "执行配置中的查询并写入耗时报告",
		Long: `加载配置文件 (默认 config.yml)，把每个查询执行 times_to_run 次，
并把每次调用的耗时写入报告文件 (默认 run_time_metrics.csv)。

查询类型：
  - read: 只读会话，提交
  - write: 写会话，提交
  - rollback: 写会话，语句全部成功后强制回滚`,
		Example: `  # 使用默认配置和报告路径
  graph-loadtest run

  # 指定配置和报告
  graph-loadtest run perf.yml out/metrics.csv

  # 10 个 worker 并发执行，每个查询 100 次
  graph-loadtest run --parallel --workers 10 --times 100 perf.yml

  # 额外输出 JSON 汇总
  graph-loadtest run --out-json report.json perf.yml`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, reportPath := config.DefaultConfigPath, file.DefaultCSVPath
			if len(args) > 0 {
				configPath = args[0]
			}
			if len(args) > 1 {
				reportPath = args[1]
			}

			cfg, err := loadConfig(configPath, global, runOverrides(cmd.Flags(), opts))
			if err != nil {
				return err
			}
			if len(args) > 2 {
				logger.Warn("ignoring extra positional arguments", zap.Strings("args", args[2:]))
			}

			// 处理关闭信号：未开始的调用被跳过，进行中的调用正常结束
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := runner.Run(ctx, cfg, runner.Options{
				ReportPath: reportPath,
				JSONPath:   opts.outJSON,
				Quiet:      opts.quiet,
				Console:    cmd.OutOrStdout(),
				NoColor:    opts.noColor,
			})
			if res != nil && !opts.quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "\n报告已写入: %s\n", reportPath)
				if opts.outJSON != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "JSON 报告已写入: %s\n", opts.outJSON)
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&opts.parallel, "parallel", "p", false, "使用工作池并发执行 (覆盖配置)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "工作池大小 (覆盖配置)")
	cmd.Flags().StringVar(&opts.order, "order", "", "调用顺序: by-repetition 或 by-task (覆盖配置)")
	cmd.Flags().IntVarP(&opts.times, "times", "n", 0, "每个查询的执行次数 (覆盖配置)")
	cmd.Flags().StringVar(&opts.timeout, "tx-timeout", "", "事务超时，例如 30s (覆盖配置)")
	cmd.Flags().StringVar(&opts.outJSON, "out-json", "", "输出 JSON 报告到文件")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "不打印控制台汇总")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "禁用彩色输出")

	return cmd
}

// runOverrides 只收集显式设置过的 flags，按 yaml 路径作为键
func runOverrides(flags *pflag.FlagSet, opts *runOptions) map[string]string {
	overrides := make(map[string]string)
	if flags.Changed("parallel") {
		overrides["parallel"] = strconv.FormatBool(opts.parallel)
	}
	if flags.Changed("workers") {
		overrides["workers"] = strconv.Itoa(opts.workers)
	}
	if flags.Changed("order") {
		overrides["order"] = opts.order
	}
	if flags.Changed("times") {
		overrides["times_to_run"] = strconv.Itoa(opts.times)
	}
	if flags.Changed("tx-timeout") {
		overrides["tx_timeout"] = opts.timeout
	}
	return overrides
}

// loadConfig 加载配置并按配置初始化日志
func loadConfig(path string, global *globalOptions, overrides map[string]string) (*config.RunConfig, error) {
	if global.debug {
		overrides["log.level"] = "debug"
	}
	if global.logFile != "" {
		overrides["log.file_path"] = global.logFile
	}

	cfg, err := config.NewLoader().
		WithConfigPath(path).
		WithCmdArgs(overrides).
		Load()
	if err != nil {
		return nil, err
	}

	logger.Init(&cfg.Log)
	logger.Debug("configuration loaded",
		zap.String("path", path),
		zap.Int("queries", cfg.Queries.Len()),
		zap.Int("times_to_run", cfg.TimesToRun))

	return cfg, nil
}
