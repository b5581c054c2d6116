package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"yqhp/graph-loadtest/pkg/logger"
	"yqhp/graph-loadtest/pkg/types"
)

const (
	// DefaultConfigPath is used when no config path is given on the command line.
	DefaultConfigPath = "config.yml"
	// DefaultWorkers is the fixed worker pool size.
	DefaultWorkers = 10
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "GLT_"
)

// RunConfig is the complete configuration of one run. It is read-only once
// loaded.
type RunConfig struct {
	ServerURI  string        `yaml:"server_uri" env:"GLT_SERVER_URI"`
	AdminUser  string        `yaml:"admin_user" env:"GLT_ADMIN_USER"`
	AdminPass  string        `yaml:"admin_pass" env:"GLT_ADMIN_PASS"`
	Database   string        `yaml:"database" env:"GLT_DATABASE"`
	Parallel   bool          `yaml:"parallel" env:"GLT_PARALLEL"`
	TimesToRun int           `yaml:"times_to_run" env:"GLT_TIMES_TO_RUN"`
	Workers    int           `yaml:"workers" env:"GLT_WORKERS"`
	Order      types.Order   `yaml:"order" env:"GLT_ORDER"`
	TxTimeout  time.Duration `yaml:"tx_timeout,omitempty" env:"GLT_TX_TIMEOUT"`
	Queries    QuerySet      `yaml:"queries"`
	Log        logger.Config `yaml:"log"`
}

// DefaultConfig returns a RunConfig with default values.
func DefaultConfig() *RunConfig {
	return &RunConfig{
		ServerURI:  "bolt://localhost:7687",
		Database:   "neo4j",
		TimesToRun: 1,
		Workers:    DefaultWorkers,
		Order:      types.DefaultOrder,
		Log:        logger.DefaultConfig(),
	}
}

// Tasks converts the query set into immutable tasks, in document order.
func (c *RunConfig) Tasks() ([]*types.QueryTask, error) {
	tasks := make([]*types.QueryTask, 0, c.Queries.Len())
	for _, e := range c.Queries.entries {
		kind, err := types.ParseQueryKind(e.Spec.Type)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", e.Name, err)
		}
		stmts := e.Spec.statements()
		if stmts.Len() == 0 {
			return nil, fmt.Errorf("query %q: no statements", e.Name)
		}
		tasks = append(tasks, &types.QueryTask{
			Name:       e.Name,
			Kind:       kind,
			Statements: stmts,
		})
	}
	return tasks, nil
}

// InvocationOrder returns the configured order with aliases resolved.
// An invalid order falls back to the default; Validate reports it.
func (c *RunConfig) InvocationOrder() types.Order {
	order, err := types.ParseOrder(string(c.Order))
	if err != nil {
		return types.DefaultOrder
	}
	return order
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	cmdArgs    map[string]string
	lookupEnv  func(string) string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		cmdArgs:   make(map[string]string),
		lookupEnv: os.Getenv,
	}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithCmdArgs sets command-line overrides keyed by yaml path, e.g.
// "workers" or "log.level".
func (l *Loader) WithCmdArgs(args map[string]string) *Loader {
	l.cmdArgs = args
	return l
}

// WithEnv replaces the environment lookup, mainly for tests.
func (l *Loader) WithEnv(lookup func(string) string) *Loader {
	l.lookupEnv = lookup
	return l
}

// Load loads configuration from all sources with proper precedence:
// defaults < YAML file < environment variables < command-line flags.
// cql_files globs are resolved relative to the config file directory.
func (l *Loader) Load() (*RunConfig, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("从文件加载配置失败: %w", err)
		}
	}

	if err := l.applyEnvToStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("应用环境变量覆盖失败: %w", err)
	}

	for key, value := range l.cmdArgs {
		if err := setConfigValue(cfg, key, value); err != nil {
			return nil, fmt.Errorf("设置配置值 %s 失败: %w", key, err)
		}
	}

	baseDir := "."
	if l.configPath != "" {
		baseDir = filepath.Dir(l.configPath)
	}
	if err := ResolveFiles(cfg, baseDir); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file. Unlike server configs a
// missing file is an error: without queries there is nothing to run.
func (l *Loader) loadFromFile(cfg *RunConfig) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	return nil
}

// applyEnvToStruct recursively applies environment variables to struct fields.
func (l *Loader) applyEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := l.applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue := l.lookupEnv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("从环境变量 %s 设置字段 %s 失败: %w", envTag, fieldType.Name, err)
		}
	}

	return nil
}

// setConfigValue sets a configuration value by dot-notation yaml path.
func setConfigValue(cfg *RunConfig, path, value string) error {
	parts := strings.Split(path, ".")
	v := reflect.ValueOf(cfg).Elem()

	for i, part := range parts {
		field, ok := fieldByYAMLName(v, part)
		if !ok {
			return fmt.Errorf("未知的配置路径: %s", path)
		}

		if i == len(parts)-1 {
			return setFieldValue(field, value)
		}

		if field.Kind() != reflect.Struct {
			return fmt.Errorf("期望 %s 是结构体，实际是 %s", part, field.Kind())
		}
		v = field
	}

	return nil
}

func fieldByYAMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0]
		if tag == name || strings.EqualFold(t.Field(i).Name, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from a string value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("无法设置字段")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("无效的时间格式: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("无效的整数: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("无效的布尔值: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("不支持的字段类型: %s", field.Kind())
	}

	return nil
}

// Serialize serializes the configuration to YAML bytes.
func (c *RunConfig) Serialize() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseConfig parses a YAML configuration from bytes on top of the defaults.
func ParseConfig(data []byte) (*RunConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file path.
func LoadFromFile(path string) (*RunConfig, error) {
	return NewLoader().WithConfigPath(path).Load()
}
