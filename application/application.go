package application

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	zlog "github.com/lk2023060901/jsonify-go/pkg/log"
	"github.com/lk2023060901/jsonify-go/pkg/metrics"
	"github.com/lk2023060901/jsonify-go/pkg/util/merr"
	zviper "github.com/lk2023060901/jsonify-go/pkg/util/viper"
)

const (
	// EnvPrefix 为所有配置项对应环境变量的前缀。
	EnvPrefix = "JSONIFY"
	// EnvConfigFilePath 指定配置文件路径的环境变量。
	EnvConfigFilePath = "JSONIFY_CONFIG_FILE_PATH"
	// DefaultConfigFile 为默认配置文件，不存在时使用内置默认值。
	DefaultConfigFile = "./jsonify.yaml"
)

// Settings 为 jsonify 的全部配置项。
type Settings struct {
	Log     zlog.Config            `mapstructure:"log"`
	Loggers map[string]zlog.Config `mapstructure:"loggers"`
	Output  OutputConfig           `mapstructure:"output"`
	Expand  ExpandConfig           `mapstructure:"expand"`
}

// OutputConfig 控制命令输出格式。
type OutputConfig struct {
	// Pretty 为 true 时默认以缩进格式输出。
	Pretty bool `mapstructure:"pretty"`
}

// ExpandConfig 为 expand 命令的默认参数。
type ExpandConfig struct {
	// Keys 为默认尝试解码的 key，为空表示全部 key。
	Keys []string `mapstructure:"keys"`
}

// Application 持有配置与日志等进程级依赖。
type Application struct {
	zlog.Binder

	cfg      *zviper.Config
	settings Settings
	loggers  map[string]*zlog.MLogger
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Init 加载配置并初始化日志与指标。
//
// 配置文件路径的优先级：
//  1. configPath 参数（命令行 --config）
//  2. 环境变量 JSONIFY_CONFIG_FILE_PATH
//  3. 默认的 ./jsonify.yaml
//
// 前两种方式指定的文件必须存在；默认文件不存在时使用内置默认值。
func (a *Application) Init(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := cfg.Unmarshal(&a.settings); err != nil {
		return merr.WrapErrParameterInvalidMsg("invalid config %s: %s", cfg.ConfigFileUsed(), err.Error())
	}

	if err := a.initLogging(); err != nil {
		return err
	}

	metrics.Register(prometheus.DefaultRegisterer)

	a.Logger().Debug("application initialized", zlog.FieldPath(cfg.ConfigFileUsed()))
	return nil
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Settings 返回解析后的配置。
func (a *Application) Settings() Settings {
	return a.settings
}

// NamedLogger 返回 loggers 配置段中定义的 Logger，未定义时退回到应用 Logger。
func (a *Application) NamedLogger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return a.Logger()
}

// ResolveConfigPath 返回配置文件路径，以及该路径是否由调用方显式指定。
func ResolveConfigPath(configPath string) (string, bool) {
	if configPath != "" {
		return configPath, true
	}
	if envPath := os.Getenv(EnvConfigFilePath); envPath != "" {
		return envPath, true
	}
	return DefaultConfigFile, false
}

func loadConfig(configPath string) (*zviper.Config, error) {
	path, explicit := ResolveConfigPath(configPath)

	cfg := zviper.NewWithEnv(EnvPrefix)
	setDefaults(cfg)

	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	}
	if err := cfg.LoadFile(path); err != nil {
		return nil, merr.WrapErrIoFailed(path, err)
	}
	return cfg, nil
}

func setDefaults(cfg *zviper.Config) {
	cfg.SetDefault("log.level", "info")
	cfg.SetDefault("log.format", zlog.FormatText)
	cfg.SetDefault("log.stdout", false)
	cfg.SetDefault("log.stderr", true)
	cfg.SetDefault("log.disable-caller", false)
	cfg.SetDefault("log.disable-stacktrace", false)
	cfg.SetDefault("log.file.rootpath", "")
	cfg.SetDefault("log.file.filename", "")
	cfg.SetDefault("log.file.max-size", 0)
	cfg.SetDefault("log.file.max-days", 0)
	cfg.SetDefault("log.file.max-backups", 0)
	cfg.SetDefault("output.pretty", false)
	cfg.SetDefault("expand.keys", []string{})
}

// initLogging 初始化全局 Logger 与 loggers 配置段中的具名 Logger。
//
// 示例：
//
//	log:
//	  level: debug
//	  format: json
//	loggers:
//	  loader:
//	    level: debug
//	    file:
//	      rootpath: ./logs
//	      filename: loader.log
func (a *Application) initLogging() error {
	logger, props, err := zlog.InitLogger(&a.settings.Log)
	if err != nil {
		return errors.Wrap(err, "init global logger")
	}
	zlog.ReplaceGlobals(logger, props)
	a.BindComponent("jsonify")

	if len(a.settings.Loggers) == 0 {
		return nil
	}
	a.loggers = make(map[string]*zlog.MLogger, len(a.settings.Loggers))
	for name, lc := range a.settings.Loggers {
		cfgCopy := lc
		named, _, err := zlog.NewLogger(&cfgCopy)
		if err != nil {
			return errors.Wrapf(err, "init logger %q", name)
		}
		a.loggers[name] = &zlog.MLogger{Logger: named.With(zlog.FieldComponent(name))}
	}
	return nil
}
