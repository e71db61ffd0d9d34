package run

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	rewrite "github.com/yyYank/mry/mrygen/run/4_rewrite"
)

const (
	envPrefix         = "MRYGEN"
	defaultConfigFile = ".mrygen.yaml"

	runtimeCrateKey     = "runtime.crate"
	runtimeIdentityKey  = "runtime.identity"
	runtimeFieldKey     = "runtime.field"
	locatorPrefixKey    = "naming.locator_prefix"
	plainPrefixKey      = "naming.plain_prefix"
	standInPrefixKey    = "naming.stand_in_prefix"
	guardCfgKey         = "guard.cfg"
	asyncMarkerKey      = "async.marker"
	cacheDirKey         = "cache.dir"
	cacheEnabledKey     = "cache.enabled"
	logFileKey          = "log.file"
	logLevelKey         = "log.level"
	logMaxSizeKey       = "log.max_size"
	logMaxBackupsKey    = "log.max_backups"
	logMaxAgeKey        = "log.max_age"
	logCompressKey      = "log.compress"
	defaultLogMaxSize   = 10
	defaultLogMaxBackup = 3
	defaultLogMaxAge    = 28
)

// Config is the resolved tool configuration.
type Config struct {
	Runtime      rewrite.Runtime
	CacheDir     string
	CacheEnabled bool
	Log          LogConfig
}

// LogConfig controls where and how much the tool logs.
type LogConfig struct {
	File       string
	Level      string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// LoadConfig resolves the configuration from defaults, the YAML file at path (or .mrygen.yaml when path is empty
// and that file exists) and MRYGEN_* environment overrides looked up through getEnv.
func LoadConfig(path string, getEnv func(string) string, fileSys FileSystem) (Config, error) {
	cfg := viper.New()
	setDefaults(cfg)

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := fileSys.ReadFile(path)

	switch {
	case err == nil:
		cfg.SetConfigType("yaml")

		err = cfg.ReadConfig(bytes.NewReader(data))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnv(cfg, getEnv)

	return Config{
		Runtime: rewrite.Runtime{
			Crate:         cfg.GetString(runtimeCrateKey),
			Identity:      cfg.GetString(runtimeIdentityKey),
			Field:         cfg.GetString(runtimeFieldKey),
			LocatorPrefix: cfg.GetString(locatorPrefixKey),
			PlainPrefix:   cfg.GetString(plainPrefixKey),
			StandInPrefix: cfg.GetString(standInPrefixKey),
			GuardCfg:      cfg.GetString(guardCfgKey),
			AsyncMarker:   cfg.GetString(asyncMarkerKey),
		},
		CacheDir:     cfg.GetString(cacheDirKey),
		CacheEnabled: cfg.GetBool(cacheEnabledKey),
		Log: LogConfig{
			File:       cfg.GetString(logFileKey),
			Level:      cfg.GetString(logLevelKey),
			MaxSize:    cfg.GetInt(logMaxSizeKey),
			MaxBackups: cfg.GetInt(logMaxBackupsKey),
			MaxAge:     cfg.GetInt(logMaxAgeKey),
			Compress:   cfg.GetBool(logCompressKey),
		},
	}, nil
}

// NewLogger builds the tool logger. Logs go to the rotated log file when one is configured, otherwise to stderr
// when verbose, otherwise nowhere. Verbose always logs at debug. The returned closer releases the log file.
func NewLogger(cfg LogConfig, verbose bool, stderr io.Writer) (*slog.Logger, io.Closer) {
	level := parseSlogLevel(cfg.Level, slog.LevelInfo)
	if verbose {
		level = slog.LevelDebug
	}

	if strings.TrimSpace(cfg.File) == "" {
		if !verbose {
			return slog.New(slog.DiscardHandler), io.NopCloser(nil)
		}

		return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})), io.NopCloser(nil)
	}

	logWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: verbose,
		Level:     level,
	})

	return slog.New(handler), logWriter
}

// Functions - Private

func setDefaults(cfg *viper.Viper) {
	defaults := rewrite.DefaultRuntime()

	cfg.SetDefault(runtimeCrateKey, defaults.Crate)
	cfg.SetDefault(runtimeIdentityKey, defaults.Identity)
	cfg.SetDefault(runtimeFieldKey, defaults.Field)
	cfg.SetDefault(locatorPrefixKey, defaults.LocatorPrefix)
	cfg.SetDefault(plainPrefixKey, defaults.PlainPrefix)
	cfg.SetDefault(standInPrefixKey, defaults.StandInPrefix)
	cfg.SetDefault(guardCfgKey, defaults.GuardCfg)
	cfg.SetDefault(asyncMarkerKey, defaults.AsyncMarker)
	cfg.SetDefault(cacheDirKey, "")
	cfg.SetDefault(cacheEnabledKey, true)
	cfg.SetDefault(logFileKey, "")
	cfg.SetDefault(logLevelKey, "info")
	cfg.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	cfg.SetDefault(logMaxBackupsKey, defaultLogMaxBackup)
	cfg.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	cfg.SetDefault(logCompressKey, true)
}

// applyEnv overrides every known key from MRYGEN_<SECTION>_<NAME>.
func applyEnv(cfg *viper.Viper, getEnv func(string) string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")

	for _, key := range cfg.AllKeys() {
		value, ok := lookupEnv(getEnv, envPrefix+"_"+strings.ToUpper(replacer.Replace(key)))
		if ok {
			cfg.Set(key, value)
		}
	}
}

// lookupEnv treats an empty value as unset, except for the explicit empty marker "-".
func lookupEnv(getEnv func(string) string, name string) (string, bool) {
	value := getEnv(name)

	switch value {
	case "":
		return "", false
	case "-":
		return "", true
	default:
		return value, true
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}
