// Package config determines the nullfs configuration from flags, environment
// variables and an optional config file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"nullfs/internal/logging"
)

// EnvPrefix is prepended to every environment variable, e.g.
// NULLFS_MOUNT_POINT.
const EnvPrefix = "NULLFS"

// Defaults.
const (
	DefaultMountPoint    = "/mnt"
	DefaultCapacity      = 1024
	DefaultMaxPathLength = 1023
)

// Config is the complete nullfs configuration.
type Config struct {
	MountPoint     string         `mapstructure:"mount-point"`
	DirCapacity    int            `mapstructure:"dir-capacity"`
	FileCapacity   int            `mapstructure:"file-capacity"`
	MaxPathLength  int            `mapstructure:"max-path-length"`
	TrackRemovals  bool           `mapstructure:"track-removals"`
	UID            uint32         `mapstructure:"uid"`
	GID            uint32         `mapstructure:"gid"`
	AllowOther     bool           `mapstructure:"allow-other"`
	FuseDebug      bool           `mapstructure:"fuse-debug"`
	MetricsAddress string         `mapstructure:"metrics-address"`
	Log            logging.Config `mapstructure:"log"`
}

// RegisterFlags adds every configuration flag to flags. The flag defaults are
// the configuration defaults.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "optional configuration file (yaml, toml or json)")
	flags.String("mount-point", DefaultMountPoint, "directory to mount the filesystem on")
	flags.Int("dir-capacity", DefaultCapacity, "maximum number of directories remembered before the oldest is forgotten")
	flags.Int("file-capacity", DefaultCapacity, "maximum number of files remembered before the oldest is forgotten")
	flags.Int("max-path-length", DefaultMaxPathLength, "longest path accepted by create and mkdir (0 for no limit)")
	flags.Bool("track-removals", false, "make unlink, rmdir and rename change the namespace instead of being ignored")
	flags.Uint32("uid", defaultID("PUID", os.Getuid()), "owner reported for every entry")
	flags.Uint32("gid", defaultID("PGID", os.Getgid()), "group reported for every entry")
	flags.Bool("allow-other", false, "allow other users to access the mount")
	flags.Bool("fuse-debug", false, "log every FUSE message")
	flags.String("metrics-address", "", "serve Prometheus metrics on this address (disabled when empty)")
	flags.String("log.level", "", "log level: ERROR, WARN, INFO, DEBUG or TRACE (default from LOG_LEVEL, else INFO)")
	flags.String("log.file", "", "log to this file instead of stdout")
	flags.Int("log.max-size", 100, "rotate the log file after this many megabytes")
	flags.Int("log.max-backups", 5, "number of rotated log files to keep")
}

// defaultID prefers a numeric id from env over the process id.
func defaultID(env string, fallback int) uint32 {
	if s := os.Getenv(env); s != "" {
		if id, err := strconv.ParseUint(s, 10, 32); err == nil {
			return uint32(id)
		}
	}
	if fallback < 0 {
		return 0
	}
	return uint32(fallback)
}

// Load combines configuration sources. Precedence is (1) flags that were set,
// (2) environment variables, (3) the config file named by --config,
// (4) flag defaults.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	if err := v.BindPFlags(flags); err != nil {
		return Config{}, errors.Wrap(err, "unable to bind command line flags")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "unable to read config file %s", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unable to decode configuration")
	}
	cfg.MountPoint = filepath.Clean(cfg.MountPoint)
	return cfg, nil
}

// Validate checks cfg for values nullfs cannot run with. The mount point is
// looked up in fsys.
func (cfg Config) Validate(fsys afero.Fs) error {
	if cfg.DirCapacity < 1 {
		return errors.Errorf("dir-capacity must be positive, got %d", cfg.DirCapacity)
	}
	if cfg.FileCapacity < 1 {
		return errors.Errorf("file-capacity must be positive, got %d", cfg.FileCapacity)
	}
	if cfg.MaxPathLength < 0 {
		return errors.Errorf("max-path-length must not be negative, got %d", cfg.MaxPathLength)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); cfg.Log.Level != "" && err != nil {
		return errors.Wrap(err, "log.level")
	}
	if !filepath.IsAbs(cfg.MountPoint) {
		return errors.Errorf("mount point %q must be an absolute path", cfg.MountPoint)
	}

	isDir, err := afero.IsDir(fsys, cfg.MountPoint)
	if err != nil {
		return errors.Wrapf(err, "mount point %s", cfg.MountPoint)
	}
	if !isDir {
		return errors.Errorf("mount point %s is not a directory", cfg.MountPoint)
	}
	return nil
}
