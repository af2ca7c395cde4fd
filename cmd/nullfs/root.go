package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"nullfs/internal/config"
	"nullfs/internal/fs"
	"nullfs/internal/logging"
	"nullfs/internal/metrics"
	"nullfs/internal/namespace"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nullfs [mountpoint]",
		Short: "Mount a filesystem that remembers names and discards content",
		Long: `nullfs mounts a FUSE filesystem that keeps track of the files and
directories created in it but never stores any content. Reads fail,
writes are rejected, and every directory lists only "." and "..".`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("mount-point", args[0]); err != nil {
					return err
				}
			}

			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(afero.NewOsFs()); err != nil {
				return pkgerrors.Wrap(err, "invalid configuration")
			}
			if err := logger.Configure(cfg.Log); err != nil {
				return pkgerrors.Wrap(err, "unable to configure logging")
			}
			defer logger.Sync()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// run mounts the filesystem and serves it until ctx is cancelled or the
// filesystem is unmounted from outside.
func run(ctx context.Context, cfg config.Config) error {
	logger.Info("Starting nullfs...")
	logger.Debug("Mount point: %s", cfg.MountPoint)
	logger.Debug("Capacity: %d directories, %d files", cfg.DirCapacity, cfg.FileCapacity)

	ops, err := namespace.New(namespace.Options{
		DirCapacity:   cfg.DirCapacity,
		FileCapacity:  cfg.FileCapacity,
		MaxPathLength: cfg.MaxPathLength,
		TrackRemovals: cfg.TrackRemovals,
	})
	if err != nil {
		return pkgerrors.Wrap(err, "unable to create namespace")
	}

	nfs := fs.NewNullFS(ops, cfg.UID, cfg.GID)
	if err := nfs.Mount(cfg.MountPoint, fs.MountOptions{AllowOther: cfg.AllowOther}); err != nil {
		_ = ops.Close()
		return err
	}
	defer func() {
		if err := nfs.Close(); err != nil {
			logger.Warn("Close failed: %v", err)
		}
	}()

	debug := fuseDebug(cfg.FuseDebug)

	// Serve returns when the mount goes away, including an unmount from
	// outside; that must stop the metrics server too.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return nfs.Serve(debug)
	})

	var metricsSrv *http.Server
	if cfg.MetricsAddress != "" {
		metricsSrv = metrics.NewServer(cfg.MetricsAddress)
		g.Go(func() error {
			logger.Info("Serving metrics on %s", cfg.MetricsAddress)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	logger.Info("Filesystem mounted and ready")

	// Wait for a signal, or for one of the servers to stop on its own.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		if metricsSrv != nil {
			_ = metricsSrv.Close()
		}
		if err := nfs.Unmount(cfg.MountPoint); err != nil {
			logger.Error("Unmount error: %v", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("Clean shutdown complete")
	return err
}

// fuseDebug returns the FUSE message hook for Serve, or nil when disabled.
// Enabling it raises the log level to at least DEBUG so the messages show.
func fuseDebug(enabled bool) func(msg interface{}) {
	if !enabled {
		return nil
	}
	if logger.Level() < logging.LevelDebug {
		logger.SetLevel(logging.LevelDebug)
	}
	fuseLogger := logger.WithPrefix("fuse")
	return func(msg interface{}) { fuseLogger.Debug("%v", msg) }
}
