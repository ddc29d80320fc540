// Command gdbstub-server is an example RSP server: it accepts TCP
// connections, hands each one a fresh demo.CPU target, and drives a
// gdbstub.Session over it until the peer disconnects.
package main

import (
	"context"
	"net"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/gdbstub"
	"github.com/orizon-lang/gdbstub/internal/config"
	"github.com/orizon-lang/gdbstub/target"
	"github.com/orizon-lang/gdbstub/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Fatal("gdbstub-server exited with error")
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "gdbstub-server",
		Short: "Example GDB Remote Serial Protocol stub server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "gdbstub-server.yaml", "path to the YAML config file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	watcher, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	defer watcher.Close()

	cfg := watcher.Current()
	ln, err := transport.Listen(cfg.ListenAddr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logrus.NewEntry(logrus.StandardLogger())
	logger.WithField("addr", cfg.ListenAddr).Info("gdbstub-server listening")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return acceptLoop(groupCtx, ln, logger, watcher)
	})

	<-ctx.Done()
	closeErr := ln.Close()
	waitErr := group.Wait()

	var result *multierror.Error
	if closeErr != nil {
		result = multierror.Append(result, errors.Wrap(closeErr, "close listener"))
	}
	if waitErr != nil {
		result = multierror.Append(result, errors.Wrap(waitErr, "accept loop"))
	}
	return result.ErrorOrNil()
}

// acceptLoop spawns one goroutine per accepted connection until Accept
// fails. If ctx has been canceled by then, it waits for all sessions to
// finish before returning, so shutdown never drops an in-flight session
// silently; any other Accept error is returned at once.
func acceptLoop(ctx context.Context, ln net.Listener, logger *logrus.Entry, watcher *config.Watcher) error {
	var sessions errgroup.Group
	for {
		conn, err := transport.Accept(ln)
		if err != nil {
			select {
			case <-ctx.Done():
				return sessions.Wait()
			default:
				return err
			}
		}
		sessions.Go(func() error {
			handleConn(ctx, conn, logger, watcher)
			return nil
		})
	}
}

func handleConn(ctx context.Context, conn *transport.TCP, logger *logrus.Entry, watcher *config.Watcher) {
	defer conn.Close()

	cfg := watcher.Current()
	cpu := target.NewCPU(cfg.MemorySize)

	session, err := gdbstub.NewSession(gdbstub.Config{Logger: logger}, allowListTarget(cpu, cfg.MonitorAllowList), conn)
	if err != nil {
		logger.WithError(err).Warn("failed to create session")
		return
	}
	defer session.Close()

	connLogger := logger.WithField("session", session.ID().String()).WithField("remote", conn.Addr().String())
	connLogger.Info("session started")

	if err := session.Run(ctx); err != nil && !errors.Is(err, gdbstub.ErrPeerDisconnected) {
		connLogger.WithError(err).Warn("session ended with error")
		return
	}
	connLogger.Info("session ended")
}

// monitorFilter wraps a *target.CPU to restrict qRcmd to the config's
// monitor_allow_list, re-read from the hot-reloaded config on every new
// connection so an operator can narrow the exposed command surface
// without restarting the server.
type monitorFilter struct {
	*target.CPU
	allow map[string]bool
}

func allowListTarget(cpu *target.CPU, allowList []string) gdbstub.Target {
	if len(allowList) == 0 {
		return cpu
	}
	allow := make(map[string]bool, len(allowList))
	for _, name := range allowList {
		allow[name] = true
	}
	return &monitorFilter{CPU: cpu, allow: allow}
}

func (m *monitorFilter) Commands() map[string]gdbstub.MonitorFunc {
	out := make(map[string]gdbstub.MonitorFunc)
	for name, fn := range m.CPU.Commands() {
		if m.allow[name] {
			out[name] = fn
		}
	}
	return out
}
