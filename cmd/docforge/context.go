package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"docforge/internal/config"
	"docforge/internal/coordinator"
	"docforge/internal/ipc"
	"docforge/internal/lockfile"
	"docforge/internal/logging"
	"docforge/internal/status"
	"docforge/internal/workqueue"
)

type commandContext struct {
	socketFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) socketPath() string {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return strings.TrimSpace(*c.socketFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return cfg.SocketPath()
	}
	return ""
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	if socket == "" {
		return nil, errors.New("daemon socket path is not configured")
	}
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, wrapDialError(err, socket)
	}
	return client, nil
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `docforged`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

// daemonReachable reports whether the control socket accepts connections.
func (c *commandContext) daemonReachable() bool {
	client, err := c.dialClient()
	if err != nil {
		return false
	}
	client.Close()
	return true
}

// withCoordinator builds a direct-store coordinator for commands that must
// work while the daemon is down. Writes go through the same named locks the
// daemon uses, so mixing direct and IPC access stays safe.
func (c *commandContext) withCoordinator(fn func(*coordinator.Coordinator) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	locks, err := lockfile.NewManager(cfg.LockDir(), time.Duration(cfg.Workflow.LockTimeoutSeconds)*time.Second)
	if err != nil {
		return err
	}
	store, err := status.NewStore(cfg.StatusFilePath(), locks, logging.NewNop())
	if err != nil {
		return err
	}
	queue, err := workqueue.New(cfg.QueueDir(), locks, logging.NewNop())
	if err != nil {
		return err
	}
	coord, err := coordinator.New(cfg, store, queue, logging.NewNop())
	if err != nil {
		return err
	}
	return fn(coord)
}
