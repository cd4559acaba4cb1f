package command

import (
	"bufio"
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/payauth-go/internal/cli/config"
	"github.com/yndnr/payauth-go/internal/cli/repl"
	"github.com/yndnr/payauth-go/internal/core/domain"
	"github.com/yndnr/payauth-go/internal/infra/confloader"
	"github.com/yndnr/payauth-go/internal/telemetry/logger"
)

var errNestedShell = errors.New("already in the shell")

// ShellCommand starts the interactive shell.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive shell sharing one session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "history", Usage: "History file (empty string disables it)", Value: filepath.Join(config.DefaultDir(), "history")},
			&cli.BoolFlag{Name: "no-watch", Usage: "Do not reload log.level when the configuration file changes"},
		},
		Action: shellRun,
	}
}

func shellRun(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if rt.shell {
		return errNestedShell
	}

	ctx, cancel := requestContext(c, rt)
	store, err := rt.Ready(ctx)
	cancel()
	if err != nil {
		return err
	}

	var prompt atomic.Value
	prompt.Store(promptFor(store.Snapshot()))
	unsubscribe := store.Subscribe(func(s domain.Session) {
		prompt.Store(promptFor(s))
	})
	defer unsubscribe()

	if !c.Bool("no-watch") {
		watchConfig(rt)
	}

	rt.shell = true
	defer func() { rt.shell = false }()

	// Commands that prompt read from the same buffered reader as the shell.
	app := c.App
	in := bufio.NewReader(app.Reader)
	prevReader := app.Reader
	app.Reader = in
	if f, ok := prevReader.(fdReader); ok {
		app.Reader = &terminalInput{Reader: in, file: f}
	}
	defer func() { app.Reader = prevReader }()

	exec := func(ctx context.Context, args []string) error {
		return app.RunContext(ctx, append([]string{app.Name}, args...))
	}

	shell := repl.New(exec,
		repl.WithIO(in, app.Writer),
		repl.WithPrompt(func() string { return prompt.Load().(string) }),
		repl.WithCompleter(repl.NewCompleter(commandPaths(app.Commands, "")...)),
		repl.WithHistory(repl.NewHistory(c.String("history"))),
		repl.WithLogger(rt.Logger),
	)
	return shell.Run(c.Context)
}

func promptFor(s domain.Session) string {
	if s.User != nil {
		return s.User.Email + "@payauth> "
	}
	return "payauth> "
}

// watchConfig reapplies log.level whenever the configuration file is
// written. Other settings take effect in the next process.
func watchConfig(rt *Runtime) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(rt.Logger))
	if err != nil {
		rt.Logger.Warn("configuration watcher unavailable", "error", err)
		return
	}
	if err := w.Watch(rt.ConfigPath); err != nil {
		w.Stop()
		return
	}

	w.OnChange(func(path string) {
		cfg, err := config.Load(path, nil)
		if err != nil {
			rt.Logger.Warn("ignoring unreadable configuration change", "path", path, "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		rt.Logger.Info("log level reloaded", "level", logger.GetLevel())
	})
	w.StartAsync()

	rt.shutdown.OnShutdown("config watcher", func(context.Context) error {
		return w.Stop()
	})
}

// commandPaths lists "parent child" paths for completion.
func commandPaths(cmds []*cli.Command, parent string) []string {
	var paths []string
	for _, cmd := range cmds {
		if cmd.Hidden || cmd.Name == "shell" {
			continue
		}
		path := cmd.Name
		if parent != "" {
			path = parent + " " + cmd.Name
		}
		paths = append(paths, path)
		paths = append(paths, commandPaths(cmd.Subcommands, path)...)
	}
	return paths
}
