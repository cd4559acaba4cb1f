package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/payauth-go/internal/cli/config"
	"github.com/yndnr/payauth-go/internal/cli/output"
	"github.com/yndnr/payauth-go/internal/infra/buildinfo"
	"github.com/yndnr/payauth-go/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    buildinfo.Product,
		Usage:   "Sign in, manage your profile and look up users and addresses",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			AuthCommand(),
			PasswordCommand(),
			UsersCommand(),
			AddressCommand(),
			ConfigCommand(),
			SystemCommand(),
			ShellCommand(),
			VersionCommand(),
		},
		Before:               setup,
		After:                teardown,
		EnableBashCompletion: true,
		// main reports errors; the shell must not exit on them.
		ExitErrHandler: func(*cli.Context, error) {},
	}
	app.Commands = append(app.Commands, shortcuts()...)
	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file",
			EnvVars: []string{"PAYAUTH_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Backend base URL (e.g., http://localhost:3000)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Timeout for each backend request",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory holding the persisted token",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep the token in memory only",
		},
	}
}

// flagOverrides maps explicitly set global flags to configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := map[string]any{}
	if c.IsSet("server") {
		overrides["server.url"] = c.String("server")
	}
	if c.IsSet("output") {
		overrides["output.format"] = c.String("output")
	}
	if c.IsSet("timeout") {
		overrides["server.timeout"] = c.Duration("timeout").String()
	}
	if c.IsSet("data-dir") {
		overrides["storage.dir"] = c.String("data-dir")
	}
	if c.IsSet("ephemeral") {
		overrides["storage.ephemeral"] = c.Bool("ephemeral")
	}
	if c.Bool("verbose") {
		overrides["log.level"] = "debug"
	}
	return overrides
}

// setup loads the configuration and the logger. A Runtime left by an
// outer invocation (the shell) is reused.
func setup(c *cli.Context) error {
	if _, err := runtimeFrom(c); err == nil {
		return nil
	}

	path := c.String("config")
	cfg, err := config.Load(path, flagOverrides(c))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	c.App.Metadata[runtimeKey] = newRuntime(cfg, path, log)
	return nil
}

func teardown(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil || rt.shell {
		return nil
	}
	delete(c.App.Metadata, runtimeKey)
	return rt.Close()
}

// requestContext bounds a command's backend calls by --timeout or
// server.timeout.
func requestContext(c *cli.Context, rt *Runtime) (context.Context, context.CancelFunc) {
	timeout := rt.Config.Server.Timeout
	if c.IsSet("timeout") {
		timeout = c.Duration("timeout")
	}
	ctx := logger.WithLogger(c.Context, rt.Logger)
	ctx = logger.WithCommand(ctx, c.Command.FullName())
	return context.WithTimeout(ctx, timeout)
}

// render writes data in the selected output format.
func render(c *cli.Context, rt *Runtime, data any) error {
	name := rt.Config.Output.Format
	if c.IsSet("output") {
		name = c.String("output")
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, c.Bool("wide")).Format(c.App.Writer, data)
}

// message prints a confirmation line in table mode, or data otherwise.
func message(c *cli.Context, rt *Runtime, text string, data any) error {
	name := rt.Config.Output.Format
	if c.IsSet("output") {
		name = c.String("output")
	}
	if format, _ := output.ParseFormat(name); format == output.FormatTable {
		_, err := fmt.Fprintln(c.App.Writer, text)
		return err
	}
	return render(c, rt, data)
}

// withSpinner runs fn, showing a spinner on stderr in the shell.
func withSpinner(c *cli.Context, rt *Runtime, msg string, fn func() error) error {
	if !rt.shell {
		return fn()
	}
	s := output.NewSpinner(c.App.ErrWriter, msg)
	s.Start()
	err := fn()
	s.Stop()
	return err
}

// secret returns the flag value, or prompts for it on the app's input.
func secret(c *cli.Context, flag, prompt string) (string, error) {
	if v := c.String(flag); v != "" {
		return v, nil
	}
	fmt.Fprint(c.App.ErrWriter, prompt+": ")
	line, err := readSecret(c.App.Reader, c.App.ErrWriter)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", flag, err)
	}
	if line == "" {
		return "", fmt.Errorf("%s is required", flag)
	}
	return line, nil
}

// fdReader is an input backed by a file descriptor, such as os.Stdin.
type fdReader interface {
	Fd() uintptr
}

// terminalInput is the shell's buffered stdin that still exposes the
// terminal descriptor for password prompts.
type terminalInput struct {
	*bufio.Reader
	file fdReader
}

func (t *terminalInput) Fd() uintptr {
	return t.file.Fd()
}

// readSecret reads a password without echo when r is a terminal with no
// buffered input, and a plain line otherwise (pipes, tests).
func readSecret(r io.Reader, w io.Writer) (string, error) {
	f, ok := r.(fdReader)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return readLine(r)
	}
	if b, ok := r.(interface{ Buffered() int }); ok && b.Buffered() > 0 {
		return readLine(r)
	}

	data, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readLine reads one line without buffering past it, so the shell can keep
// reading from the same input.
func readLine(r io.Reader) (string, error) {
	if br, ok := r.(interface {
		ReadString(delim byte) (string, error)
	}); ok {
		line, err := br.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	var b strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			b.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			if b.Len() == 0 {
				return "", err
			}
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(b.String(), "\r"), nil
}

// argOrFlag returns the first positional argument or the named flag.
func argOrFlag(c *cli.Context, flag, what string) (string, error) {
	if v := strings.TrimSpace(c.Args().First()); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(c.String(flag)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s is required", what)
}
