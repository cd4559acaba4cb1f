package command

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/payauth-go/internal/infra/buildinfo"
	"github.com/yndnr/payauth-go/internal/telemetry/metric"
	tokenutil "github.com/yndnr/payauth-go/pkg/token"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Client status and diagnostics",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show session state, backend and token storage",
				Action: systemStatus,
			},
			{
				Name:  "metrics",
				Usage: "Show client metrics collected by this process",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "Only metrics whose name starts with this"},
				},
				Action: systemMetrics,
			},
			VersionCommand(),
		},
	}
}

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show build information",
		Action: systemVersion,
	}
}

type statusView struct {
	State       string `json:"state" yaml:"state"`
	User        string `json:"user" yaml:"user"`
	Server      string `json:"server" yaml:"server"`
	TokenStored bool   `json:"tokenStored" yaml:"token_stored"`
	Token       string `json:"token,omitempty" yaml:"token,omitempty" table:"wide"`
	Storage     string `json:"storage" yaml:"storage"`
	Config      string `json:"config" yaml:"config"`
}

func systemStatus(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, rt)
	defer cancel()

	store, err := rt.Ready(ctx)
	if err != nil {
		return err
	}

	token, err := store.Token(ctx)
	if err != nil {
		return err
	}

	snap := store.Snapshot()
	view := statusView{
		State:       snap.State.String(),
		Server:      rt.Client.BaseURL(),
		TokenStored: token != "",
		Token:       tokenutil.Fingerprint(token),
		Storage:     storageMode(rt),
		Config:      rt.ConfigPath,
	}
	if snap.User != nil {
		view.User = snap.User.FullName + " <" + snap.User.Email + ">"
	}
	return render(c, rt, view)
}

func storageMode(rt *Runtime) string {
	switch {
	case rt.Config.Storage.Ephemeral:
		return "memory"
	case rt.Config.Storage.Encrypt:
		return "badger (encrypted) " + rt.Config.Storage.Dir
	default:
		return "badger " + rt.Config.Storage.Dir
	}
}

func systemMetrics(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	if err := rt.Services(); err != nil {
		return err
	}

	samples, err := rt.Metrics.Snapshot()
	if err != nil {
		return err
	}
	if prefix := c.String("prefix"); prefix != "" {
		kept := make([]metric.Sample, 0, len(samples))
		for _, s := range samples {
			if strings.HasPrefix(s.Name, prefix) {
				kept = append(kept, s)
			}
		}
		samples = kept
	}
	return render(c, rt, samples)
}

func systemVersion(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	return render(c, rt, buildinfo.Get())
}
