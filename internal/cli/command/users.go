package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/payauth-go/internal/cli/output"
	"github.com/yndnr/payauth-go/internal/core/service"
)

// UsersCommand returns the users subcommand group.
func UsersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Browse registered users",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List users, one page at a time",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: service.DefaultPage, Usage: "Page number"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: service.DefaultLimit, Usage: "Users per page"},
					&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Keep users whose name or email contains this text"},
				},
				Action: usersList,
			},
			{
				Name:      "search",
				Usage:     "Search users on the server",
				ArgsUsage: "QUERY",
				Action:    usersSearch,
			},
		},
	}
}

func usersList(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if err := rt.Services(); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, rt)
	defer cancel()

	page, err := rt.Users.List(ctx, c.Int("page"), c.Int("limit"))
	if err != nil {
		return err
	}
	if filter := c.String("filter"); filter != "" {
		page.Users = service.Filter(page.Users, filter)
	}
	return render(c, rt, output.Page(*page))
}

func usersSearch(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	query, err := argOrFlag(c, "query", "search query")
	if err != nil {
		return err
	}
	if err := rt.Services(); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, rt)
	defer cancel()

	page, err := rt.Users.Search(ctx, query)
	if err != nil {
		return err
	}
	return render(c, rt, output.Page(*page))
}
