package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/payauth-go/internal/cli/output"
	"github.com/yndnr/payauth-go/internal/core/domain"
	"github.com/yndnr/payauth-go/internal/core/service"
)

// AddressCommand returns the address subcommand group.
func AddressCommand() *cli.Command {
	return &cli.Command{
		Name:    "address",
		Aliases: []string{"cep"},
		Usage:   "Brazilian postal code (CEP) tools",
		Subcommands: []*cli.Command{
			{
				Name:      "lookup",
				Usage:     "Resolve a CEP to a street address",
				ArgsUsage: "CEP",
				Action:    addressLookup,
			},
			{
				Name:      "format",
				Usage:     "Print a CEP as 00000-000",
				ArgsUsage: "CEP",
				Action:    addressFormat,
			},
			{
				Name:      "validate",
				Usage:     "Check that a CEP has eight digits",
				ArgsUsage: "CEP",
				Action:    addressValidate,
			},
		},
	}
}

func addressLookup(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	cep, err := argOrFlag(c, "cep", "CEP")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, rt)
	defer cancel()

	var addr *domain.Address
	err = withSpinner(c, rt, "Looking up "+cep, func() error {
		addr, err = rt.Address.Lookup(ctx, cep)
		return err
	})
	if err != nil {
		return err
	}
	return render(c, rt, output.AddressView(*addr))
}

func addressFormat(c *cli.Context) error {
	cep, err := argOrFlag(c, "cep", "CEP")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, service.FormatCEP(cep))
	return err
}

func addressValidate(c *cli.Context) error {
	cep, err := argOrFlag(c, "cep", "CEP")
	if err != nil {
		return err
	}
	if !service.ValidateCEP(cep) {
		return domain.ErrCEPInvalid
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s is valid\n", service.FormatCEP(cep))
	return err
}
