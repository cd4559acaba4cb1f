package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/payauth-go/internal/cli/output"
	"github.com/yndnr/payauth-go/internal/core/domain"
	"github.com/yndnr/payauth-go/internal/core/service"
	"github.com/yndnr/payauth-go/internal/core/session"
)

// AuthCommand returns the auth subcommand group.
func AuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in and manage your account",
		Subcommands: []*cli.Command{
			registerCommand(),
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			{
				Name:   "refresh",
				Usage:  "Exchange the current token for a new one",
				Action: authRefresh,
			},
			{
				Name:  "update-profile",
				Usage: "Change your name or email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New full name"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "New email"},
				},
				Action: authUpdateProfile,
			},
			{
				Name:      "forgot-password",
				Usage:     "Send a password recovery email",
				ArgsUsage: "EMAIL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
				},
				Action: authForgotPassword,
			},
		},
	}
}

// shortcuts returns top-level copies of the most used auth commands.
func shortcuts() []*cli.Command {
	return []*cli.Command{loginCommand(), logoutCommand(), whoamiCommand()}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Full name", Required: true},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "Password (prompted when omitted)"},
			&cli.StringFlag{Name: "confirm-password", Usage: "Password confirmation (prompted when omitted)"},
			&cli.StringFlag{Name: "cep", Usage: "Postal code (CEP)", Required: true},
			&cli.StringFlag{Name: "number", Usage: "House number"},
		},
		Action: authRegister,
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with email and password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (prompted when omitted)"},
		},
		Action: authLogin,
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored token",
		Action: authLogout,
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the signed-in user",
		Action: authWhoami,
	}
}

func authRegister(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	cep := c.String("cep")
	if !service.ValidateCEP(cep) {
		return domain.ErrCEPInvalid
	}
	password, err := secret(c, "password", "Password")
	if err != nil {
		return err
	}
	confirm, err := secret(c, "confirm-password", "Confirm password")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, rt)
	defer cancel()

	// The address is only shown back to the user; the backend resolves
	// the CEP itself.
	addr := domain.Address{CEP: service.FormatCEP(cep), Number: c.String("number")}
	if found, err := rt.Address.Lookup(ctx, cep); err == nil {
		found.Number = addr.Number
		addr = *found
	} else {
		rt.Logger.Warn("address lookup failed, registering with CEP only", "cep", addr.CEP, "error", err)
	}

	store, err := rt.Ready(ctx)
	if err != nil {
		return err
	}

	var user *domain.User
	err = withSpinner(c, rt, "Creating account", func() error {
		user, err = store.Register(ctx, domain.RegisterData{
			FullName:        c.String("name"),
			Email:           c.String("email"),
			Password:        password,
			ConfirmPassword: confirm,
			Address:         addr,
		})
		return err
	})
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Account created. Logged in as %s <%s>", user.FullName, user.Email)
	if addr.City != "" {
		text += fmt.Sprintf("\nAddress: %s, %s - %s/%s", addr.Street, addr.Neighborhood, addr.City, addr.State)
	}
	return message(c, rt, text, output.Profile(*user))
}

func authLogin(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	password, err := secret(c, "password", "Password")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, rt)
	defer cancel()

	store, err := rt.Ready(ctx)
	if err != nil {
		return err
	}

	var user *domain.User
	err = withSpinner(c, rt, "Signing in", func() error {
		user, err = store.Login(ctx, domain.LoginData{Email: c.String("email"), Password: password})
		return err
	})
	if err != nil {
		return err
	}

	return message(c, rt, fmt.Sprintf("Logged in as %s <%s>", user.FullName, user.Email), output.Profile(*user))
}

func authLogout(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if err := rt.Services(); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, rt)
	defer cancel()

	rt.Session.Logout(ctx)
	return message(c, rt, "Logged out", rt.Session.Snapshot())
}

func authWhoami(c *cli.Context) error {
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

	snap := store.Snapshot()
	if !snap.IsAuthenticated {
		return session.ErrNotAuthenticated
	}
	return render(c, rt, output.Profile(*snap.User))
}

func authRefresh(c *cli.Context) error {
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

	user, err := store.Refresh(ctx)
	if err != nil {
		return err
	}
	return message(c, rt, "Token refreshed for "+user.Email, output.Profile(*user))
}

func authUpdateProfile(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	update := domain.ProfileUpdate{FullName: c.String("name"), Email: c.String("email")}
	if update.FullName == "" && update.Email == "" {
		return errors.New("nothing to update: set --name or --email")
	}

	ctx, cancel := requestContext(c, rt)
	defer cancel()

	store, err := rt.Ready(ctx)
	if err != nil {
		return err
	}

	user, err := store.UpdateProfile(ctx, update)
	if err != nil {
		return err
	}
	return message(c, rt, fmt.Sprintf("Profile updated: %s <%s>", user.FullName, user.Email), output.Profile(*user))
}

func authForgotPassword(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	email, err := argOrFlag(c, "email", "email")
	if err != nil {
		return err
	}
	if err := rt.Services(); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, rt)
	defer cancel()

	resp, err := rt.Session.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	return message(c, rt, recoveryText(resp), resp)
}

func recoveryText(resp *domain.ForgotPasswordResponse) string {
	if resp.Message != "" {
		return resp.Message
	}
	return "If the address is registered, a recovery email has been sent."
}
