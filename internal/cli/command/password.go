package command

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/payauth-go/internal/core/domain"
)

var errResetTokenInvalid = errors.New("reset token is invalid or expired")

// PasswordCommand returns the password recovery subcommand group.
func PasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "password",
		Usage: "Recover a forgotten password",
		Subcommands: []*cli.Command{
			{
				Name:      "forgot",
				Usage:     "Send a recovery email",
				ArgsUsage: "EMAIL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
				},
				Action: passwordForgot,
			},
			{
				Name:      "verify-token",
				Usage:     "Check whether a reset token is still valid",
				ArgsUsage: "TOKEN",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Usage: "Reset token from the email"},
				},
				Action: passwordVerifyToken,
			},
			{
				Name:      "reset",
				Usage:     "Set a new password with a reset token",
				ArgsUsage: "TOKEN",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Usage: "Reset token from the email"},
					&cli.StringFlag{Name: "new-password", Usage: "New password (prompted when omitted)"},
					&cli.StringFlag{Name: "confirm-password", Usage: "Password confirmation (prompted when omitted)"},
				},
				Action: passwordReset,
			},
		},
	}
}

func passwordForgot(c *cli.Context) error {
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

	resp, err := rt.Passwords.SendRecoveryEmail(ctx, email)
	if err != nil {
		return err
	}
	return message(c, rt, recoveryText(resp), resp)
}

type tokenStatus struct {
	Valid bool `json:"valid" yaml:"valid"`
}

func passwordVerifyToken(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	token, err := argOrFlag(c, "token", "reset token")
	if err != nil {
		return err
	}
	if err := rt.Services(); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, rt)
	defer cancel()

	valid, err := rt.Passwords.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}
	if !valid {
		return errResetTokenInvalid
	}
	return message(c, rt, "Reset token is valid.", tokenStatus{Valid: true})
}

func passwordReset(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	token, err := argOrFlag(c, "token", "reset token")
	if err != nil {
		return domain.ErrResetTokenMissing
	}
	password, err := secret(c, "new-password", "New password")
	if err != nil {
		return err
	}
	confirm, err := secret(c, "confirm-password", "Confirm password")
	if err != nil {
		return err
	}
	if err := rt.Services(); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, rt)
	defer cancel()

	err = rt.Passwords.ResetPassword(ctx, domain.ResetPasswordData{
		Token:           token,
		NewPassword:     password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}
	return message(c, rt, "Password changed. You can now log in.", map[string]bool{"success": true})
}
