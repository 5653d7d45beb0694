package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"torresegura/internal/cli"
	"torresegura/internal/menu"
	"torresegura/internal/session"
)

func loginCommand(a *app) *cli.Command {
	var username, passwordFile string
	return &cli.Command{
		Name:    "login",
		Summary: "Log in and store the session on this device",
		Description: `Log in with a Torre Segura account.

The username is asked for when --username is not given. The password is
read without echo from a terminal, from --password-file, or as the next
line of stdin when stdin is not a terminal.`,
		Usage: "torre-segura login [--username <name>] [--password-file <path>]",
		Examples: []cli.Example{
			{Description: "Interactive login", Command: "torre-segura login"},
			{Description: "Scripted login", Command: "echo \"$PASS\" | torre-segura login --username vigilante"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flagSet.StringVar(&username, "username", "", "account username")
			flagSet.StringVar(&passwordFile, "password-file", "", "read the password from this file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			if err := a.init(); err != nil {
				return err
			}
			if username == "" {
				line, err := a.prompt.Line("Usuario: ")
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				username = line
			}
			password, err := a.prompt.Password(passwordFile)
			if err != nil {
				return err
			}

			result, err := a.manager.Login(a.ctx, username, password)
			if err != nil {
				return err
			}
			user := result.Session.User
			name := user.FullName
			if name == "" {
				name = user.Username
			}
			a.println(cli.Success(fmt.Sprintf("Bienvenido, %s", name)))
			if result.Landing == menu.LandingVisitors {
				a.println("Pantalla inicial: visitantes (torre-segura scan, torre-segura entries list)")
			} else {
				a.println("Pantalla inicial: inicio (torre-segura menu)")
			}
			return nil
		},
	}
}

func logoutCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "logout",
		Summary: "Remove the stored session from this device",
		Run: func(args []string) error {
			if err := a.init(); err != nil {
				return err
			}
			if err := a.manager.Logout(a.ctx); err != nil {
				return err
			}
			a.println("Sesión cerrada.")
			return nil
		},
	}
}

func whoamiCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "whoami",
		Summary: "Show the logged in user",
		Run: func(args []string) error {
			if err := a.requireFeature(""); err != nil {
				return err
			}
			user := a.manager.Current().User
			fmt.Fprintf(a.out, "usuario:  %s\n", user.Username)
			if user.FullName != "" {
				fmt.Fprintf(a.out, "nombre:   %s\n", user.FullName)
			}
			fmt.Fprintf(a.out, "rol:      %s\n", user.RoleName())
			if user.DwellingID != 0 {
				fmt.Fprintf(a.out, "vivienda: %d\n", user.DwellingID)
			}
			return nil
		},
	}
}

func refreshCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "refresh",
		Summary: "Exchange the refresh token for a new access token",
		Run: func(args []string) error {
			if err := a.requireFeature(""); err != nil {
				return err
			}
			if _, err := a.manager.Refresh(a.ctx); err != nil {
				if errors.Is(err, session.ErrNotLoggedIn) {
					return err
				}
				return a.check(err)
			}
			a.println("Sesión renovada.")
			return nil
		},
	}
}

func menuCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "menu",
		Summary: "Show the features available to your role",
		Run: func(args []string) error {
			if err := a.requireFeature(""); err != nil {
				return err
			}
			user := a.manager.Current().User
			a.print(cli.RenderMenu(user, menu.Resolve(user.RoleName())))
			if menu.Normalize(user.RoleName()) == menu.RoleUnknown {
				a.println(cli.Warning(fmt.Sprintf("rol desconocido %q", strings.TrimSpace(user.RoleName()))))
			}
			return nil
		},
	}
}
