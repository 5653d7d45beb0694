// Command torre-segura is the terminal client of the Torre Segura
// building access system.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"torresegura/internal/cli"
	"torresegura/internal/config"
	"torresegura/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	shutdownTelemetry := telemetry.Setup(telemetry.Options{ServiceName: "torre-segura", Sync: true})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(ctx, cfg, os.Stdin, os.Stdout, os.Stderr)
	defer a.close()
	return rootCommand(a).Execute(os.Args[1:])
}

func newApp(ctx context.Context, cfg config.Config, in io.Reader, out, errOut io.Writer) *app {
	return &app{
		ctx:    ctx,
		cfg:    cfg,
		out:    out,
		prompt: cli.NewPrompter(in, errOut),
		logger: cli.NewLogger(errOut, cfg.LogLevel),
		openKV: openSQLite,
	}
}

func rootCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "torre-segura",
		Summary: "Building access client",
		Description: `torre-segura is the client of the Torre Segura access system.

Gate staff verify visitor QR codes and keep the presence list; residents
register visits, reserve common areas and pay expenses. The session and
the notification log are stored on this device.`,
		Subcommands: []*cli.Command{
			loginCommand(a),
			logoutCommand(a),
			whoamiCommand(a),
			refreshCommand(a),
			menuCommand(a),
			visitCommand(a),
			scanCommand(a),
			entriesCommand(a),
			areasCommand(a),
			expensesCommand(a),
			payCommand(a),
			alertCommand(a),
			notificationsCommand(a),
		},
	}
}
