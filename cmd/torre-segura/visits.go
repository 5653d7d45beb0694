package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"torresegura/internal/cli"
	"torresegura/internal/issuer"
	"torresegura/internal/models"
	"torresegura/internal/qrflow"
)

func visitCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "visit",
		Summary: "Register visitors and share their QR passes",
		Subcommands: []*cli.Command{
			visitCreateCommand(a),
			visitInviteCommand(a),
		},
	}
}

func visitCreateCommand(a *app) *cli.Command {
	var name, document, purpose, outDir string
	var quiet bool
	return &cli.Command{
		Name:    "create",
		Summary: "Register a visit and save its signed QR code",
		Description: `Register a visit for your dwelling. The backend signs the visit and
returns its QR code, which is saved as a PNG and printed to the
terminal. The gate verifies the signature when the code is scanned.`,
		Examples: []cli.Example{
			{Command: "torre-segura visit create --name 'Juan Pérez' --document 45678912 --purpose Entrega"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("create", pflag.ContinueOnError)
			flagSet.StringVar(&name, "name", "", "visitor full name (required)")
			flagSet.StringVar(&document, "document", "", "visitor identity document (required)")
			flagSet.StringVar(&purpose, "purpose", "", "reason of the visit")
			flagSet.StringVar(&outDir, "out", "", "directory for the QR image (default: next to the device storage)")
			flagSet.BoolVar(&quiet, "quiet", false, "do not draw the QR code in the terminal")
			return flagSet
		},
		Run: func(args []string) error {
			if err := a.requireFeature("visitors"); err != nil {
				return err
			}
			name, document = strings.TrimSpace(name), strings.TrimSpace(document)
			if name == "" || document == "" {
				return errors.New("--name and --document are required")
			}
			user := a.manager.Current().User
			if user.DwellingID == 0 {
				return errors.New("your profile has no dwelling assigned")
			}
			if outDir == "" {
				outDir = a.qrDir()
			}

			issued, err := issuer.New(a.client, outDir, a.logger).Issue(a.ctx, models.VisitRequest{
				VisitorName:     name,
				VisitorDocument: document,
				DwellingID:      user.DwellingID,
				Purpose:         strings.TrimSpace(purpose),
			})
			if err != nil {
				return a.check(err)
			}

			a.println(cli.Success(fmt.Sprintf("Visita %s registrada para %s", issued.Receipt.ID, name)))
			a.println("QR guardado en " + issued.PNGPath)
			if issued.PayloadText != "" {
				a.println("Contenido: " + issued.PayloadText)
			}
			if !quiet && issued.Terminal != "" {
				a.print(issued.Terminal)
			}
			return nil
		},
	}
}

func visitInviteCommand(a *app) *cli.Command {
	var visit models.Visit
	var outFile string
	return &cli.Command{
		Name:    "invite",
		Summary: "Build an unsigned invitation pass without contacting the backend",
		Description: `Build a readable invitation pass from the visit details. The pass is
not signed, so gates refuse it at the scanner; use 'visit create' for
codes that open the gate.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("invite", pflag.ContinueOnError)
			flagSet.StringVar(&visit.Name, "name", "", "visitor full name (required)")
			flagSet.StringVar(&visit.Document, "document", "", "visitor identity document (required)")
			flagSet.StringVar(&visit.Purpose, "purpose", "", "reason of the visit")
			flagSet.StringVar(&visit.DepartmentNumber, "department", "", "department being visited")
			flagSet.StringVar(&visit.WhoAuthorizes, "authorizes", "", "name of the authorizing resident (default: you)")
			flagSet.StringVar(&outFile, "out", "", "write the pass image to this PNG file")
			return flagSet
		},
		Run: func(args []string) error {
			if visit.WhoAuthorizes == "" {
				if err := a.init(); err == nil {
					visit.WhoAuthorizes = a.manager.Current().User.FullName
				}
			}
			inv, err := issuer.NewInvitation(visit)
			if err != nil {
				return err
			}
			if outFile != "" {
				if err := os.WriteFile(outFile, inv.PNG, 0o644); err != nil {
					return fmt.Errorf("write invitation: %w", err)
				}
				a.println("Invitación guardada en " + outFile)
			} else {
				a.print(inv.Terminal)
			}
			a.println(cli.Warning("Invitación sin firma: no sirve para ingresar por el escáner."))
			return nil
		},
	}
}

func scanCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "scan",
		Summary: "Verify visitor QR codes at the gate",
		Description: `Verify the text read from visitor QR codes. The code text is taken
from the argument, or one code per line from stdin. Each code is
checked with the backend once; malformed or unsigned codes are
rejected without a network call.`,
		Usage: "torre-segura scan [<code-text>]",
		Examples: []cli.Example{
			{Command: `torre-segura scan '{"id":"42","firma":"3fa1..."}'`},
			{Description: "Read codes from a scanner that types into stdin", Command: "hid-scanner | torre-segura scan"},
		},
		Run: func(args []string) error {
			if err := a.requireFeature("scan"); err != nil {
				return err
			}
			expired := false
			flow := qrflow.New(a.client, qrflow.Options{
				Logger: a.logger,
				OnSessionExpired: func(ctx context.Context) {
					expired = true
					if err := a.manager.Expire(ctx); err != nil {
						a.logger.Warn("could not clear expired session", "error", err)
					}
				},
			})

			if len(args) > 0 {
				return a.scanOne(flow, strings.Join(args, " "), &expired)
			}
			for {
				line, err := a.prompt.Line("Código: ")
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if strings.TrimSpace(line) == "" {
					continue
				}
				if err := a.scanOne(flow, line, &expired); err != nil {
					return err
				}
			}
		},
	}
}

// scanOne runs one detection cycle. Only an expired session stops the
// command; rejected codes are reported and scanning continues.
func (a *app) scanOne(flow *qrflow.Flow, raw string, expired *bool) error {
	flow.Reset()
	if err := flow.Start(); err != nil {
		return err
	}
	out, err := flow.Detect(a.ctx, raw)
	if err != nil {
		return err
	}
	if *expired {
		return errors.New("sesión expirada, inicie sesión nuevamente")
	}
	a.print(cli.RenderVerification(out.State == qrflow.StateVerified, out.Verification, rejectionMessage(out)))
	return nil
}

func rejectionMessage(out qrflow.Outcome) string {
	switch out.Reason {
	case qrflow.ReasonInvalidCode:
		return "Código QR inválido."
	case qrflow.ReasonUnsigned:
		return "Código sin firma. Pida al residente un QR generado por la app."
	case qrflow.ReasonConnectivity:
		return "Sin conexión con el servidor: " + out.Message
	case qrflow.ReasonBackendError:
		return "Error al verificar: " + out.Message
	}
	return out.Message
}
