package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"torresegura/internal/cli"
	"torresegura/internal/models"
)

func entriesCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "entries",
		Summary: "Presence list at the gate",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Summary: "List residents and visitors inside",
				Run: func(args []string) error {
					if err := a.requireFeature("entries"); err != nil {
						return err
					}
					entries, err := a.community().Entries(a.ctx)
					if err != nil {
						return a.check(err)
					}
					a.print(cli.RenderEntries(entries))
					return nil
				},
			},
			{
				Name:    "exit",
				Summary: "Record that a person left",
				Usage:   "torre-segura entries exit <entry-id>",
				Run: func(args []string) error {
					if len(args) != 1 {
						return errors.New("usage: torre-segura entries exit <entry-id>")
					}
					if err := a.requireFeature("entries"); err != nil {
						return err
					}
					svc := a.community()
					entry, err := svc.FindEntry(a.ctx, args[0])
					if err != nil {
						return a.check(err)
					}
					message, err := svc.MarkExit(a.ctx, entry)
					if err != nil {
						return a.check(err)
					}
					a.println(cli.Success(message))
					return nil
				},
			},
		},
	}
}

func areasCommand(a *app) *cli.Command {
	var reservation models.Reservation
	return &cli.Command{
		Name:    "areas",
		Summary: "Common areas and reservations",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Summary: "List the common areas",
				Run: func(args []string) error {
					if err := a.requireFeature("areas"); err != nil {
						return err
					}
					areas, err := a.community().Areas(a.ctx)
					if err != nil {
						return a.check(err)
					}
					a.print(cli.RenderAreas(areas))
					return nil
				},
			},
			{
				Name:    "reserve",
				Summary: "Reserve a common area",
				Usage:   "torre-segura areas reserve <area-id> --date YYYY-MM-DD --start HH:MM --end HH:MM",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("reserve", pflag.ContinueOnError)
					flagSet.StringVar(&reservation.Date, "date", "", "day of the reservation (YYYY-MM-DD)")
					flagSet.StringVar(&reservation.StartTime, "start", "", "start time (HH:MM)")
					flagSet.StringVar(&reservation.EndTime, "end", "", "end time (HH:MM)")
					return flagSet
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return errors.New("an area id is required")
					}
					if err := a.requireFeature("areas"); err != nil {
						return err
					}
					reservation.AreaID = args[0]
					created, err := a.community().Reserve(a.ctx, reservation)
					if err != nil {
						return a.check(err)
					}
					a.println(cli.Success(fmt.Sprintf("Reserva %s confirmada: %s %s-%s",
						created.ID, created.Date, created.StartTime, created.EndTime)))
					return nil
				},
			},
		},
	}
}

func expensesCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "expenses",
		Summary: "Pending expenses of your dwelling",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Summary: "List unpaid expenses",
				Run: func(args []string) error {
					if err := a.requireFeature("payments"); err != nil {
						return err
					}
					expenses, err := a.community().Expenses(a.ctx)
					if err != nil {
						return a.check(err)
					}
					a.print(cli.RenderExpenses(expenses))
					return nil
				},
			},
		},
	}
}

func payCommand(a *app) *cli.Command {
	var method, details string
	return &cli.Command{
		Name:    "pay",
		Summary: "Pay a pending expense",
		Usage:   "torre-segura pay <expense-id> --method transfer|card|qr [--details <text>]",
		Examples: []cli.Example{
			{Command: "torre-segura pay 1 --method qr"},
			{Command: "torre-segura pay 2 --method transfer --details 'BCP 191-0000'"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("pay", pflag.ContinueOnError)
			flagSet.StringVar(&method, "method", "", "payment method: transfer, card or qr")
			flagSet.StringVar(&details, "details", "", "transfer reference or card details (not needed for qr)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return errors.New("an expense id is required")
			}
			if err := a.requireFeature("payments"); err != nil {
				return err
			}
			svc := a.community()
			expense, err := svc.FindExpense(a.ctx, args[0])
			if err != nil {
				return a.check(err)
			}
			message, err := svc.Pay(a.ctx, expense, method, details)
			if err != nil {
				return a.check(err)
			}
			a.println(cli.Success(message))
			return nil
		},
	}
}

func alertCommand(a *app) *cli.Command {
	var alert models.Alert
	return &cli.Command{
		Name:    "alert",
		Summary: "Send an alert to the building staff",
		Usage:   "torre-segura alert --title <text> [--description <text>] [--type <kind>]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("alert", pflag.ContinueOnError)
			flagSet.StringVar(&alert.Title, "title", "", "short title (required)")
			flagSet.StringVar(&alert.Description, "description", "", "what happened")
			flagSet.StringVar(&alert.Type, "type", "general", "alert kind")
			return flagSet
		},
		Run: func(args []string) error {
			if err := a.init(); err != nil {
				return err
			}
			if err := a.community().SendAlert(a.ctx, alert); err != nil {
				return a.check(err)
			}
			a.println(cli.Success("Alerta enviada."))
			return nil
		},
	}
}

func notificationsCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:    "notifications",
		Summary: "Notifications stored on this device",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Summary: "Show notifications, newest first",
				Run: func(args []string) error {
					if err := a.init(); err != nil {
						return err
					}
					items, err := a.notes.List(a.ctx)
					if err != nil {
						return err
					}
					a.print(cli.RenderNotifications(items))
					return nil
				},
			},
			{
				Name:    "clear",
				Summary: "Delete all notifications",
				Run: func(args []string) error {
					if err := a.init(); err != nil {
						return err
					}
					if err := a.notes.Clear(a.ctx); err != nil {
						return err
					}
					a.println("Notificaciones borradas.")
					return nil
				},
			},
		},
	}
}
