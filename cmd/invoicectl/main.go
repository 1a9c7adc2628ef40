// Command invoicectl drives the invoice pipeline from a terminal: list saved
// invoices, reopen one, render it and push it through a delivery channel.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/bootstrap"
	"github.com/diewo77/invoice-relay/internal/config"
	"github.com/diewo77/invoice-relay/internal/delivery"
	"github.com/diewo77/invoice-relay/internal/export"
	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/diewo77/invoice-relay/internal/services"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newCLI().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "invoicectl",
		Usage: "manage invoices and send them through the delivery channels",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file to load"},
			&cli.StringFlag{Name: "lang", Usage: "message language (fr, en)"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log to stderr"},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list saved invoices",
				Action: withApp(listInvoices),
			},
			{
				Name:      "open",
				Usage:     "load a saved invoice into the editor draft",
				ArgsUsage: "<number>",
				Action:    withApp(openInvoice),
			},
			{
				Name:  "new",
				Usage: "discard the draft and start a fresh invoice",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "yes", Usage: "confirm discarding the current draft"}},
				Action: withApp(func(c *cli.Context, app *bootstrap.App) error {
					inv, err := app.Service.NewInvoice(c.Context, c.Bool("yes"))
					if err != nil {
						return describe(c, err)
					}
					fmt.Fprintln(c.App.Writer, i18n.Tf(i18n.LangFrom(c.Context), "new_invoice_created", inv.InvoiceNumber))
					return nil
				}),
			},
			{
				Name:   "download",
				Usage:  "render the draft and save the PDF in the output directory",
				Action: withApp(download),
			},
			{
				Name:  "send",
				Usage: "render the draft and send it through one channel",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "channel", Aliases: []string{"c"}, Value: delivery.ChannelWebhook, Usage: "webhook, email or print"},
				},
				Action: withApp(send),
			},
			{
				Name:  "test-connection",
				Usage: "send a synthetic request through a relay",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "channel", Aliases: []string{"c"}, Value: delivery.ChannelWebhook, Usage: "webhook or email"},
				},
				Action: withApp(testConnection),
			},
			{
				Name:  "register",
				Usage: "export saved invoices to a spreadsheet",
				Flags: []cli.Flag{&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output .xlsx path"}},
				Action: withApp(register),
			},
		},
	}
}

type action func(c *cli.Context, app *bootstrap.App) error

// withApp loads configuration, assembles the application and tags the context with the language.
func withApp(fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		_ = godotenv.Load(c.String("env-file"))
		cfg := config.Load()

		lg := zap.NewNop()
		if c.Bool("verbose") {
			var err error
			if lg, err = zap.NewDevelopment(); err != nil {
				return err
			}
		}
		app, err := bootstrap.New(c.Context, cfg, lg)
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		lang := c.String("lang")
		if !i18n.Supported(lang) {
			lang = cfg.App.Lang
		}
		c.Context = i18n.WithLang(c.Context, lang)
		return fn(c, app)
	}
}

func listInvoices(c *cli.Context, app *bootstrap.App) error {
	invs, err := app.Service.ListInvoices(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tDATE\tCLIENT\tTOTAL")
	for _, inv := range invs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", inv.InvoiceNumber, inv.InvoiceDate, inv.Client.Name, models.FormatAmount(inv.TotalInclTax()))
	}
	return tw.Flush()
}

func openInvoice(c *cli.Context, app *bootstrap.App) error {
	number := c.Args().First()
	if number == "" {
		return cli.Exit("missing invoice number", 2)
	}
	inv, err := app.Service.Open(c.Context, number)
	if err != nil {
		return describe(c, err)
	}
	if _, err := app.Service.AutosaveOnce(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, i18n.Tf(i18n.LangFrom(c.Context), "invoice_opened", inv.InvoiceNumber))
	return nil
}

func download(c *cli.Context, app *bootstrap.App) error {
	res, err := app.Service.Download(c.Context)
	if err != nil {
		return describe(c, err)
	}
	report(c, res)
	return nil
}

func send(c *cli.Context, app *bootstrap.App) error {
	var (
		res *services.Result
		err error
	)
	if ch := c.String("channel"); ch == delivery.ChannelPrint {
		res, err = app.Service.Print(c.Context)
	} else {
		res, err = app.Service.Send(c.Context, ch)
	}
	if err != nil {
		return describe(c, err)
	}
	report(c, res)
	return nil
}

func testConnection(c *cli.Context, app *bootstrap.App) error {
	var out delivery.Outcome
	switch ch := c.String("channel"); ch {
	case delivery.ChannelWebhook:
		out = app.Webhook.Test(c.Context)
	case delivery.ChannelEmail:
		out = app.Email.Test(c.Context)
	default:
		return cli.Exit(i18n.Tf(i18n.LangFrom(c.Context), "unknown_channel", ch), 2)
	}
	if _, failed := delivery.AsFailure(out); failed {
		return cli.Exit(out.Summary(), 1)
	}
	fmt.Fprintln(c.App.Writer, out.Summary())
	return nil
}

func register(c *cli.Context, app *bootstrap.App) error {
	invs, err := app.Service.ListInvoices(c.Context)
	if err != nil {
		return err
	}
	path := c.String("out")
	if path == "" {
		path = export.Filename(app.Service.Current().InvoiceDate)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteRegister(f, invs, i18n.LangFrom(c.Context)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, path)
	return nil
}

func report(c *cli.Context, res *services.Result) {
	for _, w := range res.Warnings {
		fmt.Fprintln(c.App.ErrWriter, w)
	}
	fmt.Fprintln(c.App.Writer, res.Message)
}

// describe turns a pipeline error into the translated message and a non-zero exit.
func describe(c *cli.Context, err error) error {
	lang := i18n.LangFrom(c.Context)
	var ve *services.ValidationError
	var de *services.DeliveryError
	switch {
	case errors.As(err, &ve):
		return cli.Exit(i18n.Tf(lang, "validation_failed", strings.Join(ve.Reasons, ", ")), 1)
	case errors.As(err, &de):
		return cli.Exit(de.Failure.Message, 1)
	case errors.Is(err, services.ErrConfirmationRequired):
		return cli.Exit(i18n.T(lang, "confirmation_required"), 1)
	case services.IsNotFound(err):
		return cli.Exit(i18n.T(lang, "not_found"), 1)
	}
	return err
}
