package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/fieldorders/internal/adapter/driving/cli"
	"github.com/ericfisherdev/fieldorders/internal/config"
	"github.com/ericfisherdev/fieldorders/internal/logging"
)

// errReported marks a failure that has already been shown to the user.
var errReported = errors.New("error already reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			slog.Error("fatal error", "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	app := kingpin.New("fieldorders", "Work orders and customer signatures for field technicians.")
	app.UsageWriter(stdout)
	app.ErrorWriter(stderr)
	envFile := app.Flag("env-file", "Optional .env file with FIELDORDERS_* settings.").Default(".env").String()
	debug := app.Flag("debug", "Log at debug level.").Bool()

	loginCmd := app.Command("login", "Sign in and keep the session token.")
	loginUsername := loginCmd.Flag("username", "Technician username.").Short('u').Required().String()
	loginSave := loginCmd.Flag("save", "Remember the password for this username.").Bool()

	logoutCmd := app.Command("logout", "Forget the stored session token.")

	usersCmd := app.Command("users", "List usernames with a saved password.")

	forgetCmd := app.Command("forget", "Forget the saved password of a username.")
	forgetUsername := forgetCmd.Arg("username", "Technician username.").Required().String()

	ordersCmd := app.Command("orders", "List work orders.")

	orderCmd := app.Command("order", "Show one work order.")
	orderID := orderCmd.Arg("id", "Work order id.").Required().Int64()

	signCmd := app.Command("sign", "Capture and upload the customer signature of a work order.")
	signID := signCmd.Arg("id", "Work order id.").Required().Int64()
	signImage := signCmd.Flag("image", "Signature image, base64 text or data URI; - reads stdin.").Short('i').Required().String()

	serveCmd := app.Command("serve", "Run the local HTTP bridge for a browser signature pad.")

	sweepCmd := app.Command("sweep", "Delete signature temp files left behind by dead processes.")

	cmd, err := app.Parse(args)
	if err != nil {
		return fmt.Errorf("parsing arguments: %w", err)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	logger, err := logging.New(stderr, level, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Debug("config loaded",
		"base_url", cfg.BaseURL,
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"temp_dir", cfg.TempDir,
	)

	d, err := wire(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	c := &commands{
		deps:   d,
		render: cli.NewRenderer(stdout),
		prompt: cli.NewPasswordPrompt(stdin, stderr),
		stdin:  stdin,
	}

	switch cmd {
	case loginCmd.FullCommand():
		return c.login(ctx, *loginUsername, *loginSave)
	case logoutCmd.FullCommand():
		return c.logout(ctx)
	case usersCmd.FullCommand():
		return c.users(ctx)
	case forgetCmd.FullCommand():
		return c.forget(ctx, *forgetUsername)
	case ordersCmd.FullCommand():
		return c.listOrders(ctx)
	case orderCmd.FullCommand():
		return c.showOrder(ctx, *orderID)
	case signCmd.FullCommand():
		return c.sign(ctx, *signID, *signImage)
	case serveCmd.FullCommand():
		return c.serve(ctx)
	case sweepCmd.FullCommand():
		return c.sweep(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
