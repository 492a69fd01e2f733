// Command posdash is the terminal side of the POS dashboard client. It
// signs in against the backend, keeps the session on the device and serves
// the local dashboard.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/otot/posdash/internal/app"
	"github.com/otot/posdash/pkg/auth"
	"github.com/otot/posdash/pkg/config"
	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/navigation"
)

const usage = `usage: posdash [-env file] <command> [flags]

commands:
  login    sign in; the password is read from standard input
  logout   sign out and forget the saved login details
  whoami   print the current session
  open     check whether a route may be shown, signing in silently if allowed
  forgot   send a password reset link
  lang     print or change the preferred language
  serve    run the local dashboard server
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "posdash:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	global := flag.NewFlagSet("posdash", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	envFile := global.String("env", ".env", "dotenv file to load")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	cfg, err := config.Load(config.WithEnvFiles(*envFile))
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.Logger.WarnContext(ctx, "close failed", logger.Error(err))
		}
	}()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "login":
		return login(ctx, a, rest, stdin, stdout)
	case "logout":
		a.Auth.Logout(ctx)
		fmt.Fprintln(stdout, a.Catalog.T(a.Prefs.Get(ctx), "session.logged_out"))
		return nil
	case "whoami":
		return whoami(ctx, a, stdout)
	case "open":
		return open(ctx, a, rest, stdout)
	case "forgot":
		return forgot(ctx, a, rest, stdout)
	case "lang":
		return lang(ctx, a, rest, stdout)
	case "serve":
		return a.Serve(ctx)
	}
	global.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func login(ctx context.Context, a *app.App, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	systemID := fs.String("system", "", "system id (defaults to the last one used)")
	user := fs.String("user", "", "user name")
	autoLogin := fs.Bool("auto-login", true, "sign in silently on this device next time")
	returnURL := fs.String("return", "", "route to open after signing in")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sys := a.Auth.Prefill(ctx, *systemID).SystemID
	if *systemID != "" {
		sys = *systemID
	}
	password, err := readLine(stdin)
	if err != nil {
		return err
	}

	res, err := a.Auth.Submit(ctx, auth.Form{
		SystemID:  sys,
		UserName:  *user,
		Password:  password,
		AutoLogin: *autoLogin,
	}, *returnURL)
	if err != nil {
		return userError(ctx, a, err)
	}

	name := *user
	if res.Record.HasProfile() && res.Record.User.PersonalData.FirstName != "" {
		name = res.Record.User.PersonalData.FirstName
	}
	fmt.Fprintf(stdout, "signed in as %s, opening %s\n", name, res.Destination)
	return nil
}

func whoami(ctx context.Context, a *app.App, stdout io.Writer) error {
	rec := a.Store.Get(ctx)
	if !rec.IsAuthenticated() {
		return errors.New(a.Catalog.T(a.Prefs.Get(ctx), "session.expired"))
	}
	out := map[string]any{
		"authorizedUserId":   rec.AuthorizedUserID,
		"authorizationLevel": rec.AuthorizationLevel.String(),
		"accountType":        rec.AccountType().String(),
		"mainApp":            navigation.MainAppPath(rec.AccountType()),
	}
	if rec.HasProfile() {
		out["user"] = rec.User
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func open(ctx context.Context, a *app.App, args []string, stdout io.Writer) error {
	target := navigation.DashboardPath
	if len(args) > 0 {
		target = args[0]
	}
	d := a.Guard.Check(ctx, target)
	if d.Allowed() {
		fmt.Fprintf(stdout, "%s: %s\n", d.State, target)
		return nil
	}
	fmt.Fprintf(stdout, "%s: sign in at %s\n", d.State, d.Redirect)
	return errors.New(a.Catalog.T(a.Prefs.Get(ctx), "session.expired"))
}

func forgot(ctx context.Context, a *app.App, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("forgot", flag.ContinueOnError)
	systemID := fs.String("system", "", "system id (defaults to the last one used)")
	method := fs.String("method", "email", "delivery method: email or mobile")
	to := fs.String("to", "", "email address or phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sys := *systemID
	if sys == "" {
		sys = a.Details.SystemID(ctx)
	}
	if err := a.Auth.ForgotPassword(ctx, auth.ForgotForm{SystemID: sys, Method: *method, Destination: *to}); err != nil {
		return userError(ctx, a, err)
	}
	fmt.Fprintln(stdout, a.Catalog.T(a.Prefs.Get(ctx), "forgot.sent", "destination", strings.TrimSpace(*to)))
	return nil
}

func lang(ctx context.Context, a *app.App, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stdout, a.Prefs.Get(ctx))
		return nil
	}
	code, err := a.Prefs.Set(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, a.Catalog.T(code, "language.changed"))
	return nil
}

// userError renders err the way the login screen shows it.
func userError(ctx context.Context, a *app.App, err error) error {
	lang := a.Prefs.Get(ctx)
	var ve *auth.ValidationError
	if errors.As(err, &ve) {
		return errors.New(strings.Join(ve.Messages(a.Catalog, lang), "; "))
	}
	a.Logger.DebugContext(ctx, "request failed", logger.Error(err))
	return errors.New(a.Catalog.Message(lang, err))
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
