package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/folioapi"
)

var (
	ErrUsage        = errors.New("usage")
	ErrLoginFailed  = errors.New("login failed: check your email and password")
	ErrStdinPayload = errors.New("reading a payload from stdin is not available in the shell, pass the JSON inline")
)

const loginHint = "Your session has expired or you are not logged in. Run 'folio login' to sign in."

// HintError decorates err with a follow-up suggestion for the user.
type HintError struct {
	Err  error
	Hint string
}

func (e *HintError) Error() string { return e.Err.Error() + "\n" + e.Hint }
func (e *HintError) Unwrap() error { return e.Err }

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

func (app *Application) commands() map[string]command {
	return map[string]command{
		"login":        {"login -email <email> [-password <password>]", app.cmdLogin},
		"logout":       {"logout", app.cmdLogout},
		"status":       {"status", app.cmdStatus},
		"whoami":       {"whoami", app.cmdWhoami},
		"list":         {"list <resource>", app.cmdList},
		"get":          {"get <resource> <id>", app.cmdGet},
		"create":       {"create <resource> <json|->", app.cmdCreate},
		"update":       {"update <resource> <id> <json|->", app.cmdUpdate},
		"delete":       {"delete <resource> <id>", app.cmdDelete},
		"upload":       {"upload <resource> <id> <file>...", app.cmdUpload},
		"clear-upload": {"clear-upload <resource> <id>", app.cmdClearUpload},
		"logo":         {"logo <resource> <id> <file>", app.cmdLogo},
		"portfolio":    {"portfolio", app.cmdPortfolio},
		"shell":        {"shell", app.cmdShell},
	}
}

// Run executes one command. Request failures print the server's message;
// a 401 additionally carries a login hint.
func (app *Application) Run(ctx context.Context, args []string) error {
	app.out = &lockedWriter{w: app.Stdout}
	app.session.Load(ctx)
	return app.dispatch(ctx, args)
}

func (app *Application) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		app.usage(app.Stderr)
		return ErrUsage
	}

	cmd, ok := app.commands()[args[0]]
	if !ok {
		app.usage(app.Stderr)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	err := cmd.run(ctx, args[1:])
	if errors.Is(err, ErrUsage) {
		return fmt.Errorf("%w: folio %s", ErrUsage, cmd.usage)
	}
	if folioapi.StatusCode(err) == http.StatusUnauthorized || errors.Is(err, folioapi.ErrNotAuthenticated) {
		return &HintError{Err: err, Hint: loginHint}
	}
	return err
}

func (app *Application) usage(w io.Writer) {
	cmds := app.commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: folio [--config file] <command> [args]")
	fmt.Fprintln(w, "\nresources: skills, education, work, projects, community, e-portfolio")
	fmt.Fprintln(w, "\ncommands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", cmds[name].usage)
	}
}

func (app *Application) printJSON(v any) error {
	enc := json.NewEncoder(app.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (app *Application) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (read from stdin when omitted)")
	if err := fs.Parse(args); err != nil || *email == "" {
		return ErrUsage
	}

	if *password == "" {
		// The shell owns stdin.
		if app.interactive {
			return ErrUsage
		}
		fmt.Fprint(app.Stderr, "Password: ")
		line, err := bufio.NewReader(app.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	if !app.session.Login(ctx, *email, *password) {
		return ErrLoginFailed
	}
	fmt.Fprintln(app.out, "Login successful")
	return nil
}

func (app *Application) cmdLogout(ctx context.Context, _ []string) error {
	app.session.Logout(ctx)
	fmt.Fprintln(app.out, "Logged out")
	return nil
}

func (app *Application) cmdStatus(ctx context.Context, _ []string) error {
	if app.session.Initialize(ctx) {
		fmt.Fprintln(app.out, "authenticated")
	} else {
		fmt.Fprintln(app.out, "not authenticated")
	}
	return nil
}

func (app *Application) cmdWhoami(ctx context.Context, _ []string) error {
	user, err := app.session.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "%s (%s)\n", user.Email, user.ID)
	return nil
}

func (app *Application) resource(name string) (folioapi.Kind, *folioapi.Resource, error) {
	kind, err := folioapi.ParseKind(name)
	if err != nil {
		return "", nil, err
	}
	return kind, app.api.Resource(kind), nil
}

func (app *Application) cmdList(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	_, r, err := app.resource(args[0])
	if err != nil {
		return err
	}
	rec, err := r.List(ctx)
	if err != nil {
		return err
	}
	return app.printJSON(rec)
}

func (app *Application) cmdGet(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	_, r, err := app.resource(args[0])
	if err != nil {
		return err
	}
	rec, err := r.Get(ctx, args[1])
	if err != nil {
		return err
	}
	return app.printJSON(rec)
}

// payload parses a JSON argument, or stdin when arg is "-".
func (app *Application) payload(arg string) (any, error) {
	raw := []byte(arg)
	if arg == "-" {
		// The shell owns stdin.
		if app.interactive {
			return nil, ErrStdinPayload
		}
		b, err := io.ReadAll(app.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		raw = b
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return v, nil
}

func (app *Application) cmdCreate(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	_, r, err := app.resource(args[0])
	if err != nil {
		return err
	}
	body, err := app.payload(args[1])
	if err != nil {
		return err
	}
	rec, err := r.Create(ctx, body)
	if err != nil {
		return err
	}
	return app.printJSON(rec)
}

func (app *Application) cmdUpdate(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	_, r, err := app.resource(args[0])
	if err != nil {
		return err
	}
	body, err := app.payload(args[2])
	if err != nil {
		return err
	}
	rec, err := r.Update(ctx, args[1], body)
	if err != nil {
		return err
	}
	return app.printJSON(rec)
}

func (app *Application) cmdDelete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	_, r, err := app.resource(args[0])
	if err != nil {
		return err
	}
	rec, err := r.Delete(ctx, args[1])
	if err != nil {
		return err
	}
	return app.printJSON(rec)
}

func (app *Application) files(name string) (*folioapi.FileResource, error) {
	kind, err := folioapi.ParseKind(name)
	if err != nil {
		return nil, err
	}
	r, ok := app.api.Files(kind)
	if !ok {
		return nil, fmt.Errorf("%s does not accept file uploads", kind)
	}
	return r, nil
}

// openAll opens every path for upload. The returned closer closes them all.
func openAll(paths []string) ([]folioapi.File, func(), error) {
	var (
		files   []folioapi.File
		handles []*os.File
	)
	closeAll := func() {
		for _, h := range handles {
			_ = h.Close()
		}
	}

	for _, p := range paths {
		f, h, err := folioapi.OpenFile(p)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		handles = append(handles, h)
	}
	return files, closeAll, nil
}

func (app *Application) cmdUpload(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return ErrUsage
	}
	r, err := app.files(args[0])
	if err != nil {
		return err
	}

	files, closeAll, err := openAll(args[2:])
	if err != nil {
		return err
	}
	defer closeAll()

	var rec folioapi.Record
	if len(files) == 1 {
		rec, err = r.UploadFile(ctx, args[1], files[0])
	} else {
		rec, err = r.UploadFiles(ctx, args[1], files...)
	}
	if err != nil {
		return err
	}
	return app.printJSON(rec)
}

func (app *Application) cmdClearUpload(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	r, err := app.files(args[0])
	if err != nil {
		return err
	}
	rec, err := r.ClearFile(ctx, args[1])
	if err != nil {
		return err
	}
	return app.printJSON(rec)
}

func (app *Application) cmdLogo(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	kind, err := folioapi.ParseKind(args[0])
	if err != nil {
		return err
	}
	r, ok := app.api.Logos(kind)
	if !ok {
		return fmt.Errorf("%s does not accept logos", kind)
	}

	files, closeAll, err := openAll(args[2:])
	if err != nil {
		return err
	}
	defer closeAll()

	rec, err := r.UploadLogo(ctx, args[1], files[0])
	if err != nil {
		return err
	}
	return app.printJSON(rec)
}

func (app *Application) cmdPortfolio(ctx context.Context, _ []string) error {
	rec, err := app.api.Portfolio(ctx)
	if err != nil {
		return err
	}
	return app.printJSON(rec)
}
