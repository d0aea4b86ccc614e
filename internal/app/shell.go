package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/eventx"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/idle"
)

// cmdShell reads commands line by line until EOF, "exit" or ctx is done.
// Every line counts as a key press for the inactivity monitor.
func (app *Application) cmdShell(ctx context.Context, _ []string) error {
	feed := idle.NewFeed()
	monitor := idle.New(app.session, app.bus, idle.Config{
		Timeout:     app.cfg.Session.Timeout,
		WarningLead: app.cfg.Session.WarningLead,
		Clock:       app.Clock,
		Logger:      app.logger,
	})

	unsubWarn := app.bus.Subscribe(eventx.TopicSessionWarning, func(e eventx.Event) {
		fmt.Fprintln(app.out, e.Message)
	})
	defer unsubWarn()
	unsubExpired := app.bus.Subscribe(eventx.TopicSessionExpired, func(e eventx.Event) {
		fmt.Fprintln(app.out, e.Message)
		fmt.Fprintln(app.out, "Run 'login -email <email> -password <password>' to sign in again.")
	})
	defer unsubExpired()

	if app.cfg.MetricsAddr != "" {
		stop := app.serveMetrics()
		defer stop()
	}

	app.interactive = true
	defer func() { app.interactive = false }()

	app.session.Initialize(ctx)
	monitor.Start(feed)
	defer monitor.Stop()

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go readLines(app.Stdin, lines, done)

	fmt.Fprintln(app.out, "folio shell. Type 'help' for commands, 'exit' to quit.")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			feed.Emit(idle.KeyPress)

			args := shellArgs(line)
			if len(args) == 0 {
				continue
			}
			switch args[0] {
			case "exit", "quit":
				return nil
			case "help":
				app.usage(app.out)
				continue
			case "shell":
				fmt.Fprintln(app.Stderr, "already in a shell")
				continue
			}

			if err := app.dispatch(ctx, args); err != nil {
				fmt.Fprintln(app.Stderr, err)
			}
		}
	}
}

// readLines sends each line of r to lines until EOF or done is closed, then
// closes lines. A Read already blocked on r when the shell exits only returns
// with the next line or EOF; stdin cannot be interrupted portably.
func readLines(r io.Reader, lines chan<- string, done <-chan struct{}) {
	defer close(lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-done:
			return
		}
	}
}

// payloadArgs maps commands whose last argument is a JSON payload to the
// number of words before it.
var payloadArgs = map[string]int{
	"create": 2,
	"update": 3,
}

// shellArgs splits line on whitespace. For payload commands everything after
// the leading words is kept as one argument, so JSON may contain spaces.
func shellArgs(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	n, ok := payloadArgs[fields[0]]
	if !ok || len(fields) <= n {
		return fields
	}

	args := make([]string, 0, n+1)
	rest := strings.TrimSpace(line)
	for len(args) < n {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		args = append(args, rest[:i])
		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
	}
	return append(args, rest)
}

// serveMetrics exposes the client metrics until the returned func is called.
func (app *Application) serveMetrics() (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              app.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("metrics listener failed", "addr", app.cfg.MetricsAddr, "err", err)
		}
	}()
	app.logger.Info("serving metrics", "addr", app.cfg.MetricsAddr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
