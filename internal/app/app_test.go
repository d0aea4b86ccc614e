package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	mockapp "github.com/0tycat/Joelle-E-Portfolio/internal/mockapi/app"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/folioapi"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "changeme"
)

// syncBuffer is a bytes.Buffer safe to read while the app writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	backend, err := mockapp.New(mockapp.Config{
		Addr:       ":0",
		Issuer:     "folio-mock",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Email:      testEmail,
		Password:   testPassword,
		LogLevel:   "error",
	})
	require.NoError(t, err)

	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) Config {
	return Config{
		Topology: folioapi.TopologyComposite,
		APIURL:   url,
		AuthURL:  url,
		Store:    StoreConfig{Driver: StoreMemory},
		Session: SessionConfig{
			Timeout:     30 * time.Minute,
			WarningLead: 5 * time.Minute,
		},
		LogLevel:  "error",
		LogFormat: "text",
	}
}

type harness struct {
	app    *Application
	out    *syncBuffer
	errOut *syncBuffer
	clock  *clockwork.FakeClock
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	h := &harness{app: app, out: &syncBuffer{}, errOut: &syncBuffer{}, clock: clockwork.NewFakeClock()}
	app.Stdout = h.out
	app.Stderr = h.errOut
	app.Stdin = strings.NewReader("")
	app.Clock = h.clock
	return h
}

// run executes one command and returns what it printed.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	h.out.Reset()
	err := h.app.Run(context.Background(), args)
	return h.out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err)
	return out
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	require.Contains(t, h.mustRun(t, "login", "-email", testEmail, "-password", testPassword), "Login successful")
}

func TestRecordCommands(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig(newBackend(t).URL))

	h.login(t)
	require.Equal(t, "authenticated\n", h.mustRun(t, "status"))
	require.Contains(t, h.mustRun(t, "whoami"), testEmail)

	out := h.mustRun(t, "create", "skills", `{"name":"Go","proficiency":4}`)
	require.Contains(t, out, `"message": "Skill created"`)

	out = h.mustRun(t, "list", "skills")
	require.Contains(t, out, `"count": 1`)
	require.Contains(t, out, `"name": "Go"`)

	require.Contains(t, h.mustRun(t, "get", "skills", "1"), `"proficiency": 4`)
	require.Contains(t, h.mustRun(t, "update", "skills", "1", `{"proficiency":5}`), `"proficiency": 5`)
	require.Contains(t, h.mustRun(t, "delete", "skills", "1"), "Skill deleted")

	_, err := h.run(t, "get", "skills", "1")
	require.Error(t, err)
	require.Equal(t, "Skill not found", err.Error())

	require.Contains(t, h.mustRun(t, "portfolio"), `"skills": []`)
}

func TestPayloadFromStdin(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig(newBackend(t).URL))
	h.login(t)

	h.app.Stdin = strings.NewReader(`{"title":"Capstone"}`)
	require.Contains(t, h.mustRun(t, "create", "projects", "-"), `"title": "Capstone"`)

	_, err := h.run(t, "create", "projects", "{not json")
	require.ErrorContains(t, err, "invalid JSON payload")
}

func TestLogoutThenWriteHintsLogin(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig(newBackend(t).URL))

	h.login(t)
	require.Contains(t, h.mustRun(t, "logout"), "Logged out")
	require.Equal(t, "not authenticated\n", h.mustRun(t, "status"))

	_, err := h.run(t, "create", "skills", `{"name":"Go"}`)
	require.Error(t, err)

	var hint *HintError
	require.True(t, errors.As(err, &hint))
	require.Equal(t, "Unauthorized", hint.Err.Error())
	require.Contains(t, err.Error(), "folio login")

	_, err = h.run(t, "whoami")
	require.ErrorIs(t, err, folioapi.ErrNotAuthenticated)
	require.True(t, errors.As(err, &hint))
}

func TestLogin(t *testing.T) {
	t.Parallel()
	srv := newBackend(t)

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, testConfig(srv.URL))
		_, err := h.run(t, "login", "-email", testEmail, "-password", "nope")
		require.ErrorIs(t, err, ErrLoginFailed)
	})

	t.Run("password from stdin", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, testConfig(srv.URL))
		h.app.Stdin = strings.NewReader(testPassword + "\n")
		require.Contains(t, h.mustRun(t, "login", "-email", testEmail), "Login successful")
		require.Contains(t, h.errOut.String(), "Password:")
	})

	t.Run("missing email", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, testConfig(srv.URL))
		_, err := h.run(t, "login")
		require.ErrorIs(t, err, ErrUsage)
	})
}

func TestUploadCommands(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig(newBackend(t).URL))
	h.login(t)

	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	logo := filepath.Join(dir, "acme.png")
	for _, p := range []string{a, b, logo} {
		require.NoError(t, os.WriteFile(p, []byte("data"), 0o600))
	}

	h.mustRun(t, "create", "e-portfolio", `{"title":"Reflection"}`)
	out := h.mustRun(t, "upload", "e-portfolio", "1", a, b)
	require.Contains(t, out, "/uploads/e_portfolio/1/a.pdf")
	require.Contains(t, out, "/uploads/e_portfolio/1/b.pdf")

	out = h.mustRun(t, "clear-upload", "e-portfolio", "1")
	require.NotContains(t, out, "/uploads/")

	h.mustRun(t, "create", "work", `{"company":"Acme"}`)
	require.Contains(t, h.mustRun(t, "upload", "work", "1", a), "/uploads/work/1/a.pdf")
	require.Contains(t, h.mustRun(t, "logo", "work", "1", logo), "/uploads/work/1/logo-acme.png")

	_, err := h.run(t, "upload", "skills", "1", a)
	require.ErrorContains(t, err, "does not accept file uploads")

	_, err = h.run(t, "logo", "e-portfolio", "1", logo)
	require.ErrorContains(t, err, "does not accept logos")

	_, err = h.run(t, "upload", "e-portfolio", "1", filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
}

func TestPerServiceTopology(t *testing.T) {
	t.Parallel()
	srv := newBackend(t)

	cfg := testConfig(srv.URL)
	cfg.Topology = folioapi.TopologyPerService
	cfg.Services = ServicesConfig{
		Skills: srv.URL, Education: srv.URL, Work: srv.URL,
		Community: srv.URL, Projects: srv.URL, EPortfolio: srv.URL,
	}
	h := newHarness(t, cfg)
	h.login(t)

	require.Contains(t, h.mustRun(t, "create", "community", `{"role":"Tutor"}`), "Community service record created")
	require.Contains(t, h.mustRun(t, "list", "community"), `"count": 1`)

	_, err := h.run(t, "portfolio")
	require.ErrorIs(t, err, folioapi.ErrNoAggregate)
}

func TestUsage(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig("http://127.0.0.1:1"))

	_, err := h.run(t)
	require.ErrorIs(t, err, ErrUsage)
	require.Contains(t, h.errOut.String(), "clear-upload <resource> <id>")

	_, err = h.run(t, "bogus")
	require.ErrorIs(t, err, ErrUsage)

	_, err = h.run(t, "get", "skills")
	require.ErrorIs(t, err, ErrUsage)
	require.ErrorContains(t, err, "folio get <resource> <id>")

	_, err = h.run(t, "list", "hobbies")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUsage)
}

func TestTokensPersistAcrossInvocations(t *testing.T) {
	t.Parallel()
	srv := newBackend(t)

	cfg := testConfig(srv.URL)
	cfg.Store = StoreConfig{Driver: StoreSQLite, Path: filepath.Join(t.TempDir(), "tokens.db")}

	first := newHarness(t, cfg)
	first.login(t)
	require.NoError(t, first.app.Close())

	second := newHarness(t, cfg)
	require.Equal(t, "authenticated\n", second.mustRun(t, "status"))
	require.Contains(t, second.mustRun(t, "create", "skills", `{"name":"SQL"}`), "Skill created")
}

func TestUnreachableRedisFallsBackToMemory(t *testing.T) {
	t.Parallel()
	srv := newBackend(t)

	cfg := testConfig(srv.URL)
	cfg.Store = StoreConfig{Driver: StoreRedis, RedisAddr: "127.0.0.1:1"}

	h := newHarness(t, cfg)
	h.login(t)
	require.Equal(t, "authenticated\n", h.mustRun(t, "status"))
}

func TestShellIdleExpiry(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig(newBackend(t).URL))

	stdin, input := io.Pipe()
	h.app.Stdin = stdin

	done := make(chan error, 1)
	go func() { done <- h.app.Run(context.Background(), []string{"shell"}) }()

	_, err := io.WriteString(input, "login -email "+testEmail+" -password "+testPassword+"\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(h.out.String(), "Login successful")
	}, 2*time.Second, 5*time.Millisecond)

	h.clock.Advance(25 * time.Minute)
	require.Eventually(t, func() bool {
		return strings.Contains(h.out.String(), "Your session will expire in 5 minutes due to inactivity.")
	}, 2*time.Second, 5*time.Millisecond)
	require.True(t, h.app.session.Authed())

	h.clock.Advance(5 * time.Minute)
	require.Eventually(t, func() bool {
		return strings.Contains(h.out.String(), "Your session has expired. Please log in again.")
	}, 2*time.Second, 5*time.Millisecond)
	require.False(t, h.app.session.Authed())

	_, err = io.WriteString(input, "list skills\nlogin -email "+testEmail+"\nexit\n")
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Contains(t, h.errOut.String(), "folio login -email")
	require.NoError(t, input.Close())
}

func TestShellEOF(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig(newBackend(t).URL))
	h.app.Stdin = strings.NewReader("help\n\nshell\n")

	require.NoError(t, h.app.Run(context.Background(), []string{"shell"}))
	require.Contains(t, h.out.String(), "commands:")
	require.Contains(t, h.errOut.String(), "already in a shell")
}

func TestShellPayloads(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig(newBackend(t).URL))
	h.app.Stdin = strings.NewReader(strings.Join([]string{
		"login -email " + testEmail + " -password " + testPassword,
		`create skills {"name": "Go Lang", "proficiency": 4}`,
		`update   skills 1   {"name": "Go Lang", "proficiency": 5}`,
		"create skills -",
		"list skills",
	}, "\n") + "\n")

	require.NoError(t, h.app.Run(context.Background(), []string{"shell"}))
	require.NotContains(t, h.errOut.String(), "usage:")
	require.Contains(t, h.errOut.String(), ErrStdinPayload.Error())
	require.Contains(t, h.out.String(), `"name": "Go Lang"`)
	require.Contains(t, h.out.String(), `"proficiency": 5`)
	require.Contains(t, h.out.String(), `"count": 1`)
}

func TestShellArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"list  skills", []string{"list", "skills"}},
		{`create skills {"a": 1, "b": "x y"}`, []string{"create", "skills", `{"a": 1, "b": "x y"}`}},
		{"  update\twork 7  {\"a\": 1}  ", []string{"update", "work", "7", `{"a": 1}`}},
		{"create skills", []string{"create", "skills"}},
		{"upload work 1 a.pdf b.pdf", []string{"upload", "work", "1", "a.pdf", "b.pdf"}},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, shellArgs(tt.line), tt.line)
	}
}

func TestReadLinesStopsWhenDone(t *testing.T) {
	t.Parallel()

	lines := make(chan string)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		readLines(strings.NewReader("first\nsecond\nthird\n"), lines, done)
		close(finished)
	}()

	require.Equal(t, "first", <-lines)
	close(done)

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("reader kept running after done was closed")
	}
}
