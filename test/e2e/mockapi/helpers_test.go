package mockapi_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/eventx"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/folioapi"
	"github.com/0tycat/Joelle-E-Portfolio/pkg/slogx"
)

/*
 * Helpers for the mock backend end-to-end tests: image build, container
 * setup and a logged-in client session.
 */

const (
	testImageName = "folio-mock-test:latest"

	adminEmail    = "admin@example.com"
	adminPassword = "Admin123!"
	jwtSecret     = "e2e-secret-that-is-at-least-32-bytes-long"
)

// imageErr is set when the image could not be built; tests skip on it.
var imageErr error

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	flag.Parse()
	if !testing.Short() {
		fmt.Fprintf(os.Stdout, "Building folio-mock Docker image...")
		if imageErr = buildDockerImage(); imageErr != nil {
			fmt.Fprintf(os.Stdout, " skipped: %v\n", imageErr)
		} else {
			fmt.Fprintf(os.Stdout, " done\n")
		}
	}

	exitCode := m.Run()

	if imageErr == nil && !testing.Short() {
		cleanupDockerImage()
	}
	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/folio-mock/Dockerfile",
		"../../../")
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run()
}

// setupMockContainer starts folio-mock and returns its base URL. extraEnv
// overrides the defaults.
func setupMockContainer(t *testing.T, extraEnv map[string]string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("e2e: skipped in short mode")
	}
	if imageErr != nil {
		t.Skipf("e2e: docker image unavailable: %v", imageErr)
	}
	ctx := context.Background()

	env := map[string]string{
		"MOCK_EMAIL":      adminEmail,
		"MOCK_PASSWORD":   adminPassword,
		"MOCK_JWT_SECRET": jwtSecret,
		"MOCK_SEED":       "false",
		"ENV":             "test",
		"LOG_LEVEL":       "info",
		"LOG_FORMAT":      "json",
		// Relaxed so multi-step flows never hit the login limiter.
		"RATELIMIT_LOGIN_REQUESTS": "1000",
		"RATELIMIT_LOGIN_BURST":    "1000",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8000/tcp"},
			Env:          env,
			WaitingFor: wait.ForHTTP("/livez").
				WithPort("8000/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8000")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// newSession returns a session and composite API bound to baseURL.
func newSession(baseURL string) (*folioapi.Session, *folioapi.API, *eventx.Bus) {
	bus := eventx.New()
	session := folioapi.NewSession(folioapi.NewClient(baseURL, nil), nil, bus, slogx.Discard())
	return session, folioapi.NewAPI(folioapi.Composite(baseURL), session, nil), bus
}

// performLogin logs in as the seeded account and fails the test otherwise.
func performLogin(t *testing.T, session *folioapi.Session) {
	t.Helper()
	require.True(t, session.Login(t.Context(), adminEmail, adminPassword), "login should succeed")
	require.True(t, session.Authed())
	require.NotEmpty(t, session.Tokens().Refresh)
}
