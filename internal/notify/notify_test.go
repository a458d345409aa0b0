package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"akleg-data/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func failure() Failure {
	return Failure{
		RunId:  "5f0c",
		Branch: "data-latest",
		Stage:  "ingest",
		Start:  time.Date(2025, 1, 20, 8, 0, 0, 0, time.UTC),
		Err:    errors.New("integrity violation [unmapped-member]: scraped members without a person: 31:ABC"),
	}
}

func TestCompose(t *testing.T) {
	n := NewNotifier(SmtpConfig{
		Server:       "localhost",
		EmailAddress: "bot@example.com",
		Recipients:   []string{"ops@example.com"},
	}, telemetry.NewRecorder())

	mail := n.compose(failure())
	require.Equal(t, "akleg-data <bot@example.com>", mail.From)
	require.Equal(t, []string{"ops@example.com"}, mail.To)
	require.Equal(t, "akleg-data: batch data-latest failed at ingest", mail.Subject)
	require.Contains(t, string(mail.Text), "unmapped-member")
	require.Contains(t, string(mail.Text), "2025-01-20T08:00:00Z")
}

func TestDisabled(t *testing.T) {
	rec := telemetry.NewRecorder()
	require.NoError(t, NewNotifier(SmtpConfig{}, rec).NotifyFailure(context.Background(), failure()))
	var nilNotifier *Notifier
	require.NoError(t, nilNotifier.NotifyFailure(context.Background(), failure()))
	require.Empty(t, rec.Reports("broken"))
}

func TestNotifyFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("smtp container skipped in short mode")
	}

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "haravich/fake-smtp-server",
			ExposedPorts: []string{"1025/tcp", "1080/tcp"},
			WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
		},
	})
	if err != nil {
		t.Skipf("could not start smtp container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	smtpPort, err := container.MappedPort(ctx, "1025/tcp")
	require.NoError(t, err)
	webPort, err := container.MappedPort(ctx, "1080/tcp")
	require.NoError(t, err)

	n := NewNotifier(SmtpConfig{
		Server:       host,
		Port:         smtpPort.Int(),
		EmailAddress: "bot@example.com",
		Password:     "default",
		Recipients:   []string{"ops@example.com"},
	}, telemetry.NewRecorder())
	require.NoError(t, n.NotifyFailure(ctx, failure()))

	res, err := resty.New().R().Get(fmt.Sprintf("http://%s:%s/messages/1.plain", host, webPort.Port()))
	require.NoError(t, err)
	require.True(t, strings.Contains(res.String(), "unmapped-member"), res.String())
}
