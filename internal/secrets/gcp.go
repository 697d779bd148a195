package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"
)

// Accessor reads secret payloads.
type Accessor interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// GCPSecretManager reads the latest version of secrets in one project.
type GCPSecretManager struct {
	client    *secretmanager.Client
	projectID string
	logger    zerolog.Logger
}

var _ Accessor = (*GCPSecretManager)(nil)

// NewGCPSecretManager dials Secret Manager with application default credentials.
func NewGCPSecretManager(ctx context.Context, projectID string, logger zerolog.Logger) (*GCPSecretManager, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create secretmanager client: %w", err)
	}
	return &GCPSecretManager{
		client:    client,
		projectID: projectID,
		logger:    logger.With().Str("component", "secrets").Logger(),
	}, nil
}

// GetSecret returns the trimmed payload of the latest secret version.
func (g *GCPSecretManager) GetSecret(ctx context.Context, name string) (string, error) {
	res, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: VersionName(g.projectID, name),
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(res.GetPayload().GetData())), nil
}

// Close releases the client connection.
func (g *GCPSecretManager) Close() error {
	return g.client.Close()
}

// VersionName builds the resource name of a secret's latest version.
func VersionName(project, secret string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, secret)
}

// Resolve returns current when set; otherwise it asks the accessor. Lookup
// failures are logged and yield an empty string so callers surface their own
// missing-credential error.
func Resolve(ctx context.Context, current string, acc Accessor, name string, logger zerolog.Logger) string {
	if current != "" || acc == nil || name == "" {
		return current
	}
	v, err := acc.GetSecret(ctx, name)
	if err != nil {
		logger.Warn().Err(err).Str("secret", name).Msg("secret lookup failed")
		return ""
	}
	return v
}
