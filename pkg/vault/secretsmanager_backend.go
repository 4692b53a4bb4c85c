package vault

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerBackend resolves secrets from AWS Secrets Manager under a
// single root secret path, with one record per agent nested inside its
// JSON value. Secrets Manager's path-based secret model matches the "shared
// secret at a nested path" language directly, which is why this module
// reaches for Secrets Manager rather than KMS for the production backend.
type SecretsManagerBackend struct {
	client   *secretsmanager.Client
	rootName string
}

// NewSecretsManagerBackend loads the default AWS config (region, creds
// chain) and targets rootName as the Secrets Manager secret holding every
// agent's key, keyed by agent name within its JSON value.
func NewSecretsManagerBackend(ctx context.Context, rootName string) (*SecretsManagerBackend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SecretsManagerBackend{
		client:   secretsmanager.NewFromConfig(cfg),
		rootName: rootName,
	}, nil
}

// GetSecret fetches the root secret and extracts the field named name from
// its JSON object, tolerating either a nested "user-agents/<name>" key or a
// bare top-level "<name>" key within that object.
func (b *SecretsManagerBackend) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := b.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(b.rootName),
	})
	if err != nil {
		return "", fmt.Errorf("get secret value: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", b.rootName)
	}

	fields, err := decodeSecretFields(*out.SecretString)
	if err != nil {
		return "", fmt.Errorf("decode secret %s: %w", b.rootName, err)
	}

	if v, ok := fields["user-agents/"+name]; ok {
		return v, nil
	}
	if v, ok := fields[name]; ok {
		return v, nil
	}
	return "", nil
}
