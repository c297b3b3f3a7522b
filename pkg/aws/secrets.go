package aws

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// DefaultSecretsPrefix namespaces the purchase import secrets in Secrets Manager
const DefaultSecretsPrefix = "purchase-import"

type secretValueGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ServiceSecrets reads the string secrets stored under <prefix>/<KEY>. Values
// are cached per key for the life of the client.
type ServiceSecrets struct {
	client secretValueGetter
	prefix string

	mu    sync.RWMutex
	cache map[string]string
}

func NewServiceSecrets(cfg sdkaws.Config, prefix string) *ServiceSecrets {
	return newServiceSecrets(secretsmanager.NewFromConfig(cfg), prefix)
}

func newServiceSecrets(client secretValueGetter, prefix string) *ServiceSecrets {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = DefaultSecretsPrefix
	}
	return &ServiceSecrets{client: client, prefix: prefix, cache: make(map[string]string)}
}

// SecretID returns the Secrets Manager id holding key
func (s *ServiceSecrets) SecretID(key string) string {
	return s.prefix + "/" + key
}

// Get returns the value of key, reading it from Secrets Manager on first use
func (s *ServiceSecrets) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	v, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	id := s.SecretID(key)
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(id)})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", id, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secret %s has no string value", id)
	}

	s.mu.Lock()
	s.cache[key] = *out.SecretString
	s.mu.Unlock()
	return *out.SecretString, nil
}

// Lookup reads every key and returns the ones that resolved. Failures are
// reported per key so callers can fall back to their environment values.
func (s *ServiceSecrets) Lookup(ctx context.Context, keys ...string) (map[string]string, map[string]error) {
	found := make(map[string]string, len(keys))
	var failed map[string]error
	for _, key := range keys {
		v, err := s.Get(ctx, key)
		if err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[key] = err
			continue
		}
		found[key] = v
	}
	return found, failed
}
