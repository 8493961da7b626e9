package gcp

import (
	"encoding/base64"
	"os"
	"strings"

	"google.golang.org/api/option"
)

// credentialEnvKeys are checked in order; the first non-empty one wins.
var credentialEnvKeys = []string{
	"RECEIPT_BUCKET_CREDENTIALS",
	"GOOGLE_APPLICATION_CREDENTIALS_JSON",
	"GOOGLE_APPLICATION_CREDENTIALS",
}

// ClientOptionsFromEnv returns nil when no credentials are configured, which
// leaves the client on application default credentials.
func ClientOptionsFromEnv() []option.ClientOption {
	for _, key := range credentialEnvKeys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return credentialOptions(v)
		}
	}
	return nil
}

// credentialOptions accepts inline JSON, base64-encoded JSON or a key file path.
func credentialOptions(v string) []option.ClientOption {
	if strings.HasPrefix(v, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(v))}
	}
	if raw, err := base64.StdEncoding.DecodeString(v); err == nil && strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(raw)}
	}
	return []option.ClientOption{option.WithCredentialsFile(v)}
}
