package gcp

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestResolveObjectStorageConfigFromEnvDefaultGCS(t *testing.T) {
	t.Setenv("RECEIPT_BUCKET_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("RECEIPT_BUCKET", "courviaship-receipts")
	t.Setenv("RECEIPT_PUBLIC_BASE_URL", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCS, cfg.Mode)
	}
	if cfg.Bucket != "courviaship-receipts" {
		t.Fatalf("bucket: want=%q got=%q", "courviaship-receipts", cfg.Bucket)
	}
}

func TestResolveObjectStorageConfigFromEnvEmulatorFallback(t *testing.T) {
	t.Setenv("RECEIPT_BUCKET_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443/")
	t.Setenv("RECEIPT_BUCKET", "receipts")
	t.Setenv("RECEIPT_PUBLIC_BASE_URL", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCSEmulator, cfg.Mode)
	}
	if cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host: want=%q got=%q", "http://fake-gcs:4443", cfg.EmulatorHost)
	}
}

func TestResolveObjectStorageConfigFromEnvExplicitGCSIgnoresEmulator(t *testing.T) {
	t.Setenv("RECEIPT_BUCKET_MODE", "GCS")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")
	t.Setenv("RECEIPT_BUCKET", "receipts")
	t.Setenv("RECEIPT_PUBLIC_BASE_URL", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCS, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		emulator string
		bucket   string
		want     ObjectStorageConfigErrorCode
	}{
		{name: "invalid mode", mode: "s3", bucket: "receipts", want: ObjectStorageConfigErrorInvalidMode},
		{name: "missing bucket", mode: "gcs", want: ObjectStorageConfigErrorMissingBucket},
		{name: "emulator without host", mode: "gcs_emulator", bucket: "receipts", want: ObjectStorageConfigErrorMissingEmulatorHost},
		{name: "emulator bad host", mode: "gcs_emulator", emulator: "fake-gcs:4443", bucket: "receipts", want: ObjectStorageConfigErrorInvalidURL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("RECEIPT_BUCKET_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.emulator)
			t.Setenv("RECEIPT_BUCKET", tc.bucket)
			t.Setenv("RECEIPT_PUBLIC_BASE_URL", "")

			_, err := ResolveObjectStorageConfigFromEnv()
			var cfgErr *ObjectStorageConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("want *ObjectStorageConfigError got=%v", err)
			}
			if cfgErr.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, cfgErr.Code)
			}
		})
	}
}

func TestPublicObjectURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  ObjectStorageConfig
		want string
	}{
		{
			name: "gcs default",
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeGCS, Bucket: "receipts"},
			want: "https://storage.googleapis.com/receipts/receipts/NSD123456.pdf",
		},
		{
			name: "emulator media url",
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, Bucket: "receipts", EmulatorHost: "http://fake-gcs:4443"},
			want: "http://fake-gcs:4443/storage/v1/b/receipts/o/receipts%2FNSD123456.pdf?alt=media",
		},
		{
			name: "public base override",
			cfg:  ObjectStorageConfig{Mode: ObjectStorageModeGCS, Bucket: "receipts", PublicBaseURL: "https://cdn.example.com"},
			want: "https://cdn.example.com/receipts/receipts/NSD123456.pdf",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := publicObjectURL(tc.cfg, "/receipts/NSD123456.pdf"); got != tc.want {
				t.Fatalf("want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestClientOptionsFromEnv(t *testing.T) {
	for _, k := range credentialEnvKeys {
		t.Setenv(k, "")
	}
	if opts := ClientOptionsFromEnv(); opts != nil {
		t.Fatalf("no credentials: want nil got=%d options", len(opts))
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/gcp/key.json")
	if opts := ClientOptionsFromEnv(); len(opts) != 1 {
		t.Fatalf("key file: want=1 got=%d", len(opts))
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(`{"type":"service_account"}`))
	t.Setenv("RECEIPT_BUCKET_CREDENTIALS", encoded)
	if opts := ClientOptionsFromEnv(); len(opts) != 1 {
		t.Fatalf("base64 json: want=1 got=%d", len(opts))
	}
}
