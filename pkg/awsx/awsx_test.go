package awsx

import (
	"context"
	"testing"

	"github.com/Alijeyrad/medtrack_backend/config"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"none", nil, ""},
		{"all empty", []string{"", ""}, ""},
		{"first wins", []string{"http://minio:9000", "http://localstack:4566"}, "http://minio:9000"},
		{"fallback", []string{"", "http://localstack:4566"}, "http://localstack:4566"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Endpoint(tt.in...)
			if tt.want == "" {
				if got != nil {
					t.Errorf("Endpoint() = %q, want nil", *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("Endpoint() = %v, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadConfig_StaticCredentials(t *testing.T) {
	cfg, err := LoadConfig(context.Background(), config.AWSConfig{
		Region:          "ap-south-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Region != "ap-south-1" {
		t.Errorf("Region = %q", cfg.Region)
	}
	creds, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if creds.AccessKeyID != "AKIDEXAMPLE" {
		t.Errorf("AccessKeyID = %q", creds.AccessKeyID)
	}
}
