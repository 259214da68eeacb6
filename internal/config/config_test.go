package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "SERVICE_NAME", "LOG_LEVEL",
		"GAE_ENV", "GAE_DEPLOYMENT_ID", "GAE_SERVICE", "GAE_VERSION",
		"WEBHOOK_MAX_BODY_BYTES", "ECPAY_FORWARD_URL", "ECPAY_FORWARD_TIMEOUT", "METRICS_ENABLED",
	} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Deployment.DeploymentID != DefaultDeploymentID {
		t.Fatalf("expected deployment id %q, got %q", DefaultDeploymentID, cfg.Deployment.DeploymentID)
	}
	if cfg.Deployment.Service != DefaultService {
		t.Fatalf("expected service %q, got %q", DefaultService, cfg.Deployment.Service)
	}
	if cfg.Deployment.Version != DefaultVersion {
		t.Fatalf("expected version %q, got %q", DefaultVersion, cfg.Deployment.Version)
	}
	if cfg.Deployment.OnAppEngine() {
		t.Fatal("expected local deployment")
	}
	if cfg.RelayEnabled() {
		t.Fatal("relay should be disabled without a forward url")
	}
	if cfg.Port != "8080" || cfg.ServiceName != "webhook-gateway" || !cfg.Metrics.Enabled {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Webhook.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected body limit %d", cfg.Webhook.MaxBodyBytes)
	}
	if cfg.ECPay.ForwardTimeout != 10*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.ECPay.ForwardTimeout)
	}
}

func TestLoadReadsAppEngineMetadata(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("WEBHOOK_MAX_BODY_BYTES", "2048")
	t.Setenv("GAE_ENV", "standard")
	t.Setenv("GAE_DEPLOYMENT_ID", "20261018t101010")
	t.Setenv("GAE_SERVICE", "hooks")
	t.Setenv("GAE_VERSION", "v7")
	t.Setenv("ECPAY_FORWARD_URL", "https://example.com/creator/custom/handle")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.Webhook.MaxBodyBytes != 2048 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.Deployment.OnAppEngine() {
		t.Fatal("expected App Engine deployment")
	}
	if cfg.Deployment.DeploymentID != "20261018t101010" || cfg.Deployment.Service != "hooks" || cfg.Deployment.Version != "v7" {
		t.Fatalf("unexpected deployment %+v", cfg.Deployment)
	}
	if !cfg.RelayEnabled() {
		t.Fatal("expected relay to be enabled")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"non numeric port":   {"PORT": "http"},
		"unknown log level":  {"LOG_LEVEL": "loud"},
		"relative relay url": {"ECPAY_FORWARD_URL": "/creator/custom"},
		"bad body limit":     {"WEBHOOK_MAX_BODY_BYTES": "0"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadTreatsEmptyMetadataAsMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAE_SERVICE", "")
	t.Setenv("GAE_VERSION", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Deployment.Service != DefaultService || cfg.Deployment.Version != DefaultVersion {
		t.Fatalf("expected defaults, got %+v", cfg.Deployment)
	}
}
