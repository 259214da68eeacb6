package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/uneedwind/webhook-gateway/internal/envconfig"
)

// Defaults substituted when the platform does not provide deployment metadata.
const (
	DefaultDeploymentID = "local"
	DefaultService      = "default"
	DefaultVersion      = "1.0.0"
)

// Config encapsulates the runtime configuration for the webhook gateway.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"webhook-gateway" validate:"required"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`

	Deployment Deployment
	Webhook    WebhookConfig
	ECPay      ECPayConfig
	Metrics    MetricsConfig
}

// Deployment carries the App Engine metadata reported by the liveness routes.
type Deployment struct {
	Env          string `envconfig:"GAE_ENV"`
	DeploymentID string `envconfig:"GAE_DEPLOYMENT_ID" default:"local"`
	Service      string `envconfig:"GAE_SERVICE" default:"default"`
	Version      string `envconfig:"GAE_VERSION" default:"1.0.0"`
}

// WebhookConfig bounds inbound request bodies.
type WebhookConfig struct {
	MaxBodyBytes int64 `envconfig:"WEBHOOK_MAX_BODY_BYTES" default:"1048576" validate:"gt=0"`
}

// ECPayConfig configures the payment callback relay. The relay route is only
// mounted when ForwardURL is set.
type ECPayConfig struct {
	ForwardURL     string        `envconfig:"ECPAY_FORWARD_URL"`
	ForwardTimeout time.Duration `envconfig:"ECPAY_FORWARD_TIMEOUT" default:"10s" validate:"gt=0"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads environment variables into Config with validation.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Deployment = cfg.Deployment.withDefaults()

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RelayEnabled reports whether the ECPay relay should be mounted.
func (c Config) RelayEnabled() bool {
	return strings.TrimSpace(c.ECPay.ForwardURL) != ""
}

// OnAppEngine reports whether the process runs on the App Engine standard runtime.
func (d Deployment) OnAppEngine() bool {
	return strings.HasPrefix(d.Env, "standard")
}

// withDefaults fills values that are present in the environment but empty.
func (d Deployment) withDefaults() Deployment {
	if strings.TrimSpace(d.DeploymentID) == "" {
		d.DeploymentID = DefaultDeploymentID
	}
	if strings.TrimSpace(d.Service) == "" {
		d.Service = DefaultService
	}
	if strings.TrimSpace(d.Version) == "" {
		d.Version = DefaultVersion
	}
	return d
}

func validate(cfg Config) error {
	if !cfg.RelayEnabled() {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(cfg.ECPay.ForwardURL))
	if err != nil {
		return fmt.Errorf("ECPAY_FORWARD_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("ECPAY_FORWARD_URL must be an absolute http(s) url: %s", cfg.ECPay.ForwardURL)
	}
	return nil
}
