package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"
)

const (
	StoreDynamo   = "dynamo"
	StorePostgres = "postgres"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string `envconfig:"APP_PORT" default:"4000"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// StoreDriver selects the account store: "dynamo" or "postgres".
	StoreDriver string `envconfig:"STORE_DRIVER" default:"dynamo"`

	AWSRegion      string       `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSEndpointURL string       `envconfig:"AWS_ENDPOINT_URL"` // empty in prod, LocalStack URL in dev
	AWSAccessKeyID string       `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string       `envconfig:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables `envconfig:"DYNAMO_TABLE"`
	// DynamoBootstrap creates missing tables on startup.
	DynamoBootstrap bool `envconfig:"DYNAMO_BOOTSTRAP" default:"true"`

	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     string `envconfig:"SMTP_PORT" default:"1025"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@centry.app"`
	SMTPFromName string `envconfig:"SMTP_FROM_NAME" default:"Centry"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	// SMTPTLS requires STARTTLS; when false it is used only if the server offers it.
	SMTPTLS bool `envconfig:"SMTP_TLS" default:"false"`

	SMSFallbackEnabled bool   `envconfig:"SMS_FALLBACK_ENABLED" default:"false"`
	SNSRegion          string `envconfig:"SNS_REGION" default:"us-east-1"`

	// SNSSenderID is the alphanumeric sender shown on SMS, where carriers support it.
	SNSSenderID string `envconfig:"SNS_SENDER_ID" default:"Centry"`

	// TemplateBucket, when set, overrides the embedded email templates with
	// objects stored under TemplatePrefix.
	TemplateBucket string `envconfig:"TEMPLATE_BUCKET"`
	TemplatePrefix string `envconfig:"TEMPLATE_PREFIX" default:"email-templates/"`

	BcryptCost     int      `envconfig:"BCRYPT_COST" default:"10"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"` // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts string `envconfig:"ACCOUNTS" default:"accounts"`
}

// Load reads all configuration from environment variables and validates it.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDynamo:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
