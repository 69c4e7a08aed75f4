package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		MetricsAddr        string   `yaml:"metrics_addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Auth struct {
		// open: sin backend de identidad configurado, requests sin token
		// reciben la identidad fallback de desarrollo.
		// strict: token Bearer obligatorio y verificado.
		Mode      string `yaml:"mode"` // open | strict
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
		// AdminIDs: lista de user IDs con override de tier admin (CSV en env).
		AdminIDs []string `yaml:"admin_ids"`
	} `yaml:"auth"`

	Storage struct {
		Driver   string `yaml:"driver"` // postgres | memory
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Redis struct {
		Addr   string `yaml:"addr"`
		DB     int    `yaml:"db"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	LLM struct {
		APIKey    string `yaml:"api_key"`
		BaseURL   string `yaml:"base_url"`
		Model     string `yaml:"model"` // default si la herramienta no define uno
		MaxTokens int    `yaml:"max_tokens"`
		Timeout   string `yaml:"timeout"` // timeout total del request upstream
	} `yaml:"llm"`

	Trial struct {
		Window string `yaml:"window"` // duración del trial para tier free
	} `yaml:"trial"`

	Billing struct {
		StripeAPIKey        string `yaml:"stripe_api_key"`
		StripeWebhookSecret string `yaml:"stripe_webhook_secret"`
		// PriceTiers mapea un price ID de Stripe al tier que otorga.
		PriceTiers map[string]string `yaml:"price_tiers"`
	} `yaml:"billing"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Expandir ${VAR} dentro del YAML antes de parsear
	expanded := os.Expand(string(b), func(k string) string { return os.Getenv(k) })

	var c Config
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = "strict"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 30
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.anthropic.com"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "claude-3-haiku-20240307"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = "120s"
	}
	if c.Trial.Window == "" {
		c.Trial.Window = "336h" // 14 días
	}
	if c.Billing.PriceTiers == nil {
		c.Billing.PriceTiers = map[string]string{}
	}

	// Overrides por env + salvaguarda prod
	c.applyEnvOverrides()

	// validate string durations
	for _, d := range []string{c.Rate.Window, c.LLM.Timeout, c.Trial.Window} {
		if _, err := time.ParseDuration(d); err != nil {
			return nil, err
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate verifica combinaciones inválidas que no queremos descubrir en runtime.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case "open", "strict":
	default:
		return fmt.Errorf("config: auth.mode inválido %q (open|strict)", c.Auth.Mode)
	}
	// Modo open en prod es casi siempre un error de deployment.
	if strings.EqualFold(c.App.Env, "prod") && c.Auth.Mode == "open" {
		return fmt.Errorf("config: auth.mode=open no permitido con app_env=prod")
	}
	if c.Auth.Mode == "strict" && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("config: auth.jwt_secret requerido en modo strict")
	}
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: storage.driver inválido %q (postgres|memory)", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: storage.dsn requerido con driver postgres")
	}
	return nil
}

// RateWindow retorna la ventana de rate limit ya parseada.
func (c *Config) RateWindow() time.Duration {
	d, _ := time.ParseDuration(c.Rate.Window)
	return d
}

// TrialWindow retorna la duración del trial ya parseada.
func (c *Config) TrialWindow() time.Duration {
	d, _ := time.ParseDuration(c.Trial.Window)
	return d
}

// LLMTimeout retorna el timeout upstream ya parseado.
func (c *Config) LLMTimeout() time.Duration {
	d, _ := time.ParseDuration(c.LLM.Timeout)
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("METRICS_ADDR"); ok {
		c.Server.MetricsAddr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_MODE"); ok {
		c.Auth.Mode = strings.ToLower(v)
	}
	if v, ok := getEnvStr("AUTH_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := getEnvStr("AUTH_ISSUER"); ok {
		c.Auth.Issuer = v
	}
	if v, ok := getEnvCSV("AUTH_ADMIN_IDS"); ok {
		c.Auth.AdminIDs = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}

	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}

	// LLM
	if v, ok := getEnvStr("ANTHROPIC_API_KEY"); ok {
		c.LLM.APIKey = v
	}
	if v, ok := getEnvStr("LLM_BASE_URL"); ok {
		c.LLM.BaseURL = v
	}
	if v, ok := getEnvStr("LLM_MODEL"); ok {
		c.LLM.Model = v
	}
	if v, ok := getEnvStr("LLM_TIMEOUT"); ok {
		c.LLM.Timeout = v
	}

	// TRIAL
	if v, ok := getEnvStr("TRIAL_WINDOW"); ok {
		c.Trial.Window = v
	}

	// BILLING
	if v, ok := getEnvStr("STRIPE_API_KEY"); ok {
		c.Billing.StripeAPIKey = v
	}
	if v, ok := getEnvStr("STRIPE_WEBHOOK_SECRET"); ok {
		c.Billing.StripeWebhookSecret = v
	}
}
