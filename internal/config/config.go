package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the gateway process.
// All values come from env (optionally seeded from a .env file).
// No business logic should depend on raw environment variables.
//
// Only process-level settings are fatal at startup. Provider credentials may
// be absent; the operations that need them fail per request instead.
type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Twilio    TwilioConfig
	Voice     VoiceConfig
	Assistant AssistantConfig
	Limits    LimitsConfig
}

type AppConfig struct {
	Env  string
	Port int

	// CORSAllowedOrigins is "*" or a list of exact origins.
	CORSAllowedOrigins []string
}

// RedisConfig is optional. When Host is empty the call-placement cap is off.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string

	// API key pair used to sign browser access tokens.
	APIKeySID    string
	APIKeySecret string

	// TwiMLAppSID is the application browser clients dial out through.
	TwiMLAppSID string

	APIBaseURL string
}

type VoiceConfig struct {
	// CallerID is the gateway's own number; presented on PSTN legs and used
	// as From for outbound calls.
	CallerID string
	// FallbackNumber is dialed when a number leg carries no number.
	FallbackNumber string

	DefaultCountryCode string
	// OutboundTwiMLURL is fetched by the provider when an outbound call answers.
	OutboundTwiMLURL string

	TokenTTL time.Duration
}

type AssistantConfig struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	SpeechModel string
	SpeechVoice string
}

type LimitsConfig struct {
	// CallConcurrency caps in-flight call placements per client IP (Redis).
	CallConcurrency int
	CallSlotTTL     time.Duration

	// UpstreamRPS and UpstreamBurst bound chat/speech requests per client IP.
	UpstreamRPS   float64
	UpstreamBurst int
}

const (
	defaultPort             = 3000
	defaultCountryCode      = "+91"
	defaultOutboundTwiMLURL = "https://demo.twilio.com/welcome/voice/"
	defaultTokenTTL         = time.Hour
	maxTokenTTL             = 24 * time.Hour
	defaultChatModel        = "gpt-4o-mini"
	defaultSpeechModel      = "tts-1"
	defaultSpeechVoice      = "alloy"
	defaultCallConcurrency  = 3
	defaultCallSlotTTL      = 30 * time.Second
	defaultUpstreamRPS      = 1
	defaultUpstreamBurst    = 5
)

// Load reads configuration from the environment. envFiles are loaded first
// when present; variables already set in the environment win.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	if c.App.Env == "" {
		c.App.Env = "local"
	}
	{
		n, err := optionalInt("PORT", defaultPort)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := optionalInt("REDIS_PORT", 6379)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	{
		n, err := optionalInt("REDIS_DB", 0)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.DB = n
	}
	{
		n, err := optionalInt("REDIS_POOL_SIZE", 0)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.PoolSize = n
	}

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.APIKeySID = strings.TrimSpace(os.Getenv("TWILIO_API_KEY_SID"))
	c.Twilio.APIKeySecret = os.Getenv("TWILIO_API_KEY_SECRET")
	c.Twilio.TwiMLAppSID = strings.TrimSpace(os.Getenv("TWIML_APP_SID"))
	c.Twilio.APIBaseURL = strings.TrimSpace(os.Getenv("TWILIO_API_BASE_URL"))

	c.Voice.CallerID = strings.TrimSpace(os.Getenv("TWILIO_NUMBER"))
	c.Voice.FallbackNumber = strings.TrimSpace(os.Getenv("TARGET_NUMBER"))
	c.Voice.DefaultCountryCode = strings.TrimSpace(os.Getenv("DEFAULT_COUNTRY_CODE"))
	c.Voice.OutboundTwiMLURL = strings.TrimSpace(os.Getenv("CALL_TWIML_URL"))
	c.Voice.TokenTTL = mustDuration("VOICE_TOKEN_TTL")

	c.Assistant.APIKey = os.Getenv("OPENAI_API_KEY")
	c.Assistant.BaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	c.Assistant.ChatModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	c.Assistant.SpeechModel = strings.TrimSpace(os.Getenv("OPENAI_TTS_MODEL"))
	c.Assistant.SpeechVoice = strings.TrimSpace(os.Getenv("OPENAI_TTS_VOICE"))

	{
		n, err := optionalInt("CALL_CONCURRENCY_LIMIT", 0)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Limits.CallConcurrency = n
	}
	c.Limits.CallSlotTTL = mustDuration("CALL_SLOT_TTL")
	{
		n, err := optionalInt("UPSTREAM_BURST", 0)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Limits.UpstreamBurst = n
	}
	if v := strings.TrimSpace(os.Getenv("UPSTREAM_RPS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("UPSTREAM_RPS must be a number, got %q", v))
		}
		c.Limits.UpstreamRPS = f
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks process-level settings and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port, got %d", c.App.Port))
	}
	if len(c.App.CORSAllowedOrigins) == 0 {
		c.App.CORSAllowedOrigins = []string{"*"}
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("REDIS_DB must be >= 0, got %d", c.Redis.DB))
	}
	if c.Redis.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("REDIS_POOL_SIZE must be >= 0, got %d", c.Redis.PoolSize))
	}

	if c.Voice.DefaultCountryCode == "" {
		c.Voice.DefaultCountryCode = defaultCountryCode
	} else if !strings.HasPrefix(c.Voice.DefaultCountryCode, "+") {
		errs = append(errs, fmt.Errorf("DEFAULT_COUNTRY_CODE must start with +, got %q", c.Voice.DefaultCountryCode))
	}
	if c.Voice.OutboundTwiMLURL == "" {
		c.Voice.OutboundTwiMLURL = defaultOutboundTwiMLURL
	}
	if c.Voice.TokenTTL <= 0 {
		c.Voice.TokenTTL = defaultTokenTTL
	}
	if c.Voice.TokenTTL > maxTokenTTL {
		// Provider access tokens are rejected beyond 24h.
		errs = append(errs, fmt.Errorf("VOICE_TOKEN_TTL must be at most %s, got %s", maxTokenTTL, c.Voice.TokenTTL))
	}

	if c.Assistant.ChatModel == "" {
		c.Assistant.ChatModel = defaultChatModel
	}
	if c.Assistant.SpeechModel == "" {
		c.Assistant.SpeechModel = defaultSpeechModel
	}
	if c.Assistant.SpeechVoice == "" {
		c.Assistant.SpeechVoice = defaultSpeechVoice
	}

	if c.Limits.CallConcurrency < 0 {
		errs = append(errs, fmt.Errorf("CALL_CONCURRENCY_LIMIT must be >= 0, got %d", c.Limits.CallConcurrency))
	} else if c.Limits.CallConcurrency == 0 {
		c.Limits.CallConcurrency = defaultCallConcurrency
	}
	if c.Limits.CallSlotTTL <= 0 {
		c.Limits.CallSlotTTL = defaultCallSlotTTL
	}
	if c.Limits.UpstreamRPS < 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_RPS must be >= 0, got %v", c.Limits.UpstreamRPS))
	} else if c.Limits.UpstreamRPS == 0 {
		c.Limits.UpstreamRPS = defaultUpstreamRPS
	}
	if c.Limits.UpstreamBurst < 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_BURST must be >= 0, got %d", c.Limits.UpstreamBurst))
	} else if c.Limits.UpstreamBurst == 0 {
		c.Limits.UpstreamBurst = defaultUpstreamBurst
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// RedisEnabled reports whether a Redis host was configured.
func (c Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func optionalInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
