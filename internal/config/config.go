package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

type Config struct {
	Port           string `env:"PORT,default=8080"`
	Environment    string `env:"ENVIRONMENT,default=development"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`
	// Comma separated IPs or CIDRs whose forwarding headers are believed.
	TrustedProxies string `env:"TRUSTED_PROXIES"`

	MongoDBURI      string `env:"MONGODB_URI"`
	MongoDBPassword string `env:"MONGODB_PASSWORD"`
	MongoDBName     string `env:"MONGODB_DB,default=eventnest"`

	// Optional. Search runs uncached without it.
	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"SEARCH_CACHE_TTL,default=10m"`

	SideShiftURL         string        `env:"SIDESHIFT_URL,default=https://sideshift.ai/api/v2"`
	SideShiftSecret      string        `env:"SIDESHIFT_SECRET"`
	SideShiftAffiliateID string        `env:"SIDESHIFT_AFFILIATE_ID"`
	SettleCoin           string        `env:"SETTLE_COIN,default=MATIC"`
	SettleNetwork        string        `env:"SETTLE_NETWORK,default=polygon"`
	TreasuryAddress      string        `env:"TREASURY_ADDRESS"`
	GatewayTimeout       time.Duration `env:"GATEWAY_TIMEOUT,default=30s"`

	PinataURL       string `env:"PINATA_URL,default=https://api.pinata.cloud"`
	PinataJWT       string `env:"PINATA_JWT"`
	PinataAPIKey    string `env:"PINATA_API_KEY"`
	PinataSecretKey string `env:"PINATA_SECRET_API_KEY"`
	PinataGateway   string `env:"PINATA_GATEWAY_URL,default=https://gateway.pinata.cloud/ipfs"`

	GeminiURL    string `env:"GEMINI_URL,default=https://generativelanguage.googleapis.com"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL,default=gemini-pro"`

	ChainRPC         string `env:"CHAIN_RPC_URL,default=https://rpc-amoy.polygon.technology"`
	ChainID          int64  `env:"CHAIN_ID,default=80002"`
	ExplorerURL      string `env:"CHAIN_EXPLORER_URL,default=https://amoy.polygonscan.com"`
	ContractAddress  string `env:"TICKET_CONTRACT_ADDRESS"`
	MinterPrivateKey string `env:"MINTER_PRIVATE_KEY"`

	AuthSecret string        `env:"AUTH_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL,default=24h"`

	PollSchedule   string  `env:"PAYMENT_POLL_SCHEDULE,default=@every 30s"`
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=20"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	// Validate required fields
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if strings.Contains(cfg.MongoDBURI, "<password>") && cfg.MongoDBPassword == "" {
		return nil, fmt.Errorf("MONGODB_PASSWORD is required")
	}
	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is required")
	}
	if cfg.MinterPrivateKey != "" && cfg.ContractAddress == "" {
		return nil, fmt.Errorf("TICKET_CONTRACT_ADDRESS is required when MINTER_PRIVATE_KEY is set")
	}

	return cfg, nil
}

// ChainConfig is what the deploy CLI needs; it does not require the API settings.
type ChainConfig struct {
	ChainRPC    string `env:"CHAIN_RPC_URL,default=https://rpc-amoy.polygon.technology"`
	ChainID     int64  `env:"CHAIN_ID,default=80002"`
	ExplorerURL string `env:"CHAIN_EXPLORER_URL,default=https://amoy.polygonscan.com"`
	DeployerKey string `env:"DEPLOYER_PRIVATE_KEY"`
}

func LoadChainConfig() (*ChainConfig, error) {
	cfg := &ChainConfig{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Origins splits the comma separated CORS origin list.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func (c *Config) Proxies() []string {
	return splitList(c.TrustedProxies)
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
