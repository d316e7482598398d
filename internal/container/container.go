package container

import (
	"log/slog"
	"time"

	"github.com/joshua-takyi/eventnest/internal/cache"
	"github.com/joshua-takyi/eventnest/internal/config"
	"github.com/joshua-takyi/eventnest/internal/jobs"
	"github.com/joshua-takyi/eventnest/internal/middleware"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/search"
	"github.com/joshua-takyi/eventnest/internal/services"
)

// Stores groups the record store behind its repo interfaces.
type Stores struct {
	Events    models.EventRepo
	Users     models.UserRepo
	Purchases models.PurchaseRepo
}

// Gateways groups outbound clients. Minter, Resolver, Generator and FilterCache may be nil.
type Gateways struct {
	Exchange    services.Exchange
	Pinner      services.Pinner
	Describer   services.Describer
	Generator   search.Generator
	Minter      services.Minter
	Resolver    services.TokenResolver
	FilterCache *cache.FilterCache
}

// Container holds all application dependencies
type Container struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	TrustedProxies []string

	EventService    *services.EventService
	TicketService   *services.TicketService
	PaymentService  *services.PaymentService
	ExchangeService *services.ExchangeService
	SearchService   *services.SearchService
	UserService     *services.UserService
	UploadService   *services.UploadService
	AuthService     *services.AuthService

	RateLimiter   *middleware.RateLimiter
	PaymentPoller *jobs.PaymentPollerJob
}

// NewContainer creates a new dependency injection container
func NewContainer(logger *slog.Logger, cfg *config.Config, stores Stores, gw Gateways) *Container {
	paymentCfg := services.PaymentConfig{
		SettleCoin:    cfg.SettleCoin,
		SettleNetwork: cfg.SettleNetwork,
		Treasury:      cfg.TreasuryAddress,
	}

	ticketService := services.NewTicketService(stores.Events, stores.Users, stores.Purchases, gw.Resolver, logger)
	paymentService := services.NewPaymentService(
		stores.Purchases,
		stores.Events,
		ticketService,
		gw.Exchange,
		gw.Pinner,
		gw.Minter,
		paymentCfg,
		logger,
	)

	var parser search.Parser = search.NewHeuristicParser(time.Now)
	if gw.Generator != nil {
		parser = search.NewFallbackParser(search.NewLLMParser(gw.Generator, time.Now), parser, logger)
	}
	if gw.FilterCache != nil {
		parser = &cache.CachedParser{Cache: gw.FilterCache, Parser: parser}
	}

	return &Container{
		Logger:          logger,
		AllowedOrigins:  cfg.Origins(),
		TrustedProxies:  cfg.Proxies(),
		EventService:    services.NewEventService(stores.Events, stores.Users, logger),
		TicketService:   ticketService,
		PaymentService:  paymentService,
		ExchangeService: services.NewExchangeService(gw.Exchange, paymentCfg),
		SearchService:   services.NewSearchService(parser, stores.Events, gw.Describer, logger),
		UserService:     services.NewUserService(stores.Users, stores.Events),
		UploadService:   services.NewUploadService(gw.Pinner),
		AuthService:     services.NewAuthService(cfg.AuthSecret, cfg.SessionTTL, stores.Users),
		RateLimiter:     middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger),
		PaymentPoller:   jobs.NewPaymentPollerJob(paymentService, cfg.PollSchedule, logger),
	}
}
