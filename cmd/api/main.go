package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"veritrail.io/internal/audit"
	"veritrail.io/internal/auth"
	"veritrail.io/internal/compliance"
	"veritrail.io/internal/directory"
	"veritrail.io/internal/httpapi"
	"veritrail.io/internal/obs"
	"veritrail.io/internal/store/pg"
)

var version = "0.3.0"

type cli struct {
	Addr           string        `help:"Listen address." default:":8080" env:"VERITRAIL_ADDR"`
	Dev            bool          `help:"Human-readable logs at debug level." env:"VERITRAIL_DEV"`
	PGDSN          string        `name:"pg-dsn" help:"PostgreSQL DSN. Empty runs on in-memory stores." env:"VERITRAIL_PG_DSN"`
	JWKSURL        string        `name:"jwks-url" required:"" help:"Identity provider JWKS endpoint." env:"VERITRAIL_JWKS_URL"`
	Audience       string        `required:"" help:"Expected token audience." env:"VERITRAIL_AUDIENCE"`
	Issuer         string        `required:"" help:"Expected token issuer." env:"VERITRAIL_ISSUER"`
	ClaimNamespace string        `name:"claim-namespace" help:"Namespace prefix for custom claims." default:"https://veritrail.io" env:"VERITRAIL_CLAIM_NAMESPACE"`
	KeyTTL         time.Duration `name:"key-ttl" help:"JWKS cache TTL." default:"1h" env:"VERITRAIL_KEY_TTL"`
	Leeway         time.Duration `help:"Clock skew tolerance for token validation." default:"30s" env:"VERITRAIL_LEEWAY"`
	RateBurst      int           `help:"Rate limiter burst per client IP." default:"50" env:"VERITRAIL_RATE_BURST"`
	RatePerSecond  int           `help:"Rate limiter refill per second." default:"25" env:"VERITRAIL_RATE_PER_SECOND"`
	MaxBodyBytes   int64         `name:"max-body-bytes" help:"Request body size cap." default:"1048576" env:"VERITRAIL_MAX_BODY_BYTES"`
}

func main() {
	var c cli
	kong.Parse(&c,
		kong.Name("veritrail-api"),
		kong.Description("Multi-tenant trust and access backend."),
	)

	log := obs.Setup(c.Dev)
	obs.Init()

	var (
		auditStore audit.Store
		dirStore   directory.Store
		probe      httpapi.ReadyProbe
	)
	if c.PGDSN != "" {
		store, err := pg.Open(c.PGDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres")
		}
		defer store.Close()
		auditStore = store.Audit()
		dirStore = store.Directory()
		probe = httpapi.ReadyProbe{DB: store.DB()}
	} else {
		log.Warn().Msg("no DSN configured, running on in-memory stores")
		auditStore = audit.NewMemoryStore()
		dirStore = directory.NewMemoryStore()
	}

	keys := auth.NewKeyRing(c.JWKSURL, auth.WithKeyTTL(c.KeyTTL))
	validator := auth.NewValidator(keys, c.Audience, c.Issuer, auth.WithLeeway(c.Leeway))
	ledger := audit.NewLedger(auditStore)
	scorer := compliance.NewScorer(ledger, dirStore)

	api := httpapi.New(httpapi.Config{
		Validator:      validator,
		ClaimNamespace: c.ClaimNamespace,
		Ledger:         ledger,
		Scorer:         scorer,
		Directory:      dirStore,
		ReadyProbe:     probe,
		Version:        version,
		Logger:         log,
	})

	handler := api.Handler()
	handler = httpapi.MaxBodyBytes(handler, c.MaxBodyBytes)
	handler = httpapi.RateLimit(handler, c.RateBurst, c.RatePerSecond)
	handler = httpapi.CORS(handler)
	handler = httpapi.SecurityHeaders(handler)
	handler = httpapi.Logging(log, handler)
	handler = httpapi.RequestID(handler)

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().Str("version", version).Str("addr", c.Addr).Msg("starting veritrail-api")
	if _, err := ledger.Append(context.Background(), audit.Entry{
		EventType:   audit.EventSystemStartup,
		Description: "veritrail-api " + version + " started",
	}); err != nil {
		log.Error().Err(err).Msg("failed to audit startup")
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := ledger.Append(ctx, audit.Entry{
		EventType:   audit.EventSystemShutdown,
		Description: "veritrail-api stopped",
	}); err != nil {
		log.Error().Err(err).Msg("failed to audit shutdown")
	}

	_ = srv.Shutdown(ctx)
	log.Info().Msg("stopped")
}
