package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	restate "github.com/restatedev/sdk-go"
	"github.com/restatedev/sdk-go/server"
	"go.uber.org/fx"

	internalapi "github.com/Divam-dev/flower-shop-bot/internal/api"
	internalcart "github.com/Divam-dev/flower-shop-bot/internal/cart"
	appconfig "github.com/Divam-dev/flower-shop-bot/internal/config"
	"github.com/Divam-dev/flower-shop-bot/internal/events"
	"github.com/Divam-dev/flower-shop-bot/internal/orderflow"
	"github.com/Divam-dev/flower-shop-bot/internal/secrets"
	postgres "github.com/Divam-dev/flower-shop-bot/internal/storage/postgres"
	"github.com/Divam-dev/flower-shop-bot/internal/telemetry"
	"github.com/Divam-dev/flower-shop-bot/internal/wayforpay"
)

func newLogger(cfg appconfig.Config) *log.Logger {
	prefix := ""
	if cfg.ServiceName != "" {
		prefix = fmt.Sprintf("[%s] ", cfg.ServiceName)
	}
	logger := log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds)
	log.SetOutput(os.Stdout)
	log.SetFlags(logger.Flags())
	log.SetPrefix(prefix)
	return logger
}

func setupTelemetry(lc fx.Lifecycle, cfg appconfig.Config) {
	var cleanup func()
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			cleanup = telemetry.InitTracer(cfg.ServiceName)
			return nil
		},
		OnStop: func(context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})
}

// newSQLDB provides a shared *sql.DB. The service keeps running without a
// database; order persistence degrades to logged warnings.
func newSQLDB(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) (*sql.DB, error) {
	logger.Printf("Connecting to PostgreSQL database %s@%s:%d", cfg.Database.Database, cfg.Database.Host, cfg.Database.Port)
	db, err := postgres.OpenDatabase(cfg.Database)
	if err != nil {
		logger.Printf("WARNING: failed to connect to database: %v", err)
		return nil, nil
	}
	logger.Printf("Database connection established successfully")
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return postgres.CloseDatabase()
		},
	})
	return db, nil
}

// newKafkaProducer constructs the shared Kafka producer and binds its
// lifecycle to Fx.
func newKafkaProducer(cfg appconfig.Config, lc fx.Lifecycle) *events.Producer {
	prod := events.NewProducerWithBrokers(cfg.Kafka.Brokers)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return prod.Close()
		},
	})
	return prod
}

func newGateway(cfg appconfig.Config) *wayforpay.Client {
	return wayforpay.NewClient(cfg.WayForPay.APIURL)
}

// wireOrderFlow hands the order flow its collaborators before the Restate
// server starts taking invocations.
func wireOrderFlow(cfg appconfig.Config, repo *postgres.Repository, prod *events.Producer, gw *wayforpay.Client) {
	orderflow.SetRepository(repo)
	orderflow.SetPublisher(prod, cfg.Kafka.OrdersTopic)
	orderflow.SetGateway(gw, cfg.WayForPay.Merchant())
}

func buildRestateServer() *server.Restate {
	srv := server.NewRestate()

	// Bind CartService as a Virtual Object keyed by chat id
	cartVirtualObject := restate.NewObject("cart.sv1.CartService").
		Handler("AddItem", restate.NewObjectHandler(internalcart.AddItem)).
		Handler("ViewCart", restate.NewObjectSharedHandler(internalcart.ViewCart)).
		Handler("ClearCart", restate.NewObjectHandler(internalcart.ClearCart))
	srv = srv.Bind(cartVirtualObject)

	// Bind OrderFlowService as a Virtual Object keyed by chat id; per-key
	// serialization gives each session single-threaded message handling
	orderFlowVirtualObject := restate.NewObject("order.sv1.OrderFlowService").
		Handler("StartCheckout", restate.NewObjectHandler(orderflow.StartCheckout)).
		Handler("HandleMessage", restate.NewObjectHandler(orderflow.HandleMessage)).
		Handler("GetOrderState", restate.NewObjectSharedHandler(orderflow.GetOrderState))
	srv = srv.Bind(orderFlowVirtualObject)

	return srv
}

func newWebServer(cfg appconfig.Config, prod *events.Producer, repo *postgres.Repository) *http.Server {
	mux := http.NewServeMux()

	webhooks := internalapi.NewWebhookHandler(cfg.WayForPay.Merchant(), repo, prod, cfg.Kafka.OrdersTopic)
	internalapi.RegisterWebhookRoutes(mux, webhooks)
	internalapi.RegisterOrderRoutes(mux, repo)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{Addr: cfg.HTTP.Addr, Handler: mux}
}

func registerWebServer(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger, shutdowner fx.Shutdowner, prod *events.Producer, repo *postgres.Repository) {
	httpServer := newWebServer(cfg, prod, repo)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Printf("HTTP API available on %s", cfg.HTTP.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Printf("HTTP API server error: %v", err)
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	})
}

func registerRestateServer(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger, shutdowner fx.Shutdowner, srv *server.Restate) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Println("Restate server listening on", cfg.Restate.ListenAddr)
			logger.Println("")
			logger.Println("Service Architecture:")
			logger.Println("  - CartService: VIRTUAL OBJECT (keyed by chat id)")
			logger.Println("  - OrderFlowService: VIRTUAL OBJECT (keyed by chat id)")
			logger.Println("  - Webhooks: HTTP API (/api/webhooks/wayforpay)")
			logger.Println("")
			logger.Println("Register with Restate:")
			displayRestateAddr := cfg.Restate.ListenAddr
			if strings.HasPrefix(displayRestateAddr, ":") {
				displayRestateAddr = "localhost" + displayRestateAddr
			}
			logger.Printf("  restate deployments register http://%s", displayRestateAddr)
			logger.Println("")

			go func() {
				defer close(done)
				if err := srv.Start(ctx, cfg.Restate.ListenAddr); err != nil && !errors.Is(err, context.Canceled) {
					logger.Printf("Server error: %v", err)
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

func main() {
	_ = godotenv.Load()
	if err := secrets.BootstrapFromOpenBao(context.Background()); err != nil {
		log.Printf("WARNING: OpenBao bootstrap failed: %v", err)
	}

	app := fx.New(
		fx.Provide(
			appconfig.Load,
			newLogger,
			buildRestateServer,
			newKafkaProducer,
			newSQLDB,
			newGateway,
			func(db *sql.DB) *postgres.Repository { return postgres.NewRepository(db) },
		),
		fx.Invoke(
			func(logger *log.Logger, cfg appconfig.Config) {
				logger.Printf("Starting %s...", cfg.ServiceName)
			},
			wireOrderFlow,
			setupTelemetry,
			registerWebServer,
			registerRestateServer,
		),
	)

	app.Run()
}
