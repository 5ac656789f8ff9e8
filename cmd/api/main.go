// Package main TravelHub API
//
// Travel agency marketplace backend: accounts, the agency catalog and orders.
//
//	@title			TravelHub API
//	@version		1.0
//	@description	Travel agency marketplace: users, catalog and orders.
//
//	@BasePath	/api/v1
//	@schemes	https http
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"google.golang.org/grpc/credentials"
	"gorm.io/gorm"

	_ "travelhub/docs/swagger"
	catalogadapters "travelhub/internal/catalog/adapters"
	catalogapp "travelhub/internal/catalog/application"
	catalogdomain "travelhub/internal/catalog/domain"
	cataloghttp "travelhub/internal/catalog/infrastructure"
	identityapp "travelhub/internal/identity/application"
	identityhttp "travelhub/internal/identity/infrastructure"
	ordersadapters "travelhub/internal/orders/adapters"
	ordersapp "travelhub/internal/orders/application"
	ordersdomain "travelhub/internal/orders/domain"
	ordershttp "travelhub/internal/orders/infrastructure"
	usersadapters "travelhub/internal/users/adapters"
	usersapp "travelhub/internal/users/application"
	usershttp "travelhub/internal/users/infrastructure"
	"travelhub/pkg/auth"
	"travelhub/pkg/config"
	"travelhub/pkg/db"
	"travelhub/pkg/events"
	grpcpkg "travelhub/pkg/grpc"
	"travelhub/pkg/kafka"
	"travelhub/pkg/logger"
	"travelhub/pkg/metrics"
	"travelhub/pkg/middleware"
	"travelhub/pkg/rabbitmq"
	pkgtls "travelhub/pkg/tls"
)

const healthInterval = 15 * time.Second

// brokers holds the event publishers and the history consumer start hook
type brokers struct {
	orders  events.Publisher
	users   events.Publisher
	history func(ctx context.Context, store *ordersadapters.MongoHistoryStore)
	close   func()
}

func main() {
	cfg := config.Load()

	log := logger.New(cfg.ServiceName, cfg.LogLevel)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB: orders, history, catalog
	mongoClient, mongoDB, err := db.NewMongo(ctx, db.MongoConfig{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
		Timeout:  cfg.DBTimeout,
	})
	if err != nil {
		log.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())
	log.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))

	// PostgreSQL: users
	pg, err := db.NewPostgres(db.PostgresConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Timeout:  cfg.DBTimeout,
	})
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	log.Info("connected to postgres")

	userRepo := usersadapters.NewPostgresUserRepository(pg)
	if err := userRepo.Migrate(); err != nil {
		log.Fatal("failed to migrate users table", zap.Error(err))
	}

	bus := setupBrokers(cfg, log)
	defer bus.close()

	// Users and identity
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	users := usersapp.NewUserUseCase(userRepo, usersadapters.NewEventPublisher(bus.users), tokens, log)
	if cfg.AdminEmail != "" {
		if _, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal("failed to seed admin account", zap.Error(err))
		}
	}

	resolver := identityapp.NewResolver(tokens, users, log)
	authenticate := identityhttp.Authenticate(resolver)
	requireAdmin := identityhttp.RequireAdmin()

	// Orders
	orderRepo := ordersadapters.NewMongoOrderRepository(mongoDB)
	historyStore := ordersadapters.NewMongoHistoryStore(mongoDB)
	if err := orderRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("failed to create order indexes", zap.Error(err))
	}
	if err := historyStore.EnsureIndexes(ctx); err != nil {
		log.Fatal("failed to create history indexes", zap.Error(err))
	}
	bus.history(ctx, historyStore)

	transitions, _ := ordersdomain.TransitionPolicyByName(cfg.OrderStatusPolicy)
	orders := ordersapp.NewOrderUseCase(
		orderRepo,
		ordersadapters.NewEventPublisher(bus.orders),
		ordersadapters.NewUserDirectory(users),
		ordersadapters.NewCatalogDirectory(mongoDB),
		historyStore,
		ordersapp.Policy{
			Total:       ordersdomain.TotalPolicy(cfg.OrderTotalPolicy),
			Transitions: transitions,
		},
		log,
	)

	// Catalog
	agencies := catalogadapters.NewMongoStore[catalogdomain.Agency](mongoDB, catalogadapters.CollectionAgencies, "agency")
	destinations := catalogadapters.NewMongoStore[catalogdomain.Destination](mongoDB, catalogadapters.CollectionDestinations, "destination")
	hotels := catalogadapters.NewMongoStore[catalogdomain.Hotel](mongoDB, catalogadapters.CollectionHotels, "hotel")
	categories := catalogadapters.NewMongoStore[catalogdomain.Category](mongoDB, catalogadapters.CollectionCategories, "category")
	reviews := catalogadapters.NewMongoStore[catalogdomain.Review](mongoDB, catalogadapters.CollectionReviews, "review")

	for name, ensure := range map[string]func(context.Context) error{
		"agencies":     func(ctx context.Context) error { return agencies.EnsureIndexes(ctx, "name", "category") },
		"destinations": func(ctx context.Context) error { return destinations.EnsureIndexes(ctx, "agency") },
		"hotels":       func(ctx context.Context) error { return hotels.EnsureIndexes(ctx, "agency") },
		"categories":   func(ctx context.Context) error { return categories.EnsureIndexes(ctx, "name", "agency") },
		"reviews":      func(ctx context.Context) error { return reviews.EnsureIndexes(ctx, "agency") },
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal("failed to create catalog indexes", zap.String("collection", name), zap.Error(err))
		}
	}

	agencySvc := catalogapp.NewAgencyService(agencies, destinations, hotels, categories, reviews, catalogadapters.NewUserDirectory(users), log)
	destinationSvc := catalogapp.NewService[catalogdomain.Destination, *catalogdomain.Destination](
		destinations, "destination", []string{"name", "location", "description"},
		catalogapp.AgencyExists(agencies, func(d *catalogdomain.Destination) primitive.ObjectID { return d.Agency }),
		log,
	)
	hotelSvc := catalogapp.NewService[catalogdomain.Hotel, *catalogdomain.Hotel](
		hotels, "hotel", []string{"name", "location"},
		catalogapp.AgencyExists(agencies, func(h *catalogdomain.Hotel) primitive.ObjectID { return h.Agency }),
		log,
	)
	categorySvc := catalogapp.NewService[catalogdomain.Category, *catalogdomain.Category](
		categories, "category", nil, nil, log,
	)
	reviewSvc := catalogapp.NewReviewService(reviews, agencies, log)

	// HTTP
	serverMetrics := metrics.NewServerMetrics("api", prometheus.DefaultRegisterer)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Metrics(serverMetrics))
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.CORS())

	api := router.Group("/api/v1")
	usershttp.NewHTTPHandler(users).RegisterRoutes(api, authenticate)
	ordershttp.NewHTTPHandler(orders).RegisterRoutes(api, authenticate, requireAdmin)
	cataloghttp.NewAgencyHandler(agencySvc).RegisterRoutes(api.Group("/agencies"), authenticate, requireAdmin)
	cataloghttp.NewResourceHandler(destinationSvc).RegisterRoutes(api.Group("/destinations"), authenticate, requireAdmin)
	cataloghttp.NewResourceHandler(hotelSvc).RegisterRoutes(api.Group("/hotels"), authenticate, requireAdmin)
	cataloghttp.NewResourceHandler(categorySvc).RegisterRoutes(api.Group("/categories"), authenticate, requireAdmin)
	cataloghttp.NewReviewHandler(reviewSvc).RegisterRoutes(api.Group("/reviews"), authenticate)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/swagger/index.html")
	})

	httpServer := startHTTPServer(cfg, log, router)

	// gRPC health
	healthServer := startHealthServer(ctx, cfg, log, map[string]grpcpkg.Probe{
		"mongodb":  mongoProbe(mongoClient),
		"postgres": postgresProbe(pg),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down servers...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	healthServer.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown error", zap.Error(err))
	}

	log.Info("servers stopped")
}

// setupBrokers wires the configured event broker. An unreachable RabbitMQ
// degrades to dropping events rather than refusing to start.
func setupBrokers(cfg *config.Config, log *logger.Logger) *brokers {
	nop := &brokers{
		orders:  events.NopPublisher{},
		users:   events.NopPublisher{},
		history: func(context.Context, *ordersadapters.MongoHistoryStore) {},
		close:   func() {},
	}

	switch cfg.EventBroker {
	case config.BrokerKafka:
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Info("publishing events to kafka", zap.String("topic", cfg.KafkaTopic))
		return &brokers{
			orders: producer,
			users:  producer,
			history: func(ctx context.Context, store *ordersadapters.MongoHistoryStore) {
				consumer := ordersadapters.NewKafkaHistoryConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, store, log)
				if err := consumer.Start(ctx); err != nil {
					log.Warn("failed to start history consumer", zap.Error(err))
				}
			},
			close: func() { _ = producer.Close() },
		}

	case config.BrokerRabbitMQ:
		conn, err := rabbitmq.NewConnection(cfg.RabbitMQURL, log)
		if err != nil {
			log.Warn("failed to connect to RabbitMQ, events will be disabled", zap.Error(err))
			return nop
		}

		ordersPub, err := rabbitmq.NewPublisher(conn, events.ExchangeOrders, log)
		if err != nil {
			log.Warn("failed to create orders publisher", zap.Error(err))
			_ = conn.Close()
			return nop
		}
		usersPub, err := rabbitmq.NewPublisher(conn, events.ExchangeUsers, log)
		if err != nil {
			log.Warn("failed to create users publisher", zap.Error(err))
			_ = conn.Close()
			return nop
		}

		return &brokers{
			orders: ordersPub,
			users:  usersPub,
			history: func(ctx context.Context, store *ordersadapters.MongoHistoryStore) {
				consumer, err := ordersadapters.NewHistoryConsumer(conn, store, log)
				if err != nil {
					log.Warn("failed to create history consumer", zap.Error(err))
					return
				}
				if err := consumer.Start(ctx); err != nil {
					log.Warn("failed to start history consumer", zap.Error(err))
				}
			},
			close: func() { _ = conn.Close() },
		}
	}

	log.Info("event publishing disabled")
	return nop
}

func startHTTPServer(cfg *config.Config, log *logger.Logger, router *gin.Engine) *http.Server {
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	}

	if cfg.TLSEnabled {
		tlsConfig, err := pkgtls.ServerConfig(cfg.TLSCertFile, cfg.TLSKeyFile, "", false)
		if err != nil {
			log.Fatal("failed to load TLS config", zap.Error(err))
		}
		server.Addr = ":" + cfg.HTTPSPort
		server.TLSConfig = tlsConfig
	}

	go func() {
		var err error
		if server.TLSConfig != nil {
			log.Info("HTTPS server listening", zap.String("addr", server.Addr))
			err = server.ListenAndServeTLS("", "")
		} else {
			log.Info("HTTP server listening", zap.String("addr", server.Addr))
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	return server
}

func startHealthServer(ctx context.Context, cfg *config.Config, log *logger.Logger, probes map[string]grpcpkg.Probe) *grpcpkg.HealthServer {
	var creds credentials.TransportCredentials
	if cfg.GRPCMTLSEnabled {
		tlsConfig, err := pkgtls.ServerConfig(cfg.TLSCertFile, cfg.TLSKeyFile, cfg.TLSCAFile, true)
		if err != nil {
			log.Fatal("failed to load gRPC TLS config", zap.Error(err))
		}
		creds = credentials.NewTLS(tlsConfig)
		log.Info("gRPC mTLS enabled")
	}

	server := grpcpkg.NewHealthServer(cfg.ServiceName, log, cfg.GRPCTimeout, creds, probes)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen for gRPC", zap.Error(err))
	}

	go server.Watch(ctx, healthInterval)
	go func() {
		log.Info("gRPC health server listening", zap.String("addr", lis.Addr().String()))
		if err := server.Serve(lis); err != nil {
			log.Error("gRPC server error", zap.Error(err))
		}
	}()

	return server
}

func mongoProbe(client *mongo.Client) grpcpkg.Probe {
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}

func postgresProbe(pg *gorm.DB) grpcpkg.Probe {
	return func(ctx context.Context) error {
		return db.PingPostgres(ctx, pg)
	}
}
