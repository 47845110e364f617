package main

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/cache"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/cart"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/categories"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/config"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/filemgr"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/gateway"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/home"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/middleware"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/newsletters"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/orders"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pages"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pay"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/products"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/ratelim"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/rdx"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/reviews"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/routes"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/settings"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/users"
)

// app is the process wiring shared by every command.
type app struct {
	cfg       *config.Config
	conn      *db.Conn
	mongo     *mongo.Client
	redis     *redis.Client
	processor *pay.Processor
	handler   http.Handler
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.Close(context.Background())
		}
	}()

	switch cfg.DBBackend {
	case config.BackendMemory:
		log.Warn("Using the in-memory store; data is lost on restart")
		a.conn = db.NewMemory()
	default:
		conn, err := db.Connect(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		if err != nil {
			return nil, err
		}
		a.conn = conn
	}

	var journal pay.Journal = pay.NewMemoryJournal()
	var idem pay.IdempotencyStore = pay.NewMemoryIdempotencyStore()
	var locker rdx.Locker = rdx.NewLocalLocker()

	if cfg.Mongo.URI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, errors.Wrap(err, "connect mongo")
		}
		a.mongo = client
		database := client.Database(cfg.Mongo.Database)
		mj := pay.NewMongoJournal(database)
		mi := pay.NewMongoIdempotencyStore(database)
		if err := mj.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		if err := mi.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		journal, idem = mj, mi
		log.WithField("database", cfg.Mongo.Database).Info("Payment journal on MongoDB")
	} else {
		log.Warn("MONGO_URI not set; payment journal and idempotency keys are kept in memory")
	}

	if cfg.Redis.Addr != "" {
		client, err := rdx.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.redis = client
		locker = rdx.NewRedisLocker(client, "")
	}

	var (
		lists cache.Cache[[]models.Product]
		items cache.Cache[models.Product]
	)
	if cfg.Cache.Backend == config.BackendRedis {
		lists = cache.NewRedis[[]models.Product](a.redis, "cache:products:list:", cfg.Cache.StaleTTL)
		items = cache.NewRedis[models.Product](a.redis, "cache:products:item:", cfg.Cache.StaleTTL)
	} else {
		lists = cache.NewLRU[[]models.Product](cfg.Cache.Capacity)
		items = cache.NewLRU[models.Product](cfg.Cache.Capacity)
	}

	productStore := products.NewStore(
		db.For[models.Product](a.conn, db.ProductsCollection),
		lists, items, cfg.Cache.ListTTL, cfg.Cache.ProductTTL,
	)
	cats := categories.NewService(db.For[models.Category](a.conn, db.CategoriesCollection))
	content := pages.NewService(db.For[models.Page](a.conn, db.PagesCollection))
	site := settings.NewService(db.For[models.SiteSettings](a.conn, db.SettingsCollection))
	carts := cart.NewService(db.For[models.CartItem](a.conn, db.CartItemsCollection), productStore)
	orderSvc := orders.NewService(
		db.For[models.Order](a.conn, db.OrdersCollection),
		db.For[models.OrderItem](a.conn, db.OrderItemsCollection),
		carts, site,
	)

	gw := gateway.New(cfg.Gateway, gateway.WithOrphanRecorder(journal))
	a.processor = pay.NewProcessor(gw, orderSvc, journal, locker, cfg.Webhook.Workers, cfg.Webhook.QueueSize)

	router := routes.New(routes.Services{
		Auth:           middleware.NewAuth(cfg.JWTSecret),
		PaymentLimiter: ratelim.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
		Idempotency:    idem,
		Pay:            pay.NewService(gw, journal, a.processor),
		Products:       products.NewHandlers(productStore, filemgr.NewStore(cfg.UploadDir)),
		Categories:     cats,
		Cart:           carts,
		Orders:         orders.NewHandlers(orderSvc),
		Pages:          content,
		Settings:       site,
		Reviews:        reviews.NewService(db.For[models.Review](a.conn, db.ReviewsCollection), productStore),
		Users:          users.NewService(db.For[models.User](a.conn, db.UsersCollection)),
		Newsletters:    newsletters.NewService(db.For[models.Newsletter](a.conn, db.NewslettersCollection)),
		Home:           home.NewService(productStore, cats, content),
		StaticDir:      cfg.UploadDir,
	})

	// logging -> security headers -> CORS -> router
	a.handler = middleware.Logging(middleware.SecurityHeaders(middleware.CORS(cfg.AllowedOrigins)(router)))

	log.WithFields(log.Fields{
		"db":          a.conn.Backend(),
		"cache":       cfg.Cache.Backend,
		"gateway_env": cfg.Gateway.Environment,
		"merchant":    cfg.Gateway.Redacted().MerchantID,
	}).Info("Application wired")
	ok = true
	return a, nil
}

// Close releases the backends in reverse order of acquisition.
func (a *app) Close(ctx context.Context) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.WithError(err).Warn("Closing redis")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("Closing mongo")
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			log.WithError(err).Warn("Closing firestore")
		}
	}
}
