package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/changefeed"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/config"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/handler"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/logger"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/pkg/mailer"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/push"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/repository/implementation"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/service"
	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/websocket"
	pktNats "github.com/Ahmed-S-Salim/greenofig-sub002/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	NotificationHandler *handler.NotificationHandler
	NotificationService *service.NotificationService
	WebSocketHub        *websocket.Hub

	Publisher changefeed.Publisher
	Source    changefeed.Source

	natsPublisher  *pktNats.Publisher
	natsSubscriber *pktNats.Subscriber
	memorySource   *changefeed.MemorySource
	sysLogger      logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	wsLogger := logger.NewIsolatedLogger(cfg.App.NotificationLog)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Change Feed
	// NATS JetStream carries the database change feed between services. When
	// it is down at boot we fall back to the in-process source so the server
	// still starts; only events published by this instance are seen then.
	c := &Container{sysLogger: sysLogger}

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect NATS publisher: %v", err)
	} else {
		c.natsPublisher = natsPub
	}

	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect NATS subscriber: %v. Falling back to in-process change feed", err)
	} else {
		c.natsSubscriber = natsSub
	}

	if c.natsSubscriber != nil && c.natsPublisher != nil {
		c.Source = c.natsSubscriber
		c.Publisher = c.natsPublisher
	} else {
		mem := changefeed.NewMemorySource()
		c.memorySource = mem
		c.Source = mem
		c.Publisher = mem
	}

	// 3. Redis (cross-instance websocket fan-out)
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Running single-instance", err)
		rdb = nil
	}

	// 4. WebSocket Hub
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()
	c.WebSocketHub = wsHub

	// 5. Repositories
	notificationRepo := implementation.NewNotificationRepository(db)
	messageRepo := implementation.NewMessageRepository(db)
	profileRepo := implementation.NewProfileRepository(db)

	// 6. Push chain. Probed once at boot; first available provider wins.
	pushChain := push.NewChain(sysLogger,
		push.NewWebPushProvider(c.natsPublisher),
		push.NewEmailProvider(emailService, profileRepo, cfg.SMTP.Configured()),
		push.NewNoopProvider(),
	)

	// 7. Services
	notificationService := service.NewNotificationService(
		c.Source,
		wsHub,
		pushChain,
		notificationRepo,
		messageRepo,
		sysLogger,
	)
	c.NotificationService = notificationService

	// 8. Handlers
	c.NotificationHandler = handler.NewNotificationHandler(
		notificationService,
		c.Publisher,
		wsHub,
		sysLogger,
	)

	return c
}

// Close releases broker connections. Safe to call once at shutdown.
func (c *Container) Close() {
	if c.natsSubscriber != nil {
		c.natsSubscriber.Close()
	}
	if c.natsPublisher != nil {
		c.natsPublisher.Close()
	}
	if c.memorySource != nil {
		if err := c.memorySource.Close(); err != nil {
			c.sysLogger.Warn("Bootstrap", "Failed to close in-process change feed", map[string]interface{}{"error": err.Error()})
		}
	}
	_ = c.sysLogger.Sync()
}
