package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sushihentaime/sharedblog/internal/accessservice"
	"github.com/sushihentaime/sharedblog/internal/blogservice"
	"github.com/sushihentaime/sharedblog/internal/common"
	"github.com/sushihentaime/sharedblog/internal/mailservice"
	"github.com/sushihentaime/sharedblog/internal/userservice"
)

type application struct {
	config        *Config
	logger        *slog.Logger
	userService   *userservice.UserService
	accessService *accessservice.AccessService
	blogService   *blogservice.BlogService
	mailService   *mailservice.MailService
	broker        *common.MessageBroker
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	err := run(logger)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := loadConfig(".env")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Migrations != "" {
		dsn := common.DSN(cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name)

		m, err := common.MigrateUp(cfg.Migrations, dsn)
		if err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		m.Close()

		logger.Info("database migrations applied", slog.String("source", cfg.Migrations))
	}

	db, err := common.NewDB(cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns, cfg.DB.MaxIdleTime)
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}
	defer common.CloseDB(db)

	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		return fmt.Errorf("failed to connect to the message broker: %w", err)
	}
	defer broker.Close()

	err = common.SetupUserExchange(broker)
	if err != nil {
		return fmt.Errorf("failed to setup the user exchange: %w", err)
	}

	err = common.SetupBlogExchange(broker)
	if err != nil {
		return fmt.Errorf("failed to setup the blog exchange: %w", err)
	}

	cache := common.NewCache(cfg.Cache.Expiration, cfg.Cache.Cleanup)

	userService := userservice.NewUserService(db, broker, cache)
	accessService := accessservice.NewAccessService(db, userService, broker, logger)

	app := &application{
		config:        cfg,
		logger:        logger,
		userService:   userService,
		accessService: accessService,
		blogService:   blogservice.NewBlogService(db, accessService, cache),
		mailService:   mailservice.NewMailService(broker, cfg.Mail.Host, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.Sender, cfg.Mail.Port, logger),
		broker:        broker,
	}

	err = app.mailService.SendActivationEmail()
	if err != nil {
		return fmt.Errorf("failed to start the activation email consumer: %w", err)
	}

	err = app.mailService.SendAccessGrantedEmail()
	if err != nil {
		return fmt.Errorf("failed to start the access granted email consumer: %w", err)
	}

	return app.serve()
}
