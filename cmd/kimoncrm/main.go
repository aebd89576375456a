package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kimoncrm/internal/config"
	"kimoncrm/internal/database"
	httpapi "kimoncrm/internal/http"
	"kimoncrm/internal/repository"
	"kimoncrm/internal/service"
	"kimoncrm/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	customersRepo := repository.NewPostgresCustomersRepository(db)
	leadsRepo := repository.NewPostgresLeadsRepository(db)
	tasksRepo := repository.NewPostgresTasksRepository(db)
	productsRepo := repository.NewPostgresProductsRepository(db)
	surveysRepo := repository.NewPostgresSiteSurveysRepository(db)
	infraRepo := repository.NewPostgresInfrastructureRepository(db)
	emailsRepo := repository.NewPostgresEmailsRepository(db)

	mailer := service.NewHTTPMailer(cfg.Mail, logger)
	erpClient := service.NewERPClient(cfg.ERP, logger)
	imageClient := service.NewImageClient(cfg.Images, logger)
	microsoftMail := service.NewMicrosoftMailProvider(cfg.Mail, logger)
	googleMail := service.NewGoogleMailProvider(cfg.Mail, logger)

	customerService := service.NewCustomerService(customersRepo, logger)
	leadService := service.NewLeadService(leadsRepo, logger)
	taskService := service.NewTaskService(tasksRepo, mailer, logger)
	productService := service.NewProductService(productsRepo, erpClient, imageClient, logger)
	surveyService := service.NewSurveyService(surveysRepo, logger)
	infraService := service.NewInfrastructureService(infraRepo, kv, logger)
	mailboxService := service.NewMailboxService(emailsRepo, leadsRepo, microsoftMail, googleMail, logger)

	router := httpapi.NewRouter(logger)
	router.RegisterRoutes(
		httpapi.NewCustomerHandler(customerService, logger),
		httpapi.NewLeadHandler(leadService, logger),
		httpapi.NewTaskHandler(taskService, logger),
		httpapi.NewProductHandler(productService, logger),
		httpapi.NewSiteSurveyHandler(surveyService, infraService, logger),
		httpapi.NewCronHandler(mailboxService, logger),
	)

	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	_ = db.Close()
}
