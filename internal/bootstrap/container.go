package bootstrap

import (
	"log"

	"captionchecker-be/internal/config"
	"captionchecker-be/internal/controller"
	"captionchecker-be/internal/pkg/logger"
	"captionchecker-be/internal/pkg/mailer"
	"captionchecker-be/internal/repository/unitofwork"
	"captionchecker-be/internal/service"
	"captionchecker-be/pkg/llm/factory"

	pktNats "captionchecker-be/pkg/nats"

	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	OAuthController   controller.IOAuthController
	UserController    controller.IUserController
	AnalyzeController controller.IAnalyzeController
	PaymentController controller.IPaymentController
	PlanController    controller.IPlanController

	// Shared by the route-level middleware
	TokenService service.ITokenService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	tokenService := service.NewTokenService(
		cfg.Auth.JWTSecret,
		cfg.Auth.SessionTTL,
		cfg.Auth.MailTokenTTL,
	)

	// 2. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.BaseURL,
		cfg.Ai.APIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3. Services
	entitlementService := service.NewEntitlementService(uowFactory)
	authService := service.NewAuthService(uowFactory, tokenService, emailService, natsPub, cfg.Plans, sysLogger)
	oauthService := service.NewOAuthService(uowFactory, tokenService, cfg.Auth, cfg.Plans, sysLogger)
	userService := service.NewUserService(uowFactory)
	planService := service.NewPlanService(uowFactory, cfg.Plans)
	analyzeService := service.NewAnalyzeService(
		uowFactory,
		entitlementService,
		llmProvider,
		natsPub,
		cfg.Ai.VisionModel,
		cfg.Ai.Timeout,
		sysLogger,
	)
	paymentService := service.NewPaymentService(
		uowFactory,
		cfg.Plans,
		cfg.Payment,
		cfg.App.ClientURL,
		natsPub,
		sysLogger,
	)

	// 4. Controllers
	return &Container{
		AuthController:    controller.NewAuthController(authService, cfg.Auth, cfg.App),
		OAuthController:   controller.NewOAuthController(oauthService, cfg.Auth, cfg.App),
		UserController:    controller.NewUserController(userService),
		AnalyzeController: controller.NewAnalyzeController(analyzeService),
		PaymentController: controller.NewPaymentController(paymentService),
		PlanController:    controller.NewPlanController(planService),

		TokenService: tokenService,
	}
}
