package routes

import (
	"tontinepro/internal/adapters/http/handlers"
	"tontinepro/internal/adapters/http/middleware"
	"tontinepro/internal/adapters/persistence/repositories"
	"tontinepro/internal/config"
	"tontinepro/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	tontineRepo := repositories.NewTontineRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	contributionRepo := repositories.NewContributionRepository(db)
	allocationRepo := repositories.NewAllocationRepository(db)
	walletRepo := repositories.NewWalletRepository(db)
	vaultRepo := repositories.NewVaultRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)

	// Initialize services
	userService := services.NewUserService(userRepo, walletRepo)
	tontineService := services.NewTontineService(tontineRepo, memberRepo, contributionRepo, userRepo)
	contributionService := services.NewContributionService(db, tontineRepo, memberRepo, contributionRepo, walletRepo, transactionRepo)
	allocationService := services.NewAllocationService(tontineRepo, memberRepo, allocationRepo)
	ledgerService := services.NewLedgerService(db, walletRepo, vaultRepo, transactionRepo)
	paymentService := services.NewPaymentService(cfg.Gateway, db, walletRepo, transactionRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	userHandler := handlers.NewUserHandler(userService)
	tontineHandler := handlers.NewTontineHandler(tontineService)
	contributionHandler := handlers.NewContributionHandler(contributionService)
	allocationHandler := handlers.NewAllocationHandler(allocationService)
	walletHandler := handlers.NewWalletHandler(ledgerService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	// Health routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")

	// User routes
	users := api.Group("/users")
	users.Post("/", userHandler.Register)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.Get)

	// Tontine routes
	tontines := api.Group("/tontines")
	tontines.Post("/", tontineHandler.Create)
	tontines.Get("/", tontineHandler.List)
	tontines.Post("/join", tontineHandler.Join)
	tontines.Get("/:id", tontineHandler.Detail)
	tontines.Patch("/:id", tontineHandler.Update)
	tontines.Post("/:id/activate", tontineHandler.Activate)

	// Membership routes
	tontines.Post("/:id/members", tontineHandler.Invite)
	tontines.Patch("/:id/members/:memberId/role", tontineHandler.ChangeMemberRole)
	tontines.Patch("/:id/members/:memberId/status", tontineHandler.ChangeMemberStatus)
	tontines.Delete("/:id/members/:memberId", tontineHandler.RemoveMember)

	// Contribution routes
	tontines.Post("/:id/contributions", contributionHandler.Record)
	tontines.Post("/:id/contributions/wallet", contributionHandler.PayFromWallet)

	// Allocation routes
	tontines.Get("/:id/allocations", allocationHandler.History)
	tontines.Get("/:id/allocations/stats", allocationHandler.Stats)
	tontines.Post("/:id/allocations", allocationHandler.Allocate)

	// Wallet and vault routes
	wallet := api.Group("/wallet")
	wallet.Get("/", walletHandler.Overview)
	wallet.Post("/vaults", walletHandler.CreateVault)
	wallet.Get("/vaults", walletHandler.ListVaults)
	wallet.Post("/vaults/:id/deposit", walletHandler.DepositToVault)
	wallet.Post("/vaults/:id/withdraw", walletHandler.WithdrawFromVault)

	// Gateway routes, rate limited harder than the rest of the API. The
	// webhook receiver stays outside the money limiter; it is authenticated
	// by signature, not by caller.
	moneyLimiter := middleware.MoneyRateLimiter()
	api.Post("/payments/deposit", moneyLimiter, paymentHandler.Deposit)
	api.Post("/payments/withdraw", moneyLimiter, paymentHandler.Withdraw)
	api.Post("/payments/webhook", paymentHandler.Webhook)
}
