package main

import (
	"log"
	"os"

	"backend_fitadmin/api"
	"backend_fitadmin/config"
	"backend_fitadmin/database"
	"backend_fitadmin/middleware"
	"backend_fitadmin/models"
	"backend_fitadmin/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// initDB инициализирует подключение к базе данных
func initDB() {
	log.Println("🔧 Инициализация базы данных...")

	// Создаем базу данных, если она не существует
	if err := database.CreateDatabaseIfNotExists(); err != nil {
		log.Fatal("❌ Ошибка при создании базы данных:", err)
	}

	// Подключаемся к базе данных
	if err := database.ConnectDatabase(); err != nil {
		log.Fatal("❌ Ошибка подключения к базе данных:", err)
	}

	log.Println("✅ База данных успешно инициализирована")
}

func main() {
	// Загружаем переменные окружения из .env файла
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Файл .env не найден, используются системные переменные окружения")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("❌ Ошибка загрузки конфигурации:", err)
	}
	cfg.LogConfig()

	// Инициализируем базу данных
	initDB()

	if err := database.CreatePerformanceIndexes(database.DB); err != nil {
		log.Println("⚠️  Ошибка создания индексов:", err)
	}

	// Профиль центра создается при первом запуске
	if _, err := models.EnsureCenterProfile(database.DB); err != nil {
		log.Fatal("❌ Ошибка инициализации профиля центра:", err)
	}

	// Redis опционален: без него работаем без кэша
	if err := database.InitRedis(); err != nil {
		log.Println("⚠️  Redis недоступен, кэширование отключено:", err)
	}
	cache := services.NewCacheService(database.GetRedis(), log.Default())

	// Связываем обработчики API с сервисами
	automation := api.InitServices(cfg, cache)
	if err := automation.Start(); err != nil {
		log.Fatal("❌ Ошибка запуска планировщика биллинга:", err)
	}
	defer automation.Stop()

	authMiddleware := middleware.NewAuthMiddleware(cfg)

	// Настраиваем Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}
	r.Use(cors.New(corsConfig))

	// Базовые роуты
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":   "success",
			"message":  "pong",
			"database": "connected",
		})
	})

	// Аутентификация
	r.POST("/api/auth/login", middleware.AuthRateLimit(), api.Login(authMiddleware))

	// API роуты
	protected := r.Group("/api")
	protected.Use(authMiddleware.RequireAuth(), middleware.ModerateRateLimit())
	{
		// Клиенты
		protected.GET("/clients", api.GetClients)
		protected.POST("/clients", api.CreateClient)
		protected.GET("/clients/:id", api.GetClient)
		protected.PUT("/clients/:id", api.UpdateClient)
		protected.GET("/clients/:id/subscription", api.GetClientSubscription)
		protected.GET("/clients/:id/attendance", api.GetAttendanceByPeriod)
		protected.GET("/clients/:id/attendance/summary", api.GetAttendanceSummary)
		protected.GET("/clients/:id/recoveries", api.GetPendingRecoveries)

		// Продукты и тарифы
		protected.GET("/products", api.GetProducts)
		protected.POST("/products", api.CreateProduct)
		protected.PUT("/products/:id/rates", api.UpsertTariffRate)
		protected.GET("/products/:id/quote", api.GetTariffQuote)

		// Абонементы
		protected.POST("/subscriptions", api.CreateSubscription)
		protected.PUT("/subscriptions/:id/status", api.ChangeSubscriptionStatus)
		protected.PUT("/subscriptions/:id/plan", api.ChangeSubscriptionPlan)

		// Посещаемость и отработки
		protected.POST("/attendance", api.RecordAttendance)
		protected.PUT("/attendance/:id/recovery/schedule", api.ScheduleRecovery)
		protected.PUT("/attendance/:id/recovery/complete", api.CompleteRecovery)
		protected.POST("/attendance/recoveries/process-expired", api.ProcessExpiredRecoveries)

		// Счета
		protected.POST("/invoices", api.GenerateInvoice)
		protected.GET("/invoices", api.GetInvoicesByPeriod)
		protected.GET("/invoices/:id", api.GetInvoice)
		protected.POST("/invoices/:id/issue", api.IssueInvoice)
		protected.POST("/invoices/:id/payments", api.RegisterInvoicePayment)
		protected.POST("/invoices/:id/discounts", api.AddInvoiceDiscount)
		protected.POST("/invoices/:id/void", api.VoidInvoice)
		protected.GET("/invoices/:id/pdf", api.DownloadInvoicePDF)
		protected.POST("/invoices/:id/email", api.EmailInvoice)

		// Отчеты
		protected.GET("/reports/billing/statistics", api.GetBillingStatistics)
		protected.GET("/reports/billing/export", api.ExportBillingReport)
		protected.POST("/invoices/auto-generate", api.AutoGenerateInvoices)
	}

	// Получаем порт из переменных окружения
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = cfg.App.Port
	}

	log.Printf("🚀 Сервер запущен на порту %s", port)
	r.Run(":" + port)
}
