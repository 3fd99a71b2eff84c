package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/config"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/database"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/handlers"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/middleware"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/repositories"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/roles"
	"github.com/abdelkarimhamd/morgantihrapp-sub001/internal/services"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация подключения к базе данных
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	// Создание репозиториев
	userRepo := repositories.NewUserRepository(db)
	leaveRepo := repositories.NewLeaveRepository(db)
	attendanceRepo := repositories.NewAttendanceRepository(db)
	feedRepo := repositories.NewFeedRepository(db)

	// Создание сервисов
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret)
	leaveService := services.NewLeaveService(leaveRepo, userRepo, feedRepo)
	attendanceService := services.NewAttendanceService(attendanceRepo, userRepo)
	feedService := services.NewFeedService(feedRepo)
	dashboardService := services.NewDashboardService(userRepo, leaveRepo, attendanceRepo, feedRepo)
	userService := services.NewUserService(userRepo)

	// Создание обработчиков
	authHandler := handlers.NewAuthHandler(authService, cfg.Leave.DefaultBalanceDays)
	appHandler := handlers.NewAppHandler(leaveService, attendanceService, feedService,
		dashboardService, userService, cfg.Storage.BaseURL)

	// Настройка маршрутизатора Gin
	router := gin.Default()

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Публичные маршруты
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/register", authHandler.Register)

	// Защищенные маршруты
	authed := router.Group("")
	authed.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// Общие маршруты, не зависящие от ролевого префикса
		authed.GET("/attendances", appHandler.GetAttendances)
		authed.POST("/attendances", appHandler.PostAttendance)
		authed.GET("/attendances/functionlati", appHandler.CheckGeofence) // проверка геозоны по координатам

		authed.GET("/notifications", appHandler.GetNotifications)
		authed.POST("/notifications/:id/read", appHandler.MarkNotificationRead)
		authed.GET("/announcements", appHandler.GetAnnouncements)
		authed.GET("/holidays", appHandler.GetHolidays)
		authed.GET("/feed", appHandler.GetFeed)

		authed.GET("/profile", appHandler.GetMyProfile)
		authed.PUT("/users/:id", appHandler.UpdateUserProfile) // права проверяются в сервисе

		// Очередь согласующего (руководители, HR, CEO)
		hrRequests := authed.Group("/hr-requests")
		hrRequests.Use(middleware.ApproverOnly())
		{
			hrRequests.GET("/assigned-pending-breakdown", appHandler.GetAssignedPendingBreakdown)
		}

		// Префикс /employee доступен любой аутентифицированной роли:
		// неизвестные роли закрываются сюда при разрешении маршрутов
		employee := authed.Group("/employee")
		{
			employee.GET("/dashboard", appHandler.GetDashboard)
			employee.GET("/vacation-requests", appHandler.GetMyLeaveRequests)
			employee.POST("/vacation-requests", appHandler.CreateLeaveRequest)
			employee.PATCH("/vacation-requests/:id", appHandler.PatchMyLeaveRequest) // только отмена
		}

		// Префикс руководителя: решения по треку линейного руководителя
		manager := authed.Group("/manager")
		manager.Use(middleware.RoleOnly(roles.RoleManager))
		{
			manager.GET("/dashboard", appHandler.GetDashboard)
			manager.GET("/vacation-requests", appHandler.GetAssignedLeaveRequests)
			manager.PATCH("/vacation-requests/:id", appHandler.PatchAssignedLeaveRequest)
		}

		// Префикс CEO: те же права по линейному треку
		ceo := authed.Group("/ceo")
		ceo.Use(middleware.RoleOnly(roles.RoleCEO))
		{
			ceo.GET("/dashboard", appHandler.GetDashboard)
			ceo.GET("/vacation-requests", appHandler.GetAssignedLeaveRequests)
			ceo.PATCH("/vacation-requests/:id", appHandler.PatchAssignedLeaveRequest)
		}

		// Префикс HR-администратора: независимый HR-трек согласования
		admin := authed.Group("/admin")
		admin.Use(middleware.RoleOnly(roles.RoleHRAdmin))
		{
			admin.GET("/dashboard", appHandler.GetDashboard)
			admin.GET("/vacation-requests", appHandler.GetAssignedLeaveRequests)
			admin.PATCH("/vacation-requests/:id", appHandler.PatchHRLeaveRequest)
			admin.PUT("/users/:id/leave-balance", appHandler.SetLeaveBalance)
		}

		// Финансовые роли: просмотр без права решения
		finance := authed.Group("/finance")
		finance.Use(middleware.RoleOnly(roles.RoleFinance))
		{
			finance.GET("/dashboard", appHandler.GetDashboard)
			finance.GET("/vacation-requests", appHandler.GetMyLeaveRequests)
		}

		financeCoordinator := authed.Group("/finance_coordinator")
		financeCoordinator.Use(middleware.RoleOnly(roles.RoleFinanceCoordinator))
		{
			financeCoordinator.GET("/dashboard", appHandler.GetDashboard)
			financeCoordinator.GET("/vacation-requests", appHandler.GetMyLeaveRequests)
		}
	}

	// Запуск сервера
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
