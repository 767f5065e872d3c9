package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mzati-dev/eduspace-portal-backend/api/swagger"
	"github.com/mzati-dev/eduspace-portal-backend/internal/handler"
	"github.com/mzati-dev/eduspace-portal-backend/internal/middleware"
	"github.com/mzati-dev/eduspace-portal-backend/internal/repository"
	"github.com/mzati-dev/eduspace-portal-backend/internal/service"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/cache"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/config"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/database"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/jobs"
	"github.com/mzati-dev/eduspace-portal-backend/pkg/logger"
	corsmiddleware "github.com/mzati-dev/eduspace-portal-backend/pkg/middleware/cors"
	reqidmiddleware "github.com/mzati-dev/eduspace-portal-backend/pkg/middleware/requestid"
)

// @title Eduspace Portal API
// @version 1.0.0
// @description School results management backend
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	// Repositories.
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	reportCardRepo := repository.NewReportCardRepository(db)
	gradeConfigRepo := repository.NewGradeConfigRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()
	gradeConfigSvc := service.NewGradeConfigService(gradeConfigRepo, cacheRepo, validate, logr)

	// The ranking queue and service reference each other, so the queue
	// handler closes over the service pointer assigned just below.
	var rankSvc *service.RankService
	rankQueue := jobs.NewQueue("ranking", func(ctx context.Context, job jobs.Job) error {
		return rankSvc.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Ranking.Workers,
		BufferSize: cfg.Ranking.BufferSize,
		MaxRetries: cfg.Ranking.MaxRetries,
		RetryDelay: cfg.Ranking.RetryDelay,
		Logger:     logr,
	})
	rankSvc = service.NewRankService(studentRepo, assessmentRepo, reportCardRepo, rankQueue, cacheRepo, metricsSvc, logr)

	studentSvc := service.NewStudentService(studentRepo, classRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, studentRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, assignmentRepo, classRepo, subjectRepo, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, studentRepo, assignmentRepo, gradeConfigSvc, rankSvc, validate, logr)
	reportCardSvc := service.NewReportCardService(reportCardRepo, studentRepo, classRepo, cacheRepo, validate, logr)
	reportSvc := service.NewReportService(studentRepo, classRepo, assessmentRepo, reportCardRepo, assignmentRepo, gradeConfigSvc, cacheRepo, cfg.Reports.CacheTTL, logr)
	exportSvc := service.NewExportService(reportSvc, cfg.School.Name, logr)

	queueCtx, stopQueue := context.WithCancel(context.Background())
	rankQueue.Start(queueCtx)

	// Handlers.
	studentHandler := handler.NewStudentHandler(studentSvc)
	classHandler := handler.NewClassHandler(classSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc)
	reportCardHandler := handler.NewReportCardHandler(reportCardSvc)
	reportHandler := handler.NewReportHandler(reportSvc, rankSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	gradeConfigHandler := handler.NewGradeConfigHandler(gradeConfigSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Actor())
	{
		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/exam-number/:examNumber", studentHandler.GetByExamNumber)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Delete)

		api.GET("/classes", classHandler.List)
		api.POST("/classes", classHandler.Create)
		api.GET("/classes/:id", classHandler.Get)
		api.DELETE("/classes/:id", classHandler.Delete)
		api.GET("/classes/:id/students", classHandler.Students)

		api.GET("/subjects", subjectHandler.List)
		api.POST("/subjects", subjectHandler.Create)
		api.DELETE("/subjects/:id", subjectHandler.Delete)

		api.GET("/teachers", teacherHandler.List)
		api.POST("/teachers", teacherHandler.Create)
		api.POST("/teachers/assignments", teacherHandler.Assign)
		api.POST("/teachers/class-teacher", teacherHandler.AssignClassTeacher)
		api.GET("/teachers/class-teacher/:classId", teacherHandler.ClassTeacher)
		api.DELETE("/teachers/class-teacher/:classId", teacherHandler.RemoveClassTeacher)
		api.GET("/teachers/:id", teacherHandler.Get)
		api.DELETE("/teachers/:id", teacherHandler.Delete)
		api.GET("/teachers/:id/assignments", teacherHandler.Assignments)
		api.DELETE("/teachers/:id/assignments/:classId/:subjectId", teacherHandler.Unassign)

		api.PUT("/assessments", assessmentHandler.Upsert)
		api.GET("/assessments/students/:studentId", assessmentHandler.ListForStudent)

		api.PUT("/report-cards", reportCardHandler.Upsert)
		api.GET("/report-cards/students/:studentId", reportCardHandler.Get)

		api.GET("/reports/students/:id", reportHandler.StudentReport)
		api.GET("/reports/classes/:id", reportHandler.ClassResults)
		api.POST("/reports/ranks/recalculate", reportHandler.RecalculateRanks)

		api.GET("/exports/report-cards/:id", exportHandler.ReportCardPDF)
		api.GET("/exports/class-results/:id", exportHandler.ClassResultsCSV)

		api.GET("/grade-configs", gradeConfigHandler.List)
		api.GET("/grade-configs/active", gradeConfigHandler.Active)
		api.POST("/grade-configs", gradeConfigHandler.Create)
		api.PUT("/grade-configs/:id", gradeConfigHandler.Update)
		api.POST("/grade-configs/:id/activate", gradeConfigHandler.SetActive)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown failed", "error", err)
	}
	stopQueue()
	rankQueue.Stop()
}
