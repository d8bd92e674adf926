// KeBiao 课表生成引擎服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/kebiao/kebiao/internal/config"
	"github.com/kebiao/kebiao/internal/constraints"
	"github.com/kebiao/kebiao/internal/database"
	"github.com/kebiao/kebiao/internal/handler"
	"github.com/kebiao/kebiao/internal/metrics"
	"github.com/kebiao/kebiao/internal/middleware"
	"github.com/kebiao/kebiao/internal/repository"
	"github.com/kebiao/kebiao/internal/security"
	"github.com/kebiao/kebiao/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	format := "json"
	if cfg.IsDevelopment() {
		format = "console"
	}
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: format,
	})

	// 打印版本信息
	fmt.Printf("KeBiao 课表引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 连接数据库
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("数据库连接失败")
	}
	defer db.Close()

	repos := repository.New(db)

	// 定期上报连接池状态
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			s := db.Stats()
			metrics.SetDBConnections(s.OpenConnections, s.Idle, s.InUse)
		}
	}()

	// 创建处理器
	timetableHandler := handler.NewTimetableHandler(repos, cfg.Generator)
	analyticsHandler := handler.NewAnalyticsHandler(repos)
	dataHandler := handler.NewDataHandler(repos)

	// 创建 HTTP 服务器
	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded","service":"kebiao","database":"down"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"kebiao"}`))
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "KeBiao 课表引擎 API v1",
			"endpoints": {
				"timetable": {
					"generate": "POST /api/v1/timetable/generate",
					"batch": "POST /api/v1/timetable/batch",
					"optimize": "POST /api/v1/timetable/optimize",
					"get": "GET /api/v1/timetable/{user}",
					"conflicts": "GET /api/v1/timetable/{user}/conflicts",
					"analytics": "GET /api/v1/timetable/{user}/analytics",
					"workload": "GET /api/v1/timetable/{user}/workload"
				},
				"data": {
					"faculty": "GET|POST /api/v1/faculty",
					"subjects": "GET|POST /api/v1/subjects",
					"classes": "GET|POST /api/v1/classes",
					"sample": "POST /api/v1/data/sample",
					"clear": "POST /api/v1/data/clear"
				},
				"constraints": {
					"library": "GET /api/v1/constraints/library"
				},
				"debug": {
					"compatibility": "GET /api/v1/debug/compatibility"
				}
			}
		}`))
	})

	// 课表生成 API
	mux.HandleFunc("/api/v1/timetable/generate", timetableHandler.Generate)
	mux.HandleFunc("/api/v1/timetable/batch", timetableHandler.Batch)
	mux.HandleFunc("/api/v1/timetable/optimize", timetableHandler.Optimize)
	mux.HandleFunc("/api/v1/timetable", timetableHandler.Get)
	mux.HandleFunc("/api/v1/timetable/{user}", timetableHandler.Get)

	// 课表分析 API
	mux.HandleFunc("/api/v1/timetable/{user}/conflicts", analyticsHandler.Conflicts)
	mux.HandleFunc("/api/v1/timetable/{user}/analytics", analyticsHandler.Analytics)
	mux.HandleFunc("/api/v1/timetable/{user}/workload", analyticsHandler.Workload)

	// 基础数据 API
	mux.HandleFunc("/api/v1/faculty", dataHandler.Faculty)
	mux.HandleFunc("/api/v1/subjects", dataHandler.Subjects)
	mux.HandleFunc("/api/v1/classes", dataHandler.Classes)
	mux.HandleFunc("/api/v1/data/sample", dataHandler.Sample)
	mux.HandleFunc("/api/v1/data/clear", dataHandler.Clear)

	// 约束库 API - 返回引擎支持的所有约束及参数定义
	mux.HandleFunc("/api/v1/constraints/library", handleConstraintLibrary)

	// 调试 API
	mux.HandleFunc("/api/v1/debug/compatibility", dataHandler.Compatibility)

	// ========================================
	// 监控端点
	// ========================================

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 中间件执行顺序：requestID -> securityHeaders -> recovery -> cors -> auth -> logging -> handler
	var root http.Handler = middleware.LoggingMiddleware(mux)
	root = buildAuthMiddleware(cfg)(root)
	root = corsMiddleware(cfg)(root)
	root = middleware.RecoveryMiddleware(root)
	root = middleware.SecurityHeadersMiddleware(root)
	root = middleware.RequestIDMiddleware(root)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Str("api_docs", fmt.Sprintf("http://localhost:%d/api/v1/", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// handleConstraintLibrary 返回约束库定义
func handleConstraintLibrary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"status":"error","message":"仅支持GET方法"}`, http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(constraints.LibraryResponse{Library: constraints.GetLibrary()})
}

// buildAuthMiddleware 构建认证中间件
// 设置 API_KEY 与 API_KEY_USER 后启用；未设置时跳过认证（开发模式）
func buildAuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	staticKey := os.Getenv("API_KEY")
	if staticKey == "" {
		logger.Warn().Msg("未配置 API_KEY，认证已禁用")
		return func(next http.Handler) http.Handler { return next }
	}

	userID, err := uuid.Parse(os.Getenv("API_KEY_USER"))
	if err != nil {
		userID = uuid.New()
		logger.Warn().
			Str("user_id", userID.String()).
			Msg("API_KEY_USER 未配置或非法，已生成随机用户ID")
	}

	keyManager := security.NewAPIKeyManager()
	keyManager.Register(&security.APIKey{
		Key:       staticKey,
		UserID:    userID,
		Name:      "static",
		Scopes:    []string{"*"},
		CreatedAt: time.Now(),
		Enabled:   true,
	})

	return middleware.AuthMiddleware(&middleware.AuthConfig{
		APIKeyManager:   keyManager,
		RateLimiter:     security.NewRateLimiter(cfg.API.RateLimit, time.Minute),
		SkipPaths:       []string{"/health", "/version", "/metrics"},
		EnableRateLimit: cfg.API.RateLimit > 0,
	})
}

// corsMiddleware 跨域中间件
func corsMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.API.CORS.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			origin := "*"
			if len(cfg.API.CORS.Origins) > 0 {
				origin = cfg.API.CORS.Origins[0]
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
