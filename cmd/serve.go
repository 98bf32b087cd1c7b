package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TaskPilotGo/config"
	"TaskPilotGo/middleware"
	"TaskPilotGo/routes"
	"TaskPilotGo/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	conf, err := bootstrap()
	if err != nil {
		return err
	}
	defer config.Logger.Sync()

	if conf.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	loc, err := conf.Location()
	if err != nil {
		return fmt.Errorf("无效的时区 %q: %w", conf.Timezone, err)
	}

	// 初始化Redis；未启用时提示消息不持久化
	var flash services.FlashStore = services.NopFlashStore{}
	if conf.RedisEnabled {
		if err := config.InitRedis(conf); err != nil {
			return fmt.Errorf("无法初始化Redis: %w", err)
		}
		defer config.RedisClient.Close()
		flash = services.NewRedisFlashStore(config.RedisClient)
	}

	// 设置Gin模式
	if conf.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建Gin引擎
	r := gin.New()

	// 设置中间件
	middleware.SetupMiddleware(r, conf.AllowedOrigins())

	// 注册路由
	routes.RegisterRoutes(r, routes.Deps{
		DB:           config.DB,
		Clock:        services.NewClock(loc),
		Weights:      conf.StressWeights(),
		Flash:        flash,
		IsProduction: conf.IsProduction(),
	})

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:    ":" + conf.ServerPort,
		Handler: r,
	}

	// 在goroutine中启动服务器
	serveErr := make(chan error, 1)
	go func() {
		config.Logger.Infow("启动服务器", "port", conf.ServerPort, "environment", conf.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 等待中断信号以实现优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
		return nil
	case <-quit:
	}
	config.Logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务器关闭失败: %w", err)
	}

	config.Logger.Info("服务器已关闭")
	return nil
}
