package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/config"
	"github.com/BuzzLyutic/tasklist/internal/handler"
	"github.com/BuzzLyutic/tasklist/internal/repo"
	"github.com/BuzzLyutic/tasklist/internal/service"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, a.cfg.DatabaseURL) // Создаем новое соединение к БД
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil { // Пытаемся пингануть БД
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	a.logger.Info("Successfully connected to the Database!")
	return pool, nil
}

func (a *app) services(ctx context.Context) (handler.Services, func(), error) {
	if a.cfg.Storage == config.StorageMemory {
		a.logger.Warn("using in-memory storage, data is lost on exit")
		mem := repo.NewMemory()
		return handler.Services{
			Tasks:  service.NewTaskService(mem.Tasks, mem.Lists),
			Lists:  service.NewListService(mem.Lists),
			Labels: service.NewLabelService(mem.Labels),
		}, func() {}, nil
	}

	pool, err := a.connect(ctx)
	if err != nil {
		return handler.Services{}, nil, err
	}
	if err := repo.Migrate(ctx, pool, a.logger); err != nil {
		pool.Close()
		return handler.Services{}, nil, err
	}

	tasks, lists, labels := repo.NewTaskRepo(pool), repo.NewListRepo(pool), repo.NewLabelRepo(pool)
	return handler.Services{
		Tasks:  service.NewTaskService(tasks, lists),
		Lists:  service.NewListService(lists),
		Labels: service.NewLabelService(labels),
	}, pool.Close, nil
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	svc, closeStorage, err := a.services(ctx)
	if err != nil {
		return err
	}
	defer closeStorage() // Запланированное закрытие соединения

	srv := http.Server{ // Создаем сервер
		Addr:         ":" + a.cfg.Port,
		Handler:      handler.NewRouter(svc, a.logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { // Запуск сервера и обработка ошибок
		a.logger.Info("Server started", zap.String("addr", srv.Addr), zap.String("storage", a.cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("Server stopped successfully!")
	return nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := repo.Migrate(cmd.Context(), pool, a.logger); err != nil {
				return err
			}
			a.logger.Info("migrations applied")
			return nil
		},
	}
}
