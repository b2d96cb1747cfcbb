package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-quiz/auth"
	"github.com/goliatone/go-quiz/auth/authware"
	"github.com/goliatone/go-quiz/config"
	"github.com/goliatone/go-quiz/mailer"
	"github.com/goliatone/go-quiz/quiz"
)

type App struct {
	config   *config.Config
	bunDB    *bun.DB
	users    auth.Users
	tokens   auth.AuthTokens
	confirms auth.ConfirmationTokens
	sessions *auth.SessionManager
	auther   *auth.Auther
	mail     *auth.MailDispatcher
	quizzes  quiz.Quizzes
	srv      *fiber.App
	logger   *slog.Logger
}

// slogAdapter bridges slog onto the printf style Logger interface the
// packages expect.
type slogAdapter struct {
	logger *slog.Logger
}

func (l slogAdapter) Debug(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l slogAdapter) Info(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l slogAdapter) Error(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (a *App) GetLogger(name string) auth.Logger {
	return slogAdapter{logger: a.logger.With("name", name)}
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	app := &App{
		config: cfg,
		logger: logger,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		logger.Error("failed to set up persistence", "error", err)
		os.Exit(1)
	}

	if err := WithAuth(ctx, app); err != nil {
		logger.Error("failed to set up auth", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		logger.Error("failed to set up http server", "error", err)
		os.Exit(1)
	}

	go func() {
		addr := fmt.Sprintf(":%d", app.config.Server.Port)
		if err := app.srv.Listen(addr); err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	logger.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.srv.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	if err := app.bunDB.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.config.Database.DSN)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	models := []any{
		(*auth.User)(nil),
		(*auth.AuthToken)(nil),
		(*auth.ConfirmationToken)(nil),
		(*quiz.Quiz)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	app.bunDB = db

	return nil
}

func WithAuth(ctx context.Context, app *App) error {
	cfg := app.config

	repo := auth.NewRepositoryManager(app.bunDB,
		auth.WithBcryptCost(cfg.GetBcryptCost()),
		auth.WithPasswordRules(auth.PasswordRules{
			MinLength: cfg.GetPasswordMinLength(),
		}),
	)
	repo.MustValidate()

	app.users = repo.Users()
	app.tokens = repo.AuthTokens()
	app.confirms = repo.ConfirmationTokens()

	service := auth.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetIssuer(),
		app.GetLogger("tokens"),
	)

	app.sessions = auth.NewSessionManager(service, app.tokens).
		WithLogger(app.GetLogger("sessions"))

	app.auther = auth.NewAuthenticator(app.users, app.sessions).
		WithLogger(app.GetLogger("auth"))

	app.mail = auth.NewMailDispatcher(
		mailer.NewMailer(cfg.SmtpConfig()),
		cfg.GetAppName(),
		cfg.GetBaseURL(),
	).WithLogger(app.GetLogger("mail"))

	app.quizzes = quiz.NewRepository(app.bunDB)

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := fiber.New(fiber.Config{
		AppName:   app.config.GetAppName(),
		BodyLimit: auth.MaxAvatarSize + 1024,
	})

	ware := authware.New(authware.Config{
		Users:    app.users,
		Sessions: app.sessions,
		Logger:   app.GetLogger("authware"),
	})

	adminWare := authware.NewAdmin(authware.Config{
		Users:    app.users,
		Sessions: app.sessions,
		Logger:   app.GetLogger("authware"),
	})

	authController := auth.NewAuthController(
		auth.WithControllerLogger(app.GetLogger("auth-http")),
		auth.WithControllerStores(app.users, app.confirms),
		auth.WithControllerAuther(app.auther),
		auth.WithControllerMail(app.mail),
	)
	auth.RegisterAuthRoutes(srv, authController, ware)

	profileController := auth.NewProfileController(app.users, app.GetLogger("profile-http"))
	auth.RegisterProfileRoutes(srv, profileController, ware)

	adminController := auth.NewAdminController(app.users, app.mail, app.GetLogger("admin-http"))
	auth.RegisterAdminRoutes(srv, adminController, adminWare)

	quizController := quiz.NewController(app.quizzes, app.GetLogger("quiz-http"))
	quiz.RegisterRoutes(srv, quizController, adminWare)

	app.srv = srv

	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
