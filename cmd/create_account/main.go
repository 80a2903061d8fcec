package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/drivewatch/internal/config"
	"github.com/BradenHooton/drivewatch/internal/database"
	"github.com/BradenHooton/drivewatch/internal/models"
	"github.com/BradenHooton/drivewatch/internal/repositories"
	"github.com/BradenHooton/drivewatch/internal/services"
	pkglogger "github.com/BradenHooton/drivewatch/pkg/logger"
)

func main() {
	role := flag.String("role", "", "account partition: company, admin or driver")
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "login email")
	companyID := flag.String("company", "", "owning company id (admin and driver only)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	// the password never goes on the command line
	password := os.Getenv("ACCOUNT_PASSWORD")
	if *role == "" || *name == "" || *email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "usage: ACCOUNT_PASSWORD=... create_account -role <role> -name <name> -email <email> [-company <id>]")
		os.Exit(2)
	}

	parsedRole, err := models.ParseRole(*role)
	if err != nil {
		logger.Error("invalid role", pkglogger.Err(err))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", pkglogger.Err(err))
		os.Exit(1)
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", pkglogger.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.CheckSchema(ctx); err != nil {
		logger.Error("database schema is not ready", pkglogger.Err(err))
		os.Exit(1)
	}

	svc := services.NewAccountService(repositories.NewAccountRepository(db), logger, pkglogger.NewAuditLogger(logger))

	req := services.ProvisionRequest{
		Role:     parsedRole,
		Name:     *name,
		Email:    *email,
		Password: password,
	}
	if *companyID != "" {
		req.CompanyID = companyID
	}

	account, err := svc.Provision(ctx, req)
	if err != nil {
		logger.Error("failed to create account", pkglogger.Err(err))
		os.Exit(1)
	}

	fmt.Println(account.ID)
}
