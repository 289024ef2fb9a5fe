package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/2beens/fitlog/internal/config"
	"github.com/2beens/fitlog/internal/db"
	"github.com/2beens/fitlog/internal/users"
	"github.com/2beens/fitlog/pkg"

	log "github.com/sirupsen/logrus"
)

// userctl resets the password of an existing account, straight in the
// database. Meant to be run on the server, next to the service.
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development ]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	email := flag.String("email", "", "email of the account")
	newPassword := flag.String("new-password", "", "new password to set")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	userEmail := strings.ToLower(strings.TrimSpace(*email))
	if userEmail == "" {
		log.Fatalln("email not specified")
	}
	if *newPassword == "" {
		log.Fatalln("new password not specified")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: cfg.PostgresHost,
		DBPort: cfg.PostgresPort,
		DBName: cfg.PostgresDBName,
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	usersRepo := users.NewRepo(dbPool)
	user, err := usersRepo.GetByEmail(ctx, userEmail)
	if err != nil {
		log.Fatalf("get user [%s]: %s", userEmail, err)
	}

	passwordHash, err := pkg.HashPassword(*newPassword)
	if err != nil {
		log.Fatalf("hash password: %s", err)
	}

	if err := usersRepo.UpdatePasswordHash(ctx, user.ID, passwordHash); err != nil {
		log.Fatalf("update password: %s", err)
	}

	log.Printf("password of user %d [%s] updated", user.ID, user.Email)
}
