package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/court-case-api/config"
	"github.com/linesmerrill/court-case-api/databases"
	"github.com/linesmerrill/court-case-api/models"
)

// Creates the first registrar so the rest of the accounts can be made through the API
// Usage: go run scripts/seed_registrar.go <email> <password> <first name> <last name>
func main() {
	if len(os.Args) < 5 {
		fmt.Println("Usage: go run scripts/seed_registrar.go <email> <password> <first name> <last name>")
		os.Exit(1)
	}
	conf := config.New()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(os.Args[2]), bcrypt.DefaultCost)
	if err != nil {
		zap.S().Fatalw("failed to hash password", "error", err)
	}

	client, err := databases.NewClient(conf)
	if err != nil {
		zap.S().Fatalw("failed to create client", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		zap.S().Fatalw("failed to connect to database", "error", err)
	}
	defer client.Disconnect(ctx)

	users := databases.NewUserDatabase(databases.NewDatabase(conf, client))
	if err := users.EnsureIndexes(ctx); err != nil {
		zap.S().Fatalw("failed to create user indexes", "error", err)
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	res, err := users.InsertOne(ctx, models.UserDetails{
		FirstName: os.Args[3],
		LastName:  os.Args[4],
		Email:     strings.ToLower(strings.TrimSpace(os.Args[1])),
		Password:  string(hashedPassword),
		Role:      models.RoleRegistrar,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if mongo.IsDuplicateKeyError(err) {
		zap.S().Fatalw("a user with this email already exists", "email", os.Args[1])
	}
	if err != nil {
		zap.S().Fatalw("failed to insert registrar", "error", err)
	}
	zap.S().Infow("registrar created", "id", res.Decode())
}
