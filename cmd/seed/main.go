// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (dev_user) already exists.
package main

import (
	"context"
	"log"
	"os"

	authdomain "relay-chat/backend/internal/auth/domain"
	authrepo "relay-chat/backend/internal/auth/repository"
	"relay-chat/backend/internal/clock"
	"relay-chat/backend/internal/config"
	"relay-chat/backend/internal/db"
	"relay-chat/backend/internal/snowflake"
	userdomain "relay-chat/backend/internal/user/domain"
	userrepo "relay-chat/backend/internal/user/repository"
)

const (
	devUsername   = "dev_user"
	devExternalID = "dev-kakao-0001"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	credentials := authrepo.NewPostgresCredentialRepository(conn)

	username, err := userdomain.NewUsername(devUsername)
	if err != nil {
		log.Fatalf("username: %v", err)
	}

	existing, err := users.FindByUsername(ctx, username)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev_user exists). Skipping.")
		os.Exit(0)
	}

	ids, err := snowflake.New(cfg.SnowflakeMachineID, clock.System{})
	if err != nil {
		log.Fatalf("snowflake: %v", err)
	}

	userID, err := ids.NextID()
	if err != nil {
		log.Fatalf("generate user id: %v", err)
	}
	user := userdomain.NewUser(userID, username, []userdomain.Role{userdomain.RoleUser, userdomain.RoleAdmin})
	if err := users.Save(ctx, user); err != nil {
		log.Fatalf("create dev user: %v", err)
	}

	credentialID, err := ids.NextID()
	if err != nil {
		log.Fatalf("generate credential id: %v", err)
	}
	provider, err := authdomain.NewProvider(authdomain.ProviderTypeKakao, devExternalID)
	if err != nil {
		log.Fatalf("provider: %v", err)
	}
	credential := authdomain.NewCredential(credentialID, provider)
	if err := credential.AssignUser(user.ID); err != nil {
		log.Fatalf("assign user: %v", err)
	}
	if err := credentials.Save(ctx, credential); err != nil {
		log.Fatalf("create dev credential: %v", err)
	}

	log.Printf("Seeded dev user %d (%s) with kakao credential %d", user.ID, devUsername, credential.ID)
}
