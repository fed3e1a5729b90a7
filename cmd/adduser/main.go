// cmd/adduser/main.go
// Creates or updates a login in the database.
//
// Usage:
//
//	go run ./cmd/adduser -email sam@example.com -password testing1 -admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/padraicbc/footy/auth"
	"github.com/padraicbc/footy/config"
	bundb "github.com/padraicbc/footy/db"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/store"
	"github.com/padraicbc/footy/store/bunstore"
)

func main() {
	email := flag.String("email", "", "login email (required)")
	password := flag.String("password", "", "plain-text password, at least 8 characters (required)")
	admin := flag.Bool("admin", false, "grant the admin role")
	player := flag.Int("player", 0, "link the login to this player id")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}
	addr, err := auth.NormaliseEmail(*email)
	if err != nil {
		log.Fatal("email: ", err)
	}
	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal("password: ", err)
	}

	role := models.RoleUser
	if *admin {
		role = models.RoleAdmin
	}
	var playerID *int
	if *player > 0 {
		playerID = player
	}

	ctx := context.Background()
	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()
	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatal("create tables: ", err)
	}
	st := bunstore.New(db)

	if playerID != nil {
		if _, err := st.GetPlayer(ctx, *playerID); err != nil {
			log.Fatal("player: ", err)
		}
	}

	u, err := st.GetUserByEmail(ctx, addr)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		u = &models.User{Email: addr, Password: hash, Role: role, PlayerID: playerID}
		if err := st.CreateUser(ctx, u); err != nil {
			log.Fatal("insert user: ", err)
		}
	case err != nil:
		log.Fatal("lookup user: ", err)
	default:
		u.Password, u.Role = hash, role
		cols := []string{"password", "role"}
		if playerID != nil {
			u.PlayerID = playerID
			cols = append(cols, "player_id")
		}
		if err := st.UpdateUser(ctx, u, cols...); err != nil {
			log.Fatal("update user: ", err)
		}
	}

	fmt.Printf("user %q saved (id %d, role %s)\n", addr, u.ID, u.Role)
}
