package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/macrowatch/indicator-api/internal/bootstrap"
	"github.com/macrowatch/indicator-api/internal/data"
)

// runAdminUpsert provisions an administrator account. The password comes from
// ADMIN_PASSWORD or an interactive prompt; it is never accepted as a flag so
// it cannot leak into shell history or process listings.
func runAdminUpsert(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("admin-upsert", flag.ContinueOnError)
	email := fs.String("email", "", "admin email address (required)")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	password, err := readPassword()
	if err != nil {
		return err
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	db, err := bootstrap.ConnectDB(ctx.Config.Postgres, ctx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			ctx.Logger.Error("close database failed", "error", cerr)
		}
	}()

	repo := data.NewUserRepo(db)
	identity, err := repo.UpsertAdmin(ctx.Ctx, data.UpsertAdminInput{
		Email:        *email,
		Name:         *name,
		PasswordHash: string(hash),
	})
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}

	ctx.Logger.InfoContext(ctx.Ctx, "admin account provisioned",
		"email", identity.Email,
		"id", identity.ID,
	)
	return nil
}

func readPassword() (string, error) {
	if fromEnv := os.Getenv("ADMIN_PASSWORD"); fromEnv != "" {
		return fromEnv, nil
	}

	fmt.Fprint(os.Stderr, "password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
