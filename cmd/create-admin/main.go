package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/exstem-essay/internal/config"
	"github.com/stemsi/exstem-essay/internal/database"
	"github.com/stemsi/exstem-essay/internal/logger"
	"github.com/stemsi/exstem-essay/internal/model"
	"github.com/stemsi/exstem-essay/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const superAdminRole = "super_admin"

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	adminRepo := repository.NewAdminRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Admin User ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	fmt.Printf("Enter Role (default %s): ", superAdminRole)
	roleName, _ := reader.ReadString('\n')
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		roleName = superAdminRole
	}

	// ─── Logic ─────────────────────────────────────────────────────────

	// The super admin role always holds every permission, including ones
	// added after it was first created. Other roles are created empty.
	var codes []string
	if roleName == superAdminRole {
		for _, p := range model.AllPermissions {
			codes = append(codes, string(p))
		}
	}
	roleID, err := roleRepo.EnsureRole(ctx, roleName, codes)
	if err != nil {
		log.Fatal().Err(err).Str("role", roleName).Msg("Failed to prepare role")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	newAdmin := &model.Admin{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashedPassword),
		RoleID:       roleID,
	}

	if err := adminRepo.Create(ctx, newAdmin); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			fmt.Printf("Error: an admin with email %s already exists\n", email)
			return
		}
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nSuccess! Admin '%s' (%s) created with ID: %d, role %s\n", newAdmin.Name, newAdmin.Email, newAdmin.ID, roleName)
}
