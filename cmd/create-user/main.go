package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/quizroom/internal/config"
	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/logger"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/repository"
	"github.com/stemsi/quizroom/internal/service"
	"golang.org/x/term"
)

func main() {
	reset := flag.Bool("reset", false, "reset the password of an existing user")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Open Store ────────────────────────────────────────────────────
	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer db.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	users := repository.NewUserRepository(db)
	authService := service.NewAuthService(
		service.NewStoreLock(), users, repository.NewSessionRepository(db),
		cfg.SessionTTL, cfg.BcryptCost, log,
	)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	if *reset {
		fmt.Println("=== Reset User Password ===")
	} else {
		fmt.Println("=== Create New User ===")
	}

	// Username
	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	if *reset {
		password, ok := readPassword()
		if !ok {
			return
		}
		user, err := authService.ResetPassword(ctx, username, password)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to reset password")
		}
		fmt.Printf("\nSuccess! Password of '%s' updated\n", user.Username)
		return
	}

	// Full name
	fmt.Print("Enter Full Name: ")
	fullName, _ := reader.ReadString('\n')
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fmt.Println("Error: Full name is required")
		return
	}

	// Email
	fmt.Print("Enter Email (optional): ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	// Role
	fmt.Print("Enter Role [STUDENT/TEACHER/ADMIN] (default TEACHER): ")
	roleStr, _ := reader.ReadString('\n')
	role := model.Role(strings.ToUpper(strings.TrimSpace(roleStr)))
	if role == "" {
		role = model.RoleTeacher
	}
	if !role.Valid() {
		fmt.Println("Error: Role must be STUDENT, TEACHER or ADMIN")
		return
	}

	password, ok := readPassword()
	if !ok {
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	user, err := authService.Register(ctx, service.RegisterInput{
		Username: username,
		Password: password,
		FullName: fullName,
		Email:    email,
		Role:     role,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! %s '%s' created with ID: %d\n", user.Role, user.Username, user.ID)
}

func readPassword() (string, bool) {
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return "", false
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return "", false
	}
	return password, true
}
