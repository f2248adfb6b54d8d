package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"mps_intranet_go/config"
	"mps_intranet_go/db"
	"mps_intranet_go/logging"
	"mps_intranet_go/models"
	"mps_intranet_go/services"

	"golang.org/x/term"
)

func main() {
	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	logger, err := logging.New("warn", cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Initialize database
	gormDB, err := db.Connect(cfg.DBPath, cfg.TursoDatabaseURL, cfg.TursoAuthToken, cfg.Environment, logger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(gormDB)

	store, err := db.NewStore(ctx, gormDB)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	lawyers := services.NewLawyerService(store, logger)

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label + ": ")
		value, _ := reader.ReadString('\n')
		return strings.TrimSpace(value)
	}

	fmt.Println("=== Create New Lawyer ===")
	fmt.Println()

	in := services.LawyerInput{
		Username:  prompt("Username"),
		Name:      prompt("Name"),
		Email:     prompt("Email"),
		Specialty: prompt("Specialty"),
		Phone:     prompt("Phone"),
	}

	rawPerms := prompt("Permissions (comma separated, blank for leads,deadlines,cases,documents)")
	if rawPerms != "" {
		perms, err := models.ParsePermissions(strings.Split(rawPerms, ","))
		if err != nil {
			log.Fatalf("Invalid permissions: %v", err)
		}
		in.Permissions = perms
	}

	// Get password securely
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	fmt.Println() // New line after password input
	in.Password = string(passwordBytes)

	lawyer, err := lawyers.Provision(ctx, in)
	if err != nil {
		log.Fatalf("Failed to create lawyer: %v", err)
	}

	fmt.Println()
	fmt.Println("✓ Lawyer created successfully!")
	fmt.Printf("  Username: %s\n", lawyer.Username)
	fmt.Printf("  Name: %s\n", lawyer.Name)
	fmt.Printf("  Email: %s\n", lawyer.Email)
	fmt.Printf("  Permissions: %s\n", strings.Join(lawyer.Permissions.Strings(), ", "))
	fmt.Println()
	fmt.Printf("The lawyer can now log in at http://localhost:%s\n", cfg.ServerPort)
}
