package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-fitness-planner/internal/app"
	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/formtoken"
	"ai-fitness-planner/internal/planner"
	"ai-fitness-planner/internal/profile"
	"ai-fitness-planner/internal/web"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		serve()
	case "prompt":
		printPrompt(os.Args[2:])
	case "metrics-cleanup":
		cleanupMetrics(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	config.LoadDotEnv()
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func serve() {
	cfg := loadConfig()
	ctx := context.Background()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	tokens, err := formtoken.NewIssuer(cfg.FormTokenSecret, formtoken.DefaultTTL)
	if err != nil {
		log.Fatalf("Failed to initialize form tokens: %v", err)
	}

	server := web.NewServer(application.Planner, tokens, cfg.MetricsDBPath)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Handler(),
	}

	go func() {
		log.Printf("Fitness planner listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// printPrompt renders the prompt for the given answers. No configuration or
// network access is needed.
func printPrompt(args []string) {
	def := profile.Default()
	cmd := flag.NewFlagSet("prompt", flag.ExitOnError)
	goal := cmd.String("goal", string(def.Goal), "Fitness goal key")
	days := cmd.Int("days", def.WorkoutDays, "Workout days per week (1-7)")
	equipment := cmd.String("equipment", def.Equipment, "Available equipment")
	diet := cmd.String("diet", string(def.Diet), "Dietary preference key")
	budget := cmd.String("budget", string(def.Budget), "Weekly food budget key")
	allergies := cmd.String("allergies", "", "Allergies or dislikes")
	cmd.Parse(args)

	req := profile.PlanRequest{
		Goal:        profile.ParseGoal(*goal),
		WorkoutDays: profile.ClampDays(*days),
		Equipment:   *equipment,
		Diet:        profile.ParseDiet(*diet),
		Budget:      profile.ParseBudget(*budget),
		Allergies:   *allergies,
	}
	if w := req.Validate(); w != nil {
		log.Fatalf("%s (missing: %v)", profile.ValidationMessage, w.Missing)
	}

	prompt, err := planner.BuildPrompt(req)
	if err != nil {
		log.Fatalf("Failed to build prompt: %v", err)
	}
	fmt.Println(prompt)
}

func cleanupMetrics(args []string) {
	cmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := cmd.Int("days", 30, "Keep records for the last N days")
	cmd.Parse(args)

	config.LoadDotEnv()
	cfg := &config.Config{MetricsDBPath: os.Getenv("METRICS_DB_PATH")}

	store, err := app.OpenMetrics(cfg)
	if err != nil {
		log.Fatalf("Failed to open metrics store: %v", err)
	}
	defer store.Close()

	affected, err := store.Cleanup(*days)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}
	fmt.Printf("Successfully removed %d old metric records.\n", affected)
}

func printUsage() {
	fmt.Println("Usage: fitness-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve              Run the web form")
	fmt.Println("  prompt             Print the prompt for the given answers")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
