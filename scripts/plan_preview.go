package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/FACorreiaa/go-trip-planner/config"
	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-planner/internal/pdf"
)

var (
	location = flag.String("location", "Paris", "destination")
	duration = flag.Int("duration", 3, "trip length in days")
	budget   = flag.Float64("budget", 1000, "total budget")
	fromDate = flag.String("from", "", "start date, YYYY-MM-DD")
	toDate   = flag.String("to", "", "end date, YYYY-MM-DD")
	out      = flag.String("out", "", "write the rendered PDF to this path")
)

// Generates a single plan without the queue, printing the parsed sections.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	client, err := generativeAI.NewAIClient(ctx, generativeAI.ClientConfig{
		APIKey:      cfg.GenAI.APIKey,
		Model:       cfg.GenAI.Model,
		Temperature: cfg.GenAI.Temperature,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}

	prompt := itinerary.BuildPrompt(itinerary.TripParams{
		Location: *location,
		Duration: *duration,
		Budget:   *budget,
		FromDate: *fromDate,
		ToDate:   *toDate,
	})
	markdown, err := client.Generate(ctx, prompt)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	parsed, err := itinerary.ParseResponse(markdown)
	if err != nil {
		log.Fatalf("Failed to parse response: %v", err)
	}
	if missing := parsed.Missing(); len(missing) > 0 {
		logger.Warn("Response is missing sections", slog.String("sections", strings.Join(missing, ", ")))
	}

	plan := parsed.ToPlan()
	fmt.Printf("Itinerary:\n%s\n\n", plan.Itinerary)
	fmt.Printf("Best month to visit:\n%s\n\n", plan.BestMonth)
	fmt.Printf("Restaurants: %s\n", strings.Join(plan.RestaurantNames, ", "))
	fmt.Printf("Hotels: %s\n", strings.Join(plan.HotelNames, ", "))

	if *out == "" {
		return
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}
	defer f.Close()
	if err := pdf.Render(markdown, f); err != nil {
		log.Fatalf("Failed to render PDF: %v", err)
	}
	logger.Info("PDF written", slog.String("path", *out))
}
