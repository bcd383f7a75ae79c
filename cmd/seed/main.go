// Command main runs the database seeder for SeniorAid.
package main

import (
	"flag"
	"log"

	"senioraid/internal/config"
	"senioraid/internal/database"
	"senioraid/internal/seed"
)

func main() {
	numSeniors := flag.Int("seniors", 20, "Number of senior accounts to create")
	numVolunteers := flag.Int("volunteers", 10, "Number of volunteer accounts to create")
	numRequests := flag.Int("requests", 100, "Number of help requests to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")
	log.Printf("Target: %d seniors, %d volunteers, %d requests, clean=%v\n",
		*numSeniors, *numVolunteers, *numRequests, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumSeniors:    *numSeniors,
		NumVolunteers: *numVolunteers,
		NumRequests:   *numRequests,
		ShouldClean:   *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done! The database is populated with demo data.")
	log.Println("All seeded accounts use the password: password123")
	log.Println("Admin login: admin@senioraid.dev")
}
