package main

import (
	"log"

	"github.com/MrSnakeDoc/relay/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ relay failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ relay failed: %v", err)
	}
}
