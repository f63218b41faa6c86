package main

import (
	"log"
	"os"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/app"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/config"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := config.New()
	if err != nil {
		log.Println("failed to load config: ", err)
		return 1
	}

	if err := app.Precompute(cfg); err != nil {
		log.Println("precompute failed: ", err)
		return 1
	}

	return 0
}
