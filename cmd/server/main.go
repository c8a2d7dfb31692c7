package main

import (
	"flag"
	"log"
	// dialog.timezone on hosts without a zoneinfo database
	_ "time/tzdata"

	"github.com/simp-lee/authportal/internal/app"
	"github.com/simp-lee/authportal/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal("failed to create app: ", err)
	}

	if err := a.Run(); err != nil {
		log.Fatal("server error: ", err)
	}
}
