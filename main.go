package main

import (
	"log"

	"raceline.dev/raceline/aero"
	"raceline.dev/raceline/catalog"
	"raceline.dev/raceline/cli"
	"raceline.dev/raceline/models"
	"raceline.dev/raceline/race"
	"raceline.dev/raceline/settings"
	"raceline.dev/raceline/store"
)

func main() {
	st, err := store.Open(store.DefaultBasePath())
	if err != nil {
		log.Fatal(err)
	}

	cfg := settings.New(st)
	cfg.LoadWithRetries(3)

	registry := models.NewRegistry(aero.New())

	cli.Handle(&cli.App{
		Settings:  cfg,
		Catalog:   catalog.New(st),
		Registry:  registry,
		Optimizer: race.NewOptimizer(registry),
	})
}
