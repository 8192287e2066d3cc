// Package cli is the command-line surface of the engine: one-shot commands
// for scripting and a terminal UI for interactive use.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"raceline.dev/raceline/catalog"
	"raceline.dev/raceline/models"
	"raceline.dev/raceline/race"
	"raceline.dev/raceline/settings"
)

// App bundles the engine components the commands operate on.
type App struct {
	Settings  *settings.RacelineSettings
	Catalog   *catalog.Catalog
	Registry  *models.Registry
	Optimizer *race.Optimizer
}

func Handle(app *App) {
	cmd := &cli.Command{
		Name:  "raceline",
		Usage: "Compute optimal racing lines and speed profiles",
		Commands: []*cli.Command{
			optimizeCommand(app),
			modelsCommand(app),
			tracksCommand(app),
			importCommand(app),
			settingsCommand(app),
			{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Browse tracks and run optimizations in a terminal UI",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return interactive(app)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func optimizeCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:    "optimize",
		Aliases: []string{"o"},
		Usage:   "Compute racing lines for vehicles on a track",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "track",
				Aliases: []string{"t"},
				Usage:   "Track name from the catalog; prompts when omitted",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Model identifier; prompts when omitted",
			},
			&cli.IntFlag{
				Name:    "vehicles",
				Aliases: []string{"n"},
				Usage:   "Number of vehicles, 1 to 6",
				Value:   1,
			},
			&cli.Float64Flag{
				Name:  "friction",
				Usage: "Override the track's friction coefficient",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit raw JSON instead of the formatted summary",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			trackName := cmd.String("track")
			if trackName == "" {
				picked, err := pickTrack(app)
				if err != nil {
					return err
				}
				trackName = picked
			}
			modelID := cmd.String("model")
			if modelID == "" {
				picked, err := pickModel(app)
				if err != nil {
					return err
				}
				modelID = picked
			}

			t, err := app.Catalog.Get(trackName)
			if err != nil {
				return err
			}
			friction := t.Friction
			if cmd.IsSet("friction") {
				friction = cmd.Float64("friction")
			}

			count := int(cmd.Int("vehicles"))
			cars := make([]models.Vehicle, count)
			for i := range cars {
				cars[i] = models.DefaultVehicle(fmt.Sprintf("car-%d", i+1))
			}

			results, err := app.Optimizer.Optimize(ctx, race.Request{
				TrackPoints:    t.Points,
				TrackWidth:     t.Width,
				Friction:       friction,
				Vehicles:       cars,
				ModelID:        modelID,
				ResamplePoints: app.Settings.ResamplePoints,
			})
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				return json.NewEncoder(os.Stdout).Encode(results)
			}
			fmt.Print(renderResults(t.Name, results))
			return nil
		},
	}
}

func modelsCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List the available optimization models",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			for _, meta := range app.Registry.List() {
				fmt.Printf("%-20s %s\n", meta.ID, meta.Name)
				fmt.Printf("%-20s %s\n", "", meta.Description)
			}
			return nil
		},
	}
}

func tracksCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "Manage the track catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all known tracks",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					tracks, err := app.Catalog.List()
					if err != nil {
						return err
					}
					for _, t := range tracks {
						origin := "custom"
						if t.Builtin {
							origin = "builtin"
						}
						fmt.Printf("%-35s %-8s width=%.1fm friction=%.2f points=%d\n",
							t.Name, origin, t.Width, t.Friction, len(t.Points))
					}
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Print a track as JSON",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					t, err := app.Catalog.Get(cmd.Args().First())
					if err != nil {
						return err
					}
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(t)
				},
			},
			{
				Name:      "add",
				Usage:     "Add a track from a JSON file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "normalize",
						Usage: "Rescale coordinates onto the standard canvas before storing",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					data, err := os.ReadFile(cmd.Args().First())
					if err != nil {
						return err
					}
					var t catalog.Track
					if err := json.Unmarshal(data, &t); err != nil {
						return err
					}
					if cmd.Bool("normalize") {
						t, _, err = catalog.DefaultNormalizer().NormalizeTrack(t)
						if err != nil {
							return err
						}
					}
					return app.Catalog.Put(t)
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a stored track",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return app.Catalog.Remove(cmd.Args().First())
				},
			},
		},
	}
}

func importCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import raceways from an OpenStreetMap pbf extract",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input-file",
				Aliases: []string{"i"},
				Usage:   "The open street maps pbf file to scan for raceways",
				Value:   "./map.osm.pbf",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tracks, err := catalog.ImportPBF(ctx, cmd.String("input-file"))
			if err != nil {
				return err
			}
			for _, t := range tracks {
				if err := app.Catalog.Put(t); err != nil {
					return err
				}
				fmt.Printf("imported %s (%d points)\n", t.Name, len(t.Points))
			}
			return nil
		},
	}
}

func settingsCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or edit engine settings",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "recommended",
				Usage: "Reset to the recommended settings",
			},
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Reset to the default settings",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			switch {
			case cmd.Bool("recommended"):
				app.Settings.Recommended()
				app.Settings.Save()
			case cmd.Bool("reset"):
				app.Settings.Default()
				app.Settings.Save()
			}
			data, err := json.MarshalIndent(app.Settings, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
