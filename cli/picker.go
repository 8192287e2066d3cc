package cli

import (
	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
)

// pickTrack prompts for a track by name when none was given on the command
// line.
func pickTrack(app *App) (string, error) {
	tracks, err := app.Catalog.List()
	if err != nil {
		return "", err
	}
	names := make([]string, len(tracks))
	for i, t := range tracks {
		names[i] = t.Name
	}

	prompt := promptui.Select{
		Label: "Select Track",
		Items: names,
		Size:  10,
	}
	_, result, err := prompt.Run()
	if err != nil {
		return "", errors.Wrap(err, "track selection aborted")
	}
	return result, nil
}

// pickModel prompts for an optimization model.
func pickModel(app *App) (string, error) {
	metas := app.Registry.List()
	ids := make([]string, len(metas))
	for i, meta := range metas {
		ids[i] = meta.ID
	}

	prompt := promptui.Select{
		Label: "Select Model",
		Items: ids,
	}
	_, result, err := prompt.Run()
	if err != nil {
		return "", errors.Wrap(err, "model selection aborted")
	}
	return result, nil
}
