package main_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/tablescrape"
	main "github.com/fwojciec/tablescrape/cmd/tablescrape"
	tsyaml "github.com/fwojciec/tablescrape/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetsCmd_Run(t *testing.T) {
	t.Parallel()

	datasets := func() map[string]*tablescrape.Dataset {
		floor := testDataset("floor-sheet")
		floor.Paginate = true
		return map[string]*tablescrape.Dataset{
			"live-market": testDataset("live-market"),
			"floor-sheet": floor,
		}
	}

	t.Run("lists datasets sorted by name", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   stdout,
			Stderr:   &bytes.Buffer{},
			Datasets: datasets(),
		}

		cmd := &main.DatasetsCmd{}
		require.NoError(t, cmd.Run(deps))

		assert.Equal(t,
			"floor-sheet  https://www.nepalstock.com/floor-sheet  (rendered, paginated)\n"+
				"live-market  https://www.nepalstock.com/live-market  (rendered)\n",
			stdout.String())
	})

	t.Run("prints a profiles document that decodes back", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   stdout,
			Stderr:   &bytes.Buffer{},
			Datasets: datasets(),
		}

		cmd := &main.DatasetsCmd{YAML: true}
		require.NoError(t, cmd.Run(deps))

		decoded, err := tsyaml.DecodeDatasets(stdout)
		require.NoError(t, err)
		assert.Equal(t, datasets(), decoded)
	})
}
