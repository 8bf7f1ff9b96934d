package main

import (
	"fmt"
	"sort"

	tsyaml "github.com/fwojciec/tablescrape/yaml"
)

// Run executes the datasets command.
func (c *DatasetsCmd) Run(deps *Dependencies) error {
	if c.YAML {
		if err := tsyaml.EncodeDatasets(deps.Stdout, deps.Datasets); err != nil {
			return reported(deps.Stderr, err)
		}
		return nil
	}

	names := make([]string, 0, len(deps.Datasets))
	for name := range deps.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ds := deps.Datasets[name]
		mode := string(ds.Strategy)
		if ds.Paginate {
			mode += ", paginated"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  (%s)\n", name, ds.URL, mode)
	}

	return nil
}
