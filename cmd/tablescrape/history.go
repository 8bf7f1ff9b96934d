package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/tablescrape"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	filter := tablescrape.RunFilter{Limit: c.Limit}
	if c.Dataset != "" {
		filter.Dataset = &c.Dataset
	}
	if c.Failed {
		status := tablescrape.RunFailed
		filter.Status = &status
	}

	runs, err := deps.Runs.FindRuns(deps.Ctx, filter)
	if err != nil {
		return reported(deps.Stderr, err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs recorded. Use 'tablescrape scrape' to create one.")
		return nil
	}

	for _, r := range runs {
		detail := r.FilePath
		if r.Status == tablescrape.RunFailed {
			detail = r.Error
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %d rows  %d attempts  %s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Dataset, r.Status, r.Rows, r.Attempts, detail)
	}

	return nil
}
