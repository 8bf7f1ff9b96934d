package main

import (
	"time"

	"github.com/fwojciec/tablescrape"
	"github.com/fwojciec/tablescrape/goquery"
)

// Built-in dataset names.
const (
	LiveMarket = "live-market"
	FloorSheet = "floor-sheet"
)

// builtinDatasets returns the datasets available without a profiles file.
func builtinDatasets() map[string]*tablescrape.Dataset {
	live := tablescrape.DefaultDataset()
	live.Name = LiveMarket
	live.URL = "https://www.nepalstock.com/live-market"
	live.Markers = []string{
		goquery.ClassMarker("table table__border table__lg table-striped table__border--bottom table-head-fixed"),
		goquery.ClassMarker("table"),
		goquery.ClassMarker("table table-striped"),
	}
	live.Prefix = "nepal_stock_data"

	floor := tablescrape.DefaultDataset()
	floor.Name = FloorSheet
	floor.URL = "https://www.nepalstock.com/floor-sheet"
	floor.Markers = []string{
		goquery.ClassMarker("table table__border table__lg table-striped table__border--bottom table-head-fixed"),
	}
	floor.Fallback = true
	floor.Prefix = "floor_sheet"
	floor.Paginate = true
	floor.PageSize = 500
	floor.PageSizeSelector = "div.box__filter--field select"
	floor.ApplySelector = "button.box__filter--search"
	floor.NextSelector = "li.pagination-next a"
	floor.Backoff = []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second}

	return map[string]*tablescrape.Dataset{
		LiveMarket: live,
		FloorSheet: floor,
	}
}
