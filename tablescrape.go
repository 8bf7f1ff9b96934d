// Package tablescrape acquires a script-rendered data table from a web page
// that resists naive fetching and persists it as a timestamped CSV file.
// It fetches the page over plain HTTP or through a scripted browser, locates
// the target table among ordered candidate markers, extracts headers and rows,
// optionally walks a paginated result set, and retries whole attempts with
// fresh resources until one succeeds.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, sqlite/, yaml/).
package tablescrape
