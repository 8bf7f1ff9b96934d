package rod

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/tablescrape"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Pager implements tablescrape.Pager at compile time.
var _ tablescrape.Pager = (*Pager)(nil)

// refreshPollInterval is the delay between row fingerprint checks.
const refreshPollInterval = 250 * time.Millisecond

// clickTimeout bounds the wait for a control to become interactable.
const clickTimeout = 5 * time.Second

// disabledJS reports whether the element or its parent is marked disabled.
const disabledJS = `() => {
	const marked = (el) => !!el && (
		el.disabled === true ||
		el.getAttribute("aria-disabled") === "true" ||
		(el.classList && el.classList.contains("disabled"))
	);
	return marked(this) || marked(this.parentElement);
}`

// rowsTextJS returns the text of every row matching the selector.
const rowsTextJS = `(sel) => Array.from(document.querySelectorAll(sel)).map((r) => r.innerText).join("\n")`

// Pager walks a paginated table on a live browser page.
type Pager struct {
	page *rod.Page
	cfg  PaginationConfig
}

// HTML returns the current rendered document.
func (p *Pager) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", classifyError(err, "reading rendered HTML")
	}
	return html, nil
}

// SetPageSize selects size in the page-size control, activates the apply
// control when configured and waits for the rows to refresh.
func (p *Pager) SetPageSize(ctx context.Context, size int) error {
	if p.cfg.PageSizeSelector == "" {
		return tablescrape.Errorf(tablescrape.EINVALID, "page size selector not configured")
	}
	pg := p.page.Context(ctx)

	before, err := p.fingerprint(pg)
	if err != nil {
		return err
	}

	has, sel, err := pg.Has(p.cfg.PageSizeSelector)
	if err != nil {
		return classifyError(err, "looking up %q", p.cfg.PageSizeSelector)
	}
	if !has {
		return tablescrape.Errorf(tablescrape.EAUTOMATION, "page size control %q not found", p.cfg.PageSizeSelector)
	}
	option := `option[value="` + strconv.Itoa(size) + `"]`
	if err := sel.Select([]string{option}, true, rod.SelectorTypeCSSSector); err != nil {
		return classifyError(err, "selecting page size %d", size)
	}

	if p.cfg.ApplySelector != "" {
		has, btn, err := pg.Has(p.cfg.ApplySelector)
		if err != nil {
			return classifyError(err, "looking up %q", p.cfg.ApplySelector)
		}
		if !has {
			return tablescrape.Errorf(tablescrape.EAUTOMATION, "apply control %q not found", p.cfg.ApplySelector)
		}
		if err := click(btn); err != nil {
			return classifyError(err, "activating %q", p.cfg.ApplySelector)
		}
	}

	return p.waitRefresh(ctx, pg, before)
}

// Next activates the next-page control and waits for the rows to refresh.
// It reports false when the control is missing or disabled.
func (p *Pager) Next(ctx context.Context) (bool, error) {
	pg := p.page.Context(ctx)

	has, el, err := pg.Has(p.cfg.NextSelector)
	if err != nil {
		return false, classifyError(err, "looking up %q", p.cfg.NextSelector)
	}
	if !has {
		return false, nil
	}

	res, err := el.Eval(disabledJS)
	if err != nil {
		return false, classifyError(err, "inspecting %q", p.cfg.NextSelector)
	}
	if res.Value.Bool() {
		return false, nil
	}

	before, err := p.fingerprint(pg)
	if err != nil {
		return false, err
	}
	if err := click(el); err != nil {
		return false, classifyError(err, "activating %q", p.cfg.NextSelector)
	}
	if err := p.waitRefresh(ctx, pg, before); err != nil {
		return false, err
	}
	return true, nil
}

// Close closes the underlying page.
func (p *Pager) Close() error {
	return p.page.Close()
}

// waitRefresh polls the row fingerprint until it differs from before or the
// refresh timeout passes. A timeout is not an error: an unchanged page is
// reported by the caller's stall check.
func (p *Pager) waitRefresh(ctx context.Context, pg *rod.Page, before uint64) error {
	deadline := time.Now().Add(p.cfg.RefreshTimeout)
	ticker := time.NewTicker(refreshPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		fp, err := p.fingerprint(pg)
		if err != nil {
			return err
		}
		if fp != before || time.Now().After(deadline) {
			return nil
		}
	}
}

func (p *Pager) fingerprint(pg *rod.Page) (uint64, error) {
	res, err := pg.Eval(rowsTextJS, p.cfg.RowSelector)
	if err != nil {
		return 0, classifyError(err, "reading rows %q", p.cfg.RowSelector)
	}
	return xxhash.Sum64String(res.Value.Str()), nil
}

// click uses a native mouse click and falls back to a scripted click when the
// element is covered or not interactable.
func click(el *rod.Element) error {
	t := el.Timeout(clickTimeout)
	err := t.Click(proto.InputMouseButtonLeft, 1)
	t.CancelTimeout()
	if err == nil {
		return nil
	}
	_, err = el.Eval(`() => this.click()`)
	return err
}
