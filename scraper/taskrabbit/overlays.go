package taskrabbit

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"taskrabbit-scraper/utils"
)

// dismissJS removes modal iframes and fixed high z-index layers, then
// clicks any visible close control. It returns how many elements it
// removed or clicked.
const dismissJS = `((removeXPaths, closeXPaths) => {
	const visible = el => !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length);
	const each = (xp, fn) => {
		const r = document.evaluate(xp, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		for (let i = 0; i < r.snapshotLength; i++) fn(r.snapshotItem(i));
	};
	let n = 0;
	for (const xp of removeXPaths) each(xp, el => { if (visible(el)) { el.remove(); n++; } });
	for (const el of document.querySelectorAll('body *')) {
		const style = window.getComputedStyle(el);
		if (style.position === 'fixed' && parseInt(style.zIndex, 10) > 1000) { el.remove(); n++; }
	}
	for (const xp of closeXPaths) each(xp, el => { if (el.isConnected && visible(el)) { el.click(); n++; } });
	return n;
})(%s, %s)`

const blockingJS = `((xpaths) => {
	const visible = el => !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length);
	let n = 0;
	for (const xp of xpaths) {
		const r = document.evaluate(xp, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		for (let i = 0; i < r.snapshotLength; i++) if (visible(r.snapshotItem(i))) n++;
	}
	return n;
})(%s)`

// DismissOverlays closes promo modals and popups. A page without an
// overlay is the normal case and returns nil; an overlay that is still
// blocking the page when the step times out returns ErrOverlay.
func (s *Session) DismissOverlays(ctx context.Context) error {
	stepCtx, cancel := s.step(ctx, s.browser.StepTimeout)
	defer cancel()

	dismiss := fmt.Sprintf(dismissJS, jsArg(overlayRemoveXPaths), jsArg(overlayCloseXPaths))
	blocking := fmt.Sprintf(blockingJS, jsArg(overlayBlockingXPaths))

	total := 0
	err := poll(stepCtx, func(ctx context.Context) (bool, error) {
		var handled, remaining int
		err := chromedp.Run(ctx,
			chromedp.Evaluate(dismiss, &handled),
			chromedp.KeyEvent(kb.Escape),
			chromedp.Evaluate(blocking, &remaining),
		)
		if err != nil {
			return false, err
		}
		total += handled
		return remaining == 0, nil
	})
	if err != nil {
		return stepErr("dismiss overlays", ErrOverlay, err)
	}

	if total > 0 {
		utils.Debug("Dismissed %d overlay elements", total)
	}
	return nil
}
