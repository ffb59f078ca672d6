package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// CaptureMapPNG renders the exported map HTML in a headless browser and
// writes a PNG snapshot, for reports that cannot embed the interactive map.
func CaptureMapPNG(ctx context.Context, htmlPath, pngPath string) error {
	absPath, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("resolving map path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("map file not found: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, 60*time.Second)
	defer cancel()

	var buf []byte
	tasks := chromedp.Tasks{
		emulation.SetDeviceMetricsOverride(1280, 800, 1, false),
		chromedp.Navigate("file://" + absPath),
		// Give Leaflet time to pull tiles before the snapshot.
		chromedp.Sleep(3 * time.Second),
		chromedp.CaptureScreenshot(&buf),
	}
	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return fmt.Errorf("capturing map screenshot: %w", err)
	}

	if err := os.WriteFile(pngPath, buf, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", pngPath, err)
	}

	return nil
}
