package sink

import (
	"fmt"
	"io"

	"github.com/n4hy/VisibleEphemeris/internal/visibility"
)

// ansiClear clears the terminal and homes the cursor.
const ansiClear = "\x1b[2J\x1b[H"

// ConsoleSink renders each snapshot as a fixed-width table.
type ConsoleSink struct {
	w           io.Writer
	clearScreen bool
	visibleOnly bool
	pageSize    int // rows between header re-prints
}

// NewConsoleSink creates a console sink writing to w. pageSize controls
// how often the column header is re-printed; values < 1 disable paging.
func NewConsoleSink(w io.Writer, clearScreen, visibleOnly bool, pageSize int) *ConsoleSink {
	return &ConsoleSink{
		w:           w,
		clearScreen: clearScreen,
		visibleOnly: visibleOnly,
		pageSize:    pageSize,
	}
}

func (c *ConsoleSink) Name() string { return "console" }

// Publish writes the snapshot table. Columns: name (truncated to 32
// chars), azimuth, elevation, and range, one decimal each.
func (c *ConsoleSink) Publish(s *visibility.Snapshot) error {
	if c.clearScreen {
		if _, err := fmt.Fprint(c.w, ansiClear); err != nil {
			return fmt.Errorf("console write: %w", err)
		}
	}

	mode := "ALL"
	if c.visibleOnly {
		mode = "VISIBLE"
	}
	if _, err := fmt.Fprintf(c.w, "EPOCH: %s  SunAlt=%.1f deg  Mode=%s\n",
		s.Epoch.UTC().Format("2006-01-02 15:04:05"), s.SunAltDeg, mode); err != nil {
		return fmt.Errorf("console write: %w", err)
	}

	if err := c.writeHeader(); err != nil {
		return err
	}

	if len(s.Rows) == 0 {
		if _, err := fmt.Fprintln(c.w, "(no satellites match current filters)"); err != nil {
			return fmt.Errorf("console write: %w", err)
		}
		return nil
	}

	for i, r := range s.Rows {
		if c.pageSize > 0 && i > 0 && i%c.pageSize == 0 {
			if err := c.writeHeader(); err != nil {
				return err
			}
		}
		name := r.Name
		if len(name) > 32 {
			name = name[:32]
		}
		if _, err := fmt.Fprintf(c.w, "%-32s %8.1f %8.1f %12.1f\n",
			name, r.AzimuthDeg, r.ElevationDeg, r.RangeKm); err != nil {
			return fmt.Errorf("console write: %w", err)
		}
	}
	return nil
}

func (c *ConsoleSink) writeHeader() error {
	if _, err := fmt.Fprintf(c.w, "%-32s %8s %8s %12s\n", "Name", "Az(deg)", "El(deg)", "Range(km)"); err != nil {
		return fmt.Errorf("console write: %w", err)
	}
	if _, err := fmt.Fprintln(c.w, "----------------------------------------------------------------"); err != nil {
		return fmt.Errorf("console write: %w", err)
	}
	return nil
}

// Close is a no-op; the console owns no resources.
func (c *ConsoleSink) Close() error { return nil }
