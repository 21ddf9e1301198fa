package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkDensitySpike      BookmarkType = "density_spike"
	BookmarkSpeedSpike        BookmarkType = "speed_spike"
	BookmarkConstraintStretch BookmarkType = "constraint_stretch"
	BookmarkSettled           BookmarkType = "settled"
	BookmarkNonFinite         BookmarkType = "non_finite"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector flags windows that look unstable or notably calm.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// StretchLimit is the constraint error that counts as a stretched body.
	StretchLimit float64

	settledCount int
	nonFinite    bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for settle detection
	}
	return &BookmarkDetector{
		history:      make([]WindowStats, historySize),
		historySize:  historySize,
		StretchLimit: 0.5,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkNonFinite(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if len(bd.getHistory()) >= 3 {
		if b := bd.checkSpike(stats, BookmarkDensitySpike, "max density error",
			func(s WindowStats) float64 { return s.DensityErrMax }); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSpike(stats, BookmarkSpeedSpike, "max speed",
			func(s WindowStats) float64 { return s.MaxSpeed }); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkStretch(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkNonFinite fires once when NaN or Inf first shows up.
func (bd *BookmarkDetector) checkNonFinite(stats WindowStats) *Bookmark {
	bad := !finite(stats.DensityErrMax) || !finite(stats.MaxSpeed) || !finite(stats.MeanDensity)
	if !bad {
		bd.nonFinite = false
		return nil
	}
	if bd.nonFinite {
		return nil
	}
	bd.nonFinite = true
	return &Bookmark{
		Type:        BookmarkNonFinite,
		Tick:        stats.WindowEndTick,
		Description: "non-finite values in particle state",
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// checkSpike fires when a metric is more than 3x its rolling average.
func (bd *BookmarkDetector) checkSpike(stats WindowStats, kind BookmarkType, label string, metric func(WindowStats) float64) *Bookmark {
	history := bd.getHistory()
	var total float64
	for _, h := range history {
		total += metric(h)
	}
	avg := total / float64(len(history))
	cur := metric(stats)
	if avg <= 0 || !finite(cur) {
		return nil
	}

	if cur > avg*3 {
		return &Bookmark{
			Type:        kind,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%s %.3f is %.1fx average (%.3f)", label, cur, cur/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStretch(stats WindowStats) *Bookmark {
	if stats.ConstraintErr <= bd.StretchLimit {
		return nil
	}
	history := bd.getHistory()
	if len(history) > 0 && history[len(history)-1].ConstraintErr > bd.StretchLimit {
		return nil // already reported
	}
	return &Bookmark{
		Type:        BookmarkConstraintStretch,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("constraint error %.3f exceeds %.3f", stats.ConstraintErr, bd.StretchLimit),
	}
}

// checkSettled fires once the fluid has stayed within 1% density error with
// low variation for 5 windows.
func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if stats.Liquids == 0 || stats.DensityErrMean > 0.01 || stats.DensityErrStd > 0.005 {
		bd.settledCount = 0
		return nil
	}

	bd.settledCount++
	if bd.settledCount == 5 { // trigger exactly once
		return &Bookmark{
			Type:        BookmarkSettled,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("fluid settled: mean density error %.4f over 5 windows", stats.DensityErrMean),
		}
	}
	return nil
}
