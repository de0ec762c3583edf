package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNewRecord    BookmarkType = "new_record"
	BookmarkBreakthrough BookmarkType = "breakthrough"
	BookmarkStagnation   BookmarkType = "stagnation"
	BookmarkCollapse     BookmarkType = "collapse"
)

// Detection thresholds.
const (
	breakthroughFactor = 1.5 // new best >= 1.5x the previous record
	minBreakthroughGap = 10.0
	collapseDrop       = 50.0 // mean falls this far below its rolling average
	minHistory         = 3
)

// Bookmark marks a notable generation.
type Bookmark struct {
	RunID       string       `csv:"run_id"`
	Type        BookmarkType `csv:"type"`
	Generation  int          `csv:"generation"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"run_id", b.RunID,
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector watches the stream of generation summaries for records,
// sudden jumps, plateaus and regressions.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	stagnationWindow int
	record           float64
	haveRecord       bool
	sinceRecord      int
}

// NewBookmarkDetector creates a detector with the given history size.
// A stagnation bookmark fires every stagnationWindow generations without a
// new record; 0 disables it.
func NewBookmarkDetector(historySize, stagnationWindow int) *BookmarkDetector {
	if historySize < minHistory {
		historySize = minHistory
	}
	return &BookmarkDetector{
		history:          make([]GenerationStats, historySize),
		historySize:      historySize,
		stagnationWindow: stagnationWindow,
	}
}

// Record returns the best fitness seen so far.
func (bd *BookmarkDetector) Record() (float64, bool) {
	return bd.record, bd.haveRecord
}

// Check analyzes the latest generation and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark
	add := func(t BookmarkType, format string, args ...any) {
		bookmarks = append(bookmarks, Bookmark{
			RunID:       stats.RunID,
			Type:        t,
			Generation:  stats.Generation,
			Description: fmt.Sprintf(format, args...),
		})
	}

	switch {
	case !bd.haveRecord:
		bd.record, bd.haveRecord = stats.BestFitness, true
	case stats.BestFitness > bd.record:
		prev := bd.record
		bd.record = stats.BestFitness
		bd.sinceRecord = 0
		add(BookmarkNewRecord, "Best fitness %.1f beats previous record %.1f", stats.BestFitness, prev)
		if prev > 0 && stats.BestFitness >= prev*breakthroughFactor && stats.BestFitness-prev >= minBreakthroughGap {
			add(BookmarkBreakthrough, "Best fitness %.1f is %.1fx previous record", stats.BestFitness, stats.BestFitness/prev)
		}
	default:
		bd.sinceRecord++
		if bd.stagnationWindow > 0 && bd.sinceRecord%bd.stagnationWindow == 0 {
			add(BookmarkStagnation, "No new record for %d generations (record %.1f)", bd.sinceRecord, bd.record)
		}
	}

	if history := bd.getHistory(); len(history) >= minHistory {
		var sum float64
		for _, h := range history {
			sum += h.MeanFitness
		}
		avg := sum / float64(len(history))
		if drop := avg - stats.MeanFitness; drop > math.Max(collapseDrop, math.Abs(avg)*0.5) {
			add(BookmarkCollapse, "Mean fitness %.1f fell %.1f below rolling average %.1f", stats.MeanFitness, drop, avg)
		}
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}
