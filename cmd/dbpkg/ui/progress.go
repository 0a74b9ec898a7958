package ui

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ProgressBar shows progress of an operation on stderr.
type ProgressBar struct {
	total     int
	current   int
	startTime time.Time
	width     int
	lastPrint time.Time
}

// NewProgressBar creates a simple progress bar.
func NewProgressBar(total int) *ProgressBar {
	return &ProgressBar{
		total:     total,
		startTime: time.Now(),
		width:     40,
		lastPrint: time.Now(),
	}
}

// Set sets the current progress.
func (pb *ProgressBar) Set(current int) {
	pb.current = current
	pb.print()
}

// Finish completes the progress bar.
func (pb *ProgressBar) Finish() {
	pb.current = pb.total
	pb.print()
	fmt.Fprintf(os.Stderr, "\n")
}

// print renders the progress bar, rate limited.
func (pb *ProgressBar) print() {
	if time.Since(pb.lastPrint) < 100*time.Millisecond && pb.current < pb.total {
		return
	}
	pb.lastPrint = time.Now()

	percent := 0.0
	if pb.total > 0 {
		percent = float64(pb.current) / float64(pb.total) * 100
	}

	filled := 0
	if pb.total > 0 {
		filled = int(float64(pb.width) * float64(pb.current) / float64(pb.total))
		if filled > pb.width {
			filled = pb.width
		}
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", pb.width-filled)

	elapsed := time.Since(pb.startTime)
	speed := 0.0
	if elapsed.Seconds() > 0 {
		speed = float64(pb.current) / elapsed.Seconds()
	}

	if pb.current >= pb.total {
		fmt.Fprintf(os.Stderr, "\r  [%s] %6.2f%% | %d/%d | %.1f/s | Done    ",
			bar, percent, pb.current, pb.total, speed)
		return
	}

	var eta time.Duration
	if remaining := pb.total - pb.current; speed > 0 && remaining > 0 {
		eta = time.Duration(float64(remaining)/speed) * time.Second
	}
	fmt.Fprintf(os.Stderr, "\r  [%s] %6.2f%% | %d/%d | %.1f/s | ETA: %s ",
		bar, percent, pb.current, pb.total, speed, formatETA(eta))
}

func formatETA(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
