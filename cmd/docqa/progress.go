package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// buildProgress renders index-build progress. The bar is created lazily
// because the chunk count is only known once the first chunk is embedded.
type buildProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newBuildProgress(w io.Writer) *buildProgress {
	return &buildProgress{w: w}
}

func (p *buildProgress) update(current, total int) {
	if p.bar == nil {
		p.bar = getProgressBar(p.w, total, "Indexing chunks")
	}
	_ = p.bar.Set(current)
}

func (p *buildProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func getProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "|",
			BarEnd:        "|",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
