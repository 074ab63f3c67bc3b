package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/atalyaalon/patents-topic-modeling/internal/pipeline"
)

// stageProgress draws one progress bar per pipeline stage.
type stageProgress struct {
	bar   *progressbar.ProgressBar
	stage pipeline.Stage
	total int
}

func newStageProgress() *stageProgress {
	return &stageProgress{}
}

// OnStage implements pipeline.ProgressReporter.
func (s *stageProgress) OnStage(stage pipeline.Stage) {
	s.finish()
	s.stage = stage
	s.total = 0
	fmt.Fprintf(os.Stderr, "%s %s\n", color.CyanString("→"), stage)
}

// OnProgress implements pipeline.ProgressReporter.
func (s *stageProgress) OnProgress(stage pipeline.Stage, current, total int) {
	if stage != s.stage || total <= 1 {
		return
	}
	if s.bar == nil || total != s.total {
		s.finish()
		s.total = total
		s.bar = newProgressBar(total, string(stage))
	}
	s.bar.Set(current)
}

func (s *stageProgress) finish() {
	if s.bar != nil {
		s.bar.Finish()
		s.bar = nil
	}
}
