package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/atalyaalon/patents-topic-modeling/internal/config"
	"github.com/atalyaalon/patents-topic-modeling/internal/dashboard"
	"github.com/atalyaalon/patents-topic-modeling/internal/hupd"
	"github.com/atalyaalon/patents-topic-modeling/internal/objstore"
	"github.com/atalyaalon/patents-topic-modeling/internal/pipeline"
	"github.com/atalyaalon/patents-topic-modeling/internal/vecindex"
)

func TestExitCodeFor(t *testing.T) {
	var transfer *multierror.Error
	transfer = multierror.Append(transfer, &objstore.TransferError{Op: "upload", Key: "k", Err: os.ErrNotExist})

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid config", fmt.Errorf("%w: bad", config.ErrInvalidConfig), ExitConfigError},
		{"auth", fmt.Errorf("load: %w", hupd.ErrAuth), ExitConfigError},
		{"transfer", transfer, ExitTransferError},
		{"patent not found", fmt.Errorf("%w: 1", dashboard.ErrPatentNotFound), ExitNotFound},
		{"not indexed", vecindex.ErrNotIndexed, ExitNotFound},
		{"archive missing", &hupd.FetchError{URL: "u", StatusCode: 404, Err: hupd.ErrNotFound}, ExitNotFound},
		{"fetch failed", &hupd.FetchError{URL: "u", Err: errors.New("reset")}, ExitDataError},
		{"no patents", fmt.Errorf("load: %w", pipeline.ErrNoPatents), ExitDataError},
		{"invalid k", fmt.Errorf("%w: got 0", vecindex.ErrInvalidK), ExitDataError},
		{"empty index", vecindex.ErrEmptyIndex, ExitDataError},
		{"dimension mismatch", vecindex.ErrDimensionMismatch, ExitDataError},
		{"cancelled", context.Canceled, ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a much longer title", 10, "a much ..."},
		{"überlange Überschrift", 8, "überl..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	if got := formatCount(1234567); got != "1,234,567" {
		t.Errorf("formatCount() = %q", got)
	}
}

func TestAllRecordsFlag(t *testing.T) {
	for _, cmd := range []*cobra.Command{loadCmd, runCmd} {
		t.Run(cmd.Name(), func(t *testing.T) {
			f := cmd.Flags().Lookup("all-records")
			if f == nil {
				t.Fatal("missing --all-records flag")
			}
			if f.DefValue != "false" {
				t.Errorf("--all-records default = %s, want false", f.DefValue)
			}
		})
	}
}
