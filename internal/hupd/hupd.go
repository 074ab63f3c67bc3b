// Package hupd loads patent applications from the Harvard USPTO Patent
// Dataset (HUPD) hosted on the Hugging Face hub.
//
// The dataset is published as tar.gz archives of one JSON document per
// application. Archives are downloaded once into a cache directory and the
// parsed, filtered records of each split are cached next to them as JSONL.
package hupd

import (
	"fmt"
	"strconv"
	"time"
)

// Split names a filing-date window of a dataset.
type Split string

const (
	SplitTrain      Split = "train"
	SplitValidation Split = "validation"
	SplitAll        Split = "all"
)

// ParseSplit validates a split name.
func ParseSplit(s string) (Split, error) {
	switch Split(s) {
	case SplitTrain, SplitValidation, SplitAll:
		return Split(s), nil
	case "":
		return SplitTrain, nil
	default:
		return "", fmt.Errorf("unknown split %q (want train, validation or all)", s)
	}
}

// Dataset types.
const (
	DatasetSample = "sample"
	DatasetFull   = "full"
)

// Window is an inclusive range of filing dates.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls on a day inside the window.
func (w Window) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(w.From) && !day.After(w.To)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// windows holds the filing-date ranges of each dataset's splits.
var windows = map[string]map[Split]Window{
	DatasetSample: {
		SplitTrain:      {From: day(2016, 1, 1), To: day(2016, 1, 21)},
		SplitValidation: {From: day(2016, 1, 22), To: day(2016, 1, 31)},
	},
	DatasetFull: {
		SplitTrain:      {From: day(2013, 1, 1), To: day(2016, 12, 31)},
		SplitValidation: {From: day(2017, 1, 1), To: day(2017, 12, 31)},
	},
}

// Windows returns the filing-date windows of a split, in date order.
func Windows(datasetType string, split Split) ([]Window, error) {
	ws, ok := windows[datasetType]
	if !ok {
		return nil, fmt.Errorf("unknown dataset type %q", datasetType)
	}
	switch split {
	case SplitTrain, SplitValidation:
		return []Window{ws[split]}, nil
	case SplitAll:
		return []Window{ws[SplitTrain], ws[SplitValidation]}, nil
	default:
		return nil, fmt.Errorf("unknown split %q", split)
	}
}

// sampleArchive is the January 2016 sample.
const sampleArchive = "data/sample-jan-2016.tar.gz"

// Archives returns the repository paths of the archives covering windows.
func Archives(datasetType string, ws []Window) []string {
	if datasetType == DatasetSample {
		return []string{sampleArchive}
	}

	var archives []string
	seen := map[int]bool{}
	for _, w := range ws {
		for y := w.From.Year(); y <= w.To.Year(); y++ {
			if !seen[y] {
				seen[y] = true
				archives = append(archives, "data/"+strconv.Itoa(y)+".tar.gz")
			}
		}
	}
	return archives
}
