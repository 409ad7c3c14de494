package pipeline

import (
	"fmt"

	"github.com/mohammad-safakhou/contentagent/models"
)

// Stage names one step of a content run.
type Stage string

const (
	StageInternetSearch Stage = "internet_search"
	StageResearch       Stage = "research"
	StageDraft          Stage = "draft"
	StageAssets         Stage = "assets"
	StagePersist        Stage = "persist"
)

// SelectStages derives the ordered stage list for a module. It is computed once per
// run; draft and persist are always present.
func SelectStages(m models.Module) []Stage {
	stages := make([]Stage, 0, 5)
	if m.InternetSearch {
		stages = append(stages, StageInternetSearch)
	}
	if m.WebScraper {
		stages = append(stages, StageResearch)
	}
	stages = append(stages, StageDraft)
	if m.AssetLibrary {
		stages = append(stages, StageAssets)
	}
	return append(stages, StagePersist)
}

// StageError identifies the stage that aborted a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
