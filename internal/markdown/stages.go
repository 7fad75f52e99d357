package markdown

import (
	"fmt"
)

// Profile names a predefined stage set.
type Profile string

const (
	ProfileMinimal Profile = "minimal"
	ProfileFull    Profile = "full"
)

// Stage is one named step of the content pipeline.
type Stage string

// Source stages operate on the Markdown tree.
const (
	StageFrontmatter Stage = "frontmatter"
	StageGFM         Stage = "gfm"
	StageCallout     Stage = "callout"
	StageHighlight   Stage = "highlight"
	StageMath        Stage = "math"
)

// Output stages operate on the rendered heading structure.
const (
	StageHeadingIDs       Stage = "heading-ids"
	StageAutolinkHeadings Stage = "autolink-headings"
)

// Stages lists the ordered stages of a profile.
type Stages struct {
	Source []Stage
	Output []Stage
}

// Has reports whether s is part of the stage set.
func (s Stages) Has(stage Stage) bool {
	for _, st := range s.Source {
		if st == stage {
			return true
		}
	}
	for _, st := range s.Output {
		if st == stage {
			return true
		}
	}
	return false
}

// StagesFor returns the stage set of a profile.
func StagesFor(p Profile) (Stages, error) {
	switch p {
	case ProfileMinimal:
		return Stages{Source: []Stage{StageFrontmatter}}, nil
	case ProfileFull, "":
		return Stages{
			Source: []Stage{StageFrontmatter, StageGFM, StageCallout, StageHighlight, StageMath},
			Output: []Stage{StageHeadingIDs, StageAutolinkHeadings},
		}, nil
	default:
		return Stages{}, fmt.Errorf("unknown pipeline profile %q", p)
	}
}
