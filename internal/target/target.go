// Package target turns raw target arguments into the ordered task list.
package target

import (
	"strings"

	"github.com/AndreyAkinshin/crucible/internal/model"
)

// trimCutset holds the characters stripped from both ends of every entry.
const trimCutset = " \t\r\n\"'`"

// Normalize splits raw target entries on commas and cleans each piece.
//
// Leading and trailing whitespace and quote characters (", ', `) are removed,
// empty pieces are dropped, and the remaining names keep the order in which
// they were encountered. Repeated names are kept: each occurrence becomes its
// own task.
func Normalize(raw []string) []string {
	var names []string
	for _, entry := range raw {
		for _, piece := range strings.Split(entry, ",") {
			name := strings.Trim(piece, trimCutset)
			if name == "" {
				continue
			}
			names = append(names, name)
		}
	}
	return names
}

// Specs maps normalized names to task specs. Names in checkOnly run in
// ModeCheckOnly; everything else runs in ModeVerify.
func Specs(names []string, checkOnly []string) []model.TaskSpec {
	exceptions := make(map[string]struct{}, len(checkOnly))
	for _, name := range checkOnly {
		exceptions[name] = struct{}{}
	}

	specs := make([]model.TaskSpec, 0, len(names))
	for _, name := range names {
		mode := model.ModeVerify
		if _, ok := exceptions[name]; ok {
			mode = model.ModeCheckOnly
		}
		specs = append(specs, model.TaskSpec{Name: name, Mode: mode})
	}
	return specs
}

// Build normalizes raw entries and maps them to task specs in one step.
func Build(raw []string, checkOnly []string) []model.TaskSpec {
	return Specs(Normalize(raw), checkOnly)
}
