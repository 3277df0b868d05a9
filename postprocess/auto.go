package postprocess

import (
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
)

// CorrectAutoNotes renames every note that cannot be played to an "auto"
// event. Unknown lane names are kept as auto notes instead of failing the
// conversion; each distinct name is reported once.
func CorrectAutoNotes(t model.Timeline, lanes map[string]int, autoLane int) []error {
	var warnings []error
	reported := make(map[string]bool)
	for _, k := range t.Keys() {
		for i := range t[k] {
			e := &t[k][i]
			if !e.IsNote() {
				continue
			}
			d := e.D()
			lane, known := lanes[d.Note]
			if !known && d.Note != model.NoteAuto {
				if !reported[d.Note] {
					reported[d.Note] = true
					warnings = append(warnings, errs.Mappingf("note %q has no lane, playing it as auto", d.Note))
				}
				lane = autoLane
			}
			if d.AutoNote != 0 || d.Note == model.NoteAuto || d.Note == "" || lane == autoLane {
				e.Name = model.EventAuto
			}
		}
	}
	return warnings
}
