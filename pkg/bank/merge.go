package bank

// Report describes the per-field outcome of one merge: which fields
// changed the bank, which were no-ops (duplicates or empty values), and
// which were rejected as malformed.
type Report struct {
	Applied  []string
	Skipped  []string
	Rejected []FieldError
}

// Partial reports whether some fields of the patch were rejected while the
// rest merged.
func (r *Report) Partial() bool {
	return len(r.Rejected) > 0 && len(r.Applied) > 0
}

// Changed reports whether the merge altered the bank at all.
func (r *Report) Changed() bool {
	return len(r.Applied) > 0
}

// Merge applies a patch to a bank and returns the merged result. It is a
// pure function: the input bank is never mutated, and the same inputs
// always produce the same output.
//
// Merging is additive and non-destructive. Free-text sections are set when
// empty and otherwise extended with a new paragraph; outright replacement
// happens only for sections the patch explicitly lists under corrections.
// Sequences append with exact duplicates dropped, preserving order of
// first appearance. Misc deep-merges recursively with unbounded depth.
// An empty patch value never erases recorded knowledge.
func Merge(b *KnowledgeBank, p *Patch) (*KnowledgeBank, *Report) {
	out := b.Clone()
	rep := &Report{}
	if p == nil {
		return out, rep
	}

	rep.Rejected = append(rep.Rejected, p.Malformed...)

	replace := make(map[string]bool, len(p.Corrections))
	for _, f := range p.Corrections {
		replace[f] = true
	}

	mergeText(rep, FieldOverview, &out.Overview, p.Overview, replace[FieldOverview])
	mergeText(rep, FieldInputs, &out.Inputs, p.Inputs, replace[FieldInputs])
	mergeText(rep, FieldDesiredOutputs, &out.DesiredOutputs, p.DesiredOutputs, replace[FieldDesiredOutputs])
	mergeText(rep, FieldStyleGuidelines, &out.StyleGuidelines, p.StyleGuidelines, replace[FieldStyleGuidelines])

	if len(p.Constraints) > 0 {
		merged, appended := appendUniqueStrings(out.Constraints, p.Constraints)
		out.Constraints = merged
		rep.record(FieldConstraints, appended)
	}

	if len(p.Examples) > 0 {
		merged, appended := appendUnique(out.Examples, p.Examples)
		out.Examples = merged
		rep.record(FieldExamples, appended)
	}

	if len(p.Misc) > 0 {
		if out.Misc == nil {
			out.Misc = map[string]interface{}{}
		}
		rep.record(FieldMisc, deepMergeMaps(out.Misc, p.Misc))
	}

	return out, rep
}

// mergeText merges one free-text section. An empty incoming value is
// ignored, an empty current value is set, an identical value is a no-op,
// and differing values concatenate as a new paragraph unless the patch
// marked the section as a correction.
func mergeText(rep *Report, field string, current *string, incoming string, replace bool) {
	switch {
	case incoming == "":
		return
	case *current == "":
		*current = incoming
	case *current == incoming:
		rep.Skipped = append(rep.Skipped, field)
		return
	case replace:
		*current = incoming
	default:
		*current = *current + "\n\n" + incoming
	}
	rep.Applied = append(rep.Applied, field)
}

func (r *Report) record(field string, changed bool) {
	if changed {
		r.Applied = append(r.Applied, field)
	} else {
		r.Skipped = append(r.Skipped, field)
	}
}
