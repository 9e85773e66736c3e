package dashboard

import "strings"

// buildBatchLookup partitions the views by target object type and collects,
// per type, the distinct record names to resolve. Duplicate and
// differently-cased spellings of the same name collapse to one entry under
// canonicalName; the first-seen trimmed original spelling is what gets sent
// upstream. Views with no target name or type are skipped. An empty result
// means no lookup call should be issued at all.
func buildBatchLookup(views []NoteView) map[string][]string {
	namesByType := make(map[string][]string)
	seen := make(map[string]map[string]bool)

	for _, v := range views {
		objectType := v.TargetObjectType
		canon := canonicalName(v.TargetObjectName)
		if objectType == "" || canon == "" {
			continue
		}
		if seen[objectType] == nil {
			seen[objectType] = make(map[string]bool)
		}
		if seen[objectType][canon] {
			continue
		}
		seen[objectType][canon] = true
		// The upstream lookup wants the original spelling, only trimmed.
		namesByType[objectType] = append(namesByType[objectType], strings.TrimSpace(v.TargetObjectName))
	}
	return namesByType
}

// normalizeBatchResults re-canonicalizes the name keys of a batch lookup
// response, since the upstream may echo its own stored casing rather than the
// requested spelling.
func normalizeBatchResults(results map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(results))
	for objectType, byName := range results {
		canonical := make(map[string]string, len(byName))
		for name, id := range byName {
			if key := canonicalName(name); key != "" {
				canonical[key] = id
			}
		}
		out[objectType] = canonical
	}
	return out
}

// applyBatchResults patches resolved record ids onto the current views. The
// view list may have changed since the lookup was issued: entries that no
// longer match any result, or that already carry a resolved id, are left
// untouched. Untouched entries are carried over by reference.
func applyBatchResults(views []NoteView, normalized map[string]map[string]string) []NoteView {
	return mapViews(views, func(v NoteView) NoteView {
		if v.RelatedRecordID != "" || v.TargetObjectType == "" {
			return v
		}
		canon := canonicalName(v.TargetObjectName)
		if canon == "" {
			return v
		}
		byName, ok := normalized[v.TargetObjectType]
		if !ok {
			return v
		}
		if id, ok := byName[canon]; ok && id != "" {
			v.RelatedRecordID = id
		}
		return v
	})
}
