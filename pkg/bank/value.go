package bank

import (
	"encoding/json"
	"fmt"
)

// deepCopyValue copies a JSON value of unbounded depth. Scalars are
// returned as-is.
func deepCopyValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(tv))
		for k, e := range tv {
			out[k] = deepCopyValue(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(tv))
		for _, e := range tv {
			out = append(out, deepCopyValue(e))
		}
		return out
	default:
		return v
	}
}

// canonical returns a stable serialized form of a JSON value, used as the
// value-equality key for sequence de-duplication. encoding/json sorts map
// keys, so structurally equal values share one canonical form.
func canonical(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}

// appendUnique appends entries of src to dst, dropping exact duplicates of
// anything already present. Order of first appearance is preserved.
// Returns the result and whether anything was appended.
func appendUnique(dst, src []interface{}) ([]interface{}, bool) {
	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, e := range dst {
		seen[canonical(e)] = struct{}{}
	}
	appended := false
	for _, e := range src {
		key := canonical(e)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, deepCopyValue(e))
		appended = true
	}
	return dst, appended
}

// appendUniqueStrings is appendUnique specialized for string sequences.
func appendUniqueStrings(dst, src []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, e := range dst {
		seen[e] = struct{}{}
	}
	appended := false
	for _, e := range src {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		dst = append(dst, e)
		appended = true
	}
	return dst, appended
}

// isEmptyValue reports whether a JSON value carries no information. Merge
// never lets an empty patch value displace recorded knowledge.
func isEmptyValue(v interface{}) bool {
	switch tv := v.(type) {
	case nil:
		return true
	case string:
		return tv == ""
	case map[string]interface{}:
		return len(tv) == 0
	case []interface{}:
		return len(tv) == 0
	default:
		return false
	}
}

// deepMergeMaps merges src into dst recursively with unbounded depth. dst
// must already be owned by the caller (a clone). When a key exists on both
// sides: two maps recurse, two sequences concatenate with de-duplication,
// and otherwise the src value wins unless it is empty and would displace a
// non-empty value. Returns whether dst changed.
func deepMergeMaps(dst, src map[string]interface{}) bool {
	changed := false
	for key, sv := range src {
		dv, exists := dst[key]
		if !exists {
			if isEmptyValue(sv) {
				continue
			}
			dst[key] = deepCopyValue(sv)
			changed = true
			continue
		}

		dm, dIsMap := dv.(map[string]interface{})
		sm, sIsMap := sv.(map[string]interface{})
		if dIsMap && sIsMap {
			if deepMergeMaps(dm, sm) {
				changed = true
			}
			continue
		}

		ds, dIsSeq := dv.([]interface{})
		ss, sIsSeq := sv.([]interface{})
		if dIsSeq && sIsSeq {
			merged, appended := appendUnique(ds, ss)
			if appended {
				dst[key] = merged
				changed = true
			}
			continue
		}

		// Leaf overwrite, guarded against erasure by empty values.
		if isEmptyValue(sv) && !isEmptyValue(dv) {
			continue
		}
		if canonical(dv) != canonical(sv) {
			dst[key] = deepCopyValue(sv)
			changed = true
		}
	}
	return changed
}
