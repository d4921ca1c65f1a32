package content

import (
	"chamber122/pkg/celengine"
	"chamber122/pkg/errutil"
)

// Filter is a compiled feed filter such as `category == "food" && pinned`.
type Filter struct {
	prg *celengine.Program
}

func filterAttributes(r *Record) map[string]interface{} {
	return map[string]interface{}{
		"kind":        string(r.Kind),
		"category":    r.Category,
		"title":       r.Title,
		"business_id": r.BusinessID,
		"location":    r.Location,
		"pinned":      r.Pinned,
	}
}

// CompileFilter returns nil for an empty expression.
func CompileFilter(expr string) (*Filter, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := celengine.GetOrBuildEnv(filterAttributes(&Record{}))
	if err != nil {
		return nil, errutil.Internal("failed to build filter environment", err)
	}
	prg, err := celengine.Compile(env, expr)
	if err != nil {
		return nil, errutil.BadRequest("invalid filter expression", err, errutil.WithDetails(errutil.Detail{Field: "filter", Message: err.Error()}))
	}
	return &Filter{prg: prg}, nil
}

// Apply returns the records the filter matches. A nil filter matches all.
// Evaluation errors drop the record.
func (f *Filter) Apply(records []*Record) []*Record {
	if f == nil {
		return records
	}
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		ok, err := f.prg.Match(filterAttributes(r))
		if err != nil || !ok {
			continue
		}
		out = append(out, r)
	}
	return out
}
