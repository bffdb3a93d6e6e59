package grammar

// Static connector tables used by pattern generation. Loaded once, never
// mutated: treat these as configuration data, not logic.

// prepositionConnectors maps a leading verb or particle of a property local
// name to the natural-language connector phrases it can stand for.
var prepositionConnectors = map[string][]string{
	"has":  {"with", "having", "that has"},
	"is":   {"that is", "which is"},
	"was":  {"that was", "which was"},
	"in":   {"in", "within", "inside"},
	"from": {"from", "coming from"},
	"to":   {"to", "assigned to"},
	"by":   {"by", "created by", "written by"},
	"at":   {"at", "located at"},
	"of":   {"of", "part of"},
	"for":  {"for", "intended for"},
}

// specialPredicateConnectors overrides the generic decomposition for
// well-known predicate local names.
var specialPredicateConnectors = map[string][]string{
	"hasAttendee": {"with", "attended by", "including", "with participant"},
	"assignedTo":  {"assigned to", "for", "owned by"},
	"hasTag":      {"tagged", "tagged with", "under", "categorized as"},
	"mentionedIn": {"mentioned in", "appears in", "found in"},
	"describedBy": {"described by", "documented in"},
	"hasAuthor":   {"by", "written by", "authored by"},
	"locatedIn":   {"in", "at", "located in"},
	"isCompleted": {"completed", "done", "finished"},
	"isStale":     {"stale", "inactive", "dormant"},
}
