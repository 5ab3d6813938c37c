package webhooks

import "strings"

// BuildEventName derives "<singular table>.<verb>" from a table name and a raw
// event type, e.g. ("leads", "UPDATE") -> "lead.updated".
//
// Singularisation is a suffix heuristic: "ies" -> "y", and a trailing "s"
// (including the "ses" of "classes") drops one character, so "classes"
// becomes "classe". Consumers already key on these names; keep the output
// stable.
func BuildEventName(table string, rawEventType string) string {
	return singularize(strings.TrimSpace(table)) + "." + normalizeVerb(rawEventType)
}

// ResolveEventName returns explicit when set, otherwise the derived name.
func ResolveEventName(explicit string, table string, rawEventType string) string {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return trimmed
	}
	return BuildEventName(table, rawEventType)
}

func normalizeVerb(raw string) string {
	verb := strings.ToLower(strings.TrimSpace(raw))
	switch verb {
	case "create", "created", "insert":
		return "created"
	case "update", "updated", "modify":
		return "updated"
	case "delete", "deleted", "remove":
		return "deleted"
	default:
		return verb
	}
}

func singularize(noun string) string {
	switch {
	case strings.HasSuffix(noun, "ies"):
		return strings.TrimSuffix(noun, "ies") + "y"
	case strings.HasSuffix(noun, "s"):
		return noun[:len(noun)-1]
	default:
		return noun
	}
}
