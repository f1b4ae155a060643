package event

import "strings"

// ToSnakeCase converts a CamelCase/PascalCase identifier (typically an event
// struct's type name) into the snake_case form used as an event's default
// matching name, e.g. "GenerateEvents" -> "generate_events".
func ToSnakeCase(name string) string {
	if name == "" {
		return name
	}

	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		isUpper := r >= 'A' && r <= 'Z'
		if isUpper {
			prevLower := i > 0 && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z')
			nextLower := i+1 < len(runes) && !(runes[i+1] >= 'A' && runes[i+1] <= 'Z')
			if i > 0 && (prevLower || (nextLower && runes[i+1] != '_')) {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// derivedName builds the name of a derived event (done/success/complete/
// failure) from its origin: literal origins keep their exact name case,
// non-literal origins are run through the snake_case transform again
// (a no-op, since their name was already snake_cased at construction),
// and either way the topic is appended as "_topic".
func derivedName(origin *Event, topic string) string {
	name := origin.Name
	if !origin.Literal {
		name = ToSnakeCase(name)
	}
	return name + "_" + topic
}
