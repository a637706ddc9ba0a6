package nlp

import "strings"

var textReplacer = strings.NewReplacer(
	"'s", " is",
	"?", "",
	"'ll", " will",
)

// Preprocess приводит сообщение к нижнему регистру, раскрывает 's и 'll,
// убирает вопросительные знаки и режет текст по пробелам.
func Preprocess(text string) []string {
	return strings.Fields(textReplacer.Replace(strings.ToLower(text)))
}

// SplitAcronyms режет фразу на кандидатов в акронимы по пробелам и
// отдельному слову "and".
func SplitAcronyms(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.EqualFold(f, "and") {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Andify склеивает список в фразу вида "A, B, and C".
func Andify(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}
