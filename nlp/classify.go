package nlp

import "strings"

// Action — тип вопроса, распознанный классификатором.
type Action string

const (
	ActionNone  Action = "none"
	ActionWhat  Action = "what"
	ActionWhen  Action = "when"
	ActionWhere Action = "where"
)

// Subject — фиксированная сущность, о которой бот умеет отвечать.
type Subject string

// SubjectISS — Международная космическая станция.
const SubjectISS Subject = "iss"

// Intent — результат классификации одного сообщения.
type Intent struct {
	Action   Action   `json:"action"`
	Subjects []string `json:"subjects,omitempty"`
	Location string   `json:"location,omitempty"`
	Subject  Subject  `json:"subject,omitempty"`
}

var whenIgnored = map[string]bool{
	"and": true, "a": true, "or": true, "at": true, "an": true, "the": true,
	"then": true, "me": true, "pass": true, "over": true, "approach": true,
	"near": true, "be": true, "rise": true, "time": true, "will": true, "of": true,
}

// Classify разбирает сообщение по фиксированной грамматике вопросов.
// me — ник бота; пока не используется.
func Classify(me, text string) Intent {
	_ = me

	words := Preprocess(text)
	if len(words) == 0 {
		return Intent{Action: ActionNone}
	}

	switch {
	case words[0] == "when":
		return classifyWhen(words[1:])
	case words[0] == "what" && len(words) >= 2 && words[1] == "time":
		return classifyWhen(words[2:])
	case words[0] == "where":
		return classifyWhere(words[1:])
	case words[0] == "what" || words[0] == "who" || words[0] == "explain":
		return classifyWhat(words)
	}

	return Intent{Action: ActionNone}
}

func classifyWhen(rest []string) Intent {
	rest = skipOne(rest, "will", "does")
	rest = skipOne(rest, "the")

	intent := Intent{Action: ActionWhen}
	var location []string
	for _, word := range SplitAcronyms(strings.Join(rest, " ")) {
		switch {
		case Subject(word) == SubjectISS:
			intent.Subject = SubjectISS
		case whenIgnored[word]:
		default:
			location = append(location, word)
		}
	}
	intent.Location = strings.Join(location, " ")

	return intent
}

func classifyWhere(rest []string) Intent {
	rest = skipOne(rest, "is", "will")
	rest = skipOne(rest, "the")

	for _, word := range SplitAcronyms(strings.Join(rest, " ")) {
		if Subject(word) == SubjectISS {
			return Intent{Action: ActionWhere, Subject: SubjectISS}
		}
	}

	return Intent{Action: ActionNone}
}

func classifyWhat(words []string) Intent {
	rest := words[1:]
	if words[0] != "explain" {
		rest = skipOne(rest, "is", "are", "does")
	}
	rest = skipOne(rest, "the", "a", "an")

	candidates := SplitAcronyms(strings.Join(rest, " "))
	subjects := make([]string, 0, len(candidates))
	for i, c := range candidates {
		if c == "" {
			continue
		}
		if i == len(candidates)-1 && c == "mean" {
			continue
		}
		subjects = append(subjects, c)
	}

	return Intent{Action: ActionWhat, Subjects: subjects}
}

// skipOne отбрасывает первое слово, если оно входит в words.
func skipOne(rest []string, words ...string) []string {
	if len(rest) == 0 {
		return rest
	}
	for _, w := range words {
		if rest[0] == w {
			return rest[1:]
		}
	}
	return rest
}
