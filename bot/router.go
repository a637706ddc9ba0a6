package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"acrobot/acronyms"
	"acrobot/lookup"
	"acrobot/modes"
	"acrobot/nlp"
	"acrobot/phrases"
)

// Kind — способ, которым сообщение обращается к боту.
type Kind string

const (
	KindNatural Kind = "natural"
	KindCommand Kind = "command"
)

// maxPasses — сколько ближайших пролётов МКС называть в ответе.
const maxPasses = 3

// Addressing — результат разбора адресации сообщения.
type Addressing struct {
	Kind   Kind
	Direct bool
	// Text — сообщение без пробелов по краям; для команд без ника бота.
	Text string
}

// Address определяет, обращено ли сообщение к боту как команда и пришло
// ли оно лично.
func Address(me, audience, text string) Addressing {
	text = strings.TrimSpace(text)
	a := Addressing{Kind: KindNatural, Direct: audience == me, Text: text}
	if rest, ok := stripNick(me, text); ok {
		a.Kind = KindCommand
		a.Text = rest
	}
	return a
}

// stripNick проверяет, что text начинается с ника бота и границы слова, и
// возвращает всё после первого пробела.
func stripNick(me, text string) (string, bool) {
	if me == "" {
		return "", false
	}
	t := strings.TrimPrefix(text, "@")
	if len(t) < len(me) || !strings.EqualFold(t[:len(me)], me) {
		return "", false
	}
	if next, _ := utf8.DecodeRuneInString(t[len(me):]); next != utf8.RuneError && isWordRune(next) {
		return "", false
	}

	i := strings.IndexFunc(t, unicode.IsSpace)
	if i < 0 {
		return "", true
	}
	return strings.TrimSpace(t[i:]), true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// HandleMessage — точка входа для одного сообщения. Вызывается только из
// цикла событий.
func (b *Bot) HandleMessage(ctx context.Context, msg Message) {
	if msg.Sender == b.nick || b.users[msg.Sender].Ignore {
		return
	}

	addr := Address(b.nick, msg.Audience, msg.Text)
	r := b.newRequest(ctx, msg, addr.Direct)
	r.log.Debug("сообщение", zap.String("kind", string(addr.Kind)), zap.Bool("direct", addr.Direct))

	if addr.Kind == KindNatural && !b.gate.Enabled(modes.Silent) && b.gate.Enabled(modes.Natural) {
		if b.handleNatural(r, addr.Text) {
			return
		}
	}

	if addr.Direct || addr.Kind == KindCommand {
		b.dispatch(r, addr.Text)
	}
}

// handleNatural отвечает на вопрос и сообщает, был ли он обработан.
func (b *Bot) handleNatural(r *request, text string) bool {
	intent := nlp.Classify(b.nick, text)
	if intent.Action == nlp.ActionNone {
		return false
	}

	if b.gate.Enabled(modes.Debug) {
		encoded, _ := json.Marshal(intent)
		r.log.Info("намерение", zap.ByteString("intent", encoded))
		b.private(r, "intent: "+string(encoded))
	}

	switch intent.Action {
	case nlp.ActionWhat:
		if len(intent.Subjects) == 0 {
			b.gatedReply(modes.Cheeky, phrases.IncompleteQuestion, r.audience)
			return true
		}
		b.resolveAcronyms(r, intent.Subjects, false)
		return true
	case nlp.ActionWhen:
		if intent.Subject != nlp.SubjectISS {
			return false
		}
		b.handleWhen(r, intent.Location)
		return true
	case nlp.ActionWhere:
		if intent.Subject != nlp.SubjectISS {
			return false
		}
		b.handleWhere(r)
		return true
	}

	return false
}

// resolveAcronyms ищет каждый токен один раз вне цикла событий и отвечает
// в аудиторию в порядке токенов. strict включает явный ответ о ненайденных
// токенах.
func (b *Bot) resolveAcronyms(r *request, subjects []string, strict bool) {
	seen := make(map[string]bool, len(subjects))
	var tokens []string
	for _, subject := range subjects {
		token := acronyms.Clean(subject)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		return
	}

	autoRefresh := b.gate.Enabled(modes.AutoRefresh)
	b.spawn(r, func(ctx context.Context) func() {
		results := make([]acronymResult, 0, len(tokens))
		for _, token := range tokens {
			found, err := b.findAcronym(ctx, token, autoRefresh)
			results = append(results, acronymResult{token: token, found: found, err: err})
		}
		return func() { b.replyAcronyms(r, results, strict) }
	})
}

type acronymResult struct {
	token string
	found []acronyms.Acronym
	err   error
}

func (b *Bot) replyAcronyms(r *request, results []acronymResult, strict bool) {
	for _, res := range results {
		if res.err != nil {
			r.log.Warn("акронимы: ошибка поиска", zap.String("token", res.token), zap.Error(res.err))
			b.private(r, b.apology())
			continue
		}

		if len(res.found) == 0 {
			if strict {
				b.reply(r.audience, fmt.Sprintf("could not find an acronym matching '%s'", res.token))
			}
			continue
		}

		parts := make([]string, 0, len(res.found))
		for _, a := range res.found {
			parts = append(parts, a.String())
		}
		b.reply(r.audience, nlp.Andify(parts))
	}
}

// findAcronym выполняется вне цикла событий, поэтому режим autoRefresh
// читается заранее.
func (b *Bot) findAcronym(ctx context.Context, token string, autoRefresh bool) ([]acronyms.Acronym, error) {
	if autoRefresh {
		if err := b.acronyms.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("refresh: %w", err)
		}
	}
	return b.acronyms.Lookup(ctx, token)
}

func (b *Bot) handleWhen(r *request, location string) {
	if location == "" {
		b.reply(r.audience, `where? ask me something like "when will the iss pass over london".`)
		return
	}

	b.spawn(r, func(ctx context.Context) func() {
		loc, err := b.lookup.Geocode(ctx, location)
		if err != nil {
			return func() { b.lookupFailed(r, location, err) }
		}

		passes, err := b.lookup.Passes(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			return func() { b.lookupFailed(r, location, err) }
		}

		place := loc.Name()
		if place == "" {
			place = location
		}
		return func() { b.reply(r.audience, formatPasses(place, passes, b.now())) }
	})
}

func (b *Bot) handleWhere(r *request) {
	b.spawn(r, func(ctx context.Context) func() {
		pos, err := b.lookup.Position(ctx)
		if err != nil {
			return func() { b.lookupFailed(r, "", err) }
		}
		return func() {
			b.reply(r.audience, fmt.Sprintf("the ISS is currently over %.4f, %.4f.", pos.Latitude, pos.Longitude))
		}
	})
}

// lookupFailed сообщает об ошибке внешнего запроса только отправителю.
func (b *Bot) lookupFailed(r *request, location string, err error) {
	r.log.Warn("внешний запрос не удался", zap.String("location", location), zap.Error(err))
	if location != "" && errors.Is(err, lookup.ErrNotFound) {
		b.private(r, fmt.Sprintf("sorry, I don't know where '%s' is.", location))
		return
	}
	b.private(r, b.apology())
}

func (b *Bot) apology() string {
	if text := b.phrases.Get(phrases.Apology); text != "" {
		return text
	}
	return "sorry, something went wrong."
}

// formatPasses описывает до maxPasses ближайших будущих пролётов.
func formatPasses(place string, passes []time.Time, now time.Time) string {
	sorted := append([]time.Time(nil), passes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	upcoming := make([]string, 0, maxPasses)
	for _, p := range sorted {
		if p.Before(now) {
			continue
		}
		upcoming = append(upcoming, "in "+strings.TrimSpace(humanize.RelTime(now, p, "", "")))
		if len(upcoming) == maxPasses {
			break
		}
	}

	if len(upcoming) == 0 {
		return fmt.Sprintf("I couldn't find any upcoming ISS passes over %s.", place)
	}
	return fmt.Sprintf("the ISS will pass over %s %s.", place, nlp.Andify(upcoming))
}
