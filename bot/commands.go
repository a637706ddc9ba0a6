package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"acrobot/acronyms"
	"acrobot/model"
	"acrobot/modes"
	"acrobot/nlp"
	"acrobot/phrases"
	"acrobot/state"
)

// Command — команда, которую понимает диспетчер.
type Command int

const (
	CmdUnknown Command = iota
	CmdQuit
	CmdRestart
	CmdDefine
	CmdList
	CmdAdmin
	CmdAdmins
	CmdChannels
	CmdChannel
	CmdAdd
	CmdRemove
	CmdIgnore
	CmdUnignore
	CmdJoin
	CmdPart
	CmdSilence
	CmdUnsilence
	CmdSay
	CmdMode
	CmdHelp
)

const notAdmin = "you're not an admin!"

var (
	nickPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	channelPattern = regexp.MustCompile(`^#[A-Za-z0-9_-]+$`)
)

// LookupCommand сопоставляет ключевое слово команде, без учёта регистра.
func LookupCommand(name string) Command {
	switch strings.ToLower(name) {
	case "quit", "disconnect", "leave":
		return CmdQuit
	case "restart":
		return CmdRestart
	case "define":
		return CmdDefine
	case "list":
		return CmdList
	case "admin":
		return CmdAdmin
	case "admins":
		return CmdAdmins
	case "channels":
		return CmdChannels
	case "channel":
		return CmdChannel
	case "add":
		return CmdAdd
	case "remove":
		return CmdRemove
	case "ignore":
		return CmdIgnore
	case "unignore":
		return CmdUnignore
	case "join":
		return CmdJoin
	case "part":
		return CmdPart
	case "silence":
		return CmdSilence
	case "unsilence":
		return CmdUnsilence
	case "say":
		return CmdSay
	case "mode":
		return CmdMode
	case "help":
		return CmdHelp
	}
	return CmdUnknown
}

// ParseCommand отделяет первое слово как команду; остальное — аргументы.
func ParseCommand(text string) (cmd Command, name, args string) {
	name, args = splitWord(text)
	return LookupCommand(name), strings.ToLower(name), args
}

// splitWord возвращает первое слово и остаток без пробелов по краям.
func splitWord(text string) (string, string) {
	text = strings.TrimSpace(text)
	i := strings.IndexAny(text, " \t")
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i+1:])
}

func (b *Bot) dispatch(r *request, text string) {
	cmd, name, args := ParseCommand(text)
	r.log.Debug("команда", zap.String("command", name))

	switch cmd {
	case CmdQuit:
		b.cmdQuit(r)
	case CmdRestart:
		b.cmdRestart(r)
	case CmdDefine:
		b.cmdDefine(r, args)
	case CmdList:
		b.cmdList(r, args)
	case CmdAdmin:
		b.cmdAdmin(r, args)
	case CmdAdmins:
		b.listAdmins(r)
	case CmdChannels:
		b.listChannels(r)
	case CmdChannel:
		b.cmdChannel(r, args)
	case CmdAdd:
		b.cmdAddRemove(r, "add", args, true)
	case CmdRemove:
		b.cmdAddRemove(r, "remove", args, false)
	case CmdIgnore:
		b.setIgnore(r, args, true)
	case CmdUnignore:
		b.setIgnore(r, args, false)
	case CmdJoin:
		b.joinChannel(r, args)
	case CmdPart:
		b.partChannel(r, args)
	case CmdSilence:
		b.setSilent(r, true)
	case CmdUnsilence:
		b.setSilent(r, false)
	case CmdSay:
		b.cmdSay(r, args)
	case CmdMode:
		b.cmdMode(r, args)
	case CmdHelp:
		b.cmdHelp(r)
	default:
		if name == "" {
			if text := b.phrases.Get(phrases.Greeting); text != "" {
				b.private(r, text+" try 'help'.")
			}
			return
		}
		b.private(r, fmt.Sprintf("unknown command '%s'; try 'help'.", name))
	}
}

// requireAdmin отвечает отказом не-администратору. Проверка идёт раньше
// любой другой валидации.
func (b *Bot) requireAdmin(r *request) bool {
	if b.users[r.sender].Admin {
		return true
	}
	r.log.Info("команда отклонена: нет прав администратора")
	b.private(r, notAdmin)
	return false
}

func (b *Bot) usage(r *request, text string) {
	b.private(r, "usage: "+text)
}

func (b *Bot) expected(r *request, options ...string) {
	b.private(r, fmt.Sprintf("expected one of [%s]", strings.Join(options, ", ")))
}

func (b *Bot) cmdQuit(r *request) {
	if !b.requireAdmin(r) {
		return
	}
	r.log.Info("остановка по команде")
	if text := b.phrases.Get(phrases.Farewell); text != "" {
		b.reply(r.audience, text)
	}
	b.stop(false)
}

func (b *Bot) cmdRestart(r *request) {
	if !b.requireAdmin(r) {
		return
	}
	r.log.Info("перезапуск по команде")
	b.private(r, "restarting...")
	b.stop(true)
}

func (b *Bot) cmdDefine(r *request, args string) {
	subjects := nlp.SplitAcronyms(args)
	if len(subjects) == 0 {
		b.usage(r, "define <acronym...>")
		return
	}
	b.resolveAcronyms(r, subjects, true)
}

func (b *Bot) cmdList(r *request, args string) {
	sub, _ := splitWord(args)
	switch strings.ToLower(sub) {
	case "":
		b.usage(r, "list <admins|ignored|channels|acronyms>")
	case "admins":
		b.listAdmins(r)
	case "ignored":
		b.listIgnored(r)
	case "channels":
		b.listChannels(r)
	case "acronyms":
		b.listAcronyms(r)
	default:
		b.expected(r, "admins", "ignored", "channels", "acronyms")
	}
}

func (b *Bot) cmdAdmin(r *request, args string) {
	sub, rest := splitWord(args)
	switch strings.ToLower(sub) {
	case "":
		b.usage(r, "admin <list|add|remove> <nick>")
	case "list":
		b.listAdmins(r)
	case "add":
		b.setAdmin(r, rest, true)
	case "remove":
		b.setAdmin(r, rest, false)
	default:
		b.expected(r, "list", "add", "remove")
	}
}

func (b *Bot) cmdChannel(r *request, args string) {
	sub, rest := splitWord(args)
	switch strings.ToLower(sub) {
	case "":
		b.usage(r, "channel <join|part|list> [<channel>]")
	case "join":
		b.joinChannel(r, rest)
	case "part":
		b.partChannel(r, rest)
	case "list":
		b.listChannels(r)
	default:
		b.expected(r, "join", "part", "list")
	}
}

func (b *Bot) cmdAddRemove(r *request, verb, args string, add bool) {
	sub, rest := splitWord(args)
	switch strings.ToLower(sub) {
	case "":
		b.usage(r, verb+" <admin|ignore|channel> <arg>")
	case "admin":
		b.setAdmin(r, rest, add)
	case "ignore":
		b.setIgnore(r, rest, add)
	case "channel":
		if add {
			b.joinChannel(r, rest)
		} else {
			b.partChannel(r, rest)
		}
	default:
		b.expected(r, "admin", "ignore", "channel")
	}
}

func (b *Bot) setAdmin(r *request, args string, admin bool) {
	if !b.requireAdmin(r) {
		return
	}
	nick, _ := splitWord(args)
	if nick == "" {
		if admin {
			b.usage(r, "admin add <nick>")
		} else {
			b.usage(r, "admin remove <nick>")
		}
		return
	}
	if !admin && nick == r.sender {
		b.private(r, "you can't remove your own admin status.")
		return
	}
	if !nickPattern.MatchString(nick) {
		b.private(r, fmt.Sprintf("'%s' is not a valid nick.", nick))
		return
	}

	u := b.users[nick]
	u.Admin = admin
	b.updateUser(r, nick, u)

	if admin {
		b.reply(r.audience, fmt.Sprintf("%s is now an admin.", nick))
	} else {
		b.reply(r.audience, fmt.Sprintf("%s is no longer an admin.", nick))
	}
}

func (b *Bot) setIgnore(r *request, args string, ignore bool) {
	if !b.requireAdmin(r) {
		return
	}
	nick, _ := splitWord(args)
	if nick == "" {
		if ignore {
			b.usage(r, "ignore <nick>")
		} else {
			b.usage(r, "unignore <nick>")
		}
		return
	}
	if ignore && nick == r.sender {
		b.private(r, "you can't ignore yourself.")
		return
	}
	if !nickPattern.MatchString(nick) {
		b.private(r, fmt.Sprintf("'%s' is not a valid nick.", nick))
		return
	}

	u := b.users[nick]
	u.Ignore = ignore
	b.updateUser(r, nick, u)

	if ignore {
		b.reply(r.audience, fmt.Sprintf("now ignoring %s.", nick))
	} else {
		b.reply(r.audience, fmt.Sprintf("no longer ignoring %s.", nick))
	}
}

func (b *Bot) updateUser(r *request, nick string, u model.User) {
	b.users[nick] = u
	r.log.Info("пользователь обновлён", zap.String("nick", nick), zap.Bool("admin", u.Admin), zap.Bool("ignore", u.Ignore))
	b.save()
}

func (b *Bot) joinChannel(r *request, args string) {
	if !b.requireAdmin(r) {
		return
	}
	raw, _ := splitWord(args)
	if raw == "" {
		b.usage(r, "join <channel>")
		return
	}
	ch := state.NormalizeChannel(strings.ToLower(raw))
	if !channelPattern.MatchString(ch) {
		b.private(r, fmt.Sprintf("'%s' is not a valid channel.", raw))
		return
	}
	if b.inChannel(ch) {
		b.private(r, fmt.Sprintf("I'm already in %s.", ch))
		return
	}

	b.channels = append(b.channels, ch)
	b.transport.Join(ch)
	r.log.Info("канал добавлен", zap.String("channel", ch))
	b.save()

	b.reply(r.audience, fmt.Sprintf("joined %s.", ch))
}

func (b *Bot) partChannel(r *request, args string) {
	if !b.requireAdmin(r) {
		return
	}
	raw, _ := splitWord(args)
	if raw == "" {
		raw = r.channel
	}
	if raw == "" {
		b.usage(r, "part <channel>")
		return
	}
	ch := state.NormalizeChannel(strings.ToLower(raw))
	if !channelPattern.MatchString(ch) {
		b.private(r, fmt.Sprintf("'%s' is not a valid channel.", raw))
		return
	}
	if !b.inChannel(ch) {
		b.private(r, fmt.Sprintf("I'm not in %s.", ch))
		return
	}
	if len(b.channels) == 1 {
		b.private(r, "I can't leave my last channel.")
		return
	}

	kept := b.channels[:0:0]
	for _, c := range b.channels {
		if c != ch {
			kept = append(kept, c)
		}
	}
	b.channels = kept
	b.transport.Part(ch)
	r.log.Info("канал удалён", zap.String("channel", ch))
	b.save()

	if r.audience == ch {
		b.private(r, fmt.Sprintf("left %s.", ch))
		return
	}
	b.reply(r.audience, fmt.Sprintf("left %s.", ch))
}

func (b *Bot) inChannel(ch string) bool {
	for _, c := range b.channels {
		if c == ch {
			return true
		}
	}
	return false
}

func (b *Bot) setSilent(r *request, silent bool) {
	if !b.requireAdmin(r) {
		return
	}
	b.gate.Set(string(modes.Silent), silent)
	if silent {
		b.private(r, "okay, I'll stop answering questions.")
	} else {
		b.private(r, "okay, I'll answer questions again.")
	}
}

func (b *Bot) cmdSay(r *request, args string) {
	if !b.requireAdmin(r) {
		return
	}
	raw, text := splitWord(args)
	if raw == "" || text == "" {
		b.usage(r, "say <channel> <text>")
		return
	}
	ch := state.NormalizeChannel(strings.ToLower(raw))
	if !channelPattern.MatchString(ch) {
		b.private(r, fmt.Sprintf("'%s' is not a valid channel.", raw))
		return
	}
	b.transport.SendBroadcast(ch, text)
}

func (b *Bot) cmdMode(r *request, args string) {
	if !b.requireAdmin(r) {
		return
	}
	name, value := splitWord(args)
	name = strings.ToLower(name)
	if name == "" {
		b.usage(r, "mode <name> [on|off] ("+strings.Join(b.gate.Describe(), ", ")+")")
		return
	}
	if !b.gate.IsValid(name) {
		b.expected(r, modes.Names()...)
		return
	}

	var enabled bool
	switch strings.ToLower(value) {
	case "":
		enabled = !b.gate.Enabled(modes.Mode(name))
	case "true", "on", "enabled", "enable", "yes":
		enabled = true
	case "false", "off", "disabled", "disable", "no":
		enabled = false
	default:
		b.usage(r, "mode <name> [true|false|on|off|enabled|disabled]")
		return
	}

	b.gate.Set(name, enabled)
	r.log.Info("режим изменён", zap.String("mode", name), zap.Bool("enabled", enabled))

	label := "disabled"
	if enabled {
		label = "enabled"
	}
	b.reply(r.audience, fmt.Sprintf("mode %s is now %s.", name, label))
}

func (b *Bot) cmdHelp(r *request) {
	b.private(r, "ask me \"what is <acronym>\", \"when will the iss pass over <place>\" or \"where is the iss\".")
	b.private(r, "commands: define, list, admins, channels, admin, channel, add, remove, ignore, unignore, "+
		"join, part, silence, unsilence, say, mode, restart, quit, help")
}

func (b *Bot) listAdmins(r *request) {
	b.replyList(r, "admins", b.nicks(func(u model.User) bool { return u.Admin }))
}

func (b *Bot) listIgnored(r *request) {
	b.replyList(r, "ignored users", b.nicks(func(u model.User) bool { return u.Ignore }))
}

func (b *Bot) listChannels(r *request) {
	b.replyList(r, "channels", b.Channels())
}

func (b *Bot) listAcronyms(r *request) {
	b.spawn(r, func(ctx context.Context) func() {
		all, err := b.acronyms.All(ctx)
		if err != nil {
			return func() {
				r.log.Warn("акронимы: не удалось получить список", zap.Error(err))
				b.private(r, b.apology())
			}
		}
		return func() { b.replyList(r, "acronyms", acronyms.Names(all)) }
	})
}

func (b *Bot) replyList(r *request, what string, items []string) {
	if len(items) == 0 {
		b.reply(r.audience, fmt.Sprintf("there are no %s.", what))
		return
	}
	b.reply(r.audience, fmt.Sprintf("%s: %s", what, nlp.Andify(items)))
}

func (b *Bot) nicks(pred func(model.User) bool) []string {
	return state.Settings{Users: b.users}.Nicks(pred)
}
