package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"acrobot/acronyms"
	"acrobot/lookup"
	"acrobot/model"
	"acrobot/modes"
	"acrobot/phrases"
	"acrobot/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type sent struct {
	private bool
	to      string
	text    string
}

type fakeTransport struct {
	mu     sync.Mutex
	sent   []sent
	joined []string
	parted []string
}

func (f *fakeTransport) SendPrivate(recipient, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{private: true, to: recipient, text: text})
}

func (f *fakeTransport) SendBroadcast(audience, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{to: audience, text: text})
}

func (f *fakeTransport) Join(ch string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, ch)
}

func (f *fakeTransport) Part(ch string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parted = append(f.parted, ch)
}

func (f *fakeTransport) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

type memStore struct {
	saves []state.Settings
	err   error
}

func (m *memStore) Load() (*state.Settings, error) { return nil, errors.New("not used") }

func (m *memStore) Save(s state.Settings) error {
	m.saves = append(m.saves, s)
	return m.err
}

func (m *memStore) last() state.Settings {
	return m.saves[len(m.saves)-1]
}

type fakeAcronyms struct {
	mu        sync.Mutex
	records   []acronyms.Acronym
	lookups   []string
	refreshes int
	err       error
	// block заставляет Lookup ждать отмены контекста.
	block bool
}

func (f *fakeAcronyms) Lookup(ctx context.Context, token string) ([]acronyms.Acronym, error) {
	f.mu.Lock()
	f.lookups = append(f.lookups, token)
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []acronyms.Acronym
	for _, a := range f.records {
		if a.Matches(token) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAcronyms) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeAcronyms) All(context.Context) ([]acronyms.Acronym, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, f.err
}

type fakeLookup struct {
	loc      lookup.Location
	passes   []time.Time
	pos      lookup.Position
	err      error
	geoQuery string
}

func (f *fakeLookup) Geocode(_ context.Context, q string) (lookup.Location, error) {
	f.geoQuery = q
	if f.err != nil {
		return lookup.Location{}, f.err
	}
	return f.loc, nil
}

func (f *fakeLookup) Passes(context.Context, float64, float64) ([]time.Time, error) {
	return f.passes, f.err
}

func (f *fakeLookup) Position(context.Context) (lookup.Position, error) {
	return f.pos, f.err
}

type fixture struct {
	bot       *Bot
	transport *fakeTransport
	store     *memStore
	acronyms  *fakeAcronyms
	lookup    *fakeLookup
	now       time.Time
	stops     []bool
}

func (f *fixture) clock() time.Time { return f.now }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		transport: &fakeTransport{},
		store:     &memStore{},
		acronyms: &fakeAcronyms{records: []acronyms.Acronym{
			{Acronyms: []string{"fts"}, Meaning: "Flight Termination System", Weight: 0.6},
			{Acronyms: []string{"s1"}, Meaning: "First Stage", Weight: 0.6},
		}},
		lookup: &fakeLookup{},
		now:    time.Unix(1_700_000_000, 0),
	}

	settings := state.Defaults("acrobot", []string{"#space"}, []string{"zlsa"})
	f.bot = New(Options{
		Nick:      "acrobot",
		Settings:  settings,
		Store:     f.store,
		Acronyms:  f.acronyms,
		Lookup:    f.lookup,
		Phrases:   phrases.New(map[string][]string{phrases.IncompleteQuestion: {"what what?"}, phrases.Apology: {"sorry!"}, phrases.Farewell: {"bye!"}}),
		Transport: f.transport,
		Delays:    modes.DefaultDelays(),
		Clock:     f.clock,
		Stop:      func(restart bool) { f.stops = append(f.stops, restart) },
	})
	return f
}

// say обрабатывает сообщение без запущенного цикла: ждёт фоновые запросы
// и сам выполняет их продолжения.
func (f *fixture) say(sender, audience, text string) []sent {
	f.transport.reset()
	f.bot.HandleMessage(context.Background(), Message{Sender: sender, Audience: audience, Text: text})
	f.drain()
	return f.transport.all()
}

func (f *fixture) drain() {
	for {
		f.bot.tasks.Wait()
		select {
		case fn := <-f.bot.events:
			fn()
		default:
			return
		}
	}
}

// run запускает цикл событий до конца теста.
func (f *fixture) run(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = f.bot.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ctx
}

func public(to, text string) sent  { return sent{to: to, text: text} }
func private(to, text string) sent { return sent{private: true, to: to, text: text} }

func TestAddress(t *testing.T) {
	cases := []struct {
		audience, text string
		want           Addressing
	}{
		{"#space", "what is fts", Addressing{Kind: KindNatural, Text: "what is fts"}},
		{"#space", "  acrobot help ", Addressing{Kind: KindCommand, Text: "help"}},
		{"#space", "Acrobot: mode debug on", Addressing{Kind: KindCommand, Text: "mode debug on"}},
		{"#space", "@acrobot list admins", Addressing{Kind: KindCommand, Text: "list admins"}},
		{"#space", "acrobot", Addressing{Kind: KindCommand, Text: ""}},
		{"#space", "acrobots are cool", Addressing{Kind: KindNatural, Text: "acrobots are cool"}},
		{"acrobot", "help", Addressing{Kind: KindNatural, Direct: true, Text: "help"}},
		{"acrobot", "acrobot help", Addressing{Kind: KindCommand, Direct: true, Text: "help"}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Address("acrobot", tc.audience, tc.text), tc.text)
	}
}

func TestParseCommand(t *testing.T) {
	cmd, name, args := ParseCommand("MODE debug   on")
	require.Equal(t, CmdMode, cmd)
	require.Equal(t, "mode", name)
	require.Equal(t, "debug   on", args)

	cmd, _, _ = ParseCommand("disconnect")
	require.Equal(t, CmdQuit, cmd)

	cmd, name, _ = ParseCommand("frobnicate now")
	require.Equal(t, CmdUnknown, cmd)
	require.Equal(t, "frobnicate", name)
}

func TestWhatQuestion(t *testing.T) {
	f := newFixture(t)

	got := f.say("bob", "#space", "what is FTS?")
	require.Equal(t, []sent{public("#space", "FTS (Flight Termination System)")}, got)
	require.Equal(t, []string{"fts"}, f.acronyms.lookups)
}

func TestWhatQuestionSeveralSubjects(t *testing.T) {
	f := newFixture(t)

	got := f.say("bob", "#space", "what is fts and s1")
	require.Equal(t, []sent{
		public("#space", "FTS (Flight Termination System)"),
		public("#space", "S1 (First Stage)"),
	}, got)
}

func TestWhatQuestionDeduplicates(t *testing.T) {
	f := newFixture(t)

	got := f.say("bob", "#space", "what is fts and FTS")
	require.Len(t, got, 1)
	require.Equal(t, []string{"fts"}, f.acronyms.lookups)
}

func TestWhatQuestionUnknownIsSilent(t *testing.T) {
	f := newFixture(t)

	require.Empty(t, f.say("bob", "#space", "what is lox"))
	require.Equal(t, []string{"lox"}, f.acronyms.lookups)
}

func TestWhatQuestionStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.acronyms.err = errors.New("db down")

	require.Equal(t, []sent{private("bob", "sorry!")}, f.say("bob", "#space", "what is fts"))
}

func TestSlowStoreDoesNotBlockLoop(t *testing.T) {
	f := newFixture(t)
	f.acronyms.block = true
	f.bot.timeout = 50 * time.Millisecond
	ctx := f.run(t)

	require.True(t, f.bot.Submit(ctx, Message{Sender: "bob", Audience: "#space", Text: "what is fts"}))
	require.True(t, f.bot.Submit(ctx, Message{Sender: "bob", Audience: "#space", Text: "acrobot channels"}))

	got := waitFor(t, f.transport, 2)
	require.Equal(t, []sent{
		public("#space", "channels: #space"),
		private("bob", "sorry!"),
	}, got)
}

func TestListAcronymsStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.acronyms.err = errors.New("db down")

	require.Equal(t, []sent{private("bob", "sorry!")}, f.say("bob", "#space", "acrobot list acronyms"))
}

func TestMatchesAreJoined(t *testing.T) {
	f := newFixture(t)
	f.acronyms.records = append(f.acronyms.records, acronyms.Acronym{Acronyms: []string{"fts"}, Meaning: "Fault Tolerant Server"})

	got := f.say("bob", "#space", "what does fts mean")
	require.Equal(t, []sent{public("#space", "FTS (Flight Termination System) and FTS (Fault Tolerant Server)")}, got)
}

func TestBareWhatIsCooledDown(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, []sent{public("#space", "what what?")}, f.say("bob", "#space", "what"))
	require.Empty(t, f.say("bob", "#space", "what?"))
	require.Empty(t, f.acronyms.lookups)

	f.now = f.now.Add(5 * time.Second)
	require.Equal(t, []sent{public("#space", "what what?")}, f.say("bob", "#space", "what"))
}

func TestBareWhatWithoutCheeky(t *testing.T) {
	f := newFixture(t)
	f.bot.gate.Set(string(modes.Cheeky), false)

	require.Empty(t, f.say("bob", "#space", "what"))
}

func TestSilentAndNaturalModes(t *testing.T) {
	f := newFixture(t)

	f.bot.gate.Set(string(modes.Silent), true)
	require.Empty(t, f.say("bob", "#space", "what is fts"))

	f.bot.gate.Set(string(modes.Silent), false)
	f.bot.gate.Set(string(modes.Natural), false)
	require.Empty(t, f.say("bob", "#space", "what is fts"))
	require.Empty(t, f.acronyms.lookups)
}

func TestDirectQuestionRepliesPrivately(t *testing.T) {
	f := newFixture(t)

	got := f.say("bob", "acrobot", "what is fts")
	require.Equal(t, []sent{private("bob", "FTS (Flight Termination System)")}, got)
}

func TestIgnoredAndSelfMessagesAreDropped(t *testing.T) {
	f := newFixture(t)
	f.bot.users["troll"] = model.User{Ignore: true}

	require.Empty(t, f.say("troll", "#space", "what is fts"))
	require.Empty(t, f.say("acrobot", "#space", "what is fts"))
	require.Empty(t, f.acronyms.lookups)
}

func TestChannelChatterIsIgnored(t *testing.T) {
	f := newFixture(t)

	require.Empty(t, f.say("bob", "#space", "help"))
	require.Empty(t, f.say("bob", "#space", "when is lunch"))
}

func TestUnhandledWhenFallsThroughToCommands(t *testing.T) {
	f := newFixture(t)

	got := f.say("bob", "acrobot", "when is lunch")
	require.Equal(t, []sent{private("bob", "unknown command 'when'; try 'help'.")}, got)
}

func TestDefineReportsMissing(t *testing.T) {
	f := newFixture(t)

	got := f.say("bob", "#space", "acrobot define fts and lox")
	require.Equal(t, []sent{
		public("#space", "FTS (Flight Termination System)"),
		public("#space", "could not find an acronym matching 'lox'"),
	}, got)

	require.Equal(t, []sent{private("bob", "usage: define <acronym...>")}, f.say("bob", "#space", "acrobot define"))
}

func TestAutoRefresh(t *testing.T) {
	f := newFixture(t)
	f.bot.gate.Set(string(modes.AutoRefresh), true)

	f.say("bob", "#space", "what is fts and s1")
	require.Equal(t, 2, f.acronyms.refreshes)
}

func TestModeRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	got := f.say("bob", "#space", "acrobot mode debug on")
	require.Equal(t, []sent{private("bob", "you're not an admin!")}, got)
	require.False(t, f.bot.gate.Enabled(modes.Debug))
	require.Empty(t, f.store.saves)
}

func TestModeToggleAndSet(t *testing.T) {
	f := newFixture(t)

	got := f.say("zlsa", "#space", "acrobot mode debug")
	require.Equal(t, []sent{public("#space", "mode debug is now enabled.")}, got)
	require.True(t, f.bot.gate.Enabled(modes.Debug))
	require.Len(t, f.store.saves, 1)
	require.True(t, f.store.last().Modes["debug"])

	f.say("zlsa", "#space", "acrobot mode debug")
	require.False(t, f.bot.gate.Enabled(modes.Debug))
	require.False(t, f.store.last().Modes["debug"])

	f.say("zlsa", "#space", "acrobot mode natural off")
	require.False(t, f.bot.gate.Enabled(modes.Natural))

	f.say("zlsa", "#space", "acrobot mode natural Enabled")
	require.True(t, f.bot.gate.Enabled(modes.Natural))
	require.Len(t, f.store.saves, 4)
}

func TestModeValidation(t *testing.T) {
	f := newFixture(t)

	got := f.say("zlsa", "#space", "acrobot mode turbo on")
	require.Equal(t, []sent{private("zlsa", "expected one of [debug, cheeky, silent, natural, auto_refresh]")}, got)

	got = f.say("zlsa", "#space", "acrobot mode debug maybe")
	require.Len(t, got, 1)
	require.True(t, strings.HasPrefix(got[0].text, "usage: mode"))
	require.Empty(t, f.store.saves)
}

func TestPersistenceFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("read-only fs")

	got := f.say("zlsa", "#space", "acrobot mode debug on")
	require.Equal(t, []sent{public("#space", "mode debug is now enabled.")}, got)
	require.True(t, f.bot.gate.Enabled(modes.Debug))
}

func TestDebugModeWhispersIntent(t *testing.T) {
	f := newFixture(t)
	f.bot.gate.Set(string(modes.Debug), true)

	got := f.say("bob", "#space", "what is s1")
	require.Equal(t, []sent{
		private("bob", `intent: {"action":"what","subjects":["s1"]}`),
		public("#space", "S1 (First Stage)"),
	}, got)
}

func TestAdminCommands(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, []sent{public("#space", "bob is now an admin.")}, f.say("zlsa", "#space", "acrobot admin add bob"))
	require.True(t, f.bot.users["bob"].Admin)
	require.Equal(t, []string{"bob", "zlsa"}, f.store.last().Nicks(func(u model.User) bool { return u.Admin }))

	require.Equal(t, []sent{public("#space", "admins: bob and zlsa")}, f.say("carol", "#space", "acrobot admins"))

	require.Equal(t, []sent{public("#space", "bob is no longer an admin.")}, f.say("zlsa", "#space", "acrobot remove admin bob"))
	require.False(t, f.bot.users["bob"].Admin)

	require.Equal(t, []sent{private("zlsa", "you can't remove your own admin status.")}, f.say("zlsa", "#space", "acrobot admin remove zlsa"))
	require.True(t, f.bot.users["zlsa"].Admin)

	require.Equal(t, []sent{private("zlsa", "'b!ob' is not a valid nick.")}, f.say("zlsa", "#space", "acrobot admin add b!ob"))
	require.Equal(t, []sent{private("zlsa", "usage: admin add <nick>")}, f.say("zlsa", "#space", "acrobot admin add"))
	require.Equal(t, []sent{private("zlsa", "expected one of [list, add, remove]")}, f.say("zlsa", "#space", "acrobot admin promote bob"))
}

func TestAuthorizationPrecedesValidation(t *testing.T) {
	f := newFixture(t)

	for _, text := range []string{
		"acrobot admin add b!ob",
		"acrobot admin add",
		"acrobot ignore",
		"acrobot join not a channel",
		"acrobot say",
		"acrobot part",
		"acrobot restart",
		"acrobot quit",
		"acrobot silence",
	} {
		require.Equal(t, []sent{private("bob", "you're not an admin!")}, f.say("bob", "#space", text), text)
	}
	require.Empty(t, f.store.saves)
	require.Empty(t, f.stops)
}

func TestIgnoreCommands(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, []sent{public("#space", "now ignoring troll.")}, f.say("zlsa", "#space", "acrobot ignore troll"))
	require.Empty(t, f.say("troll", "#space", "what is fts"))

	require.Equal(t, []sent{public("#space", "ignored users: troll")}, f.say("zlsa", "#space", "acrobot list ignored"))

	require.Equal(t, []sent{public("#space", "no longer ignoring troll.")}, f.say("zlsa", "#space", "acrobot unignore troll"))
	require.NotEmpty(t, f.say("troll", "#space", "what is fts"))

	require.Equal(t, []sent{private("zlsa", "you can't ignore yourself.")}, f.say("zlsa", "#space", "acrobot add ignore zlsa"))
	require.False(t, f.bot.users["zlsa"].Ignore)
}

func TestChannelCommands(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, []sent{public("#space", "joined #rockets.")}, f.say("zlsa", "#space", "acrobot channel join rockets"))
	require.Equal(t, []string{"#rockets"}, f.transport.joined)
	require.Equal(t, []string{"#space", "#rockets"}, f.store.last().Channels)

	require.Equal(t, []sent{private("zlsa", "I'm already in #rockets.")}, f.say("zlsa", "#space", "acrobot join #rockets"))
	require.Equal(t, []sent{private("zlsa", "'#bad!' is not a valid channel.")}, f.say("zlsa", "#space", "acrobot join #bad!"))

	require.Equal(t, []sent{public("#space", "channels: #space and #rockets")}, f.say("bob", "#space", "acrobot channels"))

	// part без аргумента покидает канал, в котором пришла команда
	require.Equal(t, []sent{private("zlsa", "left #space.")}, f.say("zlsa", "#space", "acrobot part"))
	require.Equal(t, []string{"#space"}, f.transport.parted)
	require.Equal(t, []string{"#rockets"}, f.bot.Channels())

	require.Equal(t, []sent{private("zlsa", "I'm not in #space.")}, f.say("zlsa", "acrobot", "remove channel #space"))
	require.Equal(t, []sent{private("zlsa", "usage: part <channel>")}, f.say("zlsa", "acrobot", "part"))
}

func TestCannotPartLastChannel(t *testing.T) {
	f := newFixture(t)

	got := f.say("zlsa", "#space", "acrobot channel part")
	require.Equal(t, []sent{private("zlsa", "I can't leave my last channel.")}, got)
	require.Equal(t, []string{"#space"}, f.bot.Channels())
	require.Empty(t, f.transport.parted)
	require.Empty(t, f.store.saves)
}

func TestSilenceAndSay(t *testing.T) {
	f := newFixture(t)

	f.say("zlsa", "acrobot", "silence")
	require.True(t, f.bot.gate.Enabled(modes.Silent))
	require.True(t, f.store.last().Modes["silent"])
	require.Empty(t, f.say("bob", "#space", "what is fts"))

	f.say("zlsa", "acrobot", "unsilence")
	require.False(t, f.bot.gate.Enabled(modes.Silent))

	require.Equal(t, []sent{public("#rockets", "liftoff!")}, f.say("zlsa", "acrobot", "say rockets liftoff!"))
	require.Equal(t, []sent{private("zlsa", "usage: say <channel> <text>")}, f.say("zlsa", "acrobot", "say #rockets"))
}

func TestListCommand(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, []sent{public("#space", "acronyms: FTS and S1")}, f.say("bob", "#space", "acrobot list acronyms"))
	require.Equal(t, []sent{public("#space", "there are no ignored users.")}, f.say("bob", "#space", "acrobot list ignored"))
	require.Equal(t, []sent{private("bob", "expected one of [admins, ignored, channels, acronyms]")}, f.say("bob", "#space", "acrobot list cats"))
	require.Equal(t, []sent{private("bob", "usage: list <admins|ignored|channels|acronyms>")}, f.say("bob", "#space", "acrobot list"))
}

func TestUnknownCommandAndHelp(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, []sent{private("bob", "unknown command 'dance'; try 'help'.")}, f.say("bob", "#space", "acrobot dance"))

	got := f.say("bob", "acrobot", "HELP")
	require.Len(t, got, 2)
	for _, s := range got {
		require.True(t, s.private)
		require.Equal(t, "bob", s.to)
	}
}

func TestQuitAndRestart(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, []sent{public("#space", "bye!")}, f.say("zlsa", "#space", "acrobot leave"))
	f.say("zlsa", "acrobot", "restart")
	require.Equal(t, []bool{false, true}, f.stops)
}

func waitFor(t *testing.T, tr *fakeTransport, n int) []sent {
	t.Helper()
	require.Eventually(t, func() bool { return len(tr.all()) >= n }, 2*time.Second, 5*time.Millisecond)
	return tr.all()
}

func TestWhenQuestion(t *testing.T) {
	f := newFixture(t)
	f.lookup.loc = lookup.Location{Latitude: 51.5, Longitude: -0.12, City: "London", Country: "United Kingdom"}
	f.lookup.passes = []time.Time{
		f.now.Add(7 * time.Hour),
		f.now.Add(3 * time.Hour),
		f.now.Add(-time.Hour),
		f.now.Add(9 * time.Hour),
		f.now.Add(5 * time.Hour),
	}
	ctx := f.run(t)

	require.True(t, f.bot.Submit(ctx, Message{Sender: "bob", Audience: "#space", Text: "when will the iss pass over london?"}))

	got := waitFor(t, f.transport, 1)
	require.Equal(t, []sent{public("#space", "the ISS will pass over London, United Kingdom in 3 hours, in 5 hours, and in 7 hours.")}, got)
}

func TestWhenQuestionWithoutLocation(t *testing.T) {
	f := newFixture(t)

	got := f.say("bob", "#space", "when will the iss pass")
	require.Len(t, got, 1)
	require.Equal(t, "#space", got[0].to)
	require.Contains(t, got[0].text, "where?")
}

func TestWhenQuestionLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.lookup.err = errors.New("connection refused")
	ctx := f.run(t)

	require.True(t, f.bot.Submit(ctx, Message{Sender: "bob", Audience: "#space", Text: "when does the iss pass over paris"}))

	got := waitFor(t, f.transport, 1)
	require.Equal(t, []sent{private("bob", "sorry!")}, got)
}

func TestWhenQuestionUnknownPlace(t *testing.T) {
	f := newFixture(t)
	f.lookup.err = lookup.ErrNotFound
	ctx := f.run(t)

	require.True(t, f.bot.Submit(ctx, Message{Sender: "bob", Audience: "#space", Text: "when does the iss pass over atlantis"}))

	got := waitFor(t, f.transport, 1)
	require.Equal(t, []sent{private("bob", "sorry, I don't know where 'atlantis' is.")}, got)
}

func TestWhereQuestion(t *testing.T) {
	f := newFixture(t)
	f.lookup.pos = lookup.Position{Latitude: 12.345678, Longitude: -98.7}
	ctx := f.run(t)

	require.True(t, f.bot.Submit(ctx, Message{Sender: "bob", Audience: "acrobot", Text: "where is the iss?"}))

	got := waitFor(t, f.transport, 1)
	require.Equal(t, []sent{private("bob", "the ISS is currently over 12.3457, -98.7000.")}, got)
}

func TestFormatPassesNoneUpcoming(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	require.Equal(t, "I couldn't find any upcoming ISS passes over Paris.",
		formatPasses("Paris", []time.Time{now.Add(-time.Minute)}, now))
}
