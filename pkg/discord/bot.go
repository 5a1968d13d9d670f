// Package discord adapts slash commands and message components onto the
// catalog, store, and session packages.
package discord

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/drabenstadtj/bgman/pkg/catalog"
	"github.com/drabenstadtj/bgman/pkg/metrics"
	"github.com/drabenstadtj/bgman/pkg/session"
	"github.com/drabenstadtj/bgman/pkg/store"
)

// Options configures the bot surface.
type Options struct {
	Token string
	// GuildID scopes command registration to one guild; empty registers
	// globally.
	GuildID        string
	SelectTimeout  time.Duration
	ConfirmTimeout time.Duration
	PagingTimeout  time.Duration
}

// Bot owns the gateway session and routes interactions to live wizard
// and viewer instances.
type Bot struct {
	session *discordgo.Session
	store   store.CollectionStore
	catalog *catalog.Client
	metrics *metrics.Metrics
	log     *logrus.Logger

	guildID        string
	selectTimeout  time.Duration
	confirmTimeout time.Duration
	pagingTimeout  time.Duration

	mu      sync.Mutex
	wizards map[string]*session.Wizard
	viewers map[string]*session.Viewer

	registered []*discordgo.ApplicationCommand
}

// New builds the bot without connecting. m may be nil.
func New(opts Options, st store.CollectionStore, cat *catalog.Client, m *metrics.Metrics, log *logrus.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, errors.Wrap(err, "create discord session")
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session:        s,
		store:          st,
		catalog:        cat,
		metrics:        m,
		log:            log,
		guildID:        opts.GuildID,
		selectTimeout:  opts.SelectTimeout,
		confirmTimeout: opts.ConfirmTimeout,
		pagingTimeout:  opts.PagingTimeout,
		wizards:        make(map[string]*session.Wizard),
		viewers:        make(map[string]*session.Viewer),
	}

	s.AddHandler(b.onReady)
	s.AddHandler(b.onInteraction)
	return b, nil
}

// Start opens the gateway and registers the slash commands.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return errors.Wrap(err, "open gateway")
	}

	appID := b.session.State.User.ID
	for _, cmd := range commandDefinitions() {
		created, err := b.session.ApplicationCommandCreate(appID, b.guildID, cmd)
		if err != nil {
			return errors.Wrapf(err, "register command %q", cmd.Name)
		}
		b.registered = append(b.registered, created)
	}

	b.log.Infof("registered %d commands", len(b.registered))
	return nil
}

// Close unregisters the commands and closes the gateway.
func (b *Bot) Close() error {
	appID := b.session.State.User.ID
	for _, cmd := range b.registered {
		if err := b.session.ApplicationCommandDelete(appID, b.guildID, cmd.ID); err != nil {
			b.log.WithError(err).Warnf("failed to unregister command %q", cmd.Name)
		}
	}
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.log.Infof("logged in as %s#%s", r.User.Username, r.User.Discriminator)
}

func (b *Bot) onInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(i)
	}
}

func (b *Bot) handleCommand(i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	ctx := context.Background()

	// Enrichment can outlast the 3 second interaction deadline, so every
	// command defers first and edits the response when done.
	ephemeral := name != "searchgame"
	if err := b.deferReply(i, ephemeral); err != nil {
		b.log.WithError(err).WithField("command", name).Error("failed to defer reply")
		b.metrics.RecordCommand(name, "error")
		return
	}

	var err error
	switch name {
	case "searchgame":
		err = b.handleSearch(ctx, i)
	case "add":
		err = b.handleAdd(ctx, i)
	case "remove":
		err = b.handleRemove(ctx, i)
	case "list":
		err = b.handleList(ctx, i)
	default:
		b.log.Warnf("unknown command %q", name)
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
		b.log.WithError(err).WithField("command", name).Error("command failed")
	}
	b.metrics.RecordCommand(name, status)
}

func (b *Bot) handleComponent(i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()

	action, sid, ok := parseCustomID(data.CustomID)
	if !ok {
		return
	}

	// Always ack so ignored presses (wrong user, dead session) do not
	// surface a client-side failure.
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		b.log.WithError(err).Warn("failed to ack component interaction")
	}

	userID := interactionUserID(i)

	switch action {
	case actionSelect:
		if w := b.wizard(sid); w != nil {
			w.HandleSelect(userID, parseValues(data.Values))
		}
	case actionConfirm:
		if w := b.wizard(sid); w != nil {
			w.HandleConfirm(userID)
		}
	case actionPrev:
		if v := b.viewer(sid); v != nil {
			v.HandlePrev()
		}
	case actionNext:
		if v := b.viewer(sid); v != nil {
			v.HandleNext()
		}
	}
}

func (b *Bot) deferReply(i *discordgo.InteractionCreate, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
}

// editText replaces the deferred response with plain text and no
// controls.
func (b *Bot) editText(i *discordgo.InteractionCreate, msg string) {
	components := []discordgo.MessageComponent{}
	_, err := b.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &msg,
		Components: &components,
	})
	if err != nil {
		b.log.WithError(err).Warn("failed to edit interaction response")
	}
}

func (b *Bot) trackWizard(w *session.Wizard) {
	b.mu.Lock()
	b.wizards[w.ID()] = w
	b.mu.Unlock()
	b.metrics.SessionStarted()
}

func (b *Bot) wizardEnded(w *session.Wizard) {
	b.mu.Lock()
	delete(b.wizards, w.ID())
	b.mu.Unlock()
	b.metrics.SessionEnded()
}

func (b *Bot) wizard(id string) *session.Wizard {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.wizards[id]
}

func (b *Bot) trackViewer(v *session.Viewer) {
	b.mu.Lock()
	b.viewers[v.ID()] = v
	b.mu.Unlock()
	b.metrics.SessionStarted()
}

func (b *Bot) viewerEnded(v *session.Viewer) {
	b.mu.Lock()
	delete(b.viewers, v.ID())
	b.mu.Unlock()
	b.metrics.SessionEnded()
}

func (b *Bot) viewer(id string) *session.Viewer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewers[id]
}

func optionString(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

// interactionUserID works in both guild channels (Member) and DMs
// (User).
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func parseValues(values []string) []int {
	ids := make([]int, 0, len(values))
	for _, v := range values {
		id, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
