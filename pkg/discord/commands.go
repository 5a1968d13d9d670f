package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/drabenstadtj/bgman/pkg/catalog"
	"github.com/drabenstadtj/bgman/pkg/session"
	"github.com/drabenstadtj/bgman/pkg/store"
)

const (
	listChoiceOwned    = "col"
	listChoiceWishlist = "wl"

	noGamesFoundMessage = "No games found."
	apologyMessage      = "Something went wrong, please try again later."
)

func commandDefinitions() []*discordgo.ApplicationCommand {
	listChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Collection", Value: listChoiceOwned},
		{Name: "Wishlist", Value: listChoiceWishlist},
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "searchgame",
			Description: "Search for a board game by name.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "The name of the board game to search for.",
					Required:    true,
				},
			},
		},
		{
			Name:        "add",
			Description: "Adds a game to your collection or wishlist.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "list",
					Description: "List to add to (Collection or Wishlist).",
					Required:    true,
					Choices:     listChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "game",
					Description: "Game to add to list.",
					Required:    true,
				},
			},
		},
		{
			Name:        "remove",
			Description: "Removes the selected games from your collection or wishlist.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "list",
					Description: "List to remove from (Collection or Wishlist).",
					Required:    true,
					Choices:     listChoices,
				},
			},
		},
		{
			Name:        "list",
			Description: "Shows a list of your collection or wishlist with pagination.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "list",
					Description: "List to show (Collection or Wishlist).",
					Required:    false,
					Choices:     listChoices,
				},
			},
		},
	}
}

func (b *Bot) handleSearch(ctx context.Context, i *discordgo.InteractionCreate) error {
	query := optionString(i, "query")

	results, err := b.catalog.Search(ctx, query)
	if err != nil {
		b.editText(i, apologyMessage)
		return err
	}
	if len(results) == 0 {
		b.editText(i, noGamesFoundMessage)
		return nil
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%s (%s) [ID: %d]", r.Name, r.YearPublished, r.ID))
	}

	// Discord caps a message at 2000 characters.
	b.editText(i, session.Truncate("Games found:\n"+strings.Join(lines, "\n"), 1900))
	return nil
}

func (b *Bot) handleAdd(ctx context.Context, i *discordgo.InteractionCreate) error {
	kind := listKind(optionString(i, "list"))
	query := optionString(i, "game")
	userID := interactionUserID(i)

	results, err := b.catalog.Search(ctx, query)
	if err != nil {
		b.editText(i, apologyMessage)
		return err
	}
	if len(results) == 0 {
		b.editText(i, noGamesFoundMessage)
		return nil
	}

	presenter := &wizardPresenter{
		s:           b.session,
		interaction: i.Interaction,
		placeholder: "Choose a game to add.",
	}

	// The OnDone closure needs the wizard's id; the variable is assigned
	// before Start, which is before any transition can fire.
	var w *session.Wizard
	w, err = session.NewWizard(session.WizardConfig{
		OwnerID:       userID,
		Prompt:        "Select the game you want to add:",
		Options:       addOptions(results),
		SelectTimeout: b.selectTimeout,
		Apply: func(ctx context.Context, choice session.Choice) string {
			var out store.AddOutcome
			if kind == store.KindOwned {
				out = b.store.AddOwned(ctx, userID, choice.ID)
			} else {
				out = b.store.AddWishlist(ctx, userID, choice.ID)
			}
			switch {
			case out.Added:
				return fmt.Sprintf("%s has been added to your %s.", choice.Name, kind)
			case out.Reason == store.ReasonDuplicate:
				return fmt.Sprintf("%s is already in your %s.", choice.Name, kind)
			default:
				return out.Message
			}
		},
		Presenter: presenter,
		OnDone:    func(session.Stage) { b.wizardEnded(w) },
		Log:       b.log,
	})
	if err != nil {
		b.editText(i, apologyMessage)
		return err
	}
	presenter.sessionID = w.ID()

	b.trackWizard(w)
	return w.Start(context.Background())
}

func (b *Bot) handleRemove(ctx context.Context, i *discordgo.InteractionCreate) error {
	kind := listKind(optionString(i, "list"))
	userID := interactionUserID(i)

	ids, err := b.listIDs(ctx, kind, userID)
	if err != nil {
		b.editText(i, apologyMessage)
		return err
	}
	if len(ids) == 0 {
		b.editText(i, fmt.Sprintf("Your %s is empty.", kind))
		return nil
	}

	options := make([]session.Option, 0, len(ids))
	for _, id := range ids {
		name := b.gameName(ctx, id)
		options = append(options, session.Option{
			Label: session.Truncate(name, maxLabelLength),
			Value: session.Choice{ID: id, Name: name},
		})
		if len(options) == maxSelectOptions {
			break
		}
	}

	presenter := &wizardPresenter{
		s:           b.session,
		interaction: i.Interaction,
		placeholder: "Select games to remove.",
		confirmText: "Confirm Removal",
	}

	var w *session.Wizard
	w, err = session.NewWizard(session.WizardConfig{
		OwnerID:        userID,
		Prompt:         fmt.Sprintf("Select the games you want to remove from your %s:", kind),
		ConfirmPrompt:  "You selected %d game(s) to remove. Press Confirm Removal to proceed.",
		Options:        options,
		MultiSelect:    true,
		SelectTimeout:  b.selectTimeout,
		ConfirmTimeout: b.confirmTimeout,
		Apply: func(ctx context.Context, choice session.Choice) string {
			var out store.RemoveOutcome
			if kind == store.KindOwned {
				out = b.store.RemoveOwned(ctx, userID, choice.ID)
			} else {
				out = b.store.RemoveWishlist(ctx, userID, choice.ID)
			}
			switch {
			case out.Removed:
				return fmt.Sprintf("%s has been removed from your %s.", choice.Name, kind)
			case out.Reason == store.ReasonNotAMember || out.Reason == store.ReasonUserNotFound:
				return fmt.Sprintf("%s is not in your %s.", choice.Name, kind)
			default:
				return out.Message
			}
		},
		Presenter: presenter,
		OnDone:    func(session.Stage) { b.wizardEnded(w) },
		Log:       b.log,
	})
	if err != nil {
		b.editText(i, apologyMessage)
		return err
	}
	presenter.sessionID = w.ID()

	b.trackWizard(w)
	return w.Start(context.Background())
}

func (b *Bot) handleList(ctx context.Context, i *discordgo.InteractionCreate) error {
	choice := optionString(i, "list")
	userID := interactionUserID(i)

	var ids []int
	var err error
	switch choice {
	case listChoiceOwned:
		ids, err = b.store.ListOwned(ctx, userID)
	case listChoiceWishlist:
		ids, err = b.store.ListWishlist(ctx, userID)
	default:
		// No argument: collection first, then wishlist.
		var owned, wishlist []int
		owned, err = b.store.ListOwned(ctx, userID)
		if err == nil {
			wishlist, err = b.store.ListWishlist(ctx, userID)
		}
		ids = append(owned, wishlist...)
	}
	if err != nil {
		b.editText(i, apologyMessage)
		return err
	}
	if len(ids) == 0 {
		b.editText(i, fmt.Sprintf("No games found in your %s.", listTitleFor(choice)))
		return nil
	}

	cards := make([]session.Card, 0, len(ids))
	for _, id := range ids {
		cards = append(cards, b.gameCard(ctx, id))
	}

	presenter := &viewerPresenter{s: b.session, interaction: i.Interaction}

	var v *session.Viewer
	v, err = session.NewViewer(session.ViewerConfig{
		Title:       displayTitleFor(choice),
		Cards:       cards,
		IdleTimeout: b.pagingTimeout,
		Presenter:   presenter,
		OnDone:      func() { b.viewerEnded(v) },
		Log:         b.log,
	})
	if err != nil {
		b.editText(i, apologyMessage)
		return err
	}
	presenter.sessionID = v.ID()

	b.trackViewer(v)
	return v.Start(context.Background())
}

func (b *Bot) listIDs(ctx context.Context, kind store.ListKind, userID string) ([]int, error) {
	if kind == store.KindOwned {
		return b.store.ListOwned(ctx, userID)
	}
	return b.store.ListWishlist(ctx, userID)
}

// gameName enriches an id for menu labels. An upstream fault degrades to
// a placeholder so the flow stays usable.
func (b *Bot) gameName(ctx context.Context, id int) string {
	d, err := b.catalog.GetDetails(ctx, id)
	if err != nil {
		b.log.WithError(err).WithField("game_id", id).Warn("details lookup failed, using placeholder")
		return fmt.Sprintf("Game #%d", id)
	}
	return d.Name
}

func (b *Bot) gameCard(ctx context.Context, id int) session.Card {
	d, err := b.catalog.GetDetails(ctx, id)
	if err != nil {
		b.log.WithError(err).WithField("game_id", id).Warn("details lookup failed, using placeholder card")
		return session.Card{
			Title: fmt.Sprintf("Game #%d", id),
			Link:  fmt.Sprintf("https://boardgamegeek.com/boardgame/%d", id),
		}
	}
	return session.Card{
		Title: fmt.Sprintf("%s (%s)", d.Name, d.YearPublished),
		Link:  d.Link,
		Body:  session.Truncate(d.Description, session.DescriptionBudget),
	}
}

// addOptions reverses the provider order so the best match sits nearest
// the prompt, capped at the select menu limit.
func addOptions(results []catalog.SearchResult) []session.Option {
	options := make([]session.Option, 0, len(results))
	for idx := len(results) - 1; idx >= 0; idx-- {
		r := results[idx]
		options = append(options, session.Option{
			Label: session.Truncate(fmt.Sprintf("%s (%s)", r.Name, r.YearPublished), maxLabelLength),
			Value: session.Choice{ID: r.ID, Name: r.Name},
		})
		if len(options) == maxSelectOptions {
			break
		}
	}
	return options
}

func listKind(choice string) store.ListKind {
	if choice == listChoiceWishlist {
		return store.KindWishlist
	}
	return store.KindOwned
}

func listTitleFor(choice string) string {
	switch choice {
	case listChoiceOwned:
		return "collection"
	case listChoiceWishlist:
		return "wishlist"
	default:
		return "collection & wishlist"
	}
}

func displayTitleFor(choice string) string {
	switch choice {
	case listChoiceOwned:
		return "Collection"
	case listChoiceWishlist:
		return "Wishlist"
	default:
		return "Collection & Wishlist"
	}
}
