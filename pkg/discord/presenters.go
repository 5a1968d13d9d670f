package discord

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/drabenstadtj/bgman/pkg/session"
)

const (
	// Discord caps select menus at 25 options and option labels at 100
	// characters.
	maxSelectOptions = 25
	maxLabelLength   = 100

	embedColor = 0x00ff00
)

// wizardPresenter renders wizard views by editing the deferred command
// response. The session id is assigned after the wizard is constructed,
// before Start.
type wizardPresenter struct {
	s           *discordgo.Session
	interaction *discordgo.Interaction
	placeholder string
	confirmText string
	sessionID   string
}

func (p *wizardPresenter) Render(_ context.Context, v session.WizardView) error {
	components := []discordgo.MessageComponent{}

	if !v.Done && len(v.Options) > 0 {
		opts := make([]discordgo.SelectMenuOption, 0, len(v.Options))
		for _, o := range v.Options {
			opts = append(opts, discordgo.SelectMenuOption{
				Label: session.Truncate(o.Label, maxLabelLength),
				Value: strconv.Itoa(o.Value.ID),
			})
		}

		menu := discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    customID(actionSelect, p.sessionID),
			Placeholder: p.placeholder,
			Options:     opts,
		}
		if v.MultiSelect {
			one := 1
			menu.MinValues = &one
			menu.MaxValues = len(opts)
		}
		components = append(components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{menu},
		})
	}

	if !v.Done && v.ShowConfirm {
		components = append(components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    p.confirmText,
					Style:    discordgo.DangerButton,
					CustomID: customID(actionConfirm, p.sessionID),
				},
			},
		})
	}

	_, err := p.s.InteractionResponseEdit(p.interaction, &discordgo.WebhookEdit{
		Content:    &v.Content,
		Components: &components,
	})
	return err
}

// viewerPresenter renders viewer pages as an embed with prev/next
// buttons.
type viewerPresenter struct {
	s           *discordgo.Session
	interaction *discordgo.Interaction
	sessionID   string
}

func (p *viewerPresenter) Render(_ context.Context, v session.ViewerView) error {
	embed := &discordgo.MessageEmbed{
		Title:       v.Title,
		Description: fmt.Sprintf("Page %d of %d", v.Page+1, v.TotalPages),
		Color:       embedColor,
	}
	for _, c := range v.Cards {
		value := c.Body
		if c.Link != "" {
			value = fmt.Sprintf("[View Game](%s)\n\n%s", c.Link, c.Body)
		}
		if value == "" {
			value = "No description available."
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  c.Title,
			Value: value,
		})
	}

	components := []discordgo.MessageComponent{}
	if v.ShowControls {
		components = append(components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Previous",
					Style:    discordgo.PrimaryButton,
					CustomID: customID(actionPrev, p.sessionID),
					Disabled: !v.PrevEnabled,
				},
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.PrimaryButton,
					CustomID: customID(actionNext, p.sessionID),
					Disabled: !v.NextEnabled,
				},
			},
		})
	}

	content := ""
	embeds := []*discordgo.MessageEmbed{embed}
	_, err := p.s.InteractionResponseEdit(p.interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	})
	return err
}
