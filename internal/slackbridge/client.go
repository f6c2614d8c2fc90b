package slackbridge

import (
	"context"

	"github.com/HiroshigeAoki/slack-game-master/internal/cache"
	"github.com/HiroshigeAoki/slack-game-master/internal/services"

	"github.com/slack-go/slack"
)

// Client wraps the Slack Web API with the handful of calls this system
// makes. Failures come back as CollaboratorError so callers can route them
// to the operator channel without inspecting message text.
type Client struct {
	api   *slack.Client
	users *cache.UserCache // optional
}

func New(api *slack.Client, users *cache.UserCache) *Client {
	return &Client{api: api, users: users}
}

func collabErr(op string, err error) error {
	return &services.CollaboratorError{Op: "slack: " + op, Err: err}
}

func (c *Client) PostBlocks(ctx context.Context, channelID string, blocks []slack.Block) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionBlocks(blocks...))
	if err != nil {
		return collabErr("post message", err)
	}
	return nil
}

func (c *Client) PostText(ctx context.Context, channelID, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return collabErr("post message", err)
	}
	return nil
}

func (c *Client) PostEphemeralBlocks(ctx context.Context, channelID, userID string, blocks []slack.Block) error {
	_, err := c.api.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionBlocks(blocks...))
	if err != nil {
		return collabErr("post ephemeral", err)
	}
	return nil
}

func (c *Client) PostEphemeralText(ctx context.Context, channelID, userID, text string) error {
	_, err := c.api.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false))
	if err != nil {
		return collabErr("post ephemeral", err)
	}
	return nil
}

// SendDM opens (or reuses) the IM conversation with the user and posts
// there.
func (c *Client) SendDM(ctx context.Context, userID string, blocks []slack.Block) error {
	channel, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		return collabErr("open conversation", err)
	}
	return c.PostBlocks(ctx, channel.ID, blocks)
}

func (c *Client) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	if _, err := c.api.OpenViewContext(ctx, triggerID, view); err != nil {
		return collabErr("open view", err)
	}
	return nil
}

func (c *Client) UserIDByEmail(ctx context.Context, email string) (string, error) {
	if c.users != nil {
		if id, ok := c.users.UserIDByEmail(ctx, email); ok {
			return id, nil
		}
	}
	user, err := c.api.GetUserByEmailContext(ctx, email)
	if err != nil {
		return "", collabErr("lookup by email", err)
	}
	if c.users != nil {
		c.users.SetUserIDByEmail(ctx, email, user.ID)
	}
	return user.ID, nil
}

func (c *Client) DisplayName(ctx context.Context, userID string) (string, error) {
	if c.users != nil {
		if name, ok := c.users.DisplayName(ctx, userID); ok {
			return name, nil
		}
	}
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", collabErr("user info", err)
	}
	name := user.Profile.DisplayName
	if name == "" {
		name = user.Profile.RealName
	}
	if c.users != nil {
		c.users.SetDisplayName(ctx, userID, name)
	}
	return name, nil
}

func (c *Client) ChannelMembers(ctx context.Context, channelID string) ([]string, error) {
	var members []string
	params := &slack.GetUsersInConversationParameters{ChannelID: channelID, Limit: 200}
	for {
		page, cursor, err := c.api.GetUsersInConversationContext(ctx, params)
		if err != nil {
			return nil, collabErr("conversation members", err)
		}
		members = append(members, page...)
		if cursor == "" {
			return members, nil
		}
		params.Cursor = cursor
	}
}

// ChannelIDs lists every public and private channel the bot can see.
func (c *Client) ChannelIDs(ctx context.Context) ([]string, error) {
	var ids []string
	params := &slack.GetConversationsParameters{
		Types: []string{"public_channel", "private_channel"},
		Limit: 200,
	}
	for {
		channels, cursor, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, collabErr("list conversations", err)
		}
		for _, ch := range channels {
			ids = append(ids, ch.ID)
		}
		if cursor == "" {
			return ids, nil
		}
		params.Cursor = cursor
	}
}

func (c *Client) InviteToChannel(ctx context.Context, channelID string, userIDs ...string) error {
	if _, err := c.api.InviteUsersToConversationContext(ctx, channelID, userIDs...); err != nil {
		return collabErr("invite users", err)
	}
	return nil
}

// History pages through the full channel history, oldest pages last; the
// caller is responsible for ordering and filtering.
func (c *Client) History(ctx context.Context, channelID string) ([]slack.Message, error) {
	var out []slack.Message
	params := &slack.GetConversationHistoryParameters{ChannelID: channelID, Limit: 200}
	for {
		resp, err := c.api.GetConversationHistoryContext(ctx, params)
		if err != nil {
			return nil, collabErr("conversation history", err)
		}
		out = append(out, resp.Messages...)
		if !resp.HasMore {
			return out, nil
		}
		params.Cursor = resp.ResponseMetaData.NextCursor
	}
}
