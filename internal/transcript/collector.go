package transcript

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"
	"github.com/HiroshigeAoki/slack-game-master/internal/services"
	"github.com/HiroshigeAoki/slack-game-master/internal/slackbridge"
)

// Row is one player utterance from the game channel.
type Row struct {
	Timestamp time.Time
	User      string
	Role      models.Role
	Message   string
}

// Collector pulls the channel history and reduces it to the player
// dialogue: bot posts, joins, and staff chatter are dropped.
type Collector struct {
	bridge *slackbridge.Client
	loc    *time.Location
}

func NewCollector(bridge *slackbridge.Client, loc *time.Location) *Collector {
	if loc == nil {
		loc = time.UTC
	}
	return &Collector{bridge: bridge, loc: loc}
}

func (c *Collector) Collect(ctx context.Context, session *models.GameSession) ([]Row, error) {
	history, err := c.bridge.History(ctx, session.ChannelID)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	var rows []Row
	for _, msg := range history {
		// SubType marks joins, edits, bot posts and the like; plain
		// utterances have none.
		if msg.SubType != "" {
			continue
		}
		role := session.RoleOf(msg.User)
		if role == models.RoleNone {
			continue
		}

		ts, err := parseSlackTS(msg.Timestamp)
		if err != nil {
			return nil, &services.CollaboratorError{Op: "transcript: parse timestamp", Err: err}
		}

		name, ok := names[msg.User]
		if !ok {
			name, err = c.bridge.DisplayName(ctx, msg.User)
			if err != nil {
				return nil, err
			}
			names[msg.User] = name
		}

		rows = append(rows, Row{
			Timestamp: ts.In(c.loc),
			User:      name,
			Role:      role,
			Message:   msg.Text,
		})
	}

	// History arrives newest first; the worksheet wants reading order.
	sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })
	return rows, nil
}

// parseSlackTS converts a Slack "seconds.micros" timestamp string.
func parseSlackTS(ts string) (time.Time, error) {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad slack timestamp %q: %w", ts, err)
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec), nil
}
