package alert

import (
	"context"
	"fmt"
	"log"

	"github.com/HiroshigeAoki/slack-game-master/internal/slackbridge"
)

// Notifier posts worker failures to the staff error channel so broken
// games are noticed without anyone tailing logs.
type Notifier struct {
	bridge    *slackbridge.Client
	channelID string
}

func NewNotifier(bridge *slackbridge.Client, channelID string) *Notifier {
	return &Notifier{bridge: bridge, channelID: channelID}
}

// TaskFailed reports one failed background task. Errors posting the
// alert itself only go to the log; there is nowhere further to escalate.
func (n *Notifier) TaskFailed(ctx context.Context, taskType, gameChannelID string, err error) {
	if n.channelID == "" {
		return
	}
	text := fmt.Sprintf(":rotating_light: task `%s` failed", taskType)
	if gameChannelID != "" {
		text += fmt.Sprintf(" for game channel <#%s>", gameChannelID)
	}
	text += fmt.Sprintf("\n```%v```", err)

	if postErr := n.bridge.PostText(ctx, n.channelID, text); postErr != nil {
		log.Printf("[Alert] post failure report: %v (original error: %v)", postErr, err)
	}
}
