package messages

import (
	"encoding/json"
	"fmt"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"

	"github.com/slack-go/slack"
)

// Interaction identifiers shared by the block builders and the
// interactivity endpoint.
const (
	CallbackJudgeReason   = "judge_reason"
	ActionOpenSpreadsheet = "open_spreadsheet"
	ActionAnnotationDone  = "annotation_done"
	ReasonBlockID         = "reason_input"
	ReasonActionID        = "reason"
)

const incentive = "the game prize"

// ModalMetadata rides in the reason modal's private metadata so the
// submission can be routed back to the right channel and verdict.
type ModalMetadata struct {
	Judge     string `json:"judge"`
	ChannelID string `json:"channel_id"`
}

func (m ModalMetadata) Encode() string {
	b, _ := json.Marshal(m)
	return string(b)
}

func DecodeModalMetadata(raw string) (ModalMetadata, error) {
	var m ModalMetadata
	err := json.Unmarshal([]byte(raw), &m)
	return m, err
}

func CommandReceipt(userID, command string) string {
	return fmt.Sprintf("<@%s> `%s` received. Please wait a moment.", userID, command)
}

func JudgeReceipt(customerID string) string {
	return fmt.Sprintf("<@%s> your judgement has been recorded, thank you.\nThe annotation spreadsheet is being prepared, please wait.", customerID)
}

func ThankYouForAnnotation(userID string) string {
	return fmt.Sprintf("<@%s> annotation complete. Thank you for playing!", userID)
}

func section(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil, nil,
	)
}

// StartBlocks is the channel briefing posted when staff run /start.
func StartBlocks(customerID, salesID string) []slack.Block {
	intro := "Welcome, players! The investment pitch game is about to begin.\n" +
		"The customer talks to a sales rep pitching an investment case and must judge whether the rep is a scammer.\n" +
		"Imagine a text-only conversation, as you would have over social media."

	flow := "*How the game goes*\n" +
		fmt.Sprintf("1. Roles: customer <@%s>, sales <@%s>\n", customerID, salesID) +
		fmt.Sprintf("2. <@%s> receives the investment case and the scammer assignment by direct message\n", salesID) +
		"3. The conversation happens in this channel\n" +
		fmt.Sprintf("4. When it ends, <@%s> judges with `/lie` (scammer) or `/trust` (not a scammer), with a short reason\n", customerID) +
		"5. Both players annotate the exported transcript in Google Sheets:\n" +
		"\t• customer: tick `suspicious` on utterances that felt suspicious\n" +
		"\t• sales: tick `lie` on your own untrue utterances\n" +
		"\t• press the *Annotation done* button when finished\n" +
		"6. Once both are done, the result is announced here."

	reward := "*Reward*\n" +
		fmt.Sprintf("• The winner of this round earns %s.\n", incentive) +
		"• Customer wins by judging correctly; sales wins by being trusted."

	return []slack.Block{
		section(intro),
		section(flow),
		section(reward),
		section("Questions go to the staff, not this channel. Good luck, and have fun!"),
	}
}

// RoleInstructionBlocks is the per-player DM sent on /start. The sales rep
// learns here whether they are the scammer; the customer only learns what
// to watch for.
func RoleInstructionBlocks(channelID, caseURL string, isLiar bool, role models.Role) []slack.Block {
	var text string
	switch role {
	case models.RoleSales:
		if isLiar {
			text = "*Your assignment*\n" +
				"You are the `scammer`. The service in your investment case is not actually being built. " +
				"Talk as if your team is building it, avoid raising suspicion, and win the customer's trust."
		} else {
			text = "*Your assignment*\n" +
				"You are `not a scammer`. Stick to the facts in your investment case — no lies — " +
				"and win the customer's trust."
		}
	default:
		text = "*Your assignment*\n" +
			fmt.Sprintf("You are the `customer`. Chat with the sales rep in <#%s> about their investment case ", channelID) +
			"and decide whether they are a scammer. Judge with `/lie` or `/trust` when the conversation ends."
	}

	button := slack.NewButtonBlockElement("", "case", slack.NewTextBlockObject(slack.PlainTextType, ":page_facing_up: Investment case", true, false))
	button.URL = caseURL

	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			nil,
			slack.NewAccessory(button),
		),
	}
}

// AskReasonModal collects the free-text reason behind a verdict.
func AskReasonModal(channelID, judge string) slack.ModalViewRequest {
	judgeText := "not a scammer"
	if judge == models.JudgeLie {
		judgeText = "a scammer"
	}

	input := slack.NewPlainTextInputBlockElement(
		slack.NewTextBlockObject(slack.PlainTextType, "Please enter at least 10 words", false, false),
		ReasonActionID,
	)
	input.Multiline = true
	input.MinLength = 10

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, "Reason for your verdict", false, false),
		Submit:          slack.NewTextBlockObject(slack.PlainTextType, "Submit", false, false),
		CallbackID:      CallbackJudgeReason,
		PrivateMetadata: ModalMetadata{Judge: judge, ChannelID: channelID}.Encode(),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			section(fmt.Sprintf("*Selected:* %s", judgeText)),
			slack.NewInputBlock(
				ReasonBlockID,
				slack.NewTextBlockObject(slack.PlainTextType, "Why do you think so?", false, false),
				nil,
				input,
			),
		}},
	}
}

// AskAnnotationBlocks points a participant at their worksheet column.
func AskAnnotationBlocks(worksheetURL string, role models.Role) []slack.Block {
	colName := "suspicious"
	if role == models.RoleSales {
		colName = "lie"
	}

	button := slack.NewButtonBlockElement(
		ActionOpenSpreadsheet,
		"open",
		slack.NewTextBlockObject(slack.PlainTextType, ":bar_chart: Open spreadsheet", true, false),
	)
	button.URL = worksheetURL

	text := "Please annotate the transcript in the spreadsheet.\n" +
		fmt.Sprintf("Your column: `%s`\n", colName) +
		"The result is announced once both players have finished."

	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			nil,
			slack.NewAccessory(button),
		),
	}
}

// OpenWorksheetPromptBlocks shows the done button after the worksheet is
// opened.
func OpenWorksheetPromptBlocks(userID string) []slack.Block {
	done := slack.NewButtonBlockElement(
		ActionAnnotationDone,
		"done",
		slack.NewTextBlockObject(slack.PlainTextType, "Annotation done", false, false),
	)
	done.Style = slack.StylePrimary

	return []slack.Block{
		section(fmt.Sprintf("<@%s> press *Annotation done* once you have finished annotating.", userID)),
		slack.NewActionBlock("annotation_actions", done),
	}
}

// FinalResultText selects one of the four fixed outcomes keyed by
// (isLiar, judge).
func FinalResultText(customerID, salesID string, isLiar bool, judge string) string {
	switch {
	case isLiar && judge == models.JudgeLie:
		return fmt.Sprintf("<@%s> wins %s!\nThe scammer <@%s> was correctly identified. Congratulations!", customerID, incentive, salesID)
	case isLiar && judge == models.JudgeTrust:
		return fmt.Sprintf("<@%s> wins %s!\nThe customer <@%s> was successfully deceived. Congratulations!", salesID, incentive, customerID)
	case !isLiar && judge == models.JudgeLie:
		return fmt.Sprintf("Nobody wins %s this round.\n<@%s> was honest but judged a scammer by <@%s>. Better luck next time.", incentive, salesID, customerID)
	default:
		return fmt.Sprintf("<@%s> and <@%s> both win %s!\nAn honest pitch, correctly trusted. Congratulations!", customerID, salesID, incentive)
	}
}

// FinalResultBlocks is the channel-wide announcement.
func FinalResultBlocks(customerID, salesID string, isLiar bool, judge string) []slack.Block {
	return []slack.Block{
		section("*Results are in!*\n" + FinalResultText(customerID, salesID, isLiar, judge)),
	}
}
