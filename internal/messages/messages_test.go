package messages

import (
	"strings"
	"testing"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"

	"github.com/slack-go/slack"
)

func TestModalMetadataRoundTrip(t *testing.T) {
	t.Parallel()

	meta := ModalMetadata{Judge: models.JudgeLie, ChannelID: "C123"}
	got, err := DecodeModalMetadata(meta.Encode())
	if err != nil {
		t.Fatalf("DecodeModalMetadata() error = %v", err)
	}
	if got != meta {
		t.Fatalf("DecodeModalMetadata() = %+v, want %+v", got, meta)
	}
}

func TestFinalResultText(t *testing.T) {
	t.Parallel()

	const (
		customer = "U_CUSTOMER"
		sales    = "U_SALES"
	)

	tests := []struct {
		name        string
		isLiar      bool
		judge       string
		wantMention []string
		wantAbsent  []string
	}{
		{
			name:        "liar caught, customer wins",
			isLiar:      true,
			judge:       models.JudgeLie,
			wantMention: []string{"<@" + customer + "> wins"},
		},
		{
			name:        "liar trusted, sales wins",
			isLiar:      true,
			judge:       models.JudgeTrust,
			wantMention: []string{"<@" + sales + "> wins"},
		},
		{
			name:        "honest but distrusted, nobody wins",
			isLiar:      false,
			judge:       models.JudgeLie,
			wantMention: []string{"Nobody wins"},
			wantAbsent:  []string{"<@" + customer + "> wins", "<@" + sales + "> wins"},
		},
		{
			name:        "honest and trusted, both win",
			isLiar:      false,
			judge:       models.JudgeTrust,
			wantMention: []string{"<@" + customer + ">", "<@" + sales + ">", "both win"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FinalResultText(customer, sales, tt.isLiar, tt.judge)
			for _, want := range tt.wantMention {
				if !strings.Contains(got, want) {
					t.Fatalf("FinalResultText() = %q, missing %q", got, want)
				}
			}
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Fatalf("FinalResultText() = %q, should not contain %q", got, absent)
				}
			}
		})
	}
}

func TestAskReasonModalCarriesMetadata(t *testing.T) {
	t.Parallel()

	modal := AskReasonModal("C123", models.JudgeTrust)
	if modal.CallbackID != CallbackJudgeReason {
		t.Fatalf("CallbackID = %q, want %q", modal.CallbackID, CallbackJudgeReason)
	}

	meta, err := DecodeModalMetadata(modal.PrivateMetadata)
	if err != nil {
		t.Fatalf("DecodeModalMetadata() error = %v", err)
	}
	if meta.ChannelID != "C123" || meta.Judge != models.JudgeTrust {
		t.Fatalf("metadata = %+v, want channel C123 and trust verdict", meta)
	}
}

func TestAskAnnotationBlocksColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role models.Role
		want string
	}{
		{models.RoleCustomer, "suspicious"},
		{models.RoleSales, "lie"},
	}

	for _, tt := range tests {
		blocks := AskAnnotationBlocks("https://example.com/sheet", tt.role)
		if len(blocks) != 1 {
			t.Fatalf("AskAnnotationBlocks(%s) returned %d blocks, want 1", tt.role, len(blocks))
		}
		section, ok := blocks[0].(*slack.SectionBlock)
		if !ok {
			t.Fatalf("AskAnnotationBlocks(%s) block type = %T, want section", tt.role, blocks[0])
		}
		if !strings.Contains(section.Text.Text, "`"+tt.want+"`") {
			t.Fatalf("AskAnnotationBlocks(%s) text = %q, missing column %q", tt.role, section.Text.Text, tt.want)
		}
	}
}
