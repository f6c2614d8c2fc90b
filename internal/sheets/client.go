package sheets

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"
	"github.com/HiroshigeAoki/slack-game-master/internal/services"
	"github.com/HiroshigeAoki/slack-game-master/internal/transcript"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Master sheet ledger layout. Row 1 is the header; data starts at row 2.
// Judge and reason land in columns E and F, the finished flag in column H.
const (
	masterSheetTitle = "games"
	caseSheetTitle   = "case"

	colJudge    = 5
	colReason   = 6
	colFinished = 8
)

// Client talks to the two spreadsheets this system maintains: the master
// ledger of scheduled games and the dialogue book that receives one
// worksheet per finished game.
type Client struct {
	svc             *sheets.Service
	masterSheetID   string
	dialogueSheetID string
}

func New(ctx context.Context, credentialsFile, masterSheetID, dialogueSheetID string) (*Client, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, masterSheetID: masterSheetID, dialogueSheetID: dialogueSheetID}, nil
}

func collabErr(op string, err error) error {
	return &services.CollaboratorError{Op: "sheets: " + op, Err: err}
}

// MasterRow is one scheduled game from the master ledger.
type MasterRow struct {
	CustomerEmail string
	SalesEmail    string
	CaseID        int
	IsLiar        bool
	// RowIndex is the 1-based spreadsheet row, used for later writes.
	RowIndex int
}

// MasterRowByChannelName finds the scheduled game for a channel. Exactly
// one row must match; zero or several is a setup mistake worth surfacing
// to the staff verbatim.
func (c *Client) MasterRowByChannelName(ctx context.Context, channelName string) (*MasterRow, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.masterSheetID, masterSheetTitle+"!A:H").Context(ctx).Do()
	if err != nil {
		return nil, collabErr("read master", err)
	}

	var found *MasterRow
	for i, row := range resp.Values {
		if i == 0 {
			continue
		}
		if cell(row, 0) != channelName {
			continue
		}
		if found != nil {
			return nil, collabErr("read master", fmt.Errorf("channel %q appears more than once in the master sheet", channelName))
		}
		isLiar, err := strconv.ParseBool(strings.ToLower(cell(row, 3)))
		if err != nil {
			return nil, collabErr("read master", fmt.Errorf("row %d: bad is_liar value %q", i+1, cell(row, 3)))
		}
		caseID, err := strconv.Atoi(cell(row, 4))
		if err != nil {
			return nil, collabErr("read master", fmt.Errorf("row %d: bad case_id value %q", i+1, cell(row, 4)))
		}
		found = &MasterRow{
			CustomerEmail: cell(row, 1),
			SalesEmail:    cell(row, 2),
			CaseID:        caseID,
			IsLiar:        isLiar,
			RowIndex:      i + 1,
		}
	}
	if found == nil {
		return nil, collabErr("read master", fmt.Errorf("channel %q not found in the master sheet", channelName))
	}
	return found, nil
}

// CaseByID looks up the investment case description URL on the case
// worksheet.
func (c *Client) CaseByID(ctx context.Context, caseID int) (string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.masterSheetID, caseSheetTitle+"!A:B").Context(ctx).Do()
	if err != nil {
		return "", collabErr("read cases", err)
	}
	want := strconv.Itoa(caseID)
	for i, row := range resp.Values {
		if i == 0 {
			continue
		}
		if cell(row, 0) == want {
			return cell(row, 1), nil
		}
	}
	return "", collabErr("read cases", fmt.Errorf("case %d not found", caseID))
}

// WriteJudge records the verdict and reason on the game's ledger row.
func (c *Client) WriteJudge(ctx context.Context, rowIndex int, judge, reason string) error {
	rng := fmt.Sprintf("%s!%s%d:%s%d", masterSheetTitle, colLetter(colJudge), rowIndex, colLetter(colReason), rowIndex)
	_, err := c.svc.Spreadsheets.Values.Update(c.masterSheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{{judge, reason}},
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return collabErr("write judge", err)
	}
	return nil
}

// MarkFinished flips the ledger row's finished flag.
func (c *Client) MarkFinished(ctx context.Context, rowIndex int) error {
	rng := fmt.Sprintf("%s!%s%d", masterSheetTitle, colLetter(colFinished), rowIndex)
	_, err := c.svc.Spreadsheets.Values.Update(c.masterSheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{{"TRUE"}},
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return collabErr("mark finished", err)
	}
	return nil
}

// SaveDialogue writes the transcript into the dialogue book under a
// worksheet named after the channel, sets up the annotation columns and
// per-role edit protection, and returns the worksheet URL.
//
// Saving is idempotent: re-running the export clears and rewrites the
// same worksheet.
func (c *Client) SaveDialogue(ctx context.Context, session *models.GameSession, rows []transcript.Row, staffEmails []string) (string, error) {
	sheetID, created, err := c.findOrAddSheet(ctx, session.ChannelID)
	if err != nil {
		return "", err
	}
	if !created {
		_, err := c.svc.Spreadsheets.Values.Clear(c.dialogueSheetID, session.ChannelID, &sheets.ClearValuesRequest{}).Context(ctx).Do()
		if err != nil {
			return "", collabErr("clear worksheet", err)
		}
	}

	values := [][]interface{}{
		{"timestamp", "user", "role", "message", "lie", "suspicious", "reason"},
	}
	for _, r := range rows {
		values = append(values, []interface{}{
			r.Timestamp.Format("2006-01-02 15:04:05"), r.User, string(r.Role), r.Message, "", "", "",
		})
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.dialogueSheetID, session.ChannelID+"!A1", &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", collabErr("write transcript", err)
	}

	if err := c.formatWorksheet(ctx, sheetID, len(rows), session, staffEmails); err != nil {
		// Formatting is cosmetic plus access control; the transcript itself
		// is already saved. Log and keep going so the game can finish.
		log.Printf("[Sheets] format worksheet %s: %v", session.ChannelID, err)
	}

	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", c.dialogueSheetID, sheetID), nil
}

func (c *Client) findOrAddSheet(ctx context.Context, title string) (int64, bool, error) {
	book, err := c.svc.Spreadsheets.Get(c.dialogueSheetID).Context(ctx).Do()
	if err != nil {
		return 0, false, collabErr("get dialogue book", err)
	}
	for _, sh := range book.Sheets {
		if sh.Properties.Title == title {
			return sh.Properties.SheetId, false, nil
		}
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.dialogueSheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, false, collabErr("add worksheet", err)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, true, nil
}

// formatWorksheet freezes the header, sizes the message and reason
// columns, turns the lie and suspicious columns into checkboxes, and
// protects each column so only the role that owns it can edit.
func (c *Client) formatWorksheet(ctx context.Context, sheetID int64, rowCount int, session *models.GameSession, staffEmails []string) error {
	lastRow := int64(rowCount) + 1

	checkbox := &sheets.DataValidationRule{
		Condition:    &sheets.BooleanCondition{Type: "BOOLEAN"},
		ShowCustomUi: true,
	}

	requests := []*sheets.Request{
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId: sheetID, Dimension: "COLUMNS", StartIndex: 3, EndIndex: 4,
				},
				Properties: &sheets.DimensionProperties{PixelSize: 700},
				Fields:     "pixelSize",
			},
		},
		{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId: sheetID, Dimension: "COLUMNS", StartIndex: 6, EndIndex: 7,
				},
				Properties: &sheets.DimensionProperties{PixelSize: 500},
				Fields:     "pixelSize",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId: sheetID, StartColumnIndex: 3, EndColumnIndex: 4,
					StartRowIndex: 1, EndRowIndex: lastRow,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						WrapStrategy:        "WRAP",
						HorizontalAlignment: "LEFT",
					},
				},
				Fields: "userEnteredFormat(wrapStrategy,horizontalAlignment)",
			},
		},
		{
			SetDataValidation: &sheets.SetDataValidationRequest{
				Range: &sheets.GridRange{
					SheetId: sheetID, StartColumnIndex: 4, EndColumnIndex: 5,
					StartRowIndex: 1, EndRowIndex: lastRow,
				},
				Rule: checkbox,
			},
		},
		{
			SetDataValidation: &sheets.SetDataValidationRequest{
				Range: &sheets.GridRange{
					SheetId: sheetID, StartColumnIndex: 5, EndColumnIndex: 6,
					StartRowIndex: 1, EndRowIndex: lastRow,
				},
				Rule: checkbox,
			},
		},
	}

	protect := func(rng *sheets.GridRange, editors []string) *sheets.Request {
		return &sheets.Request{
			AddProtectedRange: &sheets.AddProtectedRangeRequest{
				ProtectedRange: &sheets.ProtectedRange{
					Range:   rng,
					Editors: &sheets.Editors{Users: editors},
				},
			},
		}
	}

	staff := append([]string{}, staffEmails...)
	// Transcript columns and the header row are read-only for players.
	requests = append(requests,
		protect(&sheets.GridRange{SheetId: sheetID, StartColumnIndex: 0, EndColumnIndex: 4}, staff),
		protect(&sheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1}, staff),
	)
	// The lie column belongs to a lying sales rep; an honest one has
	// nothing to mark, so it stays staff-only.
	lieEditors := staff
	if session.IsLiar {
		lieEditors = append([]string{session.SalesEmail}, staff...)
	}
	requests = append(requests,
		protect(&sheets.GridRange{
			SheetId: sheetID, StartColumnIndex: 4, EndColumnIndex: 5,
			StartRowIndex: 1, EndRowIndex: lastRow,
		}, lieEditors),
		protect(&sheets.GridRange{
			SheetId: sheetID, StartColumnIndex: 5, EndColumnIndex: 6,
			StartRowIndex: 1, EndRowIndex: lastRow,
		}, append([]string{session.CustomerEmail}, staff...)),
		protect(&sheets.GridRange{
			SheetId: sheetID, StartColumnIndex: 6, EndColumnIndex: 7,
			StartRowIndex: 1, EndRowIndex: lastRow,
		}, append([]string{session.CustomerEmail, session.SalesEmail}, staff...)),
	)

	_, err := c.svc.Spreadsheets.BatchUpdate(c.dialogueSheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return collabErr("format worksheet", err)
	}
	return nil
}

func cell(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return strings.TrimSpace(s)
}

// colLetter converts a 1-based column number to its letter form.
func colLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
