package cases

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/court-case-api/databases"
	"github.com/linesmerrill/court-case-api/models"
)

const (
	exportSheet   = "Cases"
	maxExportRows = 5000
)

var exportHeaders = []string{
	"Case Number", "Title", "Case Type", "Court Type", "Status", "Priority",
	"Registration Date", "Assigned Judge", "Court Number", "Next Hearing",
	"Petitioners", "Respondents", "Disposed", "Disposal Date",
}

// Export writes every case p may see under o's filters to an xlsx workbook.
// Paging in o is ignored; the sort is kept.
func (s *Service) Export(ctx context.Context, p models.Principal, o ListOptions) (buf *bytes.Buffer, err error) {
	ctx, span := tracer.Start(ctx, "cases.Export", principalAttrs(p))
	defer func() { finish(span, err) }()

	o, err = o.Normalize()
	if err != nil {
		return nil, err
	}
	filter, err := BuildListFilter(p, o)
	if err != nil {
		return nil, err
	}
	field, dir := o.SortField()
	found, err := s.cases.Find(ctx, filter, databases.PaginatedFindOptions(1, maxExportRows, field, dir))
	if err != nil {
		return nil, Wrap(err, KindServer, "failed to load cases for export")
	}
	return WriteWorkbook(found)
}

// WriteWorkbook renders cases as one sheet with a header row and a row per case
func WriteWorkbook(courtCases []models.CourtCase) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, Wrap(err, KindServer, "failed to name export sheet")
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	f.SetCellStyle(exportSheet, "A1", lastHeader, headerStyle)

	for r, c := range courtCases {
		d := c.Details
		row := []interface{}{
			d.CaseNumber,
			d.Title,
			string(d.CaseType),
			string(d.CourtType),
			string(d.Status),
			string(d.Priority),
			formatDate(&d.RegistrationDate),
			d.AssignedJudge,
			d.CourtNumber,
			nextHearingText(d.NextHearing),
			partyIDs(d.Petitioners()),
			partyIDs(d.Respondents()),
			d.IsDisposed,
			formatDate(d.DisposalDate),
		}
		start, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(exportSheet, start, &row); err != nil {
			return nil, Wrap(err, KindServer, "failed to write export row")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, Wrap(err, KindServer, "failed to write export workbook")
	}
	return buf, nil
}

func formatDate(dt *primitive.DateTime) string {
	if dt == nil || *dt == 0 {
		return ""
	}
	return dt.Time().UTC().Format("2006-01-02")
}

func nextHearingText(n *models.NextHearing) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%s %s (%s)", formatDate(&n.Date), n.Time, n.CourtRoom)
}

func partyIDs(parties []models.Party) string {
	ids := make([]string, 0, len(parties))
	for _, p := range parties {
		ids = append(ids, p.UserID)
	}
	return strings.Join(ids, ", ")
}
