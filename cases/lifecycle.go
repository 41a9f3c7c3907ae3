package cases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linesmerrill/court-case-api/models"
)

// AssignJudgeInput is the body of a judge assignment
type AssignJudgeInput struct {
	JudgeID     string `json:"judgeId"`
	CourtNumber string `json:"courtNumber,omitempty"`
}

// HearingInput is the body of a hearing request
type HearingInput struct {
	HearingDate string             `json:"hearingDate"`
	HearingTime string             `json:"hearingTime"`
	HearingType models.HearingType `json:"hearingType"`
	CourtRoom   string             `json:"courtRoom"`
	Remarks     string             `json:"remarks,omitempty"`
}

// OrderInput is the body of an order
type OrderInput struct {
	OrderType models.OrderType `json:"orderType"`
	OrderText string           `json:"orderText"`
}

// StatusInput is the body of a status change
type StatusInput struct {
	Status  models.CaseStatus `json:"status"`
	Remarks string            `json:"remarks,omitempty"`
}

// AssignJudge puts a judge on the case and admits it
func (s *Service) AssignJudge(ctx context.Context, p models.Principal, caseID string, in AssignJudgeInput) (c *models.CourtCase, err error) {
	ctx, span := tracer.Start(ctx, "cases.AssignJudge", principalAttrs(p), caseAttrs(caseID))
	defer func() { finish(span, err) }()

	if err = Authorize(p, nil, OpAssignJudge); err != nil {
		return nil, err
	}
	in.JudgeID = strings.TrimSpace(in.JudgeID)
	in.CourtNumber = s.clean.text(in.CourtNumber)
	if in.JudgeID == "" {
		return nil, New(KindValidation, "judgeId is required")
	}
	judge, err := resolveAs(ctx, s.identity, in.JudgeID, models.RoleJudge, "judge")
	if err != nil {
		return nil, err
	}

	var from models.CaseStatus
	c, err = s.mutate(ctx, p, caseID, OpAssignJudge, func(c *models.CourtCase, now primitive.DateTime) error {
		from = c.Details.Status
		c.Details.AssignedJudge = judge.ID
		c.Details.CourtNumber = in.CourtNumber
		c.Details.Status = models.StatusAdmitted
		c.Details.AddHistoryEntry(models.ActionJudgeAssigned, p.ID,
			fmt.Sprintf("Judge %s assigned to case", displayName(judge)), now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.StatusChanged(from, models.StatusAdmitted)
	return c, nil
}

func (s *Service) validateHearing(in HearingInput) (HearingInput, time.Time, error) {
	in.HearingTime = s.clean.text(in.HearingTime)
	in.CourtRoom = s.clean.text(in.CourtRoom)
	in.Remarks = s.clean.text(in.Remarks)

	var missing []string
	if strings.TrimSpace(in.HearingDate) == "" {
		missing = append(missing, "hearingDate")
	}
	if in.HearingTime == "" {
		missing = append(missing, "hearingTime")
	}
	if in.HearingType == "" {
		missing = append(missing, "hearingType")
	}
	if in.CourtRoom == "" {
		missing = append(missing, "courtRoom")
	}
	if len(missing) > 0 {
		return in, time.Time{}, New(KindValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if !in.HearingType.Valid() {
		return in, time.Time{}, New(KindValidation, "unknown hearing type %q", in.HearingType)
	}
	date, err := ParseHearingDate(in.HearingDate)
	if err != nil {
		return in, time.Time{}, err
	}
	return in, date, nil
}

// ParseHearingDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates
func ParseHearingDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, New(KindValidation, "hearingDate %q must be RFC 3339 or YYYY-MM-DD", raw)
}

// ScheduleHearing appends a hearing, moves nextHearing to it and marks the case pending.
// nextHearing always follows the latest scheduled hearing, not the soonest one.
func (s *Service) ScheduleHearing(ctx context.Context, p models.Principal, caseID string, in HearingInput) (h *models.Hearing, err error) {
	ctx, span := tracer.Start(ctx, "cases.ScheduleHearing", principalAttrs(p), caseAttrs(caseID))
	defer func() { finish(span, err) }()

	if err = Authorize(p, nil, OpScheduleHearing); err != nil {
		return nil, err
	}
	in, date, err := s.validateHearing(in)
	if err != nil {
		return nil, err
	}
	hearingDate := primitive.NewDateTimeFromTime(date)

	var from models.CaseStatus
	c, err := s.mutate(ctx, p, caseID, OpScheduleHearing, func(c *models.CourtCase, now primitive.DateTime) error {
		from = c.Details.Status
		judge := c.Details.AssignedJudge
		if judge == "" {
			judge = p.ID
		}
		c.Details.Hearings = append(c.Details.Hearings, models.Hearing{
			ID:          primitive.NewObjectID(),
			HearingDate: hearingDate,
			HearingTime: in.HearingTime,
			HearingType: in.HearingType,
			CourtRoom:   in.CourtRoom,
			Judge:       judge,
			Status:      models.HearingScheduled,
			Remarks:     in.Remarks,
			Attendees:   expectedAttendees(c.Details),
			CreatedAt:   now,
		})
		c.Details.NextHearing = &models.NextHearing{
			Date:      hearingDate,
			Time:      in.HearingTime,
			CourtRoom: in.CourtRoom,
			Purpose:   in.HearingType,
		}
		c.Details.Status = models.StatusPending
		// a new hearing needs a fresh reminder
		c.Details.NotificationStatus = models.NotificationPending
		c.Details.RemindedUsers = nil
		c.Details.AddHistoryEntry(models.ActionHearingScheduled, p.ID,
			fmt.Sprintf("Hearing scheduled for %s at %s", date.Format("2006-01-02"), in.HearingTime), now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.HearingScheduled(in.HearingType)
	s.metrics.StatusChanged(from, models.StatusPending)
	last := c.Details.Hearings[len(c.Details.Hearings)-1]
	return &last, nil
}

func expectedAttendees(d models.CourtCaseDetails) []models.Attendee {
	attendees := make([]models.Attendee, 0, len(d.Parties)*2)
	for _, party := range d.Parties {
		attendees = append(attendees, models.Attendee{UserID: party.UserID, Role: string(party.Role)})
		if party.AssignedLawyerID != "" {
			attendees = append(attendees, models.Attendee{UserID: party.AssignedLawyerID, Role: "lawyer"})
		}
	}
	return attendees
}

// AddOrder records an order. Only the judge assigned to the case may pass one.
func (s *Service) AddOrder(ctx context.Context, p models.Principal, caseID string, in OrderInput) (o *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "cases.AddOrder", principalAttrs(p), caseAttrs(caseID))
	defer func() { finish(span, err) }()

	if p.Role != models.RoleJudge {
		return nil, New(KindForbidden, "only judges can pass orders")
	}
	in.OrderText = s.clean.text(in.OrderText)
	var missing []string
	if in.OrderType == "" {
		missing = append(missing, "orderType")
	}
	if in.OrderText == "" {
		missing = append(missing, "orderText")
	}
	if len(missing) > 0 {
		return nil, New(KindValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if !in.OrderType.Valid() {
		return nil, New(KindValidation, "unknown order type %q", in.OrderType)
	}

	c, err := s.mutate(ctx, p, caseID, OpAddOrder, func(c *models.CourtCase, now primitive.DateTime) error {
		c.Details.Orders = append(c.Details.Orders, models.Order{
			ID:        primitive.NewObjectID(),
			OrderDate: now,
			OrderType: in.OrderType,
			OrderText: in.OrderText,
			PassedBy:  p.ID,
		})
		kind := string(in.OrderType)
		c.Details.AddHistoryEntry(models.ActionOrderPassed, p.ID,
			fmt.Sprintf("%s order passed", strings.ToUpper(kind[:1])+kind[1:]), now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OrderPassed(in.OrderType)
	last := c.Details.Orders[len(c.Details.Orders)-1]
	return &last, nil
}

// UpdateStatus sets any known status. Moving to disposed stamps the disposal
// fields; nothing clears them afterwards.
func (s *Service) UpdateStatus(ctx context.Context, p models.Principal, caseID string, in StatusInput) (c *models.CourtCase, err error) {
	ctx, span := tracer.Start(ctx, "cases.UpdateStatus", principalAttrs(p), caseAttrs(caseID))
	defer func() { finish(span, err) }()

	if err = Authorize(p, nil, OpUpdateStatus); err != nil {
		return nil, err
	}
	in.Remarks = s.clean.text(in.Remarks)
	if in.Status == "" {
		return nil, New(KindValidation, "status is required")
	}
	if !in.Status.Valid() {
		return nil, New(KindValidation, "unknown status %q", in.Status)
	}

	var from models.CaseStatus
	c, err = s.mutate(ctx, p, caseID, OpUpdateStatus, func(c *models.CourtCase, now primitive.DateTime) error {
		from = c.Details.Status
		c.Details.Status = in.Status
		if in.Status == models.StatusDisposed {
			disposed := now
			c.Details.IsDisposed = true
			c.Details.DisposalDate = &disposed
		}
		desc := fmt.Sprintf("Case status changed from %s to %s", from, in.Status)
		if in.Remarks != "" {
			desc += ": " + in.Remarks
		}
		c.Details.AddHistoryEntry(models.ActionStatusUpdated, p.ID, desc, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.StatusChanged(from, in.Status)
	return c, nil
}

func caseAttrs(caseID string) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("case.id", caseID))
}
