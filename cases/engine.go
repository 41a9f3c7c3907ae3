package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linesmerrill/court-case-api/databases"
	"github.com/linesmerrill/court-case-api/models"
)

const (
	// maxWriteAttempts bounds the reload and replay loop on a version conflict
	maxWriteAttempts = 5
	// maxNumberAttempts bounds case number regeneration on a duplicate key
	maxNumberAttempts = 5
)

var tracer = otel.Tracer("github.com/linesmerrill/court-case-api/cases")

// Recorder receives business events for metrics
type Recorder interface {
	CaseRegistered(courtType models.CourtType)
	StatusChanged(from, to models.CaseStatus)
	HearingScheduled(hearingType models.HearingType)
	OrderPassed(orderType models.OrderType)
	VersionConflict()
}

type noopRecorder struct{}

func (noopRecorder) CaseRegistered(models.CourtType)                    {}
func (noopRecorder) StatusChanged(models.CaseStatus, models.CaseStatus) {}
func (noopRecorder) HearingScheduled(models.HearingType)                {}
func (noopRecorder) OrderPassed(models.OrderType)                       {}
func (noopRecorder) VersionConflict()                                   {}

// Service runs the case lifecycle: registration, the four mutations and the
// role scoped reads. Every mutation is authorized, applied to one loaded
// aggregate, logged to its history and written back with a version check.
type Service struct {
	cases    databases.CaseDatabase
	identity Identity
	numbers  NumberGenerator
	now      func() time.Time
	metrics  Recorder
	clean    sanitizer
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNumberGenerator replaces the counting case number generator
func WithNumberGenerator(g NumberGenerator) Option {
	return func(s *Service) { s.numbers = g }
}

// WithRecorder sends business events to r
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// NewService wires a Service over the case store and identity collaborator
func NewService(cases databases.CaseDatabase, identity Identity, opts ...Option) *Service {
	s := &Service{
		cases:    cases,
		identity: identity,
		numbers:  CountingGenerator{Cases: cases},
		now:      time.Now,
		metrics:  noopRecorder{},
		clean:    newSanitizer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries the fields of a new case
type RegisterInput struct {
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	CaseType      models.CaseType  `json:"caseType"`
	CourtType     models.CourtType `json:"courtType"`
	Priority      models.Priority  `json:"priority,omitempty"`
	Parties       []models.Party   `json:"parties"`
	AssignedJudge string           `json:"assignedJudge,omitempty"`
	CourtNumber   string           `json:"courtNumber,omitempty"`
	CauseOfAction string           `json:"causeOfAction,omitempty"`
	ReliefSought  string           `json:"reliefSought,omitempty"`
	CourtFees     float64          `json:"courtFees,omitempty"`
	DisputeAmount *float64         `json:"disputeAmount,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
}

func (s *Service) sanitizeRegister(in RegisterInput) RegisterInput {
	in.Title = s.clean.text(in.Title)
	in.Description = s.clean.text(in.Description)
	in.CauseOfAction = s.clean.text(in.CauseOfAction)
	in.ReliefSought = s.clean.text(in.ReliefSought)
	in.CourtNumber = s.clean.text(in.CourtNumber)
	in.AssignedJudge = strings.TrimSpace(in.AssignedJudge)
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = s.clean.text(t); t != "" {
			tags = append(tags, t)
		}
	}
	in.Tags = tags
	return in
}

func validateRegister(in RegisterInput) error {
	var missing []string
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if in.Description == "" {
		missing = append(missing, "description")
	}
	if in.CaseType == "" {
		missing = append(missing, "caseType")
	}
	if in.CourtType == "" {
		missing = append(missing, "courtType")
	}
	if len(in.Parties) == 0 {
		missing = append(missing, "parties")
	}
	if len(missing) > 0 {
		return New(KindValidation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if !in.CaseType.Valid() {
		return New(KindValidation, "unknown case type %q", in.CaseType)
	}
	if !in.CourtType.Valid() {
		return New(KindValidation, "unknown court type %q", in.CourtType)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return New(KindValidation, "unknown priority %q", in.Priority)
	}
	if in.CourtFees < 0 {
		return New(KindValidation, "courtFees cannot be negative")
	}
	if in.DisputeAmount != nil && *in.DisputeAmount < 0 {
		return New(KindValidation, "disputeAmount cannot be negative")
	}

	var petitioner, respondent bool
	for i, party := range in.Parties {
		if strings.TrimSpace(party.UserID) == "" {
			return New(KindValidation, "party %d is missing userId", i+1)
		}
		switch party.Role {
		case models.PartyPetitioner:
			petitioner = true
		case models.PartyRespondent:
			respondent = true
		default:
			return New(KindValidation, "party %d has unknown role %q", i+1, party.Role)
		}
	}
	if !petitioner || !respondent {
		return New(KindValidation, "case must have at least one petitioner and one respondent")
	}
	return nil
}

// Register creates a case for a registrar. Every party, lawyer and the
// optional judge must resolve to a principal of the matching role.
func (s *Service) Register(ctx context.Context, p models.Principal, in RegisterInput) (created *models.CourtCase, err error) {
	ctx, span := tracer.Start(ctx, "cases.Register", principalAttrs(p))
	defer func() { finish(span, err) }()

	if err = Authorize(p, nil, OpRegister); err != nil {
		return nil, err
	}
	in = s.sanitizeRegister(in)
	if err = validateRegister(in); err != nil {
		return nil, err
	}
	if in.Priority == "" {
		in.Priority = models.PriorityNormal
	}

	for _, party := range in.Parties {
		if _, err = resolveAs(ctx, s.identity, party.UserID, models.RoleUser, "party user"); err != nil {
			return nil, err
		}
		if party.AssignedLawyerID != "" {
			if _, err = resolveAs(ctx, s.identity, party.AssignedLawyerID, models.RoleLawyer, "lawyer"); err != nil {
				return nil, err
			}
		}
	}
	if in.AssignedJudge != "" {
		if _, err = resolveAs(ctx, s.identity, in.AssignedJudge, models.RoleJudge, "judge"); err != nil {
			return nil, err
		}
	}

	now := s.now()
	stamp := primitive.NewDateTimeFromTime(now)
	courtCase := models.CourtCase{
		ID: primitive.NewObjectID(),
		Details: models.CourtCaseDetails{
			RegistrationDate:   stamp,
			RegisteredBy:       p.ID,
			Title:              in.Title,
			Description:        in.Description,
			CaseType:           in.CaseType,
			CourtType:          in.CourtType,
			CauseOfAction:      in.CauseOfAction,
			ReliefSought:       in.ReliefSought,
			Parties:            in.Parties,
			AssignedJudge:      in.AssignedJudge,
			CourtNumber:        in.CourtNumber,
			Status:             models.StatusRegistered,
			Priority:           in.Priority,
			CourtFees:          in.CourtFees,
			DisputeAmount:      in.DisputeAmount,
			Hearings:           []models.Hearing{},
			Orders:             []models.Order{},
			Tags:               in.Tags,
			IsActive:           true,
			NotificationStatus: models.NotificationPending,
			CreatedAt:          stamp,
			UpdatedAt:          stamp,
		},
	}
	courtCase.Details.AddHistoryEntry(models.ActionCaseRegistered, p.ID,
		fmt.Sprintf("Case registered by %s", displayName(p)), stamp)

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		courtCase.Details.CaseNumber, err = s.numbers.Next(ctx, in.CourtType, now)
		if err != nil {
			return nil, err
		}
		_, err = s.cases.InsertOne(ctx, courtCase)
		if err == nil {
			span.SetAttributes(attribute.String("case.number", courtCase.Details.CaseNumber))
			s.metrics.CaseRegistered(in.CourtType)
			return &courtCase, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, Wrap(err, KindServer, "failed to register case")
		}
		zap.S().Warnw("case number taken, regenerating",
			"caseNumber", courtCase.Details.CaseNumber,
			"attempt", attempt)
	}
	return nil, Wrap(err, KindServer, "could not allocate a unique case number")
}

// Get returns a case the principal is allowed to view
func (s *Service) Get(ctx context.Context, p models.Principal, caseID string) (c *models.CourtCase, err error) {
	ctx, span := tracer.Start(ctx, "cases.Get", principalAttrs(p), trace.WithAttributes(attribute.String("case.id", caseID)))
	defer func() { finish(span, err) }()

	c, err = s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err = Authorize(p, &c.Details, OpView); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns one page of the cases p may see
func (s *Service) List(ctx context.Context, p models.Principal, o ListOptions) (list *CaseList, err error) {
	ctx, span := tracer.Start(ctx, "cases.List", principalAttrs(p))
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
	findOpts := databases.PaginatedFindOptions(o.Page, o.Limit, field, dir)

	var (
		found []models.CourtCase
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var ferr error
		found, ferr = s.cases.Find(gctx, filter, findOpts)
		return ferr
	})
	g.Go(func() error {
		var cerr error
		total, cerr = s.cases.CountDocuments(gctx, filter)
		return cerr
	})
	if err = g.Wait(); err != nil {
		return nil, Wrap(err, KindServer, "failed to list cases")
	}
	if found == nil {
		found = []models.CourtCase{}
	}
	return &CaseList{Cases: found, Pagination: NewPagination(o.Page, o.Limit, total)}, nil
}

// DashboardStats counts the cases p may see per status bucket
func (s *Service) DashboardStats(ctx context.Context, p models.Principal) (stats *models.DashboardStats, err error) {
	ctx, span := tracer.Start(ctx, "cases.DashboardStats", principalAttrs(p))
	defer func() { finish(span, err) }()

	filter, err := BuildStatsFilter(p)
	if err != nil {
		return nil, err
	}

	stats = &models.DashboardStats{}
	buckets := []struct {
		dst    *int64
		filter bson.M
	}{
		{&stats.Registered, withStatus(filter, models.StatusRegistered)},
		{&stats.Pending, withStatus(filter, models.StatusPending)},
		{&stats.InProgress, withStatus(filter, models.StatusInProgress)},
		{&stats.Disposed, withStatus(filter, models.StatusDisposed)},
		{&stats.Total, filter},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range buckets {
		b := b
		g.Go(func() error {
			n, cerr := s.cases.CountDocuments(gctx, b.filter)
			if cerr != nil {
				return cerr
			}
			*b.dst = n
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, Wrap(err, KindServer, "failed to count cases")
	}
	return stats, nil
}

// load fetches an active case by hex id
func (s *Service) load(ctx context.Context, caseID string) (*models.CourtCase, error) {
	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return nil, New(KindNotFound, "case %q not found", caseID)
	}
	c, err := s.cases.FindOne(ctx, bson.M{"_id": oid, "courtCase.isActive": true})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, New(KindNotFound, "case %q not found", caseID)
		}
		return nil, Wrap(err, KindServer, "failed to load case")
	}
	return c, nil
}

// mutate loads the case, authorizes op, applies fn and writes the aggregate
// back guarded by its version. A version miss reloads and replays fn.
func (s *Service) mutate(ctx context.Context, p models.Principal, caseID string, op Operation,
	fn func(c *models.CourtCase, now primitive.DateTime) error) (*models.CourtCase, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		c, err := s.load(ctx, caseID)
		if err != nil {
			return nil, err
		}
		if err = Authorize(p, &c.Details, op); err != nil {
			return nil, err
		}
		now := primitive.NewDateTimeFromTime(s.now())
		if err = fn(c, now); err != nil {
			return nil, err
		}
		c.Details.UpdatedAt = now

		expected := c.Version
		c.Version++
		matched, err := s.cases.ReplaceOne(ctx, bson.M{"_id": c.ID, "__v": expected}, *c)
		if err != nil {
			return nil, Wrap(err, KindServer, "failed to save case")
		}
		if matched == 1 {
			return c, nil
		}
		s.metrics.VersionConflict()
		zap.S().Debugw("case changed underneath write, replaying",
			"caseId", caseID,
			"operation", op,
			"attempt", attempt)
	}
	return nil, New(KindServer, "case %s is being modified concurrently, try again", caseID)
}

func displayName(p models.Principal) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func principalAttrs(p models.Principal) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("principal.id", p.ID),
		attribute.String("principal.role", string(p.Role)),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
	}
	span.End()
}
