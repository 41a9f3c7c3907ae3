package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CourtCase holds the structure for the courtcases collection in mongo
type CourtCase struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CourtCaseDetails   `json:"courtCase" bson:"courtCase"`
	Version int32              `json:"__v" bson:"__v"`
}

// CourtCaseDetails holds the structure for the inner court case details
type CourtCaseDetails struct {
	CaseNumber       string             `json:"caseNumber" bson:"caseNumber"`
	RegistrationDate primitive.DateTime `json:"registrationDate" bson:"registrationDate"`
	RegisteredBy     string             `json:"registeredBy" bson:"registeredBy"`

	Title         string    `json:"title" bson:"title"`
	Description   string    `json:"description" bson:"description"`
	CaseType      CaseType  `json:"caseType" bson:"caseType"`
	CourtType     CourtType `json:"courtType" bson:"courtType"`
	CauseOfAction string    `json:"causeOfAction,omitempty" bson:"causeOfAction,omitempty"`
	ReliefSought  string    `json:"reliefSought,omitempty" bson:"reliefSought,omitempty"`

	Parties []Party `json:"parties" bson:"parties"`

	// Assignment
	AssignedJudge string `json:"assignedJudge,omitempty" bson:"assignedJudge,omitempty"`
	CourtNumber   string `json:"courtNumber,omitempty" bson:"courtNumber,omitempty"`

	Status   CaseStatus `json:"status" bson:"status"`
	Priority Priority   `json:"priority" bson:"priority"`

	CourtFees     float64  `json:"courtFees" bson:"courtFees"`
	DisputeAmount *float64 `json:"disputeAmount,omitempty" bson:"disputeAmount,omitempty"`

	Hearings    []Hearing    `json:"hearings" bson:"hearings"`
	NextHearing *NextHearing `json:"nextHearing,omitempty" bson:"nextHearing,omitempty"`
	Orders      []Order      `json:"orders" bson:"orders"`

	// Audit trail, append only
	History []HistoryEntry `json:"caseHistory" bson:"caseHistory"`

	IsDisposed   bool                `json:"isDisposed" bson:"isDisposed"`
	DisposalDate *primitive.DateTime `json:"disposalDate,omitempty" bson:"disposalDate,omitempty"`

	Tags     []string `json:"tags,omitempty" bson:"tags,omitempty"`
	IsActive bool     `json:"isActive" bson:"isActive"`

	LastNotificationSent *primitive.DateTime `json:"lastNotificationSent,omitempty" bson:"lastNotificationSent,omitempty"`
	NotificationStatus   NotificationStatus  `json:"notificationStatus" bson:"notificationStatus"`
	// users already reminded about the current next hearing
	RemindedUsers []string `json:"remindedUsers,omitempty" bson:"remindedUsers,omitempty"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// Party is a litigant on one side of the case
type Party struct {
	UserID           string    `json:"userId" bson:"userId"`
	Role             PartyRole `json:"role" bson:"role"`
	AssignedLawyerID string    `json:"assignedLawyerId,omitempty" bson:"assignedLawyerId,omitempty"`
	IsMainParty      bool      `json:"isMainParty" bson:"isMainParty"`
}

// Hearing is a scheduled sitting for the case
type Hearing struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	HearingDate primitive.DateTime `json:"hearingDate" bson:"hearingDate"`
	HearingTime string             `json:"hearingTime" bson:"hearingTime"`
	HearingType HearingType        `json:"hearingType" bson:"hearingType"`
	CourtRoom   string             `json:"courtRoom" bson:"courtRoom"`
	Judge       string             `json:"judge" bson:"judge"`
	Status      HearingStatus      `json:"status" bson:"status"`
	Remarks     string             `json:"remarks,omitempty" bson:"remarks,omitempty"`
	Attendees   []Attendee         `json:"attendees" bson:"attendees"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// Attendee records who was expected or present at a hearing
type Attendee struct {
	UserID   string `json:"user" bson:"user"`
	Attended bool   `json:"attended" bson:"attended"`
	Role     string `json:"role" bson:"role"` // "petitioner", "respondent", "lawyer", "witness"
}

// NextHearing caches the most recently scheduled hearing
type NextHearing struct {
	Date      primitive.DateTime `json:"date" bson:"date"`
	Time      string             `json:"time" bson:"time"`
	CourtRoom string             `json:"courtRoom" bson:"courtRoom"`
	Purpose   HearingType        `json:"purpose" bson:"purpose"`
}

// Order is a judicial order passed on the case
type Order struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	OrderDate primitive.DateTime `json:"orderDate" bson:"orderDate"`
	OrderType OrderType          `json:"orderType" bson:"orderType"`
	OrderText string             `json:"orderText" bson:"orderText"`
	PassedBy  string             `json:"passedBy" bson:"passedBy"`
}

// HistoryEntry records a single event in the court case lifecycle
type HistoryEntry struct {
	Action      string             `json:"action" bson:"action"`
	ActionBy    string             `json:"actionBy" bson:"actionBy"`
	ActionDate  primitive.DateTime `json:"actionDate" bson:"actionDate"`
	Description string             `json:"description" bson:"description"`
}

// AddHistoryEntry appends one entry to the audit trail
func (d *CourtCaseDetails) AddHistoryEntry(action, actionBy, description string, at primitive.DateTime) {
	d.History = append(d.History, HistoryEntry{
		Action:      action,
		ActionBy:    actionBy,
		ActionDate:  at,
		Description: description,
	})
}

// Petitioners returns the petitioner parties in order
func (d CourtCaseDetails) Petitioners() []Party {
	return d.partiesWithRole(PartyPetitioner)
}

// Respondents returns the respondent parties in order
func (d CourtCaseDetails) Respondents() []Party {
	return d.partiesWithRole(PartyRespondent)
}

func (d CourtCaseDetails) partiesWithRole(role PartyRole) []Party {
	var out []Party
	for _, p := range d.Parties {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// Lawyers returns the ids of every lawyer representing a party
func (d CourtCaseDetails) Lawyers() []string {
	var out []string
	for _, p := range d.Parties {
		if p.AssignedLawyerID != "" {
			out = append(out, p.AssignedLawyerID)
		}
	}
	return out
}

// HasParty reports whether userID is a litigant on the case
func (d CourtCaseDetails) HasParty(userID string) bool {
	for _, p := range d.Parties {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// RepresentedBy reports whether lawyerID represents any party
func (d CourtCaseDetails) RepresentedBy(lawyerID string) bool {
	for _, p := range d.Parties {
		if p.AssignedLawyerID != "" && p.AssignedLawyerID == lawyerID {
			return true
		}
	}
	return false
}

// DashboardStats holds per-status case counts for a principal
type DashboardStats struct {
	Registered int64 `json:"registered"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Disposed   int64 `json:"disposed"`
	Total      int64 `json:"total"`
}
