package models

// CaseStatus is a step in the court case lifecycle
type CaseStatus string

// Case statuses
const (
	StatusRegistered    CaseStatus = "registered"
	StatusAdmitted      CaseStatus = "admitted"
	StatusPending       CaseStatus = "pending"
	StatusInProgress    CaseStatus = "in_progress"
	StatusNoticeIssued  CaseStatus = "notice_issued"
	StatusAppearance    CaseStatus = "appearance"
	StatusEvidenceStage CaseStatus = "evidence_stage"
	StatusArguments     CaseStatus = "arguments"
	StatusReserved      CaseStatus = "reserved"
	StatusDisposed      CaseStatus = "disposed"
	StatusDismissed     CaseStatus = "dismissed"
	StatusWithdrawn     CaseStatus = "withdrawn"
)

// Valid reports whether s is a known status
func (s CaseStatus) Valid() bool {
	switch s {
	case StatusRegistered, StatusAdmitted, StatusPending, StatusInProgress,
		StatusNoticeIssued, StatusAppearance, StatusEvidenceStage, StatusArguments,
		StatusReserved, StatusDisposed, StatusDismissed, StatusWithdrawn:
		return true
	}
	return false
}

// Priority of a case on the docket
type Priority string

// Priorities
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// CourtType is the forum a case is filed in
type CourtType string

// Court types
const (
	CourtDistrict   CourtType = "district_court"
	CourtHigh       CourtType = "high_court"
	CourtSupreme    CourtType = "supreme_court"
	CourtFamily     CourtType = "family_court"
	CourtCommercial CourtType = "commercial_court"
	CourtConsumer   CourtType = "consumer_court"
	CourtLabor      CourtType = "labor_court"
	CourtRevenue    CourtType = "revenue_court"
	CourtOther      CourtType = "other"
)

// Valid reports whether c is a known court type
func (c CourtType) Valid() bool {
	switch c {
	case CourtDistrict, CourtHigh, CourtSupreme, CourtFamily, CourtCommercial,
		CourtConsumer, CourtLabor, CourtRevenue, CourtOther:
		return true
	}
	return false
}

// Prefix is the case number prefix for the court type
func (c CourtType) Prefix() string {
	switch c {
	case CourtDistrict:
		return "DC"
	case CourtHigh:
		return "HC"
	case CourtSupreme:
		return "SC"
	case CourtFamily:
		return "FC"
	case CourtCommercial:
		return "CC"
	default:
		return "CT"
	}
}

// CaseType is the subject-matter classification of a case
type CaseType string

// Case types
const (
	CaseCivil          CaseType = "civil"
	CaseCriminal       CaseType = "criminal"
	CaseFamily         CaseType = "family"
	CaseCommercial     CaseType = "commercial"
	CaseProperty       CaseType = "property"
	CaseLabor          CaseType = "labor"
	CaseConstitutional CaseType = "constitutional"
	CaseAdministrative CaseType = "administrative"
	CaseOther          CaseType = "other"
)

// Valid reports whether t is a known case type
func (t CaseType) Valid() bool {
	switch t {
	case CaseCivil, CaseCriminal, CaseFamily, CaseCommercial, CaseProperty,
		CaseLabor, CaseConstitutional, CaseAdministrative, CaseOther:
		return true
	}
	return false
}

// PartyRole is the side a litigant is on
type PartyRole string

// Party roles
const (
	PartyPetitioner PartyRole = "petitioner"
	PartyRespondent PartyRole = "respondent"
)

// Valid reports whether r is a known party role
func (r PartyRole) Valid() bool {
	return r == PartyPetitioner || r == PartyRespondent
}

// HearingType is the purpose of a hearing
type HearingType string

// Hearing types
const (
	HearingFirst              HearingType = "first_hearing"
	HearingRegular            HearingType = "regular_hearing"
	HearingEvidence           HearingType = "evidence_hearing"
	HearingArgument           HearingType = "argument_hearing"
	HearingJudgment           HearingType = "judgment"
	HearingInterimApplication HearingType = "interim_application"
)

// Valid reports whether h is a known hearing type
func (h HearingType) Valid() bool {
	switch h {
	case HearingFirst, HearingRegular, HearingEvidence, HearingArgument,
		HearingJudgment, HearingInterimApplication:
		return true
	}
	return false
}

// HearingStatus tracks what happened to a scheduled hearing
type HearingStatus string

// Hearing statuses
const (
	HearingScheduled HearingStatus = "scheduled"
	HearingCompleted HearingStatus = "completed"
	HearingAdjourned HearingStatus = "adjourned"
	HearingCancelled HearingStatus = "cancelled"
)

// OrderType classifies an order passed by a judge
type OrderType string

// Order types
const (
	OrderInterim   OrderType = "interim"
	OrderFinal     OrderType = "final"
	OrderDirection OrderType = "direction"
	OrderNotice    OrderType = "notice"
	OrderSummons   OrderType = "summons"
)

// Valid reports whether o is a known order type
func (o OrderType) Valid() bool {
	switch o {
	case OrderInterim, OrderFinal, OrderDirection, OrderNotice, OrderSummons:
		return true
	}
	return false
}

// NotificationStatus records the last reminder delivery outcome
type NotificationStatus string

// Notification statuses
const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// History actions, one per lifecycle mutation
const (
	ActionCaseRegistered   = "CASE_REGISTERED"
	ActionJudgeAssigned    = "JUDGE_ASSIGNED"
	ActionHearingScheduled = "HEARING_SCHEDULED"
	ActionOrderPassed      = "ORDER_PASSED"
	ActionStatusUpdated    = "STATUS_UPDATED"
)
