package dto

type CreateJobRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	SkillRequired string  `json:"skill_required"`
	StationFrom   string  `json:"station_from"`
	StationTo     string  `json:"station_to"`
	Budget        float64 `json:"budget"`
}

type CancelJobRequest struct {
	Reason string `json:"reason"`
}

type RateJobRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

type FeedRequest struct {
	Skill       string `form:"skill"`
	StationFrom string `form:"station_from"`
	StationTo   string `form:"station_to"`
}

type UploadProofRequest struct {
	Image string `json:"image"`
}

type RaiseDisputeRequest struct {
	JobID    string `json:"job_id" binding:"required"`
	Text     string `json:"text"`
	Evidence string `json:"evidence"`
}

type ResolveDisputeRequest struct {
	DecisionAgainst string `json:"decision_against" binding:"required"`
	Note            string `json:"note"`
}

type RejectDisputeRequest struct {
	Note string `json:"note"`
}

type VerificationRequest struct {
	Action string `json:"action" binding:"required"`
}

type AvailabilityRequest struct {
	Availability string `json:"availability" binding:"required"`
}
