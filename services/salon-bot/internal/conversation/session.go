package conversation

import "time"

type State int

const (
	Idle State = iota
	ChoosingService
	ChoosingMaster
	ChoosingDate
	ChoosingTime
	Confirming
	AwaitingCancelCode
	AwaitingReviewComment
	AdminMasterName
	AdminMasterService
	AdminMasterChatID
	AdminDeleteMaster
)

var stateNames = [...]string{
	Idle:                  "idle",
	ChoosingService:       "choosing_service",
	ChoosingMaster:        "choosing_master",
	ChoosingDate:          "choosing_date",
	ChoosingTime:          "choosing_time",
	Confirming:            "confirming",
	AwaitingCancelCode:    "awaiting_cancel_code",
	AwaitingReviewComment: "awaiting_review_comment",
	AdminMasterName:       "admin_master_name",
	AdminMasterService:    "admin_master_service",
	AdminMasterChatID:     "admin_master_chat_id",
	AdminDeleteMaster:     "admin_delete_master",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Session is what the bot remembers about one chat between messages.
type Session struct {
	State State

	Service    string
	MasterID   int64
	MasterName string
	Date       time.Time
	Time       string

	ReviewCode   string
	ReviewRating int

	NewMasterFirst   string
	NewMasterLast    string
	NewMasterService string
}

func (s *Session) reset() {
	*s = Session{}
}

// missing names the first booking selection absent for the given state, or
// returns "" when every earlier step has been completed.
func (s *Session) missing(state State) string {
	switch {
	case state > ChoosingService && s.Service == "":
		return "service"
	case state > ChoosingMaster && s.MasterID == 0:
		return "master"
	case state > ChoosingDate && s.Date.IsZero():
		return "date"
	case state > ChoosingTime && s.Time == "":
		return "time"
	}
	return ""
}
