package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/apperr"
	"github.com/md-rashed-zaman/salonbot/services/salon-bot/internal/model"
)

// Action is a button press decoded from callback data. The set of actions is
// closed; the controller switches over the concrete types.
type Action interface {
	action()
}

type (
	SelectService struct{ Service string }
	SelectMaster  struct{ MasterID int64 }
	SelectDate    struct{ Date time.Time }
	SelectTime    struct{ Time string }
	// SlotOccupied is attached to buttons of already booked times.
	SlotOccupied struct{}
	Confirm      struct{ Yes bool }
	RateVisit    struct {
		Code   string
		Rating int
	}

	AdminServiceAppointments struct{ Service string }
	AdminMasters             struct{}
	AdminAddMaster           struct{}
	AdminDeleteMaster        struct{}
	AdminReviews             struct{}
	AdminReviewDetail        struct{ ReviewID int64 }
	AdminBlockReview         struct{ ReviewID int64 }
	AdminBack                struct{}
)

func (SelectService) action()            {}
func (SelectMaster) action()             {}
func (SelectDate) action()               {}
func (SelectTime) action()               {}
func (SlotOccupied) action()             {}
func (Confirm) action()                  {}
func (RateVisit) action()                {}
func (AdminServiceAppointments) action() {}
func (AdminMasters) action()             {}
func (AdminAddMaster) action()           {}
func (AdminDeleteMaster) action()        {}
func (AdminReviews) action()             {}
func (AdminReviewDetail) action()        {}
func (AdminBlockReview) action()         {}
func (AdminBack) action()                {}

// Encode renders a as callback data. Decode(Encode(a)) yields a.
func Encode(a Action) string {
	switch a := a.(type) {
	case SelectService:
		return "svc:" + a.Service
	case SelectMaster:
		return "mst:" + strconv.FormatInt(a.MasterID, 10)
	case SelectDate:
		return "date:" + a.Date.Format(model.DateLayout)
	case SelectTime:
		return "time:" + a.Time
	case SlotOccupied:
		return "busy"
	case Confirm:
		if a.Yes {
			return "confirm:yes"
		}
		return "confirm:no"
	case RateVisit:
		return "rate:" + a.Code + ":" + strconv.Itoa(a.Rating)
	case AdminServiceAppointments:
		return "adm:svc:" + a.Service
	case AdminMasters:
		return "adm:masters"
	case AdminAddMaster:
		return "adm:add"
	case AdminDeleteMaster:
		return "adm:del"
	case AdminReviews:
		return "adm:reviews"
	case AdminReviewDetail:
		return "adm:rv:" + strconv.FormatInt(a.ReviewID, 10)
	case AdminBlockReview:
		return "adm:blk:" + strconv.FormatInt(a.ReviewID, 10)
	case AdminBack:
		return "adm:back"
	default:
		panic(fmt.Sprintf("chat: unknown action %T", a))
	}
}

// Decode parses callback data produced by Encode. Malformed data yields a
// validation error.
func Decode(data string) (Action, error) {
	switch data {
	case "busy":
		return SlotOccupied{}, nil
	case "confirm:yes":
		return Confirm{Yes: true}, nil
	case "confirm:no":
		return Confirm{Yes: false}, nil
	case "adm:masters":
		return AdminMasters{}, nil
	case "adm:add":
		return AdminAddMaster{}, nil
	case "adm:del":
		return AdminDeleteMaster{}, nil
	case "adm:reviews":
		return AdminReviews{}, nil
	case "adm:back":
		return AdminBack{}, nil
	}

	if rest, ok := strings.CutPrefix(data, "adm:"); ok {
		return decodeAdmin(data, rest)
	}

	tag, value, ok := strings.Cut(data, ":")
	if !ok || value == "" {
		return nil, invalid(data)
	}
	switch tag {
	case "svc":
		return SelectService{Service: value}, nil
	case "mst":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, invalid(data)
		}
		return SelectMaster{MasterID: id}, nil
	case "date":
		d, err := time.Parse(model.DateLayout, value)
		if err != nil {
			return nil, invalid(data)
		}
		return SelectDate{Date: d}, nil
	case "time":
		if _, err := time.Parse(model.TimeLayout, value); err != nil {
			return nil, invalid(data)
		}
		return SelectTime{Time: value}, nil
	case "rate":
		code, raw, ok := strings.Cut(value, ":")
		if !ok || code == "" {
			return nil, invalid(data)
		}
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return nil, invalid(data)
		}
		return RateVisit{Code: code, Rating: rating}, nil
	}
	return nil, invalid(data)
}

func decodeAdmin(data, rest string) (Action, error) {
	tag, value, ok := strings.Cut(rest, ":")
	if !ok || value == "" {
		return nil, invalid(data)
	}
	if tag == "svc" {
		return AdminServiceAppointments{Service: value}, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, invalid(data)
	}
	switch tag {
	case "rv":
		return AdminReviewDetail{ReviewID: id}, nil
	case "blk":
		return AdminBlockReview{ReviewID: id}, nil
	}
	return nil, invalid(data)
}

func invalid(data string) error {
	return apperr.New(apperr.ErrValidation, fmt.Sprintf("unknown button %q", data))
}
