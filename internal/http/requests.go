package httpapi

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/example/carpool-matching/internal/clock"
	"github.com/example/carpool-matching/internal/geo"
	"github.com/example/carpool-matching/internal/models"
)

type pointRequest struct {
	X *float64 `json:"x" validate:"required,integral"`
	Y *float64 `json:"y" validate:"required,integral"`
}

func (p *pointRequest) point() geo.Point { return geo.Point{X: *p.X, Y: *p.Y} }

func fromPoint(p geo.Point) *pointRequest {
	x, y := p.X, p.Y
	return &pointRequest{X: &x, Y: &y}
}

type participantRequest struct {
	Name          string        `json:"name" validate:"required,capwords"`
	StartLocation *pointRequest `json:"startLocation" validate:"required"`
	EndLocation   *pointRequest `json:"endLocation" validate:"required"`
	StartHour     *int          `json:"startHour" validate:"required,min=0,max=23"`
	StartMinute   *int          `json:"startMinute" validate:"required,min=0,max=59"`
	EndHour       *int          `json:"endHour" validate:"required,min=0,max=23"`
	EndMinute     *int          `json:"endMinute" validate:"required,min=0,max=59"`
	Role          string        `json:"role" validate:"required,oneof=Driver Rider"`
}

func (r *participantRequest) participant() models.Participant {
	return models.Participant{
		Name:      r.Name,
		Start:     r.StartLocation.point(),
		End:       r.EndLocation.point(),
		StartTime: clock.New(*r.StartHour, *r.StartMinute),
		EndTime:   clock.New(*r.EndHour, *r.EndMinute),
		Role:      models.Role(r.Role),
	}
}

func fromParticipant(p models.Participant) participantRequest {
	sh, sm := p.StartTime.Hour(), p.StartTime.Minute()
	eh, em := p.EndTime.Hour(), p.EndTime.Minute()
	return participantRequest{
		Name:          p.Name,
		StartLocation: fromPoint(p.Start),
		EndLocation:   fromPoint(p.End),
		StartHour:     &sh,
		StartMinute:   &sm,
		EndHour:       &eh,
		EndMinute:     &em,
		Role:          string(p.Role),
	}
}

// participantPatch carries the fields of a partial update. Present fields
// replace the stored ones, zero values included.
type participantPatch struct {
	StartLocation *pointRequest `json:"startLocation"`
	EndLocation   *pointRequest `json:"endLocation"`
	StartHour     *int          `json:"startHour"`
	StartMinute   *int          `json:"startMinute"`
	EndHour       *int          `json:"endHour"`
	EndMinute     *int          `json:"endMinute"`
	Role          *string       `json:"role"`
}

func (p participantPatch) applyTo(r *participantRequest) {
	if p.StartLocation != nil {
		r.StartLocation = p.StartLocation
	}
	if p.EndLocation != nil {
		r.EndLocation = p.EndLocation
	}
	if p.StartHour != nil {
		r.StartHour = p.StartHour
	}
	if p.StartMinute != nil {
		r.StartMinute = p.StartMinute
	}
	if p.EndHour != nil {
		r.EndHour = p.EndHour
	}
	if p.EndMinute != nil {
		r.EndMinute = p.EndMinute
	}
	if p.Role != nil {
		r.Role = *p.Role
	}
}

type disruptionRequest struct {
	Location     *pointRequest `json:"location" validate:"required"`
	Radius       *float64      `json:"radius" validate:"required,gt=0,integral"`
	DelayHours   *int          `json:"delayHours" validate:"required,min=0,max=23"`
	DelayMinutes *int          `json:"delayMinutes" validate:"required,min=0,max=59"`
}

func (r *disruptionRequest) zone() models.DisruptionZone {
	return models.DisruptionZone{
		ID:         uuid.NewString(),
		Center:     r.Location.point(),
		Radius:     *r.Radius,
		DelayHours: *r.DelayHours,
		DelayMins:  *r.DelayMinutes,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("capwords", func(fl validator.FieldLevel) bool {
		return validName(fl.Field().String())
	})
	_ = v.RegisterValidation("integral", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && f == math.Trunc(f)
	})
	return v
}

// validName requires a name with no surrounding whitespace whose every
// word starts with an uppercase ASCII letter.
func validName(s string) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return false
	}
	for _, word := range strings.Fields(s) {
		if word[0] < 'A' || word[0] > 'Z' {
			return false
		}
	}
	return true
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s fails %s", field, fe.Tag()))
		}
	}
	return "invalid request: " + strings.Join(parts, "; ")
}
