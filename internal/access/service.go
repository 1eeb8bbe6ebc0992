// Package access implements lab and hostel gate movement logging.
package access

import (
	"context"
	"fmt"
	"time"

	"campusgate/internal/cooldown"
	"campusgate/internal/domain"
	"campusgate/internal/model"
	"campusgate/internal/verify"
)

// Store is the persistence surface the access service needs.
type Store interface {
	StudentBySID(ctx context.Context, sid string) (*model.Student, error)
	LabByID(ctx context.Context, id uint) (*model.Lab, error)
	LabByCode(ctx context.Context, code string) (*model.Lab, error)
	CreateLab(ctx context.Context, l *model.Lab) error
	LastLabAction(ctx context.Context, labID uint, sid string) (string, error)
	AppendLabLog(ctx context.Context, log *model.LabLog) error
	LabInsideCount(ctx context.Context, labID uint) (int, error)
	LastHostelAction(ctx context.Context, sid string) (string, error)
	AppendHostelLog(ctx context.Context, log *model.HostelLog) error
}

// Service orchestrates movement logging and its gating.
type Service struct {
	store    Store
	gate     *verify.Gate
	cooldown *cooldown.Tracker
}

// NewService creates the access service.
func NewService(store Store, gate *verify.Gate, cd *cooldown.Tracker) *Service {
	return &Service{store: store, gate: gate, cooldown: cd}
}

// LogInput is a movement scan. Action is ENTRY, EXIT, or TOGGLE.
type LogInput struct {
	LabID       uint   // labs only
	Gate        string // hostel only
	SID         string
	Action      string
	Fingerprint string
	Image       string
	Override    string
}

// LogResult reports the resolved action for an accepted scan.
type LogResult struct {
	Action  string
	TS      time.Time
	Gate    string
	Ignored bool
	Face    verify.Result
}

// resolveAction flips TOGGLE against the last recorded action, defaulting to
// ENTRY when there is no prior record.
func resolveAction(action, last string) (string, error) {
	switch action {
	case model.ActionEntry, model.ActionExit:
		return action, nil
	case model.ActionToggle:
		if last == model.ActionEntry {
			return model.ActionExit, nil
		}
		return model.ActionEntry, nil
	default:
		return "", domain.BadRequest("Unknown action")
	}
}

// LogLab appends a movement row for a (lab, student) pair.
func (s *Service) LogLab(ctx context.Context, in LogInput) (LogResult, error) {
	lab, err := s.store.LabByID(ctx, in.LabID)
	if err != nil {
		return LogResult{}, err
	}
	student, err := s.store.StudentBySID(ctx, in.SID)
	if err != nil {
		return LogResult{}, err
	}
	if lab == nil || student == nil {
		return LogResult{}, domain.BadRequest("Invalid lab or student")
	}

	face, err := s.verifyScan(ctx, student, in)
	if err != nil {
		return LogResult{}, err
	}

	if !s.cooldown.Allow(fmt.Sprintf("lab:%d:%s", in.LabID, in.SID)) {
		return LogResult{Ignored: true, Face: face}, nil
	}

	last, err := s.store.LastLabAction(ctx, in.LabID, in.SID)
	if err != nil {
		return LogResult{}, err
	}
	action, err := resolveAction(in.Action, last)
	if err != nil {
		return LogResult{}, err
	}
	log := &model.LabLog{LabID: in.LabID, StudentSID: in.SID, Action: action}
	if err := s.store.AppendLabLog(ctx, log); err != nil {
		return LogResult{}, err
	}
	return LogResult{Action: action, TS: log.TS, Face: face}, nil
}

// LogHostel appends a movement row at a hostel gate. The gate name is free
// text with a single default.
func (s *Service) LogHostel(ctx context.Context, in LogInput) (LogResult, error) {
	student, err := s.store.StudentBySID(ctx, in.SID)
	if err != nil {
		return LogResult{}, err
	}
	if student == nil {
		return LogResult{}, domain.NotFound("Student not found")
	}

	face, err := s.verifyScan(ctx, student, in)
	if err != nil {
		return LogResult{}, err
	}

	if !s.cooldown.Allow("hostel:" + in.SID) {
		return LogResult{Ignored: true, Face: face}, nil
	}

	last, err := s.store.LastHostelAction(ctx, in.SID)
	if err != nil {
		return LogResult{}, err
	}
	action, err := resolveAction(in.Action, last)
	if err != nil {
		return LogResult{}, err
	}
	gate := in.Gate
	if gate == "" {
		gate = "Main Gate"
	}
	log := &model.HostelLog{Gate: gate, StudentSID: in.SID, Action: action}
	if err := s.store.AppendHostelLog(ctx, log); err != nil {
		return LogResult{}, err
	}
	return LogResult{Action: action, TS: log.TS, Gate: gate, Face: face}, nil
}

// LabInside estimates how many students are currently inside a lab from each
// student's latest log row.
func (s *Service) LabInside(ctx context.Context, labID uint) (int, error) {
	lab, err := s.store.LabByID(ctx, labID)
	if err != nil {
		return 0, err
	}
	if lab == nil {
		return 0, domain.NotFound("Lab not found")
	}
	return s.store.LabInsideCount(ctx, labID)
}

// AddLab registers a lab with a generated code fallback.
func (s *Service) AddLab(ctx context.Context, code, name, room string) (*model.Lab, error) {
	if name == "" {
		return nil, domain.BadRequest("Lab name is required")
	}
	if code == "" {
		code = fmt.Sprintf("LAB%05d", time.Now().Unix()%100000)
	}
	existing, err := s.store.LabByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflict("Lab code already exists")
	}
	lab := &model.Lab{Code: code, Name: name, Room: room}
	if err := s.store.CreateLab(ctx, lab); err != nil {
		return nil, err
	}
	return lab, nil
}

func (s *Service) verifyScan(ctx context.Context, student *model.Student, in LogInput) (verify.Result, error) {
	if res := s.gate.Verify(ctx, student, verify.Fingerprint{Value: in.Fingerprint}); !res.OK {
		return verify.Result{}, domain.Forbidden("Fingerprint mismatch", nil)
	}
	face := s.gate.Verify(ctx, student, verify.FaceImage{ImageB64: in.Image, Override: in.Override})
	if !face.OK {
		return verify.Result{}, domain.Forbidden("Face verification failed", face)
	}
	return face, nil
}
