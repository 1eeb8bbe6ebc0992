// Package classes implements attendance sessions and per-student marking.
package classes

import (
	"context"
	"fmt"
	"time"

	"campusgate/internal/cooldown"
	"campusgate/internal/domain"
	"campusgate/internal/model"
	"campusgate/internal/verify"
)

// Store is the persistence surface the attendance service needs.
type Store interface {
	StudentBySID(ctx context.Context, sid string) (*model.Student, error)
	ClassByCode(ctx context.Context, code string) (*model.ClassRoom, error)
	CreateClass(ctx context.Context, c *model.ClassRoom) error
	SessionByID(ctx context.Context, id uint) (*model.AttendanceSession, error)
	OpenSession(ctx context.Context, classID uint, day time.Time) (*model.AttendanceSession, error)
	CreateSession(ctx context.Context, s *model.AttendanceSession) error
	CloseSession(ctx context.Context, id uint, when time.Time) error
	RecordForStudent(ctx context.Context, sessionID uint, sid string) (*model.AttendanceRecord, error)
	CreateRecord(ctx context.Context, r *model.AttendanceRecord) error
	SessionRecords(ctx context.Context, sessionID uint) ([]model.AttendanceRecord, error)
}

// Service orchestrates sessions, marks, and their gating.
type Service struct {
	store    Store
	gate     *verify.Gate
	cooldown *cooldown.Tracker
}

// NewService creates the attendance service.
func NewService(store Store, gate *verify.Gate, cd *cooldown.Tracker) *Service {
	return &Service{store: store, gate: gate, cooldown: cd}
}

// StartSession opens today's session for a class, or reports the already
// open one. At most one OPEN session exists per (class, day).
func (s *Service) StartSession(ctx context.Context, classID uint) (sessionID uint, already bool, err error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	existing, err := s.store.OpenSession(ctx, classID, today)
	if err != nil {
		return 0, false, err
	}
	if existing != nil {
		return existing.ID, true, nil
	}
	ses := &model.AttendanceSession{ClassID: classID, Date: today, Status: model.SessionOpen}
	if err := s.store.CreateSession(ctx, ses); err != nil {
		return 0, false, err
	}
	return ses.ID, false, nil
}

// StopSession closes a session.
func (s *Service) StopSession(ctx context.Context, sessionID uint) error {
	ses, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if ses == nil {
		return domain.NotFound("Session not found")
	}
	return s.store.CloseSession(ctx, sessionID, time.Now().UTC())
}

// MarkInput is a mark request from the attendance scan page.
type MarkInput struct {
	SessionID   uint
	SID         string
	Fingerprint string
	Image       string
	Override    string
}

// MarkResult reports the outcome of a mark attempt that passed the gate.
type MarkResult struct {
	Marked  bool
	Ignored bool
	Face    verify.Result
}

// Mark records a student as present in an open session. Marking the same
// pair again is acknowledged but creates no second row; scans repeated
// within the cooldown window are ignored outright.
func (s *Service) Mark(ctx context.Context, in MarkInput) (MarkResult, error) {
	ses, err := s.store.SessionByID(ctx, in.SessionID)
	if err != nil {
		return MarkResult{}, err
	}
	if ses == nil || ses.Status != model.SessionOpen {
		return MarkResult{}, domain.BadRequest("Session closed or missing")
	}
	student, err := s.store.StudentBySID(ctx, in.SID)
	if err != nil {
		return MarkResult{}, err
	}
	if student == nil {
		return MarkResult{}, domain.NotFound("Student not found")
	}

	if res := s.gate.Verify(ctx, student, verify.Fingerprint{Value: in.Fingerprint}); !res.OK {
		return MarkResult{}, domain.Forbidden("Fingerprint mismatch", nil)
	}
	face := s.gate.Verify(ctx, student, verify.FaceImage{ImageB64: in.Image, Override: in.Override})
	if !face.OK {
		return MarkResult{}, domain.Forbidden("Face verification failed", face)
	}

	if !s.cooldown.Allow(fmt.Sprintf("att:%d:%s", in.SessionID, in.SID)) {
		return MarkResult{Ignored: true, Face: face}, nil
	}

	existing, err := s.store.RecordForStudent(ctx, in.SessionID, in.SID)
	if err != nil {
		return MarkResult{}, err
	}
	if existing != nil {
		return MarkResult{Marked: false, Face: face}, nil
	}
	rec := &model.AttendanceRecord{SessionID: in.SessionID, StudentSID: in.SID, Present: true}
	if err := s.store.CreateRecord(ctx, rec); err != nil {
		return MarkResult{}, err
	}
	return MarkResult{Marked: true, Face: face}, nil
}

// SessionDetail is the session view served to the attendance page.
type SessionDetail struct {
	ID      uint                     `json:"id"`
	Class   *model.ClassRoom         `json:"class,omitempty"`
	Date    string                   `json:"date"`
	Status  string                   `json:"status"`
	Count   int                      `json:"count"`
	Records []model.AttendanceRecord `json:"records"`
}

// Session returns a session with its records.
func (s *Service) Session(ctx context.Context, sessionID uint) (*SessionDetail, error) {
	ses, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ses == nil {
		return nil, domain.NotFound("Session not found")
	}
	records, err := s.store.SessionRecords(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	detail := &SessionDetail{
		ID:      ses.ID,
		Date:    ses.Date.Format("2006-01-02"),
		Status:  ses.Status,
		Count:   len(records),
		Records: records,
	}
	if ses.ClassRoom.ID != 0 {
		detail.Class = &ses.ClassRoom
	}
	return detail, nil
}

// AddClass registers a classroom with a generated code fallback.
func (s *Service) AddClass(ctx context.Context, code, name, teacher string) (*model.ClassRoom, error) {
	if name == "" {
		return nil, domain.BadRequest("Class name is required")
	}
	if code == "" {
		code = fmt.Sprintf("CLS%05d", time.Now().Unix()%100000)
	}
	existing, err := s.store.ClassByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflict("Class code already exists")
	}
	class := &model.ClassRoom{Code: code, Name: name, Teacher: teacher}
	if err := s.store.CreateClass(ctx, class); err != nil {
		return nil, err
	}
	return class, nil
}
