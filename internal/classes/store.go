package classes

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"campusgate/internal/model"
)

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

// NewStore wraps a GORM handle.
func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (g *GormStore) StudentBySID(ctx context.Context, sid string) (*model.Student, error) {
	var s model.Student
	err := g.db.WithContext(ctx).Where("sid = ?", sid).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (g *GormStore) ClassByCode(ctx context.Context, code string) (*model.ClassRoom, error) {
	var c model.ClassRoom
	err := g.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (g *GormStore) CreateClass(ctx context.Context, c *model.ClassRoom) error {
	return g.db.WithContext(ctx).Create(c).Error
}

func (g *GormStore) SessionByID(ctx context.Context, id uint) (*model.AttendanceSession, error) {
	var ses model.AttendanceSession
	err := g.db.WithContext(ctx).Preload("ClassRoom").First(&ses, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ses, nil
}

func (g *GormStore) OpenSession(ctx context.Context, classID uint, day time.Time) (*model.AttendanceSession, error) {
	var ses model.AttendanceSession
	err := g.db.WithContext(ctx).
		Where("class_id = ? AND date = ? AND status = ?", classID, day.Format("2006-01-02"), model.SessionOpen).
		First(&ses).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ses, nil
}

func (g *GormStore) CreateSession(ctx context.Context, s *model.AttendanceSession) error {
	return g.db.WithContext(ctx).Create(s).Error
}

func (g *GormStore) CloseSession(ctx context.Context, id uint, when time.Time) error {
	return g.db.WithContext(ctx).Model(&model.AttendanceSession{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":   model.SessionClosed,
			"end_time": when,
		}).Error
}

func (g *GormStore) RecordForStudent(ctx context.Context, sessionID uint, sid string) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := g.db.WithContext(ctx).
		Where("session_id = ? AND student_sid = ?", sessionID, sid).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (g *GormStore) CreateRecord(ctx context.Context, r *model.AttendanceRecord) error {
	return g.db.WithContext(ctx).Create(r).Error
}

func (g *GormStore) SessionRecords(ctx context.Context, sessionID uint) ([]model.AttendanceRecord, error) {
	var rows []model.AttendanceRecord
	err := g.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("ts ASC").Find(&rows).Error
	return rows, err
}
