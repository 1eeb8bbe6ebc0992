package access

import (
	"context"
	"errors"

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

func (g *GormStore) LabByID(ctx context.Context, id uint) (*model.Lab, error) {
	var l model.Lab
	err := g.db.WithContext(ctx).First(&l, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (g *GormStore) LabByCode(ctx context.Context, code string) (*model.Lab, error) {
	var l model.Lab
	err := g.db.WithContext(ctx).Where("code = ?", code).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (g *GormStore) CreateLab(ctx context.Context, l *model.Lab) error {
	return g.db.WithContext(ctx).Create(l).Error
}

func (g *GormStore) LastLabAction(ctx context.Context, labID uint, sid string) (string, error) {
	var log model.LabLog
	err := g.db.WithContext(ctx).
		Where("lab_id = ? AND student_sid = ?", labID, sid).
		Order("ts DESC").First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return log.Action, nil
}

func (g *GormStore) AppendLabLog(ctx context.Context, log *model.LabLog) error {
	return g.db.WithContext(ctx).Create(log).Error
}

// LabInsideCount counts students whose most recent log row for the lab is an
// ENTRY.
func (g *GormStore) LabInsideCount(ctx context.Context, labID uint) (int, error) {
	var count int64
	err := g.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM lab_logs l
		JOIN (
			SELECT student_sid, MAX(id) AS max_id
			FROM lab_logs
			WHERE lab_id = ?
			GROUP BY student_sid
		) latest ON l.id = latest.max_id
		WHERE l.action = ?
	`, labID, model.ActionEntry).Scan(&count).Error
	return int(count), err
}

func (g *GormStore) LastHostelAction(ctx context.Context, sid string) (string, error) {
	var log model.HostelLog
	err := g.db.WithContext(ctx).
		Where("student_sid = ?", sid).
		Order("ts DESC").First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return log.Action, nil
}

func (g *GormStore) AppendHostelLog(ctx context.Context, log *model.HostelLog) error {
	return g.db.WithContext(ctx).Create(log).Error
}
