package library

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

func (g *GormStore) BookByBID(ctx context.Context, bid string) (*model.Book, error) {
	var b model.Book
	err := g.db.WithContext(ctx).Where("bid = ?", bid).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (g *GormStore) CreateStudent(ctx context.Context, s *model.Student) error {
	return g.db.WithContext(ctx).Create(s).Error
}

func (g *GormStore) CreateBook(ctx context.Context, b *model.Book) error {
	return g.db.WithContext(ctx).Create(b).Error
}

func (g *GormStore) SetStudentFace(ctx context.Context, sid, imagePath, encodingPath string) error {
	return g.db.WithContext(ctx).Model(&model.Student{}).Where("sid = ?", sid).
		Updates(map[string]any{
			"face_image_path":    imagePath,
			"face_encoding_path": encodingPath,
		}).Error
}

func (g *GormStore) OpenBorrowByBID(ctx context.Context, bid string) (*model.Borrow, error) {
	var rec model.Borrow
	err := g.db.WithContext(ctx).
		Where("book_bid = ? AND status = ?", bid, model.StatusBorrowed).
		Order("borrow_dt DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Borrow inserts the record and flags the book unavailable in one
// transaction so a crash cannot leave the two out of step.
func (g *GormStore) Borrow(ctx context.Context, rec *model.Borrow) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		return tx.Model(&model.Book{}).Where("bid = ?", rec.BookBID).
			Update("available", false).Error
	})
}

func (g *GormStore) Return(ctx context.Context, borrowID uint, bid string, when time.Time) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Borrow{}).Where("id = ?", borrowID).
			Updates(map[string]any{
				"status":    model.StatusReturned,
				"return_dt": when,
			}).Error
		if err != nil {
			return err
		}
		return tx.Model(&model.Book{}).Where("bid = ?", bid).
			Update("available", true).Error
	})
}

func (g *GormStore) History(ctx context.Context, sid string) ([]model.Borrow, error) {
	var rows []model.Borrow
	err := g.db.WithContext(ctx).Where("student_sid = ?", sid).
		Order("borrow_dt DESC").Find(&rows).Error
	return rows, err
}
