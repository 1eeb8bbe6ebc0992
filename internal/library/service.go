// Package library implements book circulation: catalog and student
// registration, borrowing and returning gated by credential checks.
package library

import (
	"context"
	"fmt"
	"time"

	"campusgate/internal/domain"
	"campusgate/internal/model"
	"campusgate/internal/qr"
	"campusgate/internal/verify"
)

// Store is the persistence surface the library service needs.
type Store interface {
	StudentBySID(ctx context.Context, sid string) (*model.Student, error)
	BookByBID(ctx context.Context, bid string) (*model.Book, error)
	CreateStudent(ctx context.Context, s *model.Student) error
	CreateBook(ctx context.Context, b *model.Book) error
	SetStudentFace(ctx context.Context, sid, imagePath, encodingPath string) error
	OpenBorrowByBID(ctx context.Context, bid string) (*model.Borrow, error)
	Borrow(ctx context.Context, rec *model.Borrow) error
	Return(ctx context.Context, borrowID uint, bid string, when time.Time) error
	History(ctx context.Context, sid string) ([]model.Borrow, error)
}

// Service orchestrates circulation actions against the store and the
// verification gate.
type Service struct {
	store Store
	gate  *verify.Gate
	qr    *qr.Generator
}

// NewService creates a library service.
func NewService(store Store, gate *verify.Gate, gen *qr.Generator) *Service {
	return &Service{store: store, gate: gate, qr: gen}
}

const defaultLoanDays = 14

// BorrowInput is a borrow request from a scan page.
type BorrowInput struct {
	SID         string
	BID         string
	Days        int
	Fingerprint string
	Image       string
	Override    string
}

// BorrowResult reports an accepted borrow.
type BorrowResult struct {
	DueDT time.Time
	Face  verify.Result
}

// Borrow checks availability and credentials, then opens a borrow record and
// flags the book unavailable in one transaction.
func (s *Service) Borrow(ctx context.Context, in BorrowInput) (BorrowResult, error) {
	student, err := s.store.StudentBySID(ctx, in.SID)
	if err != nil {
		return BorrowResult{}, err
	}
	book, err := s.store.BookByBID(ctx, in.BID)
	if err != nil {
		return BorrowResult{}, err
	}
	if student == nil || book == nil {
		return BorrowResult{}, domain.BadRequest("Invalid student or book")
	}
	if !book.Available {
		return BorrowResult{}, domain.Conflict("Book already borrowed")
	}

	if res := s.gate.Verify(ctx, student, verify.Fingerprint{Value: in.Fingerprint}); !res.OK {
		return BorrowResult{}, domain.Forbidden("Fingerprint mismatch", nil)
	}
	face := s.gate.Verify(ctx, student, verify.FaceImage{ImageB64: in.Image, Override: in.Override})
	if !face.OK {
		return BorrowResult{}, domain.Forbidden("Face verification failed", face)
	}

	days := in.Days
	if days <= 0 {
		days = defaultLoanDays
	}
	rec := &model.Borrow{
		StudentSID: student.SID,
		BookBID:    book.BID,
		DueDT:      time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour),
		Status:     model.StatusBorrowed,
	}
	if err := s.store.Borrow(ctx, rec); err != nil {
		return BorrowResult{}, err
	}
	return BorrowResult{DueDT: rec.DueDT, Face: face}, nil
}

// Return closes the open borrow for a book and flags it available again.
func (s *Service) Return(ctx context.Context, bid string) (time.Time, error) {
	book, err := s.store.BookByBID(ctx, bid)
	if err != nil {
		return time.Time{}, err
	}
	if book == nil {
		return time.Time{}, domain.NotFound("Book not found")
	}
	rec, err := s.store.OpenBorrowByBID(ctx, bid)
	if err != nil {
		return time.Time{}, err
	}
	if rec == nil {
		return time.Time{}, domain.Conflict("No active borrow for this book")
	}
	when := time.Now().UTC()
	if err := s.store.Return(ctx, rec.ID, bid, when); err != nil {
		return time.Time{}, err
	}
	return when, nil
}

// History lists a student's borrow records, newest first.
func (s *Service) History(ctx context.Context, sid string) ([]model.Borrow, error) {
	return s.store.History(ctx, sid)
}

// Student looks a student up by id; missing students are a NotFound error.
func (s *Service) Student(ctx context.Context, sid string) (*model.Student, error) {
	student, err := s.store.StudentBySID(ctx, sid)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, domain.NotFound("Student not found")
	}
	return student, nil
}

// Book looks a book up by id; missing books are a NotFound error.
func (s *Service) Book(ctx context.Context, bid string) (*model.Book, error) {
	book, err := s.store.BookByBID(ctx, bid)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.NotFound("Book not found")
	}
	return book, nil
}

// AddStudent registers a student, generating sid and fingerprint fallbacks
// the way kiosk operators expect, and writes the student QR.
func (s *Service) AddStudent(ctx context.Context, sid, name, email, fingerprint string) (*model.Student, error) {
	if name == "" {
		return nil, domain.BadRequest("Name is required")
	}
	if sid == "" {
		sid = fmt.Sprintf("STU%06d", time.Now().Unix()%1000000)
	}
	if fingerprint == "" {
		fingerprint = fmt.Sprintf("fp_%d", time.Now().Unix())
	}
	existing, err := s.store.StudentBySID(ctx, sid)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflict("Student ID already exists")
	}
	student := &model.Student{SID: sid, Name: name, Email: email, Fingerprint: fingerprint}
	if err := s.store.CreateStudent(ctx, student); err != nil {
		return nil, err
	}
	if _, err := s.qr.Student(sid); err != nil {
		return nil, err
	}
	return student, nil
}

// AddBook registers a book and writes its QR.
func (s *Service) AddBook(ctx context.Context, bid, title, author string) (*model.Book, error) {
	if title == "" {
		return nil, domain.BadRequest("Title is required")
	}
	if bid == "" {
		bid = fmt.Sprintf("BK%06d", time.Now().Unix()%1000000)
	}
	existing, err := s.store.BookByBID(ctx, bid)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflict("Book ID already exists")
	}
	book := &model.Book{BID: bid, Title: title, Author: author, Available: true}
	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	if _, err := s.qr.Book(bid); err != nil {
		return nil, err
	}
	return book, nil
}

// SetStudentFace records the paths of freshly written face artifacts on the
// student row.
func (s *Service) SetStudentFace(ctx context.Context, sid, imagePath, encodingPath string) error {
	student, err := s.store.StudentBySID(ctx, sid)
	if err != nil {
		return err
	}
	if student == nil {
		return domain.NotFound("Student not found")
	}
	return s.store.SetStudentFace(ctx, sid, imagePath, encodingPath)
}
