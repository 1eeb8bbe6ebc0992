package model

import "time"

// Borrow status values.
const (
	StatusBorrowed = "BORROWED"
	StatusReturned = "RETURNED"
)

// Attendance session status values.
const (
	SessionOpen   = "OPEN"
	SessionClosed = "CLOSED"
)

// Movement log actions.
const (
	ActionEntry  = "ENTRY"
	ActionExit   = "EXIT"
	ActionToggle = "TOGGLE"
)

// Student is a registered student with optional biometric credentials.
// FaceImagePath and FaceEncodingPath point at enrollment artifacts on disk;
// either may be empty when the student has not enrolled a face.
type Student struct {
	ID               uint   `gorm:"primaryKey" json:"-"`
	SID              string `gorm:"size:32;uniqueIndex;not null" json:"sid"`
	Name             string `gorm:"size:120;not null" json:"name"`
	Email            string `gorm:"size:120" json:"email"`
	Fingerprint      string `gorm:"size:120" json:"-"`
	FaceImagePath    string `gorm:"size:255" json:"-"`
	FaceEncodingPath string `gorm:"size:255" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

func (Student) TableName() string { return "students" }

type Book struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	BID       string `gorm:"size:32;uniqueIndex;not null" json:"bid"`
	Title     string `gorm:"size:200;not null" json:"title"`
	Author    string `gorm:"size:200" json:"author"`
	Available bool   `gorm:"default:true" json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

func (Book) TableName() string { return "books" }

type Borrow struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	StudentSID string     `gorm:"size:32;index;not null" json:"sid"`
	BookBID    string     `gorm:"size:32;index;not null" json:"bid"`
	BorrowDT   time.Time  `gorm:"autoCreateTime" json:"borrow_dt"`
	DueDT      time.Time  `gorm:"not null" json:"due_dt"`
	ReturnDT   *time.Time `json:"return_dt,omitempty"`
	Status     string     `gorm:"size:16;index;default:BORROWED" json:"status"`
}

func (Borrow) TableName() string { return "borrows" }

type ClassRoom struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Code      string `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Name      string `gorm:"size:200;not null" json:"name"`
	Teacher   string `gorm:"size:120" json:"teacher"`
	CreatedAt time.Time `json:"created_at"`
}

func (ClassRoom) TableName() string { return "classrooms" }

type AttendanceSession struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ClassID   uint       `gorm:"index;not null" json:"class_id"`
	Date      time.Time  `gorm:"type:date;index" json:"date"`
	StartTime time.Time  `gorm:"autoCreateTime" json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Status    string     `gorm:"size:16;default:OPEN" json:"status"`
	ClassRoom ClassRoom  `gorm:"foreignKey:ClassID" json:"-"`
}

func (AttendanceSession) TableName() string { return "attendance_sessions" }

// AttendanceRecord is unique per (session, student); the composite index is
// the sole defense against double-marking under concurrent requests.
type AttendanceRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  uint      `gorm:"uniqueIndex:uq_session_student;not null" json:"session_id"`
	StudentSID string    `gorm:"size:32;uniqueIndex:uq_session_student;not null" json:"sid"`
	TS         time.Time `gorm:"autoCreateTime" json:"ts"`
	Present    bool      `gorm:"default:true" json:"present"`
}

func (AttendanceRecord) TableName() string { return "attendance_records" }

type Lab struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Code      string `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Name      string `gorm:"size:200;not null" json:"name"`
	Room      string `gorm:"size:50" json:"room"`
	CreatedAt time.Time `json:"created_at"`
}

func (Lab) TableName() string { return "labs" }

// LabLog is append-only; rows are never updated or deleted. The latest row
// per (lab, student) decides whether the student counts as inside.
type LabLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LabID      uint      `gorm:"index;not null" json:"lab_id"`
	StudentSID string    `gorm:"size:32;index;not null" json:"sid"`
	Action     string    `gorm:"size:8;not null" json:"action"`
	TS         time.Time `gorm:"autoCreateTime;index" json:"ts"`
}

func (LabLog) TableName() string { return "lab_logs" }

// HostelLog follows the LabLog pattern with a free-text gate name instead of
// a lab reference.
type HostelLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Gate       string    `gorm:"size:80;default:Main Gate" json:"gate"`
	StudentSID string    `gorm:"size:32;index;not null" json:"sid"`
	Action     string    `gorm:"size:8;not null" json:"action"`
	TS         time.Time `gorm:"autoCreateTime;index" json:"ts"`
}

func (HostelLog) TableName() string { return "hostel_logs" }

// All lists every persisted model for AutoMigrate.
func All() []any {
	return []any{
		&Student{}, &Book{}, &Borrow{},
		&ClassRoom{}, &AttendanceSession{}, &AttendanceRecord{},
		&Lab{}, &LabLog{}, &HostelLog{},
	}
}
