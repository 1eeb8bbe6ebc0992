// Package web wires the HTTP surface: JSON APIs for the scan pages and
// server-rendered HTML pages.
package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campusgate/internal/access"
	"campusgate/internal/auth"
	"campusgate/internal/classes"
	"campusgate/internal/config"
	"campusgate/internal/domain"
	"campusgate/internal/face"
	"campusgate/internal/library"
	"campusgate/internal/model"
	"campusgate/internal/qr"
	"campusgate/internal/queue"
	"campusgate/internal/store"
	"campusgate/internal/verify"
)

// LibraryService is the circulation surface the handlers call.
type LibraryService interface {
	Borrow(ctx context.Context, in library.BorrowInput) (library.BorrowResult, error)
	Return(ctx context.Context, bid string) (time.Time, error)
	History(ctx context.Context, sid string) ([]model.Borrow, error)
	Student(ctx context.Context, sid string) (*model.Student, error)
	Book(ctx context.Context, bid string) (*model.Book, error)
	AddStudent(ctx context.Context, sid, name, email, fingerprint string) (*model.Student, error)
	AddBook(ctx context.Context, bid, title, author string) (*model.Book, error)
	SetStudentFace(ctx context.Context, sid, imagePath, encodingPath string) error
}

// ClassesService is the attendance surface the handlers call.
type ClassesService interface {
	StartSession(ctx context.Context, classID uint) (sessionID uint, already bool, err error)
	StopSession(ctx context.Context, sessionID uint) error
	Mark(ctx context.Context, in classes.MarkInput) (classes.MarkResult, error)
	Session(ctx context.Context, sessionID uint) (*classes.SessionDetail, error)
	AddClass(ctx context.Context, code, name, teacher string) (*model.ClassRoom, error)
}

// AccessService is the movement-logging surface the handlers call.
type AccessService interface {
	LogLab(ctx context.Context, in access.LogInput) (access.LogResult, error)
	LogHostel(ctx context.Context, in access.LogInput) (access.LogResult, error)
	LabInside(ctx context.Context, labID uint) (int, error)
	AddLab(ctx context.Context, code, name, room string) (*model.Lab, error)
}

// FaceEnroller saves enrollment images and computes the reference encoding.
type FaceEnroller interface {
	Enroll(ctx context.Context, sid string, images []string) (face.EnrollResult, error)
}

// Server holds every dependency the handlers need.
type Server struct {
	DB       *gorm.DB
	Redis    *store.Redis
	Queue    queue.Queue
	Library  LibraryService
	Classes  ClassesService
	Access   AccessService
	Enroller FaceEnroller
	Gate     *verify.Gate
	QR       *qr.Generator
	Cfg      config.App
}

// Routes attaches all pages and APIs to the engine. apiMW wraps only the
// JSON API group; page loads stay unthrottled.
func (s *Server) Routes(r *gin.Engine, apiMW ...gin.HandlerFunc) {
	r.GET("/", s.dashboardPage)
	r.GET("/admin", s.adminPage)
	r.GET("/books", s.booksPage)
	r.GET("/students", s.studentsPage)
	r.GET("/scan", s.scanPage)
	r.GET("/history", s.historyPage)
	r.GET("/classes", s.classesPage)
	r.GET("/attendance", s.attendancePage)
	r.GET("/labs", s.labsPage)
	r.GET("/hostel", s.hostelPage)
	r.GET("/enroll", s.enrollPage)

	r.POST("/admin/add-book", s.addBookForm)
	r.POST("/admin/add-student", s.addStudentForm)
	r.POST("/admin/add-class", s.addClassForm)
	r.POST("/admin/add-lab", s.addLabForm)

	r.Static("/qrcodes", s.QR.Dir)

	api := r.Group("/api", apiMW...)
	{
		api.GET("/student/:sid", s.apiStudent)
		api.GET("/book/:bid", s.apiBook)
		api.POST("/borrow", s.apiBorrow)
		api.POST("/return", s.apiReturn)
		api.GET("/history/:sid", s.apiHistory)

		api.POST("/attendance/start", s.apiAttendanceStart)
		api.POST("/attendance/stop", s.apiAttendanceStop)
		api.POST("/attendance/mark", s.apiAttendanceMark)
		api.GET("/attendance/session/:id", s.apiAttendanceSession)

		api.POST("/labs/log", s.apiLabLog)
		api.GET("/labs/stats/:id", s.apiLabStats)
		api.POST("/hostel/log", s.apiHostelLog)

		api.POST("/face/enroll", s.apiFaceEnroll)
		api.POST("/face/verify", s.apiFaceVerify)

		api.POST("/admin/login", s.apiAdminLogin)

		admin := api.Group("/admin", auth.OperatorAuth(s.Cfg.SecretKey))
		admin.POST("/face", s.apiAdminFace)
		admin.POST("/seed", s.apiAdminSeed)
	}
}

// respondErr maps a service failure onto the JSON error envelope.
func respondErr(c *gin.Context, err error) {
	de := domain.AsError(err)
	if de.Status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	if de.Status == http.StatusForbidden {
		if res, ok := de.Detail.(verify.Result); ok {
			verifyFailures.WithLabelValues(string(res.Reason)).Inc()
		} else {
			verifyFailures.WithLabelValues(string(verify.ReasonCredentialMismatch)).Inc()
		}
	}
	payload := gin.H{"ok": false, "error": de.Message}
	if de.Detail != nil {
		payload["detail"] = de.Detail
	}
	c.JSON(de.Status, payload)
}

// domainMessage extracts the user-facing message for form redirects.
func domainMessage(err error) string {
	return domain.AsError(err).Message
}

// publishScan hands an accepted scan to the worker; queue trouble is logged,
// never surfaced to the scanning student.
func (s *Server) publishScan(ctx context.Context, kind, sid string) {
	if s.Queue == nil {
		return
	}
	evt := queue.Event{Kind: kind, SID: sid, At: time.Now().UTC()}
	if err := s.Queue.Publish(ctx, evt); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
	scansTotal.WithLabelValues(kind).Inc()
}
