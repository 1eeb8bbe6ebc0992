package web

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"campusgate/internal/model"
)

// dashboardPage renders the landing page counters. Scan tallies come from
// Redis when it is reachable and silently read as zero otherwise.
func (s *Server) dashboardPage(c *gin.Context) {
	ctx := c.Request.Context()
	today := time.Now().UTC().Format("2006-01-02")

	var totalBooks, available, totalStudents, borrowed int64
	s.DB.Model(&model.Book{}).Count(&totalBooks)
	s.DB.Model(&model.Book{}).Where("available = ?", true).Count(&available)
	s.DB.Model(&model.Student{}).Count(&totalStudents)
	s.DB.Model(&model.Borrow{}).Where("status = ?", model.StatusBorrowed).Count(&borrowed)

	var openSessions, sessionsToday, labEntriesToday, hostelEntriesToday int64
	s.DB.Model(&model.AttendanceSession{}).Where("status = ?", model.SessionOpen).Count(&openSessions)
	s.DB.Model(&model.AttendanceSession{}).Where("date = ?", today).Count(&sessionsToday)
	s.DB.Model(&model.LabLog{}).Where("DATE(ts) = ? AND action = ?", today, model.ActionEntry).Count(&labEntriesToday)
	s.DB.Model(&model.HostelLog{}).Where("DATE(ts) = ? AND action = ?", today, model.ActionEntry).Count(&hostelEntriesToday)

	tallies := gin.H{}
	if s.Redis != nil && s.Redis.Healthy(ctx) {
		now := time.Now()
		for _, kind := range []string{"borrow", "attendance", "lab", "hostel"} {
			if n, err := s.Redis.ScanTally(ctx, kind, now); err == nil {
				tallies[kind] = n
			}
		}
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"TotalBooks":         totalBooks,
		"Available":          available,
		"TotalStudents":      totalStudents,
		"Borrowed":           borrowed,
		"OpenSessions":       openSessions,
		"SessionsToday":      sessionsToday,
		"LabEntriesToday":    labEntriesToday,
		"HostelEntriesToday": hostelEntriesToday,
		"ScanTallies":        tallies,
	})
}

func (s *Server) adminPage(c *gin.Context) {
	c.HTML(http.StatusOK, "admin.html", gin.H{
		"FaceEnabled": s.Gate.Enabled(),
		"Msg":         c.Query("msg"),
		"Err":         c.Query("err"),
	})
}

func (s *Server) booksPage(c *gin.Context) {
	q := c.Query("q")
	var books []model.Book
	tx := s.DB.Order("created_at DESC")
	if q != "" {
		like := "%" + q + "%"
		tx = tx.Where("title ILIKE ? OR author ILIKE ? OR bid ILIKE ?", like, like, like)
	}
	tx.Find(&books)
	c.HTML(http.StatusOK, "books.html", gin.H{
		"Books": books, "Q": q, "Msg": c.Query("msg"), "Err": c.Query("err"),
	})
}

func (s *Server) studentsPage(c *gin.Context) {
	q := c.Query("q")
	var students []model.Student
	tx := s.DB.Order("created_at DESC")
	if q != "" {
		like := "%" + q + "%"
		tx = tx.Where("name ILIKE ? OR sid ILIKE ?", like, like)
	}
	tx.Find(&students)
	c.HTML(http.StatusOK, "students.html", gin.H{
		"Students": students, "Q": q, "Msg": c.Query("msg"), "Err": c.Query("err"),
	})
}

func (s *Server) scanPage(c *gin.Context) {
	c.HTML(http.StatusOK, "scan.html", nil)
}

func (s *Server) historyPage(c *gin.Context) {
	var rows []model.Borrow
	s.DB.Order("borrow_dt DESC").Limit(200).Find(&rows)
	c.HTML(http.StatusOK, "history.html", gin.H{"Rows": rows})
}

func (s *Server) classesPage(c *gin.Context) {
	var items []model.ClassRoom
	s.DB.Order("created_at DESC").Find(&items)
	c.HTML(http.StatusOK, "classes.html", gin.H{
		"Classes": items, "Msg": c.Query("msg"), "Err": c.Query("err"),
	})
}

func (s *Server) attendancePage(c *gin.Context) {
	var classRooms []model.ClassRoom
	var recent []model.AttendanceSession
	s.DB.Order("name ASC").Find(&classRooms)
	s.DB.Preload("ClassRoom").Order("start_time DESC").Limit(20).Find(&recent)
	c.HTML(http.StatusOK, "attendance.html", gin.H{"Classes": classRooms, "Recent": recent})
}

func (s *Server) labsPage(c *gin.Context) {
	var labs []model.Lab
	var recent []model.LabLog
	s.DB.Order("name ASC").Find(&labs)
	s.DB.Order("ts DESC").Limit(50).Find(&recent)
	c.HTML(http.StatusOK, "labs.html", gin.H{
		"Labs": labs, "Recent": recent, "Msg": c.Query("msg"), "Err": c.Query("err"),
	})
}

func (s *Server) hostelPage(c *gin.Context) {
	var recent []model.HostelLog
	s.DB.Order("ts DESC").Limit(100).Find(&recent)
	c.HTML(http.StatusOK, "hostel.html", gin.H{"Recent": recent})
}

func (s *Server) enrollPage(c *gin.Context) {
	var students []model.Student
	s.DB.Order("sid ASC").Find(&students)
	c.HTML(http.StatusOK, "enroll.html", gin.H{"Students": students})
}

// redirectMsg sends the browser back to a page with a one-shot status note.
func redirectMsg(c *gin.Context, page, msg string, failed bool) {
	key := "msg"
	if failed {
		key = "err"
	}
	c.Redirect(http.StatusFound, page+"?"+key+"="+url.QueryEscape(msg))
}

func (s *Server) addBookForm(c *gin.Context) {
	book, err := s.Library.AddBook(c.Request.Context(),
		c.PostForm("bid"), c.PostForm("title"), c.PostForm("author"))
	if err != nil {
		redirectMsg(c, "/books", domainMessage(err), true)
		return
	}
	redirectMsg(c, "/books", "Book '"+book.Title+"' added. QR generated.", false)
}

func (s *Server) addStudentForm(c *gin.Context) {
	student, err := s.Library.AddStudent(c.Request.Context(),
		c.PostForm("sid"), c.PostForm("name"), c.PostForm("email"), c.PostForm("fingerprint"))
	if err != nil {
		redirectMsg(c, "/students", domainMessage(err), true)
		return
	}
	redirectMsg(c, "/students", "Student '"+student.Name+"' added. QR and fingerprint registered.", false)
}

func (s *Server) addClassForm(c *gin.Context) {
	_, err := s.Classes.AddClass(c.Request.Context(),
		c.PostForm("code"), c.PostForm("name"), c.PostForm("teacher"))
	if err != nil {
		redirectMsg(c, "/classes", domainMessage(err), true)
		return
	}
	redirectMsg(c, "/classes", "Class added.", false)
}

func (s *Server) addLabForm(c *gin.Context) {
	_, err := s.Access.AddLab(c.Request.Context(),
		c.PostForm("code"), c.PostForm("name"), c.PostForm("room"))
	if err != nil {
		redirectMsg(c, "/labs", domainMessage(err), true)
		return
	}
	redirectMsg(c, "/labs", "Lab added.", false)
}
