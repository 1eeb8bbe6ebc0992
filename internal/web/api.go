package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusgate/internal/access"
	"campusgate/internal/auth"
	"campusgate/internal/classes"
	"campusgate/internal/face"
	"campusgate/internal/library"
	"campusgate/internal/seed"
	"campusgate/internal/verify"
)

// uintParam parses a numeric path parameter, responding 400 itself on junk.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}

func (s *Server) apiStudent(c *gin.Context) {
	student, err := s.Library.Student(c.Request.Context(), c.Param("sid"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "student": gin.H{
		"sid": student.SID, "name": student.Name, "email": student.Email,
	}})
}

func (s *Server) apiBook(c *gin.Context) {
	book, err := s.Library.Book(c.Request.Context(), c.Param("bid"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "book": gin.H{
		"bid": book.BID, "title": book.Title, "author": book.Author, "available": book.Available,
	}})
}

func (s *Server) apiBorrow(c *gin.Context) {
	var req struct {
		SID              string `json:"sid" binding:"required"`
		BID              string `json:"bid" binding:"required"`
		Days             int    `json:"days"`
		Fingerprint      string `json:"fingerprint"`
		Image            string `json:"image"`
		OperatorPassword string `json:"operator_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	res, err := s.Library.Borrow(c.Request.Context(), library.BorrowInput{
		SID:         req.SID,
		BID:         req.BID,
		Days:        req.Days,
		Fingerprint: req.Fingerprint,
		Image:       req.Image,
		Override:    req.OperatorPassword,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	s.publishScan(c.Request.Context(), "borrow", req.SID)
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Borrowed",
		"due_dt":  res.DueDT,
		"face":    res.Face,
	})
}

func (s *Server) apiReturn(c *gin.Context) {
	var req struct {
		BID string `json:"bid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	when, err := s.Library.Return(c.Request.Context(), req.BID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Returned", "return_dt": when})
}

func (s *Server) apiHistory(c *gin.Context) {
	rows, err := s.Library.History(c.Request.Context(), c.Param("sid"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "history": rows})
}

func (s *Server) apiAttendanceStart(c *gin.Context) {
	var req struct {
		ClassID uint `json:"class_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	id, already, err := s.Classes.StartSession(c.Request.Context(), req.ClassID)
	if err != nil {
		respondErr(c, err)
		return
	}
	resp := gin.H{"ok": true, "session_id": id}
	if already {
		resp["message"] = "Session already open"
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) apiAttendanceStop(c *gin.Context) {
	var req struct {
		SessionID uint `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err := s.Classes.StopSession(c.Request.Context(), req.SessionID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) apiAttendanceMark(c *gin.Context) {
	var req struct {
		SessionID        uint   `json:"session_id" binding:"required"`
		SID              string `json:"sid" binding:"required"`
		Fingerprint      string `json:"fingerprint"`
		Image            string `json:"image"`
		OperatorPassword string `json:"operator_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	res, err := s.Classes.Mark(c.Request.Context(), classes.MarkInput{
		SessionID:   req.SessionID,
		SID:         req.SID,
		Fingerprint: req.Fingerprint,
		Image:       req.Image,
		Override:    req.OperatorPassword,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	if res.Ignored {
		c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": true, "msg": "Scan ignored (cooldown)"})
		return
	}
	msg := "Present marked"
	if !res.Marked {
		msg = "Already marked"
	}
	if res.Marked {
		s.publishScan(c.Request.Context(), "attendance", req.SID)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "marked": res.Marked, "msg": msg, "face": res.Face})
}

func (s *Server) apiAttendanceSession(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	detail, err := s.Classes.Session(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": detail})
}

func (s *Server) apiLabLog(c *gin.Context) {
	var req struct {
		LabID            uint   `json:"lab_id" binding:"required"`
		SID              string `json:"sid" binding:"required"`
		Action           string `json:"action" binding:"required"`
		Fingerprint      string `json:"fingerprint"`
		Image            string `json:"image"`
		OperatorPassword string `json:"operator_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	res, err := s.Access.LogLab(c.Request.Context(), access.LogInput{
		LabID:       req.LabID,
		SID:         req.SID,
		Action:      req.Action,
		Fingerprint: req.Fingerprint,
		Image:       req.Image,
		Override:    req.OperatorPassword,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	if res.Ignored {
		c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": true, "msg": "Scan ignored (cooldown)"})
		return
	}
	s.publishScan(c.Request.Context(), "lab", req.SID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "action": res.Action, "ts": res.TS, "face": res.Face})
}

func (s *Server) apiLabStats(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	inside, err := s.Access.LabInside(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "inside": inside})
}

func (s *Server) apiHostelLog(c *gin.Context) {
	var req struct {
		SID              string `json:"sid" binding:"required"`
		Action           string `json:"action" binding:"required"`
		Gate             string `json:"gate"`
		Fingerprint      string `json:"fingerprint"`
		Image            string `json:"image"`
		OperatorPassword string `json:"operator_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	res, err := s.Access.LogHostel(c.Request.Context(), access.LogInput{
		SID:         req.SID,
		Action:      req.Action,
		Gate:        req.Gate,
		Fingerprint: req.Fingerprint,
		Image:       req.Image,
		Override:    req.OperatorPassword,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	if res.Ignored {
		c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": true, "msg": "Scan ignored (cooldown)"})
		return
	}
	s.publishScan(c.Request.Context(), "hostel", req.SID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "action": res.Action, "ts": res.TS, "gate": res.Gate, "face": res.Face})
}

func (s *Server) apiFaceEnroll(c *gin.Context) {
	var req struct {
		SID    string   `json:"sid" binding:"required"`
		Images []string `json:"images" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	if _, err := s.Library.Student(c.Request.Context(), req.SID); err != nil {
		respondErr(c, err)
		return
	}
	res, err := s.Enroller.Enroll(c.Request.Context(), req.SID, req.Images)
	if err != nil {
		if errors.Is(err, face.ErrNoImages) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "No decodable images"})
			return
		}
		respondErr(c, err)
		return
	}
	if err := s.Library.SetStudentFace(c.Request.Context(), req.SID, res.ImagePath, res.EncodingPath); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "enrollment": res})
}

func (s *Server) apiFaceVerify(c *gin.Context) {
	var req struct {
		SID              string `json:"sid" binding:"required"`
		Image            string `json:"image" binding:"required"`
		OperatorPassword string `json:"operator_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	student, err := s.Library.Student(c.Request.Context(), req.SID)
	if err != nil {
		respondErr(c, err)
		return
	}
	res := s.Gate.Verify(c.Request.Context(), student, verify.FaceImage{ImageB64: req.Image, Override: req.OperatorPassword})
	if !res.OK {
		verifyFailures.WithLabelValues(string(res.Reason)).Inc()
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "Face verification failed", "detail": res})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "msg": "Face verified", "face": res})
}

func (s *Server) apiAdminLogin(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if req.Password != s.Cfg.OperatorPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Bad operator password"})
		return
	}
	token, exp, err := auth.Issue("operator", "operator", s.Cfg.SecretKey, s.Cfg.OperatorTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token, "expires_at": exp.Unix()})
}

func (s *Server) apiAdminFace(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	s.Gate.SetEnabled(*req.Enabled)
	c.JSON(http.StatusOK, gin.H{"ok": true, "face_enabled": *req.Enabled})
}

func (s *Server) apiAdminSeed(c *gin.Context) {
	if err := seed.Demo(s.DB, s.QR); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Database seeded"})
}
