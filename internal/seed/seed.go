// Package seed inserts demo rows and pre-generates QR codes at startup.
package seed

import (
	"log"

	"gorm.io/gorm"

	"campusgate/internal/model"
	"campusgate/internal/qr"
)

// Demo inserts demo students, books, classes, and labs when their tables are
// empty, then generates any missing QR PNGs. It is safe to run repeatedly.
func Demo(db *gorm.DB, gen *qr.Generator) error {
	var n int64

	if err := db.Model(&model.Student{}).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		students := []model.Student{
			{SID: "STU1001", Name: "Aarav Kumar", Email: "aarav@example.com", Fingerprint: "fp_stu1001"},
			{SID: "STU1002", Name: "Isha Reddy", Email: "isha@example.com", Fingerprint: "fp_stu1002"},
			{SID: "STU1003", Name: "Neha Gupta", Email: "neha@example.com", Fingerprint: "fp_stu1003"},
		}
		if err := db.Create(&students).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&model.Book{}).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		books := []model.Book{
			{BID: "BK0001", Title: "Clean Code", Author: "Robert C. Martin", Available: true},
			{BID: "BK0002", Title: "Design Patterns", Author: "GoF", Available: true},
			{BID: "BK0003", Title: "Introduction to Algorithms", Author: "CLRS", Available: true},
		}
		if err := db.Create(&books).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&model.ClassRoom{}).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		classes := []model.ClassRoom{
			{Code: "CSE-A-DSA", Name: "DSA - CSE A", Teacher: "Prof. Rao"},
			{Code: "CSE-B-OS", Name: "Operating Systems - CSE B", Teacher: "Dr. Iyer"},
		}
		if err := db.Create(&classes).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&model.Lab{}).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		labs := []model.Lab{
			{Code: "LAB-ML-01", Name: "ML Lab", Room: "L-301"},
			{Code: "LAB-NET-02", Name: "Networks Lab", Room: "L-208"},
		}
		if err := db.Create(&labs).Error; err != nil {
			return err
		}
	}

	return generateMissingQR(db, gen)
}

// generateMissingQR fills in QR PNGs for rows that predate QR generation.
func generateMissingQR(db *gorm.DB, gen *qr.Generator) error {
	var students []model.Student
	if err := db.Find(&students).Error; err != nil {
		return err
	}
	for _, s := range students {
		if gen.Exists("student_" + s.SID + ".png") {
			continue
		}
		if _, err := gen.Student(s.SID); err != nil {
			log.Printf("seed: qr for student %s failed: %v", s.SID, err)
		}
	}

	var books []model.Book
	if err := db.Find(&books).Error; err != nil {
		return err
	}
	for _, b := range books {
		if gen.Exists("book_" + b.BID + ".png") {
			continue
		}
		if _, err := gen.Book(b.BID); err != nil {
			log.Printf("seed: qr for book %s failed: %v", b.BID, err)
		}
	}
	return nil
}
