package qrcard

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/Spok95/school-admin-api/internal/models"
)

// PNG — QR-код ученика для сканера посещаемости.
func PNG(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(token, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// CardPDF — карточка ученика с QR-кодом для печати (A6, альбомная).
func CardPDF(student models.Student, className string) ([]byte, error) {
	png, err := PNG(student.QRToken, 512)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A6", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "STUDENT CARD", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, student.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("NIS: %s", student.NIS), "", 1, "C", false, 0, "")
	if className != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Class: %s", className), "", 1, "C", false, 0, "")
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	// по центру A6 landscape (148x105)
	pdf.ImageOptions("qr", 54, 48, 40, 40, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
