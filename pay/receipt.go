package pay

import (
	"bytes"
	"net/url"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

// renderReceipt draws a one-page payment receipt. The QR code links back to
// the confirmation page for the order.
func renderReceipt(c confirmation, returnURL string) ([]byte, error) {
	link := returnURL + "?orderId=" + url.QueryEscape(c.OrderID)
	qrPNG, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, errors.Wrap(err, "encode receipt qr")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "SpiritHub Cafe")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, "Payment receipt")
	pdf.Ln(14)

	rows := [][2]string{
		{"Order", c.OrderID},
		{"Status", c.Status},
		{"Result", c.Outcome},
		{"Amount", c.AmountText()},
		{"Issued", time.Now().UTC().Format("2006-01-02 15:04 MST")},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(35, 8, row[0])
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(0, 8, row[1])
		pdf.Ln(8)
	}
	pdf.Ln(4)
	pdf.MultiCell(120, 6, c.Message, "", "L", false)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render receipt pdf")
	}
	return buf.Bytes(), nil
}
