package render

import (
	"fmt"
	"image/color"

	"github.com/go-pdf/fpdf"
	"github.com/paulmach/orb"
)

const pdfFontFamily = "gofont"

// pdfCanvas draws into a single fpdf page sized to the figure. fpdf uses the
// same top-left origin in points, so coordinates pass through unchanged.
type pdfCanvas struct {
	pdf *fpdf.Fpdf
}

func newPDFCanvas(widthPt, heightPt float64) *pdfCanvas {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: widthPt, Ht: heightPt},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("citymap", true)
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "", fontBytes(false))
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "B", fontBytes(true))
	pdf.AddPage()
	return &pdfCanvas{pdf: pdf}
}

func (pc *pdfCanvas) path(rings []orb.Ring) {
	for _, r := range rings {
		if len(r) < 2 {
			continue
		}
		pc.pdf.MoveTo(r[0][0], r[0][1])
		for _, p := range r[1:] {
			pc.pdf.LineTo(p[0], p[1])
		}
		pc.pdf.ClosePath()
	}
}

func (pc *pdfCanvas) setAlpha(c color.NRGBA) {
	pc.pdf.SetAlpha(float64(c.A)/255, "Normal")
}

func (pc *pdfCanvas) FillPolygon(rings []orb.Ring, c color.NRGBA) {
	pc.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	pc.setAlpha(c)
	pc.path(rings)
	pc.pdf.DrawPath("F")
}

func (pc *pdfCanvas) StrokePolygon(rings []orb.Ring, c color.NRGBA, width float64) {
	pc.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	pc.pdf.SetLineWidth(width)
	pc.pdf.SetLineJoinStyle("round")
	pc.setAlpha(c)
	pc.path(rings)
	pc.pdf.DrawPath("D")
}

func (pc *pdfCanvas) Text(x, y float64, s string, size float64, bold bool, c color.NRGBA) {
	style := ""
	if bold {
		style = "B"
	}
	pc.pdf.SetFont(pdfFontFamily, style, size)
	pc.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	pc.setAlpha(c)
	pc.pdf.Text(x, y, s)
}

// SavePDF writes the figure as a one-page vector PDF.
func SavePDF(fig *Figure, path string) error {
	pc := newPDFCanvas(fig.Width, fig.Height)
	if err := fig.Draw(pc); err != nil {
		return err
	}
	if err := pc.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
