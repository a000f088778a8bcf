package export

import (
	"io"

	"github.com/tealeg/xlsx"

	"github.com/Skotchmaster/till_shop/internal/models"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	FileName    = "products.xlsx"
)

var headers = []string{"ID", "Name", "Category", "Price", "Quantity", "Stock Status", "Image URL", "Updated At"}

// WriteProducts renders the inventory as a single-sheet workbook.
func WriteProducts(w io.Writer, products []models.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}

	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID.String())
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Category)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetInt(p.Quantity)
		row.AddCell().SetString(p.StockStatus())
		row.AddCell().SetString(p.ImageURL)
		row.AddCell().SetString(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	return file.Write(w)
}
