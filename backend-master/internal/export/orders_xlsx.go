// Package export renders order listings as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

const ordersSheet = "Pedidos"

// ContentTypeXLSX is the MIME type of the generated workbook
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OrderHeaders are the columns of the orders export
var OrderHeaders = []string{
	"ID",
	"Data",
	"Plano",
	"Cliente",
	"E-mail",
	"Telefone",
	"CPF/CNPJ",
	"Forma de pagamento",
	"Recorrente",
	"Valor",
	"Status",
	"Pago em",
	"Lembretes",
	"Gateway",
}

var columnWidths = []float64{38, 18, 14, 30, 32, 18, 18, 18, 11, 12, 11, 18, 10, 24}

const dateLayout = "02/01/2006 15:04"

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// WriteOrders writes orders as an XLSX workbook to w
func WriteOrders(w io.Writer, orders []*domain.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ordersSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}

	for col, header := range OrderHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(ordersSheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(OrderHeaders), 1)
	if err := f.SetCellStyle(ordersSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(ordersSheet, col, col, width); err != nil {
			return err
		}
	}

	for i, o := range orders {
		row := i + 2
		amount, _ := o.Amount.Float64()
		recurring := "Não"
		if o.IsRecurring {
			recurring = "Sim"
		}
		values := []any{
			o.ID,
			o.CreatedAt.Format(dateLayout),
			o.PlanCode,
			o.CustomerName,
			o.CustomerEmail,
			o.CustomerPhone,
			o.CustomerDocument,
			string(o.PaymentMethod),
			recurring,
			amount,
			string(o.Status),
			formatTime(o.PaidAt),
			o.ReminderCount,
			o.GatewayPaymentID,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(ordersSheet, start, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		amountCell, _ := excelize.CoordinatesToCellName(10, row)
		if err := f.SetCellStyle(ordersSheet, amountCell, amountCell, moneyStyle); err != nil {
			return err
		}
	}

	if err := f.SetPanes(ordersSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

// Filename returns the download name for an export taken at t
func Filename(t time.Time) string {
	return "pedidos-" + t.Format("20060102-150405") + ".xlsx"
}
