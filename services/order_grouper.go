package services

import (
	"strings"

	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
	"go.uber.org/zap"
)

// GroupRows partitions rows by ORDER NO. Groups come back in the order their
// order number is first seen and rows keep file order inside a group. Rows
// without an order number are dropped and counted in skipped.
func GroupRows(rows []models.RawImportRow) (groups []models.OrderGroup, skipped int) {
	index := make(map[string]int)
	for _, row := range rows {
		orderNo := strings.TrimSpace(row.Get(models.ColOrderNo))
		if orderNo == "" {
			skipped++
			zap.L().Debug("skipping row without order number", zap.Int("row", row.RowNumber))
			continue
		}

		i, ok := index[orderNo]
		if !ok {
			i = len(groups)
			index[orderNo] = i
			groups = append(groups, models.OrderGroup{OrderNumber: orderNo})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups, skipped
}
