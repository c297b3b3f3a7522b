package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
)

// GeneralSupplier is used for every department code missing from the supplier table
const GeneralSupplier = "General Supplier"

// DeliveryLeadTime is added to the import time to get the expected delivery date
const DeliveryLeadTime = 30 // days

var supplierByDept = map[string]string{
	"RETAIL":     "Retail Parts Supplier",
	"INDUSTRIAL": "Industrial Equipment Supplier",
	"TELECOM":    "Telecom Components Supplier",
	"EV":         "EV Parts Supplier",
	"RET/TEL":    "Retail & Telecom Supplier",
}

var priorityByDept = map[string]models.Priority{
	"RETAIL":     models.PriorityMedium,
	"INDUSTRIAL": models.PriorityHigh,
	"TELECOM":    models.PriorityHigh,
	"EV":         models.PriorityUrgent,
	"RET/TEL":    models.PriorityMedium,
}

var gstPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

func normalizeDept(dept string) string {
	return strings.ToUpper(strings.TrimSpace(dept))
}

// SupplierForDept maps a department code to its supplier display name
func SupplierForDept(dept string) string {
	if s, ok := supplierByDept[normalizeDept(dept)]; ok {
		return s
	}
	return GeneralSupplier
}

// PriorityForDept maps a department code to a priority, defaulting to medium
func PriorityForDept(dept string) models.Priority {
	if p, ok := priorityByDept[normalizeDept(dept)]; ok {
		return p
	}
	return models.PriorityMedium
}

// ExtractGSTRate returns the first "<number>%" in tax, e.g. 18 for "18% GST".
// It returns 0 when nothing matches.
func ExtractGSTRate(tax string) float64 {
	m := gstPattern.FindStringSubmatch(tax)
	if len(m) < 2 {
		return 0
	}
	rate, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return rate
}

// ExpectedDeliveryDate ignores the sheet's YEAR/month columns and always
// returns now plus DeliveryLeadTime days.
func ExpectedDeliveryDate(now time.Time) time.Time {
	return now.AddDate(0, 0, DeliveryLeadTime)
}

// parseNumber reads a sheet number such as "1,250.50". Anything unparseable is 0.
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
