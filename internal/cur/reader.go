package cur

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"
)

// CUR column identifiers, as they appear in the report header row.
const (
	colBillStart     = "bill/BillingPeriodStartDate"
	colUsageType     = "lineItem/UsageType"
	colProductCode   = "lineItem/ProductCode"
	colProductName   = "product/ProductName"
	colOperation     = "lineItem/Operation"
	colUsageAmount   = "lineItem/UsageAmount"
	colUnblendedCost = "lineItem/UnblendedCost"
	colResourceID    = "lineItem/ResourceId"
)

// billStartLayouts are the timestamp formats seen in
// bill/BillingPeriodStartDate across CUR versions.
var billStartLayouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02",
}

// ReportReader decodes CUR report rows into LineItems. The tag key names the
// resourceTags column holding the department cost-allocation tag.
type ReportReader struct {
	tagKey string
	debug  bool
}

// NewReportReader creates a reader. tagKey is the user tag key, without the
// "resourceTags/user:" prefix; it defaults to "department" when empty.
func NewReportReader(tagKey string, debug bool) *ReportReader {
	if tagKey == "" {
		tagKey = "department"
	}
	return &ReportReader{tagKey: tagKey, debug: debug}
}

// Read parses one report file. key is used only to detect gzip compression
// from the filename; pass the S3 key or file path.
func (r *ReportReader) Read(src io.Reader, key string) ([]LineItem, error) {
	if strings.HasSuffix(key, ".gz") {
		gz, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip report %s: %w", key, err)
		}
		defer gz.Close()
		src = gz
	}

	cr := csv.NewReader(src)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read report header: %w", err)
	}

	idx, err := r.columnIndex(header)
	if err != nil {
		return nil, err
	}

	var items []LineItem
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read report row %d: %w", line+1, err)
		}
		line++

		item, ok := r.parseRow(record, idx)
		if !ok {
			if r.debug {
				log.Printf("[cur] skipping unparsable row %d in %s", line, key)
			}
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// columnIndex maps the columns we consume to their positions. The department
// tag column is optional: exports without the cost-allocation tag activated
// simply produce untagged line items.
type columnIndex struct {
	billStart     int
	usageType     int
	productCode   int
	productName   int
	operation     int
	usageAmount   int
	unblendedCost int
	resourceID    int
	department    int // -1 when the export has no such column
}

func (r *ReportReader) columnIndex(header []string) (columnIndex, error) {
	idx := columnIndex{
		billStart:     -1,
		usageType:     -1,
		productCode:   -1,
		productName:   -1,
		operation:     -1,
		usageAmount:   -1,
		unblendedCost: -1,
		resourceID:    -1,
		department:    -1,
	}
	tagCol := "resourceTags/user:" + r.tagKey

	for i, name := range header {
		switch name {
		case colBillStart:
			idx.billStart = i
		case colUsageType:
			idx.usageType = i
		case colProductCode:
			idx.productCode = i
		case colProductName:
			idx.productName = i
		case colOperation:
			idx.operation = i
		case colUsageAmount:
			idx.usageAmount = i
		case colUnblendedCost:
			idx.unblendedCost = i
		case colResourceID:
			idx.resourceID = i
		case tagCol:
			idx.department = i
		}
	}

	required := map[string]int{
		colBillStart:     idx.billStart,
		colUsageType:     idx.usageType,
		colProductCode:   idx.productCode,
		colUsageAmount:   idx.usageAmount,
		colUnblendedCost: idx.unblendedCost,
	}
	for name, pos := range required {
		if pos < 0 {
			return idx, fmt.Errorf("report is missing required column %s", name)
		}
	}
	return idx, nil
}

func (r *ReportReader) parseRow(record []string, idx columnIndex) (LineItem, bool) {
	get := func(pos int) string {
		if pos < 0 || pos >= len(record) {
			return ""
		}
		return record[pos]
	}

	period, ok := billingPeriod(get(idx.billStart))
	if !ok {
		return LineItem{}, false
	}

	usageAmount, err := strconv.ParseFloat(get(idx.usageAmount), 64)
	if err != nil {
		return LineItem{}, false
	}
	cost, err := strconv.ParseFloat(get(idx.unblendedCost), 64)
	if err != nil {
		return LineItem{}, false
	}

	return LineItem{
		BillingPeriod: period,
		UsageType:     get(idx.usageType),
		ProductCode:   get(idx.productCode),
		ProductName:   get(idx.productName),
		Operation:     get(idx.operation),
		UsageAmount:   usageAmount,
		UnblendedCost: cost,
		ResourceID:    get(idx.resourceID),
		Department:    get(idx.department),
	}, true
}

// billingPeriod converts a bill start timestamp to the "YYYY-MM" form used
// throughout the reports.
func billingPeriod(billStart string) (string, bool) {
	for _, layout := range billStartLayouts {
		if t, err := time.Parse(layout, billStart); err == nil {
			return t.Format("2006-01"), true
		}
	}
	return "", false
}
