package cur

import (
	"path"
	"sort"
	"time"
)

// Manifest is the metadata file AWS writes alongside each Cost and Usage
// Report assembly. The top-level copy always points at the most recent
// assembly for its billing period.
type Manifest struct {
	AssemblyID    string        `json:"assemblyId"`
	Account       string        `json:"account"`
	Charset       string        `json:"charset"`
	Compression   string        `json:"compression"`
	ContentType   string        `json:"contentType"`
	ReportID      string        `json:"reportId"`
	ReportName    string        `json:"reportName"`
	BillingPeriod BillingPeriod `json:"billingPeriod"`
	Bucket        string        `json:"bucket"`
	ReportKeys    []string      `json:"reportKeys"`
}

// BillingPeriod is the half-open interval a report covers.
type BillingPeriod struct {
	Start ManifestTime `json:"start"`
	End   ManifestTime `json:"end"`
}

// Period returns the billing period as "YYYY-MM".
func (bp BillingPeriod) Period() string {
	return bp.Start.Format("2006-01")
}

// Paths returns the directories containing report data, free of duplicates.
func (m Manifest) Paths() []string {
	seen := map[string]struct{}{}
	for _, key := range m.ReportKeys {
		seen[path.Dir(key)] = struct{}{}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ManifestTime handles the timestamp layout AWS uses in manifests.
type ManifestTime struct {
	time.Time
}

const manifestTimeLayout = "20060102T000000.000Z"

func (t *ManifestTime) UnmarshalJSON(b []byte) error {
	if len(b) < 2 {
		return nil
	}
	// b includes the surrounding quotes
	tt, err := time.Parse(manifestTimeLayout, string(b[1:len(b)-1]))
	if err != nil {
		return err
	}
	t.Time = tt
	return nil
}

func (t ManifestTime) String() string {
	return t.Format(manifestTimeLayout)
}
