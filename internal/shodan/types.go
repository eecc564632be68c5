// Package shodan provides a client for the Shodan device-search API.
package shodan

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NotAvailable is the placeholder substituted for fields absent from
// upstream match data.
const NotAvailable = "N/A"

// HostRecord is a normalized description of one internet-facing device.
// Every field is always populated; missing upstream data is replaced
// with the NotAvailable sentinel.
type HostRecord struct {
	IP           string   `json:"ip"`
	Port         string   `json:"port"`
	Organization string   `json:"organization"`
	Location     string   `json:"location"`
	Timestamp    string   `json:"timestamp"`
	Product      string   `json:"product"`
	Version      string   `json:"version"`
	Vulns        []string `json:"vulns"`
}

// rawMatch mirrors the upstream match shape. Fields are optional and
// heterogeneous; normalization fills the gaps.
type rawMatch struct {
	IPStr     string      `json:"ip_str"`
	Port      json.Number `json:"port"`
	Org       string      `json:"org"`
	Location  rawLocation `json:"location"`
	Timestamp string      `json:"timestamp"`
	Product   string      `json:"product"`
	Version   string      `json:"version"`
	Vulns     vulnList    `json:"vulns"`
}

type rawLocation struct {
	CountryName string `json:"country_name"`
	City        string `json:"city"`
}

// vulnList accepts both shapes the upstream API uses for vulnerability
// data: a plain array of CVE identifiers or an object keyed by them.
type vulnList []string

func (v *vulnList) UnmarshalJSON(data []byte) error {
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*v = asList
		return nil
	}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &asMap); err != nil {
		return err
	}

	keys := make([]string, 0, len(asMap))
	for k := range asMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	*v = keys
	return nil
}

// normalize converts a raw upstream match into a HostRecord.
func (m rawMatch) normalize() HostRecord {
	rec := HostRecord{
		IP:           orNA(m.IPStr),
		Port:         NotAvailable,
		Organization: orNA(m.Org),
		Timestamp:    orNA(m.Timestamp),
		Product:      orNA(m.Product),
		Version:      orNA(m.Version),
		Vulns:        m.Vulns,
	}

	if m.Port.String() != "" {
		rec.Port = m.Port.String()
	}

	rec.Location = fmt.Sprintf("%s, %s", orNA(m.Location.CountryName), orNA(m.Location.City))

	if rec.Vulns == nil {
		rec.Vulns = []string{}
	}

	return rec
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
