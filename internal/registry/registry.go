// Package registry holds the known-company reference data used by the
// counterparty identity checks. A Registry is immutable once built and safe
// to share between runs.
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"patentdesk/internal/domain"
	"patentdesk/internal/infra/canonical"
)

//go:embed known_companies.yaml
var defaultCompanies []byte

type Registry struct {
	companies   []domain.CompanyRecord
	fingerprint string
}

type file struct {
	Companies []domain.CompanyRecord `json:"companies" yaml:"companies"`
}

// New validates records and builds a registry. Tax ids must be non-empty and
// unique.
func New(records []domain.CompanyRecord) (*Registry, error) {
	seen := make(map[string]int, len(records))
	companies := make([]domain.CompanyRecord, 0, len(records))
	for i, record := range records {
		if record.TaxID == "" {
			return nil, fmt.Errorf("company %d (%q): %w", i, record.Name, domain.ErrEmptyTaxID)
		}
		if prev, ok := seen[record.TaxID]; ok {
			return nil, fmt.Errorf("company %d and %d share tax id %s: %w", prev, i, record.TaxID, domain.ErrDuplicateTaxID)
		}
		seen[record.TaxID] = i
		companies = append(companies, record)
	}
	fp, err := canonical.Any(companies)
	if err != nil {
		return nil, fmt.Errorf("fingerprint registry: %w", err)
	}
	return &Registry{
		companies:   companies,
		fingerprint: canonical.SHA256Hex(fp),
	}, nil
}

// Default returns the embedded production registry.
func Default() (*Registry, error) {
	return Parse(defaultCompanies, "yaml")
}

// Load reads a registry file. Files ending in .json are decoded as JSON,
// anything else as YAML.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	reg, err := Parse(raw, format)
	if err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return reg, nil
}

// LoadOrDefault loads path, or the embedded registry when path is empty.
func LoadOrDefault(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return Load(path)
}

func Parse(raw []byte, format string) (*Registry, error) {
	var f file
	switch format {
	case "json":
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decode registry json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decode registry yaml: %w", err)
		}
	}
	return New(f.Companies)
}

// MatchRemittance finds the entry whose tax id, bank name, bank address and
// account number all equal the remittance block. Partial matches do not count.
func (r *Registry) MatchRemittance(rem domain.Remittance) (domain.CompanyRecord, bool) {
	if r == nil {
		return domain.CompanyRecord{}, false
	}
	for _, c := range r.companies {
		if c.TaxID == rem.TaxID &&
			c.BankName == rem.BankName &&
			c.BankAddress == rem.BankAddress &&
			c.AccountNumber == rem.AccountNumber {
			return c, true
		}
	}
	return domain.CompanyRecord{}, false
}

// MatchInvoiceBuyer finds the entry whose name, tax id and address all equal
// the invoice buyer fields.
func (r *Registry) MatchInvoiceBuyer(name, taxID, address string) (domain.CompanyRecord, bool) {
	if r == nil {
		return domain.CompanyRecord{}, false
	}
	for _, c := range r.companies {
		if c.Name == name && c.TaxID == taxID && c.Address == address {
			return c, true
		}
	}
	return domain.CompanyRecord{}, false
}

func (r *Registry) Companies() []domain.CompanyRecord {
	if r == nil {
		return nil
	}
	out := make([]domain.CompanyRecord, len(r.companies))
	copy(out, r.companies)
	return out
}

// Fingerprint identifies the registry contents. Results computed against
// one registry are not reused against another.
func (r *Registry) Fingerprint() string {
	if r == nil {
		return ""
	}
	return r.fingerprint
}
