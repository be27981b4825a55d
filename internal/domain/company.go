package domain

// CompanyRecord is the identity fingerprint of a known counterparty. Empty
// fields are not applicable to the role the record is matched in.
type CompanyRecord struct {
	Name          string `json:"name" yaml:"name"`
	TaxID         string `json:"tax_id" yaml:"tax_id"`
	BankName      string `json:"bank_name" yaml:"bank_name"`
	BankAddress   string `json:"bank_address" yaml:"bank_address"`
	AccountNumber string `json:"account_number" yaml:"account_number"`
	Address       string `json:"address" yaml:"address"`
}
