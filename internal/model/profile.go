package model

// CompanyProfile is the descriptive metadata shown next to a ticker.
type CompanyProfile struct {
	Symbol              string `json:"symbol"`
	ShortName           string `json:"short_name"`
	LongName            string `json:"long_name,omitempty"`
	LongBusinessSummary string `json:"long_business_summary"`
	LogoURL             string `json:"logo_url,omitempty"`
	Website             string `json:"website,omitempty"`
	Sector              string `json:"sector,omitempty"`
	Industry            string `json:"industry,omitempty"`
	Currency            string `json:"currency,omitempty"`
	Exchange            string `json:"exchange,omitempty"`
}
