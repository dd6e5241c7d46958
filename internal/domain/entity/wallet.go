package entity

// Wallet is a resolved observer wallet
type Wallet struct {
	Address string `json:"address"`
	ENS     string `json:"ens,omitempty"` // display name, empty when no reverse record exists
}

// DisplayName returns the ENS name when known, the address otherwise
func (w *Wallet) DisplayName() string {
	if w.ENS != "" {
		return w.ENS
	}
	return w.Address
}

// CollectionInfo represents a collection shown in a wallet's collection picker
type CollectionInfo struct {
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	ImgURL          string   `json:"img_url"`
	ContractAddress string   `json:"contract_address"`
	Holding         string   `json:"holding"`
	Floor           *float64 `json:"floor,omitempty"`
}
