package models

// WalletSignature carries an optional EIP-191 signature over Message made by Address.
type WalletSignature struct {
	Signature string `json:"signature,omitempty"`
	Message   string `json:"message,omitempty"`
	Address   string `json:"address,omitempty"`
}

func (s WalletSignature) Present() bool {
	return s.Signature != "" && s.Message != "" && s.Address != ""
}
