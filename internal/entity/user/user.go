package user

// Identity is the authenticated caller. Every ledger operation receives it explicitly.
type Identity struct {
	ID string
}

func (i Identity) Valid() bool {
	return i.ID != ""
}

type Settings struct {
	UserID   string `json:"userId"`
	Currency string `json:"currency"`
}

func (s *Settings) CurrencyOrDefault(def string) string {
	if s.Currency != "" {
		return s.Currency
	}
	return def
}
