package currency

const (
	USD = "USD"
	EUR = "EUR"
	JPY = "JPY"
	GBP = "GBP"
)

type Currency struct {
	Code   string
	Label  string
	Locale string
}

var Currencies = []Currency{
	{Code: USD, Label: "$ Dollar", Locale: "en-US"},
	{Code: EUR, Label: "€ Euro", Locale: "de-DE"},
	{Code: JPY, Label: "¥ Yen", Locale: "ja-JP"},
	{Code: GBP, Label: "£ Pound", Locale: "en-GB"},
}

func Lookup(code string) (Currency, bool) {
	for _, c := range Currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

func Codes() []string {
	res := make([]string, 0, len(Currencies))
	for _, c := range Currencies {
		res = append(res, c.Code)
	}
	return res
}
