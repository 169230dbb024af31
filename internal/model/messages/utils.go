package messages

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	commandParts = 2
	dateLayout   = "02.01.2006"
)

func parseCommand(text string) (cmd, arg string) {
	text = strings.TrimSpace(text)
	split := strings.SplitN(text, " ", commandParts)

	if len(split) == commandParts && strings.HasPrefix(split[0], "/") {
		return stripBotName(split[0]), strings.TrimSpace(split[1])
	}
	if strings.HasPrefix(text, "/") {
		return stripBotName(text), ""
	}
	return "", text
}

// stripBotName turns "/balance@my_bot" into "/balance".
func stripBotName(cmd string) string {
	if i := strings.Index(cmd, "@"); i > 0 {
		return cmd[:i]
	}
	return cmd
}

func parseAmount(s string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil || amount.IsNegative() {
		return decimal.Decimal{}, false
	}
	return amount, true
}

// parseDate reads dd.mm.yyyy as a UTC calendar day.
func parseDate(s string) (time.Time, bool) {
	date, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
