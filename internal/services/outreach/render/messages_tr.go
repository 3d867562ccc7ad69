package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Turkish

	message.SetString(lang, "campaign.default_subject", "%s kampanyasından haberler")
	message.SetString(lang, "campaign.fallback_name", "değerli müşterimiz")
	message.SetString(lang, "campaign.footer", "Bu iletiyi müşterimiz olduğunuz için alıyorsunuz. Abonelikten çıkmak için DUR yazın.")
}
