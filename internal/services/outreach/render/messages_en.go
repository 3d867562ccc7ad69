package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "campaign.default_subject", defaultSubject)
	message.SetString(lang, "campaign.fallback_name", defaultFallbackName)
	message.SetString(lang, "campaign.footer", defaultFooter)
}
