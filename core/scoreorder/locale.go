package scoreorder

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	customNameKey     = "Custom"
	customizedNameKey = "%s (Customized)"
)

func init() {
	for _, e := range []struct {
		tag        language.Tag
		key, value string
	}{
		{language.German, customNameKey, "Benutzerdefiniert"},
		{language.German, customizedNameKey, "%s (angepasst)"},
		{language.German, "Orchestral", "Orchester"},
		{language.German, "Concert Band", "Blasorchester"},
		{language.German, "Choir", "Chor"},
		{language.French, customNameKey, "Personnalisé"},
		{language.French, customizedNameKey, "%s (personnalisé)"},
		{language.French, "Orchestral", "Orchestre"},
		{language.French, "Concert Band", "Orchestre d'harmonie"},
		{language.French, "Choir", "Chœur"},
	} {
		if err := message.SetString(e.tag, e.key, e.value); err != nil {
			panic(fmt.Sprintf("scoreorder: register translation %q (%s): %v", e.key, e.tag, err))
		}
	}
}

// ParseLanguage parses a BCP 47 tag, falling back to English.
func ParseLanguage(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil || s == "" {
		return language.English
	}
	return tag
}

func (e *Env) printer() *message.Printer {
	return message.NewPrinter(e.Language)
}

// translate looks up a stored order name; unknown names are returned as is.
func (e *Env) translate(s string) string {
	return e.printer().Sprintf(strings.ReplaceAll(s, "%", "%%"))
}
