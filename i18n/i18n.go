// Package i18n localizes timeline labels. The locale is always an explicit
// argument; there is no process-wide current language.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/warp/approval-engine/workflow"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Bundle holds the parsed message files.
type Bundle struct {
	bundle        *i18n.Bundle
	defaultLocale string
}

// NewBundle loads all embedded locale files.
func NewBundle(defaultLocale string) (*Bundle, error) {
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("i18n: default locale %q: %w", defaultLocale, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", e.Name(), err)
		}
		if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", e.Name(), err)
		}
	}

	return &Bundle{bundle: b, defaultLocale: defaultLocale}, nil
}

// Languages returns the loaded locales.
func (b *Bundle) Languages() []language.Tag {
	return b.bundle.LanguageTags()
}

// Labels returns timeline labels for the given locales, in preference order.
// Each entry may be a tag ("fr") or a full Accept-Language header value.
// Messages missing from every requested locale fall back to the default locale.
func (b *Bundle) Labels(locales ...string) workflow.Labels {
	l := i18n.NewLocalizer(b.bundle, append(locales, b.defaultLocale)...)

	t := func(id string) string {
		msg, err := l.Localize(&i18n.LocalizeConfig{MessageID: id})
		if err != nil {
			return ""
		}
		return msg
	}

	return workflow.Labels{
		Submitted:       t("timeline.submitted"),
		InProgress:      t("timeline.in_progress"),
		FinalDecision:   t("timeline.final_decision"),
		Approved:        t("timeline.approved"),
		Rejected:        t("timeline.rejected"),
		Advisory:        t("timeline.advisory"),
		LevelFallback:   t("timeline.level"),
		UnknownApprover: t("timeline.unknown_approver"),
	}
}
