// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package i18n provides internationalization support for Gitomaster's
// command-line output. It uses the go-i18n library to load translation
// files embedded into the binary.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// localeFS embeds the YAML translation files from the 'locales' directory
// into the application binary.
//
//go:embed locales/*.yaml
var localeFS embed.FS

// bundle stores all the loaded translation messages from the locale files.
var bundle *i18n.Bundle

// localizer is used to translate messages into a specific language.
var localizer *i18n.Localizer

// Init initializes the i18n bundle and sets up the localizer for a specific
// language. It parses all embedded YAML files from the 'locales' directory;
// a locale file that fails to parse is a build defect and reported as an
// error rather than silently dropped.
func Init(lang string) error {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return fmt.Errorf("listing embedded locales: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			return fmt.Errorf("reading locale file %s: %w", f.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			return fmt.Errorf("parsing locale file %s: %w", f.Name(), err)
		}
	}

	localizer = i18n.NewLocalizer(bundle, lang)
	return nil
}

// T is a convenience function to translate a message by its ID. If the i18n
// system has not been initialized, it defaults to English. If a translation
// for the given ID is not found, it returns the ID itself.
func T(messageID string) string {
	if localizer == nil {
		if err := Init("en"); err != nil {
			return messageID
		}
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		return messageID
	}
	return msg
}

// SetLang changes the active language of the localizer.
func SetLang(lang string) error {
	return Init(lang)
}
