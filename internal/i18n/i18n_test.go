// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import "testing"

func TestInitParsesEmbeddedLocales(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
}

func TestTranslateEnglish(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := T("apply.success"); got != "Configuration committed and pushed." {
		t.Errorf("unexpected translation: %q", got)
	}
}

func TestTranslateGerman(t *testing.T) {
	if err := SetLang("de"); err != nil {
		t.Fatalf("SetLang: %v", err)
	}
	t.Cleanup(func() {
		if err := SetLang("en"); err != nil {
			t.Errorf("restoring language: %v", err)
		}
	})
	if got := T("apply.success"); got != "Konfiguration committet und gepusht." {
		t.Errorf("unexpected translation: %q", got)
	}
}

func TestUnknownIDFallsBackToID(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := T("no.such.message"); got != "no.such.message" {
		t.Errorf("unexpected fallback: %q", got)
	}
}

func TestUninitializedDefaultsToEnglish(t *testing.T) {
	localizer = nil
	if got := T("grant.done"); got != "Permission granted." {
		t.Errorf("unexpected translation: %q", got)
	}
}
