package menu

import (
	"strings"
	"testing"

	"assetfetch/internal/config"
)

func TestFormatMenuItemsAlignsColumns(t *testing.T) {
	options := []MenuOption{
		{Label: "1. Download a version", Description: "fetch", Color: "green", Enabled: true},
		{Label: "2. Hidden", Enabled: false},
		{Label: "10. History", Description: "recent", Color: "yellow", Enabled: true},
		{Label: "Exit", Color: "red", Enabled: true},
	}

	items, indexes := formatMenuItems(options)

	if len(items) != 3 {
		t.Fatalf("items = %q", items)
	}
	if want := []int{0, 2, 3}; indexes[0] != want[0] || indexes[1] != want[1] || indexes[2] != want[2] {
		t.Errorf("indexes = %v, want %v", indexes, want)
	}
	if items[0] != "🟢  1. Download a version  fetch" {
		t.Errorf("first item = %q", items[0])
	}
	if items[1] != "🟡 10. History             recent" {
		t.Errorf("second item = %q", items[1])
	}
	if items[2] != "🔴     Exit" {
		t.Errorf("unnumbered item = %q", items[2])
	}
}

func TestFormatMenuItemsEmpty(t *testing.T) {
	items, indexes := formatMenuItems([]MenuOption{{Label: "off"}})
	if items != nil || indexes != nil {
		t.Errorf("expected nothing, got %q %v", items, indexes)
	}
	if _, err := selectedIndex(0, indexes); err == nil {
		t.Error("selection from an empty menu must fail")
	}
}

func TestSourceOptionsMarksActive(t *testing.T) {
	cfg := &config.Config{
		DownloadSource: "bmclapi",
		Mirrors: map[string]config.MirrorConfig{
			"bmclapi": {Metadata: "https://bmclapi2.bangbang93.com"},
		},
	}

	options := sourceOptions(cfg, cfg.SourceNames())
	if len(options) != 2 {
		t.Fatalf("options = %+v", options)
	}
	if options[0].Label != "1. default" || options[0].Color != "" {
		t.Errorf("default option = %+v", options[0])
	}
	if options[1].Color != "green" || options[1].Description != "https://bmclapi2.bangbang93.com" {
		t.Errorf("active option = %+v", options[1])
	}
}

func TestValidateVersionID(t *testing.T) {
	for _, ok := range []string{"1.20.4", "release", "23w13a_or_b"} {
		if err := validateVersionID(ok); err != nil {
			t.Errorf("%q rejected: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "  ", "../1.20", "a/b"} {
		if err := validateVersionID(bad); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
	if !strings.Contains(validateVersionID("").Error(), "empty") {
		t.Error("unexpected message")
	}
}
