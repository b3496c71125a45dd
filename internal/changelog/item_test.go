package changelog

import (
	"strings"
	"testing"

	"github.com/galaxyproject/galaxy-release-util/internal/version"
)

const sampleHistory = `History
-------

.. to_doc

---------------------
23.1.3.dev0
---------------------



-------------------
23.1.2 (2023-11-01)
-------------------

=========
Bug fixes
=========

* Fixed a thing by ` + "`@jdoe <https://github.com/jdoe>`_ in `#16978 <https://github.com/galaxyproject/galaxy/pull/16978>`_" + `

============
Enhancements
============

* Improved a thing by ` + "`@jdoe <https://github.com/jdoe>`_ in `#16977 <https://github.com/galaxyproject/galaxy/pull/16977>`_" + `

-------------------
23.1.1 (2023-10-23)
-------------------

* First release
`

func TestParseHistory(t *testing.T) {
	items, err := ParseHistory(sampleHistory)
	if err != nil {
		t.Fatalf("ParseHistory: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(items))
	}
	if !items[0].Version.Equal(version.MustParse("23.1.3.dev0")) || items[0].Date != "" || len(items[0].Changes) != 0 {
		t.Errorf("dev section parsed wrong: %+v", items[0])
	}
	if items[1].Date != "2023-11-01" {
		t.Errorf("date = %q, want 2023-11-01", items[1].Date)
	}
	if len(items[1].Changes) != 4 {
		t.Fatalf("expected 4 change entries (2 headers, 2 bullets), got %d: %q", len(items[1].Changes), items[1].Changes)
	}
	if items[1].Changes[0] != KindHeader("Bug fixes") {
		t.Errorf("first change = %q, want kind header", items[1].Changes[0])
	}
	if !strings.HasPrefix(items[1].Changes[1], "* Fixed a thing") {
		t.Errorf("bullet parsed wrong: %q", items[1].Changes[1])
	}
	if len(items[2].Changes) != 1 || items[2].Changes[0] != "* First release" {
		t.Errorf("last section changes = %q", items[2].Changes)
	}
}

// TestHistoryRoundTrip verifies that rendering parsed history reproduces it.
func TestHistoryRoundTrip(t *testing.T) {
	items, err := ParseHistory(sampleHistory)
	if err != nil {
		t.Fatalf("ParseHistory: %v", err)
	}
	rendered := RenderHistory(items)
	reparsed, err := ParseHistory(rendered)
	if err != nil {
		t.Fatalf("ParseHistory(rendered): %v", err)
	}
	if len(reparsed) != len(items) {
		t.Fatalf("round trip changed section count: %d vs %d", len(reparsed), len(items))
	}
	for i := range items {
		if !items[i].Version.Equal(reparsed[i].Version) || items[i].Date != reparsed[i].Date {
			t.Errorf("section %d header changed: %+v vs %+v", i, items[i], reparsed[i])
		}
		if !equalChanges(items[i].Changes, reparsed[i].Changes) {
			t.Errorf("section %d changes changed:\n%q\nvs\n%q", i, items[i].Changes, reparsed[i].Changes)
		}
	}
}

func TestItemString(t *testing.T) {
	item := Item{Version: version.MustParse("23.1.2"), Date: "2023-11-01", Changes: []string{"* a change"}}
	want := "-------------------\n23.1.2 (2023-11-01)\n-------------------\n\n* a change\n"
	if got := item.String(); got != want {
		t.Errorf("String = %q, want %q", got, want)
	}

	undated := Item{Version: version.MustParse("23.1.3.dev0")}
	want = "-----------\n23.1.3.dev0\n-----------\n\n\n"
	if got := undated.String(); got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

func TestIsNewHistory(t *testing.T) {
	fresh := []Item{{Version: version.MustParse("23.1.1.dev0")}}
	if !IsNewHistory(fresh) {
		t.Error("single undated dev section should mark a new package")
	}
	released := []Item{
		{Version: version.MustParse("23.1.2.dev0")},
		{Version: version.MustParse("23.1.1"), Date: "2023-10-23", Changes: []string{"* First release"}},
	}
	if IsNewHistory(released) {
		t.Error("released package misdetected as new")
	}
}

func TestCleanItems(t *testing.T) {
	items, err := ParseHistory(sampleHistory)
	if err != nil {
		t.Fatalf("ParseHistory: %v", err)
	}
	clean, err := CleanItems(items, false)
	if err != nil {
		t.Fatalf("CleanItems: %v", err)
	}
	if len(clean) != 2 {
		t.Fatalf("expected empty dev section dropped, got %d items", len(clean))
	}
	if !clean[0].Version.Equal(version.MustParse("23.1.2")) {
		t.Errorf("items not sorted newest first: %v", clean[0].Version)
	}

	if _, err := CleanItems([]Item{{Version: version.MustParse("23.1.2"), Changes: []string{"* x"}}}, false); err == nil {
		t.Error("expected error for dated-less non-dev section with changes")
	}

	clean, err = CleanItems(items, true)
	if err != nil {
		t.Fatalf("CleanItems(new): %v", err)
	}
	if len(clean) != 0 {
		t.Errorf("new package should drop all sections, got %d", len(clean))
	}
}

func TestReconcileHistories(t *testing.T) {
	released := Item{Version: version.MustParse("23.1.2"), Date: "2023-11-01", Changes: []string{"* a fix"}}
	older := Item{Version: version.MustParse("23.1.1"), Date: "2023-10-23", Changes: []string{"* First release"}}
	previous := []Item{released, older}
	merged := []Item{{Version: version.MustParse("23.2.1.dev0")}, older}

	dev := version.MustParse("23.2.1.dev1")
	history, err := ReconcileHistories("app", previous, merged, dev)
	if err != nil {
		t.Fatalf("ReconcileHistories: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected dev header plus 2 released sections, got %d", len(history))
	}
	if !history[0].Version.Equal(dev) || history[0].Date != "" {
		t.Errorf("missing injected dev section: %+v", history[0])
	}
	if !history[1].Version.Equal(released.Version) || !history[2].Version.Equal(older.Version) {
		t.Errorf("sections out of order: %+v", history)
	}
}

// TestReconcileHistoriesConflict verifies that diverged changes for the same
// version are a hard error.
func TestReconcileHistoriesConflict(t *testing.T) {
	a := Item{Version: version.MustParse("23.1.2"), Date: "2023-11-01", Changes: []string{"* a fix"}}
	b := Item{Version: version.MustParse("23.1.2"), Date: "2023-11-01", Changes: []string{"* a different fix"}}
	_, err := ReconcileHistories("app", []Item{a}, []Item{b}, version.MustParse("23.1.3.dev0"))
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if !strings.Contains(err.Error(), "fix this manually") {
		t.Errorf("unexpected error: %v", err)
	}
}
