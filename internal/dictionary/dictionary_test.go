package dictionary

import "testing"

const sampleData = `{
	"hello": {
		"usphone": "hə'loʊ",
		"ukphone": "hə'ləʊ",
		"usspeech": "hello&type=2",
		"ukspeech": "hello&type=1",
		"trans": {
			"int": ["嗨", "你好"],
			"n": ["招呼", "你好"]
		}
	},
	"Give Up": {
		"trans": {"v": ["放弃"]}
	}
}`

func mustParse(t *testing.T) *Dictionary {
	t.Helper()
	dict, err := Parse([]byte(sampleData))
	if err != nil {
		t.Fatalf("parse dictionary: %v", err)
	}
	return dict
}

func TestLookup_Hit(t *testing.T) {
	t.Parallel()

	dict := mustParse(t)
	entry := dict.Lookup("  Hello ")
	if entry == nil {
		t.Fatal("expected a hit")
	}

	if entry.Word != "hello" {
		t.Fatalf("unexpected word: %q", entry.Word)
	}
	if entry.Phonetics.AudioUS != audioURLPrefix+"hello&type=2" {
		t.Fatalf("unexpected US audio url: %q", entry.Phonetics.AudioUS)
	}
	if len(entry.Meanings) != 2 {
		t.Fatalf("unexpected meaning count: %d", len(entry.Meanings))
	}
	// Part-of-speech groups are ordered alphabetically.
	if entry.Meanings[0].PartOfSpeech != "int" || entry.Meanings[1].PartOfSpeech != "n" {
		t.Fatalf("unexpected meaning order: %+v", entry.Meanings)
	}
	// "你好" appears in both groups but only once in translations.
	if len(entry.Translations) != 3 {
		t.Fatalf("expected deduplicated translations, got %v", entry.Translations)
	}
}

func TestLookup_MissAndTokenLimit(t *testing.T) {
	t.Parallel()

	dict := mustParse(t)
	if entry := dict.Lookup("nonexistent"); entry != nil {
		t.Fatalf("expected nil on miss, got %+v", entry)
	}
	if entry := dict.Lookup("one two three four"); entry != nil {
		t.Fatalf("expected nil for four tokens, got %+v", entry)
	}
	if entry := dict.Lookup("   "); entry != nil {
		t.Fatalf("expected nil for blank input, got %+v", entry)
	}
}

func TestLookup_MultiWordKey(t *testing.T) {
	t.Parallel()

	dict := mustParse(t)
	entry := dict.Lookup("give  up")
	if entry == nil {
		t.Fatal("expected a hit for normalized multi-word key")
	}
	if entry.Translations[0] != "放弃" {
		t.Fatalf("unexpected translation: %v", entry.Translations)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	dict, err := Load("/nonexistent/path/dict.json")
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if dict.Len() != 0 {
		t.Fatalf("expected empty dictionary, got %d entries", dict.Len())
	}
}
