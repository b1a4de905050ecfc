// Package dictionary serves offline word lookups from a pre-built JSON
// dictionary file. Lookups are local and synchronous; a miss is a nil
// entry, never an error.
package dictionary

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

const audioURLPrefix = "https://dict.youdao.com/dictvoice?audio="

// maxLookupTokens bounds multi-word lookups (compound entries such as
// "give up" exist in the source data, longer phrases never do).
const maxLookupTokens = 3

// Entry is a read-only dictionary record for one word.
type Entry struct {
	Word         string    `json:"word"`
	Phonetics    Phonetics `json:"phonetics"`
	Meanings     []Meaning `json:"meanings"`
	Translations []string  `json:"translations"`
}

type Phonetics struct {
	US      string `json:"us,omitempty"`
	UK      string `json:"uk,omitempty"`
	AudioUS string `json:"audioUs,omitempty"`
	AudioUK string `json:"audioUk,omitempty"`
}

type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech"`
	Definitions  []Definition `json:"definitions"`
}

type Definition struct {
	Definition string `json:"definition"`
	Example    string `json:"example,omitempty"`
}

// rawEntry matches the on-disk dictionary file layout: "trans" maps a
// part-of-speech tag to its definition strings.
type rawEntry struct {
	USPhone  string              `json:"usphone"`
	UKPhone  string              `json:"ukphone"`
	USSpeech string              `json:"usspeech"`
	UKSpeech string              `json:"ukspeech"`
	Trans    map[string][]string `json:"trans"`
}

// Dictionary is an in-memory key to entry mapping, loaded once at
// startup and read-only afterwards.
type Dictionary struct {
	entries map[string]Entry
}

// Load reads and decodes a dictionary JSON file. A missing path yields
// an empty dictionary rather than an error so the service can run
// without the data file installed.
func Load(path string) (*Dictionary, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return &Dictionary{entries: map[string]Entry{}}, nil
	}

	data, err := os.ReadFile(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return &Dictionary{entries: map[string]Entry{}}, nil
		}
		return nil, fmt.Errorf("read dictionary file: %w", err)
	}
	return Parse(data)
}

// Parse decodes dictionary JSON into a lookup table.
func Parse(data []byte) (*Dictionary, error) {
	var raw map[string]rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode dictionary data: %w", err)
	}

	entries := make(map[string]Entry, len(raw))
	for word, rawItem := range raw {
		key := normalizeKey(word)
		if key == "" {
			continue
		}
		entries[key] = buildEntry(key, rawItem)
	}
	return &Dictionary{entries: entries}, nil
}

// Len reports the number of loaded entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Lookup resolves a word by lowercased, whitespace-trimmed key. Returns
// nil on miss or when the input has more than three tokens.
func (d *Dictionary) Lookup(word string) *Entry {
	if d == nil {
		return nil
	}
	key := normalizeKey(word)
	if key == "" || len(strings.Fields(key)) > maxLookupTokens {
		return nil
	}
	entry, ok := d.entries[key]
	if !ok {
		return nil
	}
	return &entry
}

func buildEntry(key string, raw rawEntry) Entry {
	entry := Entry{
		Word: key,
		Phonetics: Phonetics{
			US: raw.USPhone,
			UK: raw.UKPhone,
		},
	}
	if raw.USSpeech != "" {
		entry.Phonetics.AudioUS = audioURLPrefix + raw.USSpeech
	}
	if raw.UKSpeech != "" {
		entry.Phonetics.AudioUK = audioURLPrefix + raw.UKSpeech
	}

	posTags := make([]string, 0, len(raw.Trans))
	for pos := range raw.Trans {
		posTags = append(posTags, pos)
	}
	sort.Strings(posTags)

	seen := make(map[string]struct{})
	for _, pos := range posTags {
		meaning := Meaning{PartOfSpeech: pos}
		for _, text := range raw.Trans[pos] {
			definition := strings.TrimSpace(text)
			if definition == "" {
				continue
			}
			meaning.Definitions = append(meaning.Definitions, Definition{Definition: definition})
			if _, dup := seen[definition]; !dup {
				seen[definition] = struct{}{}
				entry.Translations = append(entry.Translations, definition)
			}
		}
		if len(meaning.Definitions) > 0 {
			entry.Meanings = append(entry.Meanings, meaning)
		}
	}
	return entry
}

func normalizeKey(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), " ")
}
