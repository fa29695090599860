package types

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestScrapeTime_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		stamp ScrapeTime
		want  string
	}{
		{"timestamp marshals as number", ScrapeTime{Millis: 1700000000000}, "1700000000000"},
		{"errored marshals as sentinel", ScrapeErrored(), `"Error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.stamp)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestScrapeTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ScrapeTime
		wantErr bool
	}{
		{"number", "1700000000000", ScrapeTime{Millis: 1700000000000}, false},
		{"sentinel", `"Error"`, ScrapeTime{Errored: true}, false},
		{"unknown string", `"later"`, ScrapeTime{}, true},
		{"object", `{}`, ScrapeTime{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ScrapeTime
			err := json.Unmarshal([]byte(tt.input), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestScrapedAt_RoundTrip(t *testing.T) {
	now := time.Now()
	stamp := ScrapedAt(now)
	if stamp.Errored {
		t.Fatal("ScrapedAt should not be errored")
	}
	if got := stamp.Time().UnixMilli(); got != now.UnixMilli() {
		t.Errorf("Time() = %d, want %d", got, now.UnixMilli())
	}
}

func TestEntry_MarshalJSON_Flattened(t *testing.T) {
	latest := PackageRecord{
		Name:        "foo",
		Version:     "2.0.0",
		Gzip:        1024,
		Description: "test package",
		Repository:  "https://github.com/acme/foo",
	}
	entry := Entry{
		Records: map[string]PackageRecord{
			"2.0.0": latest,
			"1.9.0": {Name: "foo", Version: "1.9.0", Gzip: 1000},
		},
		Latest:      &latest,
		LastScraped: ScrapeTime{Millis: 42},
	}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("re-parse error: %v", err)
	}

	for _, key := range []string{"2.0.0", "1.9.0", "latest", "lastScraped"} {
		if _, ok := flat[key]; !ok {
			t.Errorf("marshalled entry missing key %q", key)
		}
	}
	if len(flat) != 4 {
		t.Errorf("marshalled entry has %d keys, want 4", len(flat))
	}
	if string(flat["lastScraped"]) != "42" {
		t.Errorf("lastScraped = %s, want 42", flat["lastScraped"])
	}
}

func TestEntry_UnmarshalJSON(t *testing.T) {
	input := `{
		"2.0.0": {"name": "foo", "version": "2.0.0", "gzip": 1024},
		"1.9.0": {"name": "foo", "version": "1.9.0", "gzip": 1000},
		"latest": {"name": "foo", "version": "2.0.0", "gzip": 1024},
		"lastScraped": "Error"
	}`

	var entry Entry
	if err := json.Unmarshal([]byte(input), &entry); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if len(entry.Records) != 2 {
		t.Errorf("len(Records) = %d, want 2", len(entry.Records))
	}
	if entry.Records["2.0.0"].Gzip != 1024 {
		t.Errorf("Records[2.0.0].Gzip = %d, want 1024", entry.Records["2.0.0"].Gzip)
	}
	if entry.Latest == nil || entry.Latest.Version != "2.0.0" {
		t.Errorf("Latest = %+v, want version 2.0.0", entry.Latest)
	}
	if !entry.LastScraped.Errored {
		t.Error("LastScraped should be errored")
	}
}

func TestEntry_JSONRoundTrip(t *testing.T) {
	latest := PackageRecord{Name: "bar", Version: "3.1.4", Gzip: 2048}
	original := Entry{
		Records:     map[string]PackageRecord{"3.1.4": latest},
		Latest:      &latest,
		LastScraped: ScrapeTime{Millis: 1700000000000},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var decoded Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
}

func TestEntry_Versions_NewestFirst(t *testing.T) {
	entry := Entry{
		Records: map[string]PackageRecord{
			"1.9.0":        {},
			"2.0.0":        {},
			"2.0.0-beta.1": {},
			"0.4.2":        {},
		},
	}

	got := entry.Versions()
	want := []string{"2.0.0", "2.0.0-beta.1", "1.9.0", "0.4.2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Versions() = %v, want %v", got, want)
	}
}

func TestDatabase_Names_Sorted(t *testing.T) {
	db := Database{
		"zebra": &Entry{},
		"alpha": &Entry{},
		"mango": &Entry{},
	}

	got := db.Names()
	want := []string{"alpha", "mango", "zebra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}
