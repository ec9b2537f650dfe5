package db

import "testing"

func TestUseJSONHistory(t *testing.T) {
	tests := []struct {
		name   string
		dbType string
		want   bool
	}{
		{"default is database-backed", "", false},
		{"sqlite", "sqlite", false},
		{"mongo", "mongo", false},
		{"json", "json", true},
		{"json is case-insensitive", "JSON", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.dbType == "" {
				t.Setenv("DB_TYPE", "")
			} else {
				t.Setenv("DB_TYPE", tc.dbType)
			}
			if got := UseJSONHistory(); got != tc.want {
				t.Fatalf("UseJSONHistory() with DB_TYPE=%q = %v, want %v", tc.dbType, got, tc.want)
			}
		})
	}
}

func TestHistoryFilePath(t *testing.T) {
	t.Setenv("HISTORY_FILE", "")
	if got := HistoryFilePath(); got != "db/history.json" {
		t.Fatalf("expected default path db/history.json, got %q", got)
	}

	t.Setenv("HISTORY_FILE", "/var/lib/netshield/history.json")
	if got := HistoryFilePath(); got != "/var/lib/netshield/history.json" {
		t.Fatalf("expected overridden path, got %q", got)
	}
}
