package credential

import (
	"context"
	"fmt"

	supa "github.com/supabase-community/supabase-go"
)

// DefaultSecretsTable is the Supabase table holding name/value secret rows.
const DefaultSecretsTable = "secrets"

// SupabaseSource reads the key from a hosted secrets table with columns
// name and value. It is skipped when URL or ServiceKey is empty.
type SupabaseSource struct {
	URL        string
	ServiceKey string
	Table      string
	Key        string
}

type secretRow struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

func (s *SupabaseSource) Name() string { return "supabase" }

func (s *SupabaseSource) Lookup(context.Context) (string, error) {
	if s.URL == "" || s.ServiceKey == "" {
		return "", nil
	}
	table := s.Table
	if table == "" {
		table = DefaultSecretsTable
	}
	key := s.Key
	if key == "" {
		key = KeyName
	}

	client, err := supa.NewClient(s.URL, s.ServiceKey, nil)
	if err != nil {
		return "", fmt.Errorf("failed to connect to Supabase: %w", err)
	}

	var rows []secretRow
	_, err = client.From(table).Select("value", "exact", false).Eq("name", key).Limit(1, "").ExecuteTo(&rows)
	if err != nil {
		return "", fmt.Errorf("failed to query %s for %s: %w", table, key, err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].Value, nil
}
