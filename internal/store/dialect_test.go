package store

import "testing"

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		query  string
		want   string
	}{
		{DriverPostgres, "SELECT 1 WHERE a = ? AND b = ?", "SELECT 1 WHERE a = $1 AND b = $2"},
		{DriverPostgres, "SELECT 1", "SELECT 1"},
		{DriverSQLite, "SELECT 1 WHERE a = ? AND b = ?", "SELECT 1 WHERE a = ? AND b = ?"},
	}

	for _, tt := range tests {
		d, err := dialectFor(tt.driver)
		if err != nil {
			t.Fatalf("dialectFor(%q) error = %v", tt.driver, err)
		}
		if got := d.rebind(tt.query); got != tt.want {
			t.Errorf("%s rebind(%q) = %q, want %q", tt.driver, tt.query, got, tt.want)
		}
	}
}

func TestDialectFor_Unknown(t *testing.T) {
	if _, err := dialectFor("mysql"); err == nil {
		t.Error("dialectFor(mysql) should fail")
	}
}

func TestAggregate(t *testing.T) {
	if got := dialects[DriverPostgres].aggregate("p.product_name"); got != "STRING_AGG(p.product_name, ', ')" {
		t.Errorf("postgres aggregate = %q", got)
	}
	if got := dialects[DriverSQLite].aggregate("p.product_name"); got != "GROUP_CONCAT(p.product_name, ', ')" {
		t.Errorf("sqlite aggregate = %q", got)
	}
}
