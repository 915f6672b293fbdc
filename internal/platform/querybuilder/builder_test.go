package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("competition_code", "data_json").
		From("matches").
		Where(Eq("competition_code", "PL"), IsNull("deleted_at")).
		OrderBy("competition_code").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT competition_code, data_json FROM matches WHERE competition_code = ? AND deleted_at IS NULL ORDER BY competition_code LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "PL" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_UpsertSuffix(t *testing.T) {
	query, args, err := InsertInto("scorers").
		Columns("competition_code", "data_json").
		Values("SA", "[]").
		Suffix("ON CONFLICT(competition_code) DO UPDATE SET data_json = excluded.data_json").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO scorers (competition_code, data_json) VALUES (?, ?) " +
		"ON CONFLICT(competition_code) DO UPDATE SET data_json = excluded.data_json"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "SA" || args[1] != "[]" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("app_metadata").
		Set("value", "new").
		SetExpr("updated_at", "CURRENT_TIMESTAMP").
		Where(Eq("key", "ai_summary")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE app_metadata SET value = ?, updated_at = CURRENT_TIMESTAMP WHERE key = ?"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "new" || args[1] != "ai_summary" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		Code string `db:"competition_code"`
		Data string `db:"data_json"`
		skip string `db:"-"`
	}
	_ = row{}.skip

	query, args, err := InsertModel("standings", row{Code: "BL1", Data: "[]"}, "")
	if err != nil {
		t.Fatalf("build insert from model: %v", err)
	}

	wantQuery := "INSERT INTO standings (competition_code, data_json) VALUES (?, ?)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "BL1" || args[1] != "[]" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestExprConditionAppendsArgs(t *testing.T) {
	query, args, err := Select("key", "value").
		From("app_metadata").
		Where(Expr("updated_at >= ?", "2025-11-15T00:00:00Z")).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT key, value FROM app_metadata WHERE updated_at >= ?"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "2025-11-15T00:00:00Z" {
		t.Fatalf("unexpected args: %+v", args)
	}
}
