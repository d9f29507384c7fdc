package migration

import (
	"database/sql"
	"slices"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

// openTestDB はテスト用のインメモリSQLiteを開く。
// インメモリDBは接続ごとに独立するため接続数を1に固定する。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"migrations/000002_add_dealer_index.up.sql": {Data: []byte("CREATE INDEX idx_cars_dealer ON cars(dealer);")},
		"migrations/000001_create_cars.up.sql":      {Data: []byte("CREATE TABLE cars (id TEXT PRIMARY KEY, dealer TEXT);")},
		"migrations/000001_create_cars.down.sql":    {Data: []byte("DROP TABLE cars;")},
		"migrations/README.md":                      {Data: []byte("notes")},
		"migrations/latest_fixups.up.sql":           {Data: []byte("SELECT 1;")},
	}
}

// TestCollect はマイグレーションファイルの収集を検証する。
func TestCollect(t *testing.T) {
	t.Parallel()

	files, err := Collect(testFS(), "migrations")
	if err != nil {
		t.Fatalf("Collect()でエラーが発生: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("ファイル数 = %d, want 2: %+v", len(files), files)
	}
	if files[0].Version != 1 || files[0].Name != "create_cars" || files[0].Path != "migrations/000001_create_cars.up.sql" {
		t.Errorf("files[0] = %+v", files[0])
	}
	if files[1].Version != 2 || files[1].Name != "add_dealer_index" {
		t.Errorf("files[1] = %+v", files[1])
	}
}

// TestRun はマイグレーションの適用を検証する。
func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("未適用のマイグレーションが順番に適用されること", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)

		applied, err := Run(t.Context(), db, testFS(), "migrations")
		if err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}
		if !slices.Equal(applied, []int{1, 2}) {
			t.Errorf("適用バージョン = %v, want [1 2]", applied)
		}

		if _, err := db.Exec("INSERT INTO cars (id, dealer) VALUES ('a', 'Tokyo Motors')"); err != nil {
			t.Errorf("作成されたテーブルへの挿入に失敗: %v", err)
		}
	})

	t.Run("2回目の実行では何も適用されないこと", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)

		if _, err := Run(t.Context(), db, testFS(), "migrations"); err != nil {
			t.Fatalf("1回目のRun()でエラーが発生: %v", err)
		}
		applied, err := Run(t.Context(), db, testFS(), "migrations")
		if err != nil {
			t.Fatalf("2回目のRun()でエラーが発生: %v", err)
		}
		if len(applied) != 0 {
			t.Errorf("適用バージョン = %v, want empty", applied)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("バージョン数の取得に失敗: %v", err)
		}
		if count != 2 {
			t.Errorf("記録されたバージョン数 = %d, want 2", count)
		}
	})

	t.Run("SQLが失敗した場合はバージョンが記録されないこと", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)

		fsys := fstest.MapFS{
			"migrations/000001_broken.up.sql": {Data: []byte("CREATE TABLE;")},
		}
		if _, err := Run(t.Context(), db, fsys, "migrations"); err == nil {
			t.Fatal("不正なSQLでエラーが返るべき")
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("バージョン数の取得に失敗: %v", err)
		}
		if count != 0 {
			t.Errorf("記録されたバージョン数 = %d, want 0", count)
		}
	})
}
