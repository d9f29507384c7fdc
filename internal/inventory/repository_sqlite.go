package inventory

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nao1215/inventory/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// memoryPath はインメモリSQLiteを表すパス。
const memoryPath = ":memory:"

// listingColumns はSELECTとINSERTで共通に使う列の並び。
const listingColumns = `id, email, model, image, price, year, engine, body,
	transmission, color, doors, quantity, dealer`

const (
	selectByIDQuery = `SELECT ` + listingColumns + ` FROM cars WHERE id = ?`
	insertQuery     = `INSERT INTO cars (` + listingColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	updateQuery = `UPDATE cars SET email = ?, model = ?, image = ?, price = ?, year = ?,
	engine = ?, body = ?, transmission = ?, color = ?, doors = ?, quantity = ?, dealer = ?
	WHERE id = ?`
)

// dbtx は *sql.DB と *sql.Tx の共通部分。
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner は *sql.Row と *sql.Rows の共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

// SQLiteRepository はSQLiteの cars テーブルをドキュメントストアとして扱うリポジトリ。
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite はSQLiteデータベースを開き、マイグレーションを適用する。
// path に ":memory:" を指定するとインメモリデータベースを使う。
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	dsn := memoryPath
	if path != memoryPath {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if path == memoryPath {
		// インメモリDBは接続ごとに別のデータベースになる
		db.SetMaxOpenConns(1)
	}

	repo, err := NewSQLiteRepository(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLiteRepository は既存の接続にマイグレーションを適用してリポジトリを生成する。
func NewSQLiteRepository(ctx context.Context, db *sql.DB) (*SQLiteRepository, error) {
	if _, err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// List は識別子の降順で在庫を返す。
func (r *SQLiteRepository) List(ctx context.Context, w Window) ([]Listing, error) {
	query, args := windowed(`SELECT `+listingColumns+` FROM cars ORDER BY id DESC`, w)
	return r.query(ctx, query, args...)
}

// ListByOwner は所有者IDが一致する在庫を識別子の降順で返す。
func (r *SQLiteRepository) ListByOwner(ctx context.Context, email string, w Window) ([]Listing, error) {
	query, args := windowed(`SELECT `+listingColumns+` FROM cars WHERE email = ? ORDER BY id DESC`, w, email)
	return r.query(ctx, query, args...)
}

// Get は識別子で在庫を1件取得する。
func (r *SQLiteRepository) Get(ctx context.Context, id string) (Listing, error) {
	key, err := parseListingID(id)
	if err != nil {
		return Listing{}, err
	}

	l, err := scanListing(r.db.QueryRowContext(ctx, selectByIDQuery, key))
	if errors.Is(err, sql.ErrNoRows) {
		return Listing{}, ErrNotFound
	}
	if err != nil {
		return Listing{}, fmt.Errorf("在庫の取得に失敗: %w", err)
	}
	return l, nil
}

// Create は新しいUUIDv7を割り当てて在庫を作成する。
func (r *SQLiteRepository) Create(ctx context.Context, l Listing) (InsertResult, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return InsertResult{}, fmt.Errorf("識別子の生成に失敗: %w", err)
	}
	l.ID = id.String()

	if err := insertListing(ctx, r.db, l); err != nil {
		return InsertResult{}, fmt.Errorf("在庫の作成に失敗: %w", err)
	}
	return InsertResult{Acknowledged: true, InsertedID: l.ID}, nil
}

// UpdateQuantity は在庫数だけを更新する。
func (r *SQLiteRepository) UpdateQuantity(ctx context.Context, id string, quantity int) (UpdateResult, error) {
	return r.upsert(ctx, id, Listing{Quantity: &quantity})
}

// Update は指定されたフィールドを更新する。識別子と所有者IDは変更しない。
func (r *SQLiteRepository) Update(ctx context.Context, id string, fields Listing) (UpdateResult, error) {
	return r.upsert(ctx, id, fields.updatable())
}

// upsert は読み込み、マージ、書き込みを1つのトランザクションで行う。
// 該当する在庫が無ければ指定フィールドだけを持つ在庫をその識別子で作成する。
func (r *SQLiteRepository) upsert(ctx context.Context, id string, fields Listing) (UpdateResult, error) {
	key, err := parseListingID(id)
	if err != nil {
		return UpdateResult{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := scanListing(tx.QueryRowContext(ctx, selectByIDQuery, key))
	var result UpdateResult
	switch {
	case errors.Is(err, sql.ErrNoRows):
		fields.ID = key
		if err := insertListing(ctx, tx, fields); err != nil {
			return UpdateResult{}, fmt.Errorf("在庫の作成に失敗: %w", err)
		}
		result = UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: key}
	case err != nil:
		return UpdateResult{}, fmt.Errorf("在庫の取得に失敗: %w", err)
	default:
		result = UpdateResult{Acknowledged: true, MatchedCount: 1}
		if current.merge(fields) {
			if _, err := tx.ExecContext(ctx, updateQuery, append(listingArgs(current)[1:], key)...); err != nil {
				return UpdateResult{}, fmt.Errorf("在庫の更新に失敗: %w", err)
			}
			result.ModifiedCount = 1
		}
	}

	if err := tx.Commit(); err != nil {
		return UpdateResult{}, fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}
	return result, nil
}

// Delete は識別子で在庫を1件削除する。
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (DeleteResult, error) {
	key, err := parseListingID(id)
	if err != nil {
		return DeleteResult{}, err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM cars WHERE id = ?`, key)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("在庫の削除に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return DeleteResult{}, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}

// Count は全在庫の件数を返す。
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cars`).Scan(&n); err != nil {
		return 0, fmt.Errorf("在庫件数の取得に失敗: %w", err)
	}
	return n, nil
}

// CountByOwner は所有者IDが一致する在庫の件数を返す。
func (r *SQLiteRepository) CountByOwner(ctx context.Context, email string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cars WHERE email = ?`, email).Scan(&n); err != nil {
		return 0, fmt.Errorf("在庫件数の取得に失敗: %w", err)
	}
	return n, nil
}

// Ping はデータベースへの疎通を確認する。
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close はデータベース接続を閉じる。
func (r *SQLiteRepository) Close(_ context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("在庫一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	listings := make([]Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("在庫の読み込みに失敗: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("在庫一覧の取得に失敗: %w", err)
	}
	return listings, nil
}

// windowed はクエリに LIMIT/OFFSET を付与する。SQLiteでは負のLIMITが無制限を表す。
func windowed(query string, w Window, args ...any) (string, []any) {
	if !w.Paged() {
		return query, args
	}
	limit := w.Limit
	if limit == 0 {
		limit = -1
	}
	return query + ` LIMIT ? OFFSET ?`, append(args, limit, w.Skip)
}

// parseListingID は識別子をUUIDとして解釈し、正規化した文字列を返す。
func parseListingID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedID, id)
	}
	return u.String(), nil
}

func scanListing(s rowScanner) (Listing, error) {
	var l Listing
	err := s.Scan(
		&l.ID, &l.Email, &l.Model, &l.Image, &l.Price, &l.Year, &l.Engine, &l.Body,
		&l.Transmission, &l.Color, &l.Doors, &l.Quantity, &l.Dealer,
	)
	return l, err
}

func insertListing(ctx context.Context, q dbtx, l Listing) error {
	_, err := q.ExecContext(ctx, insertQuery, listingArgs(l)...)
	return err
}

// listingArgs は listingColumns の順に値を並べる。nilのフィールドはNULLになる。
func listingArgs(l Listing) []any {
	return []any{
		l.ID,
		nullable(l.Email), nullable(l.Model), nullable(l.Image), nullable(l.Price),
		nullableInt(l.Year), nullable(l.Engine), nullable(l.Body), nullable(l.Transmission),
		nullable(l.Color), nullableInt(l.Doors), nullableInt(l.Quantity), nullable(l.Dealer),
	}
}

func nullable[T string | float64](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}
