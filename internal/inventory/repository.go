package inventory

import (
	"context"
	"fmt"

	"github.com/nao1215/inventory/internal/config"
)

// Repository は cars コレクションに対する操作。
// 各メソッドはストアへの1回の操作に対応し、ストアの結果をそのまま返す。
type Repository interface {
	// List は識別子の降順（新しい順）で在庫を返す。
	List(ctx context.Context, w Window) ([]Listing, error)
	// ListByOwner は所有者IDが一致する在庫を識別子の降順で返す。
	ListByOwner(ctx context.Context, email string, w Window) ([]Listing, error)
	// Get は識別子で在庫を1件取得する。存在しない場合は ErrNotFound を返す。
	Get(ctx context.Context, id string) (Listing, error)
	// Create は在庫を新規作成し、割り当てた識別子を返す。
	Create(ctx context.Context, l Listing) (InsertResult, error)
	// UpdateQuantity は在庫数だけを更新する。存在しなければ作成する。
	UpdateQuantity(ctx context.Context, id string, quantity int) (UpdateResult, error)
	// Update は指定されたフィールドを更新する。存在しなければ作成する。
	Update(ctx context.Context, id string, fields Listing) (UpdateResult, error)
	// Delete は識別子で在庫を1件削除する。
	Delete(ctx context.Context, id string) (DeleteResult, error)
	// Count は全在庫の件数を返す。
	Count(ctx context.Context) (int64, error)
	// CountByOwner は所有者IDが一致する在庫の件数を返す。
	CountByOwner(ctx context.Context, email string) (int64, error)
	// Ping はストアへの疎通を確認する。
	Ping(ctx context.Context) error
	// Close はストアへの接続を閉じる。
	Close(ctx context.Context) error
}

// OpenRepository は設定されたドライバーでリポジトリを開く。
// プロセス起動時に1度だけ呼び出し、以降は同じ接続を使い回す。
func OpenRepository(ctx context.Context, cfg config.StoreConfig) (Repository, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.DriverMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.Collection)
	default:
		return nil, fmt.Errorf("未知のストアドライバーです: %q", cfg.Driver)
	}
}
