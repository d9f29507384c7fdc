// 在庫サービスのエントリポイント。
// 自動車在庫の作成・取得・更新・削除・件数取得と、所有者向けトークンの発行を担当する。
package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/nao1215/inventory/internal/config"
	"github.com/nao1215/inventory/internal/inventory"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf(".envの読み込みに失敗: %v", err)
	}

	cfg, err := config.Load(os.Getenv("INVENTORY_CONFIG"))
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	repo, err := inventory.OpenRepository(context.Background(), cfg.Store)
	if err != nil {
		log.Fatalf("リポジトリの初期化に失敗: %v", err)
	}

	server := inventory.NewServer(cfg, repo)

	log.Printf("在庫サービスを起動します: :%s (store=%s)", cfg.Port, cfg.Store.Driver)
	if err := server.Run(); err != nil {
		_ = repo.Close(context.Background())
		log.Fatalf("在庫サービスの起動に失敗: %v", err)
	}
}
