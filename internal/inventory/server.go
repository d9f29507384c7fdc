package inventory

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/inventory/internal/config"
	"github.com/nao1215/inventory/pkg/middleware"
)

// livenessMessage は GET / が返す稼働確認用の文言。
const livenessMessage = "Inventory Management Server Running!"

// Server は在庫サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// repo は cars コレクションのリポジトリ。プロセス全体で共有する。
	repo Repository
	// jwtSecret はアクセストークン署名用の秘密鍵。
	jwtSecret string
}

// NewServer は新しい在庫サーバーを生成する。
// repo は起動時に開いたものを渡し、サーバーはそれを閉じない。
func NewServer(cfg *config.Config, repo Repository) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:    router,
		port:      cfg.Port,
		repo:      repo,
		jwtSecret: cfg.JWTSecret,
	}
	s.setupRoutes()

	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Handler はルーティング済みのHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はAPIルーティングを設定する。
// 所有者ごとの一覧と件数だけがトークンを要求し、それ以外は認証不要。
func (s *Server) setupRoutes() {
	auth := middleware.JWTAuth(s.jwtSecret)

	// 稼働確認
	s.router.GET("/", s.handleRoot())
	// ヘルスチェック
	s.router.GET("/health", s.handleHealth())

	// アクセストークン発行
	s.router.POST("/login", s.handleLogin())

	// 在庫一覧（クエリパラメータ: page, size）
	s.router.GET("/cars", s.handleList())
	// 自分の在庫一覧（クエリパラメータ: page, size, email）
	s.router.GET("/cars/user", auth, s.handleListByOwner())
	// 在庫詳細取得
	s.router.GET("/cars/:id", s.handleGetByID())
	// 全フィールド更新
	s.router.PUT("/cars/:id", s.handleUpdate())

	// 在庫件数
	s.router.GET("/carCount", s.handleCount())
	// 所有者ごとの在庫件数
	s.router.GET("/carCount/:email", auth, s.handleCountByOwner())

	// 在庫作成
	s.router.POST("/add", s.handleCreate())
	// 在庫数の更新
	s.router.PUT("/car/:id", s.handleUpdateQuantity())
	// 在庫削除
	s.router.DELETE("/car/:id", s.handleDelete())
}
