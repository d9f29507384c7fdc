package inventory

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/inventory/pkg/middleware"
)

// loginRequest はトークン発行リクエストのJSON構造。
type loginRequest struct {
	// Email はトークンに埋め込む所有者ID。
	Email string `json:"email" binding:"required"`
}

// quantityRequest は在庫数更新リクエストのJSON構造。
type quantityRequest struct {
	// Quantity は新しい在庫数。
	Quantity *int `json:"quantity" binding:"required"`
}

// handleRoot は稼働確認の文言を返すハンドラを返す。
func (s *Server) handleRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, livenessMessage)
	}
}

// handleHealth はストアへの疎通を含めたヘルスチェックを処理するハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.repo.Ping(c.Request.Context()); err != nil {
			log.Printf("ヘルスチェックエラー: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": "inventory"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "inventory"})
	}
}

// handleLogin は指定された所有者IDのアクセストークンを発行するハンドラを返す。
// 資格情報は確認しない。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		token, err := middleware.GenerateJWT(s.jwtSecret, req.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの発行に失敗しました"})
			log.Printf("トークン発行エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"accessToken": token})
	}
}

// handleList は在庫一覧取得を処理するハンドラを返す。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := ParseWindow(c.Query("page"), c.Query("size"))
		if err != nil {
			respondError(c, err, "在庫一覧の取得")
			return
		}

		listings, err := s.repo.List(c.Request.Context(), w)
		if err != nil {
			respondError(c, err, "在庫一覧の取得")
			return
		}
		c.JSON(http.StatusOK, listings)
	}
}

// handleListByOwner はトークンの所有者の在庫一覧取得を処理するハンドラを返す。
// クエリの email がトークンの所有者IDと異なる場合は403を返す。
func (s *Server) handleListByOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		email, ok := requestedOwner(c, c.Query("email"))
		if !ok {
			return
		}

		w, err := ParseWindow(c.Query("page"), c.Query("size"))
		if err != nil {
			respondError(c, err, "在庫一覧の取得")
			return
		}

		listings, err := s.repo.ListByOwner(c.Request.Context(), email, w)
		if err != nil {
			respondError(c, err, "在庫一覧の取得")
			return
		}
		c.JSON(http.StatusOK, listings)
	}
}

// handleGetByID は在庫詳細取得を処理するハンドラを返す。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		l, err := s.repo.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "在庫の取得")
			return
		}
		c.JSON(http.StatusOK, l)
	}
}

// handleCount は全在庫の件数取得を処理するハンドラを返す。
func (s *Server) handleCount() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := s.repo.Count(c.Request.Context())
		if err != nil {
			respondError(c, err, "在庫件数の取得")
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": n})
	}
}

// handleCountByOwner は所有者ごとの在庫件数取得を処理するハンドラを返す。
func (s *Server) handleCountByOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		email, ok := requestedOwner(c, c.Param("email"))
		if !ok {
			return
		}

		n, err := s.repo.CountByOwner(c.Request.Context(), email)
		if err != nil {
			respondError(c, err, "在庫件数の取得")
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": n})
	}
}

// handleCreate は在庫作成を処理するハンドラを返す。
// ボディに含まれる _id は無視し、ストアが識別子を割り当てる。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var l Listing
		if err := c.ShouldBindJSON(&l); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}
		l.ID = ""

		res, err := s.repo.Create(c.Request.Context(), l)
		if err != nil {
			respondError(c, err, "在庫の作成")
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// handleUpdateQuantity は在庫数だけの更新を処理するハンドラを返す。
func (s *Server) handleUpdateQuantity() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req quantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		res, err := s.repo.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
		if err != nil {
			respondError(c, err, "在庫数の更新")
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// handleUpdate はボディで指定されたフィールドの更新を処理するハンドラを返す。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var fields Listing
		if err := c.ShouldBindJSON(&fields); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		res, err := s.repo.Update(c.Request.Context(), c.Param("id"), fields)
		if err != nil {
			respondError(c, err, "在庫の更新")
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// handleDelete は在庫削除を処理するハンドラを返す。
// 存在しない識別子の場合も deletedCount 0 で成功を返す。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := s.repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "在庫の削除")
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// requestedOwner は要求された所有者IDを決定する。
// 指定が無ければトークンの所有者IDを使い、異なる場合は403を返して false を返す。
func requestedOwner(c *gin.Context, requested string) (string, bool) {
	owner := middleware.GetEmail(c)
	if requested == "" {
		requested = owner
	}
	if requested != owner {
		c.JSON(http.StatusForbidden, gin.H{"error": "他の所有者の在庫にはアクセスできません"})
		return "", false
	}
	return requested, true
}

// respondError はリポジトリのエラーをステータスコードに変換して返す。
func respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrMalformedInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": action + "に失敗しました"})
		log.Printf("%sエラー: %v", action, err)
	}
}
