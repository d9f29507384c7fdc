// Package inventory は自動車在庫（cars コレクション）を扱うHTTPサービスの内部実装を提供する。
//
// 各エンドポイントはリクエストを1回のリポジトリ操作に変換し、結果をそのままJSONで返す。
// 所有者ごとの一覧と件数のエンドポイントだけがBearerトークンを要求する。
// リポジトリはSQLite（既定）またはMongoDBをバックエンドとして選択できる。
package inventory
