// Package middleware は在庫サービスのGinルーターで使用する共通ミドルウェアを提供する。
//
// アクセストークンの発行と検証、パニックリカバリ、CORS設定を含む。
// アクセストークンは所有者ID（メールアドレス）だけを運ぶHS256署名のJWTで、
// 発行から24時間で失効する。
package middleware
