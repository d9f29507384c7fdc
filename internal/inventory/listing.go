package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound は指定された識別子の在庫が存在しないことを表す。
	ErrNotFound = errors.New("在庫が見つかりません")
	// ErrMalformedInput は識別子やページング指定などの入力が解釈できないことを表す。
	ErrMalformedInput = errors.New("入力が不正です")
	// ErrMalformedID は識別子がバックエンドの形式に合わないことを表す。
	ErrMalformedID = fmt.Errorf("%w: 識別子の形式が不正です", ErrMalformedInput)
)

// Listing は1台分の在庫ドキュメント。
// 識別子以外は全て任意で、nilのフィールドはドキュメントに存在しない。
type Listing struct {
	// ID はストアが割り当てる識別子。作成後は変更されない。
	ID string `json:"_id,omitempty" bson:"-"`
	// Email は在庫の所有者ID。作成時にクライアントが指定する。
	Email *string `json:"email,omitempty" bson:"email,omitempty"`
	// Model は車種名。
	Model *string `json:"model,omitempty" bson:"model,omitempty"`
	// Image は画像のURL。
	Image *string `json:"image,omitempty" bson:"image,omitempty"`
	// Price は価格。
	Price *float64 `json:"price,omitempty" bson:"price,omitempty"`
	// Year は年式。
	Year *int `json:"year,omitempty" bson:"year,omitempty"`
	// Engine はエンジン種別。
	Engine *string `json:"engine,omitempty" bson:"engine,omitempty"`
	// Body はボディタイプ。
	Body *string `json:"body,omitempty" bson:"body,omitempty"`
	// Transmission は変速機の種類。
	Transmission *string `json:"transmission,omitempty" bson:"transmission,omitempty"`
	// Color は車体色。
	Color *string `json:"color,omitempty" bson:"color,omitempty"`
	// Doors はドア数。
	Doors *int `json:"doors,omitempty" bson:"doors,omitempty"`
	// Quantity は在庫数。単独で更新できる。
	Quantity *int `json:"quantity,omitempty" bson:"quantity,omitempty"`
	// Dealer は販売店名。
	Dealer *string `json:"dealer,omitempty" bson:"dealer,omitempty"`
}

// InsertResult は作成操作の結果。
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult は更新操作の結果。存在しない識別子への更新は新規作成として数える。
type UpdateResult struct {
	Acknowledged  bool   `json:"acknowledged"`
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	UpsertedCount int64  `json:"upsertedCount"`
	UpsertedID    string `json:"upsertedId,omitempty"`
}

// DeleteResult は削除操作の結果。DeletedCount は0か1。
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// assignment は更新で設定するフィールド名と値の組。
type assignment struct {
	name  string
	value any
}

// updatable は全フィールド更新で書き換え可能なフィールドだけを残した複製を返す。
// 識別子と所有者IDは更新の対象外。
func (l Listing) updatable() Listing {
	l.ID = ""
	l.Email = nil
	return l
}

// assignments は値が指定されているフィールドをドキュメントのキー名と共に返す。
func (l Listing) assignments() []assignment {
	var out []assignment
	out = appendAssignment(out, "email", l.Email)
	out = appendAssignment(out, "model", l.Model)
	out = appendAssignment(out, "image", l.Image)
	out = appendAssignment(out, "price", l.Price)
	out = appendAssignment(out, "year", l.Year)
	out = appendAssignment(out, "engine", l.Engine)
	out = appendAssignment(out, "body", l.Body)
	out = appendAssignment(out, "transmission", l.Transmission)
	out = appendAssignment(out, "color", l.Color)
	out = appendAssignment(out, "doors", l.Doors)
	out = appendAssignment(out, "quantity", l.Quantity)
	out = appendAssignment(out, "dealer", l.Dealer)
	return out
}

func appendAssignment[T any](out []assignment, name string, v *T) []assignment {
	if v == nil {
		return out
	}
	return append(out, assignment{name: name, value: *v})
}

// merge は fields で指定された値を l に上書きし、値が変わったかどうかを返す。
func (l *Listing) merge(fields Listing) bool {
	changed := false
	changed = mergeField(&l.Email, fields.Email) || changed
	changed = mergeField(&l.Model, fields.Model) || changed
	changed = mergeField(&l.Image, fields.Image) || changed
	changed = mergeField(&l.Price, fields.Price) || changed
	changed = mergeField(&l.Year, fields.Year) || changed
	changed = mergeField(&l.Engine, fields.Engine) || changed
	changed = mergeField(&l.Body, fields.Body) || changed
	changed = mergeField(&l.Transmission, fields.Transmission) || changed
	changed = mergeField(&l.Color, fields.Color) || changed
	changed = mergeField(&l.Doors, fields.Doors) || changed
	changed = mergeField(&l.Quantity, fields.Quantity) || changed
	changed = mergeField(&l.Dealer, fields.Dealer) || changed
	return changed
}

func mergeField[T comparable](dst **T, src *T) bool {
	if src == nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	v := *src
	*dst = &v
	return true
}
