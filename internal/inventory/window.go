package inventory

import (
	"fmt"
	"strconv"
)

// Window は一覧取得の範囲をskip/limitで表す。
// Limit が0の場合は件数を制限しない。ゼロ値は全件を表す。
type Window struct {
	Skip  int64
	Limit int64
}

// ParseWindow はクエリパラメータ page と size から取得範囲を求める。
//
// 空文字列は未指定として0とみなす。どちらかが0でなければ
// skip = page*size, limit = size とする。片方だけ指定された場合も
// 同じ式で計算するため、size だけなら先頭 size 件、page だけなら全件になる。
func ParseWindow(page, size string) (Window, error) {
	p, err := parseNonNegative("page", page)
	if err != nil {
		return Window{}, err
	}
	s, err := parseNonNegative("size", size)
	if err != nil {
		return Window{}, err
	}
	if p == 0 && s == 0 {
		return Window{}, nil
	}
	return Window{Skip: p * s, Limit: s}, nil
}

// Paged は件数制限またはスキップが指定されているかどうかを返す。
func (w Window) Paged() bool {
	return w.Skip > 0 || w.Limit > 0
}

func parseNonNegative(name, value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %sは0以上の整数で指定してください", ErrMalformedInput, name)
	}
	return n, nil
}
