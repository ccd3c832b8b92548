package frame

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

type JoinType string

const (
	JoinOuter JoinType = "outer"
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinCross JoinType = "cross"
)

// rowIndex is the synthetic key used when tables are joined on row position.
const rowIndex = "__row__"

var ErrUnsupportedJoin = errors.New("unsupported join type")

func ParseJoinType(s string) (JoinType, error) {
	switch jt := JoinType(strings.ToLower(strings.TrimSpace(s))); jt {
	case JoinOuter, JoinInner, JoinLeft, JoinRight, JoinCross:
		return jt, nil
	case "":
		return JoinOuter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedJoin, s)
	}
}

// Join joins b onto a. Without key columns the frames are joined on row
// position. Keyed results are sorted by the key columns.
func Join(a, b dataframe.DataFrame, how JoinType, on ...string) (dataframe.DataFrame, error) {
	if how == JoinCross {
		out := a.CrossJoin(b)
		if out.Err != nil {
			return out, fmt.Errorf("cross join: %w", out.Err)
		}
		return out, nil
	}

	keys := on
	byPosition := len(on) == 0
	if byPosition {
		a = withRowIndex(a)
		b = withRowIndex(b)
		keys = []string{rowIndex}
	}

	var out dataframe.DataFrame
	switch how {
	case JoinOuter:
		out = a.OuterJoin(b, keys...)
	case JoinInner:
		out = a.InnerJoin(b, keys...)
	case JoinLeft:
		out = a.LeftJoin(b, keys...)
	case JoinRight:
		out = a.RightJoin(b, keys...)
	default:
		return dataframe.DataFrame{}, fmt.Errorf("%w: %q", ErrUnsupportedJoin, how)
	}
	if out.Err != nil {
		return out, fmt.Errorf("%s join on %v: %w", how, on, out.Err)
	}

	order := make([]dataframe.Order, 0, len(keys))
	for _, k := range keys {
		order = append(order, dataframe.Sort(k))
	}
	out = out.Arrange(order...)
	if byPosition {
		out = out.Drop(rowIndex)
	}
	if out.Err != nil {
		return out, fmt.Errorf("%s join on %v: %w", how, on, out.Err)
	}
	return out, nil
}

// Fold joins frames left to right. With skipEmpty, frames after the first
// that have no rows are left out of the fold.
func Fold(frames []dataframe.DataFrame, how JoinType, skipEmpty bool, on ...string) (dataframe.DataFrame, error) {
	if len(frames) == 0 {
		return dataframe.DataFrame{}, errors.New("nothing to join")
	}

	base := frames[0]
	for i, next := range frames[1:] {
		if skipEmpty && next.Nrow() == 0 {
			continue
		}
		joined, err := Join(base, next, how, on...)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("table %d: %w", i+1, err)
		}
		base = joined
	}
	return base, nil
}

// Select keeps only the named columns, in the given order.
func Select(df dataframe.DataFrame, columns ...string) (dataframe.DataFrame, error) {
	if len(columns) == 0 {
		return df, nil
	}
	out := df.Select(columns)
	if out.Err != nil {
		return out, fmt.Errorf("select columns %v: %w", columns, out.Err)
	}
	return out, nil
}

func withRowIndex(df dataframe.DataFrame) dataframe.DataFrame {
	idx := make([]int, df.Nrow())
	for i := range idx {
		idx[i] = i
	}
	return df.Mutate(series.New(idx, series.Int, rowIndex))
}
