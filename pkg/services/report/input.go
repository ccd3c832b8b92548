package report

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"github.com/de-tools/report-atlas/pkg/frame"
)

var (
	ErrInvalidInput   = errors.New("invalid report input")
	ErrUnknownElement = errors.New("unknown report element")
	ErrImageNotFound  = errors.New("image not found")
	ErrAlreadySent    = errors.New("report already sent")
)

type inputKind int

const (
	inputNone inputKind = iota
	inputName
	inputNames
	inputLiteral
	inputLiterals
)

// Input references the table(s) a block is built from: element nicknames
// or frames passed in directly. The zero value is invalid.
type Input struct {
	kind   inputKind
	names  []string
	frames []dataframe.DataFrame
}

// Name references one element by nickname.
func Name(name string) Input {
	return Input{kind: inputName, names: []string{name}}
}

// Names references several elements, joined left to right.
func Names(names ...string) Input {
	return Input{kind: inputNames, names: names}
}

// Literal uses df as is.
func Literal(df dataframe.DataFrame) Input {
	return Input{kind: inputLiteral, frames: []dataframe.DataFrame{df}}
}

// Literals joins the frames left to right.
func Literals(frames ...dataframe.DataFrame) Input {
	return Input{kind: inputLiterals, frames: frames}
}

func (in Input) String() string {
	switch in.kind {
	case inputName, inputNames:
		return fmt.Sprintf("%v", in.names)
	case inputLiteral, inputLiterals:
		return fmt.Sprintf("%d literal table(s)", len(in.frames))
	default:
		return "<none>"
	}
}

// resolve turns in into a single frame. Looked up tables that come back
// empty are left out of the join; literal frames are always joined.
func (b *Builder) resolve(in Input, how frame.JoinType, on []string) (dataframe.DataFrame, error) {
	switch in.kind {
	case inputName:
		return b.table(in.names[0])
	case inputNames:
		if len(in.names) == 0 {
			return dataframe.DataFrame{}, fmt.Errorf("%w: no table names", ErrInvalidInput)
		}
		frames := make([]dataframe.DataFrame, 0, len(in.names))
		for _, name := range in.names {
			df, err := b.table(name)
			if err != nil {
				return dataframe.DataFrame{}, err
			}
			frames = append(frames, df)
		}
		return frame.Fold(frames, how, true, on...)
	case inputLiteral:
		return in.frames[0], nil
	case inputLiterals:
		if len(in.frames) == 0 {
			return dataframe.DataFrame{}, fmt.Errorf("%w: no tables", ErrInvalidInput)
		}
		return frame.Fold(in.frames, how, false, on...)
	default:
		return dataframe.DataFrame{}, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}
}

func (b *Builder) table(name string) (dataframe.DataFrame, error) {
	v, ok := b.elements[name]
	if !ok {
		return dataframe.DataFrame{}, fmt.Errorf("%w: couldn't find table %q", ErrUnknownElement, name)
	}
	switch t := v.(type) {
	case dataframe.DataFrame:
		return t, nil
	case *dataframe.DataFrame:
		if t == nil {
			return dataframe.DataFrame{}, fmt.Errorf("%w: element %q is nil", ErrInvalidInput, name)
		}
		return *t, nil
	default:
		return dataframe.DataFrame{}, fmt.Errorf("%w: element %q is a %T, not a table", ErrInvalidInput, name, v)
	}
}
