package engine

import (
	"strconv"
	"strings"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/errs"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// noPos is used for stdlib-internal errors that have no meaningful
// source position of their own; the wrapping EvaluationError raised at
// the call site (transition.go's CallFunction path) already carries the
// real position.
var noPos = ast.Position{}

// registerStdlib installs the standard library of helper functions spec
// §6.2 allows the host to provide by registration. Installing them here
// as ordinary entries in Opts.Functions means a host that registers its
// own `chance` (or any other name below) silently overrides ours --
// engine.New calls registerStdlib after Opts.Functions already holds the
// caller's functions, and put skips every name that is already present.
func registerStdlib(e *Engine) {
	put := func(name string, fn HostFunction) {
		if _, exists := e.Opts.Functions[name]; !exists {
			e.Opts.Functions[name] = fn
		}
	}

	put("chance", func(args []values.Value) (values.Value, error) {
		n, err := stdlibInt(args, 0)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return values.Bool{Value: false}, nil
		}
		return values.Bool{Value: e.Rand.Intn(int(n)) == 0}, nil
	})

	put("random", func(args []values.Value) (values.Value, error) {
		lo, err := stdlibInt(args, 0)
		if err != nil {
			return nil, err
		}
		hi, err := stdlibInt(args, 1)
		if err != nil {
			return nil, err
		}
		if hi < lo {
			lo, hi = hi, lo
		}
		return values.Int{Value: lo + e.Rand.Int63n(hi-lo+1)}, nil
	})

	put("upperCase", func(args []values.Value) (values.Value, error) {
		s, err := stdlibText(args, 0)
		if err != nil {
			return nil, err
		}
		return values.Text{Value: strings.ToUpper(s)}, nil
	})

	put("lowerCase", func(args []values.Value) (values.Value, error) {
		s, err := stdlibText(args, 0)
		if err != nil {
			return nil, err
		}
		return values.Text{Value: strings.ToLower(s)}, nil
	})

	put("length", func(args []values.Value) (values.Value, error) {
		if len(args) != 1 {
			return nil, errs.NewEvaluationError(noPos, "length", stdlibArity(1, len(args)))
		}
		switch v := args[0].(type) {
		case values.Text:
			return values.Int{Value: int64(len([]rune(v.Value)))}, nil
		case values.Array:
			return values.Int{Value: int64(len(v.Elements))}, nil
		default:
			return nil, errs.NewEvaluationError(noPos, "length", stdlibTypeMismatch("text or array", args[0]))
		}
	})
}

func stdlibInt(args []values.Value, i int) (int64, error) {
	if i >= len(args) {
		return 0, errs.NewEvaluationError(noPos, "<stdlib>", stdlibArity(i+1, len(args)))
	}
	switch v := args[i].(type) {
	case values.Int:
		return v.Value, nil
	case values.Number:
		return int64(v.Value), nil
	default:
		return 0, errs.NewEvaluationError(noPos, "<stdlib>", stdlibTypeMismatch("integer", args[i]))
	}
}

func stdlibText(args []values.Value, i int) (string, error) {
	if i >= len(args) {
		return "", errs.NewEvaluationError(noPos, "<stdlib>", stdlibArity(i+1, len(args)))
	}
	t, ok := args[i].(values.Text)
	if !ok {
		return "", errs.NewEvaluationError(noPos, "<stdlib>", stdlibTypeMismatch("text", args[i]))
	}
	return t.Value, nil
}

type stdlibError struct{ msg string }

func (e stdlibError) Error() string { return e.msg }

func stdlibArity(want, got int) error {
	return stdlibError{msg: "expected at least " + strconv.Itoa(want) + " argument(s), got " + strconv.Itoa(got)}
}

func stdlibTypeMismatch(want string, got values.Value) error {
	return stdlibError{msg: "expected " + want + ", got " + values.Stringify(got)}
}
